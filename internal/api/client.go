package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API root (e.g., https://jobs.example.com). Paths are
	// appended as /api/...
	BaseURL string

	// RequestTimeout bounds each call. Zero leaves only the caller's context.
	RequestTimeout time.Duration

	// HTTPClient is used for all requests. If nil, a client with
	// RequestTimeout is created.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is a thin HTTP client for the job-board REST API. The bearer
// credential is passed per call since it belongs to the session, not
// the client.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewClient creates a new API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.RequestTimeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		httpClient:     httpClient,
		requestTimeout: config.RequestTimeout,
		logger:         logger,
	}, nil
}

// ListMyInquiries returns the caller's own inquiries.
func (c *Client) ListMyInquiries(ctx context.Context, token string) ([]Inquiry, error) {
	var resp ListResponse[Inquiry]
	if err := c.do(ctx, token, http.MethodGet, "/api/inquiries/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing my inquiries: %w", err)
	}
	return resp.Items, nil
}

// ListMyReports returns the caller's own reports.
func (c *Client) ListMyReports(ctx context.Context, token string) ([]Report, error) {
	var resp ListResponse[Report]
	if err := c.do(ctx, token, http.MethodGet, "/api/reports/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing my reports: %w", err)
	}
	return resp.Items, nil
}

// ListAdminInquiries returns every inquiry visible to an admin.
func (c *Client) ListAdminInquiries(ctx context.Context, token string) ([]Inquiry, error) {
	var resp ListResponse[Inquiry]
	if err := c.do(ctx, token, http.MethodGet, "/api/admin/inquiries", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing admin inquiries: %w", err)
	}
	return resp.Items, nil
}

// ListAdminReports returns every report visible to an admin.
func (c *Client) ListAdminReports(ctx context.Context, token string) ([]Report, error) {
	var resp ListResponse[Report]
	if err := c.do(ctx, token, http.MethodGet, "/api/admin/reports", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing admin reports: %w", err)
	}
	return resp.Items, nil
}

// GetInquiry fetches one inquiry through the admin detail endpoint.
func (c *Client) GetInquiry(ctx context.Context, token, id string) (*Inquiry, error) {
	var resp DetailResponse[Inquiry]
	path := "/api/admin/inquiries/" + url.PathEscape(id)
	if err := c.do(ctx, token, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching inquiry %s: %w", id, err)
	}
	if resp.Success != nil && !*resp.Success {
		return nil, &RemoteError{Method: http.MethodGet, Path: path, StatusCode: http.StatusOK}
	}
	return &resp.Item, nil
}

// GetReport fetches one report through the admin detail endpoint.
func (c *Client) GetReport(ctx context.Context, token, id string) (*Report, error) {
	var resp DetailResponse[Report]
	path := "/api/admin/reports/" + url.PathEscape(id)
	if err := c.do(ctx, token, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching report %s: %w", id, err)
	}
	if resp.Success != nil && !*resp.Success {
		return nil, &RemoteError{Method: http.MethodGet, Path: path, StatusCode: http.StatusOK}
	}
	return &resp.Item, nil
}

// Delete removes one of the caller's own resources from collection
// ("inquiries" or "reports").
func (c *Client) Delete(ctx context.Context, token, collection, id string) error {
	path := "/api/" + collection + "/" + url.PathEscape(id)
	if err := c.doResult(ctx, token, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("deleting %s %s: %w", collection, id, err)
	}
	return nil
}

// Answer sends an admin answer together with the resolving status.
func (c *Client) Answer(ctx context.Context, token, collection, id string, req AnswerRequest) error {
	path := "/api/admin/" + collection + "/" + url.PathEscape(id)
	if err := c.doResult(ctx, token, http.MethodPatch, path, req); err != nil {
		return fmt.Errorf("answering %s %s: %w", collection, id, err)
	}
	return nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context, token string) (int, error) {
	var resp UnreadResponse
	if err := c.do(ctx, token, http.MethodGet, "/api/notifications?unreadOnly=true", nil, &resp); err != nil {
		return 0, fmt.Errorf("fetching unread notifications: %w", err)
	}
	return resp.Count(), nil
}

// MarkNotificationRead marks a single notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, token, id string) error {
	path := "/api/notifications/" + url.PathEscape(id) + "/read"
	if err := c.doResult(ctx, token, http.MethodPatch, path, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, token string) error {
	if err := c.doResult(ctx, token, http.MethodPatch, "/api/notifications/read-all", nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// doResult performs a mutating call and turns an explicit success:false
// into a RemoteError.
func (c *Client) doResult(
	ctx context.Context,
	token string,
	method string,
	path string,
	body any,
) error {
	var result ResultResponse
	if err := c.do(ctx, token, method, path, body, &result); err != nil {
		return err
	}
	if result.failed() {
		return &RemoteError{
			Method:     method,
			Path:       path,
			StatusCode: http.StatusOK,
			Message:    result.Message,
		}
	}
	return nil
}

// do builds the request, applies bearer auth and the per-call timeout,
// and maps failures onto the error taxonomy. There is no retry.
func (c *Client) do(
	ctx context.Context,
	token string,
	method string,
	path string,
	body any,
	result any,
) error {
	if token == "" {
		return ErrAuthRequired
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api request failed",
			"method", method, "path", path, "error", err)
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}

	c.logger.Debug("api request",
		"method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Method: method, Path: path}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &RemoteError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("malformed response: %v", err),
		}
	}

	return nil
}

// errorMessage extracts a message from an error body of the form
// {message} or {error}, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
