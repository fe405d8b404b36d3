package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/tests/testutil"
)

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := api.NewClient(api.ClientConfig{BaseURL: "http://localhost:8080/"})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("empty URL", func(t *testing.T) {
		_, err := api.NewClient(api.ClientConfig{})
		assert.Error(t, err)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := api.NewClient(api.ClientConfig{BaseURL: "://invalid"})
		assert.Error(t, err)
	})
}

func TestListMyInquiries(t *testing.T) {
	server := testutil.NewAPIServer(t)
	server.Handle(http.MethodGet, "/api/inquiries/me", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": 7, "type": "bug", "content": "crash", "status": "OPEN", "createdAt": "2026-01-02T03:04:05Z"},
				{"id": "abc", "type": "PRAISE", "content": "thanks", "status": "DONE"},
			},
		})
	})

	items, err := server.Client(t).ListMyInquiries(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, api.ID("7"), items[0].ID)
	assert.Equal(t, api.ID("abc"), items[1].ID)
	assert.Equal(t, "crash", items[0].Content)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "Bearer tok", requests[0].Auth)
}

func TestEmptyTokenSkipsRequest(t *testing.T) {
	server := testutil.NewAPIServer(t)

	_, err := server.Client(t).ListMyReports(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrAuthRequired))
	assert.Equal(t, 0, server.RequestCount())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		kind    api.Kind
		message string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: map[string]any{}, kind: api.KindAuthRequired},
		{name: "server error", status: http.StatusInternalServerError, body: map[string]any{"message": "boom"}, kind: api.KindRemote, message: "boom"},
		{name: "forbidden", status: http.StatusForbidden, body: map[string]any{"error": "admins only"}, kind: api.KindRemote, message: "admins only"},
		{name: "success false", status: http.StatusOK, body: map[string]any{"success": false, "message": "not yours"}, kind: api.KindRemote, message: "not yours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewAPIServer(t)
			server.JSON(http.MethodDelete, "/api/reports/5", tt.status, tt.body)

			err := server.Client(t).Delete(context.Background(), "tok", "reports", "5")
			require.Error(t, err)
			assert.Equal(t, tt.kind, api.KindOf(err))

			if tt.message != "" {
				var remoteErr *api.RemoteError
				require.True(t, errors.As(err, &remoteErr))
				assert.Equal(t, tt.message, remoteErr.Message)
			}
		})
	}
}

func TestDeleteSuccess(t *testing.T) {
	server := testutil.NewAPIServer(t)
	server.JSON(http.MethodDelete, "/api/inquiries/5", http.StatusOK, map[string]any{"success": true})

	err := server.Client(t).Delete(context.Background(), "tok", "inquiries", "5")
	assert.NoError(t, err)
}

func TestTransportFailure(t *testing.T) {
	server := testutil.NewAPIServer(t)
	client := server.Client(t)
	server.Close()

	_, err := client.UnreadCount(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, api.KindTransport, api.KindOf(err))
	assert.Equal(t, api.UserMessage(&api.RemoteError{}), api.UserMessage(err))
}

func TestRequestTimeout(t *testing.T) {
	server := testutil.NewAPIServer(t)
	release := make(chan struct{})
	defer close(release)
	server.Handle(http.MethodGet, "/api/reports/me", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:        server.URL,
		RequestTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.ListMyReports(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, api.KindTransport, api.KindOf(err))
}

func TestAnswerBody(t *testing.T) {
	server := testutil.NewAPIServer(t)
	server.JSON(http.MethodPatch, "/api/admin/reports/9", http.StatusOK, map[string]any{"success": true})

	err := server.Client(t).Answer(context.Background(), "tok", "reports", "9", api.AnswerRequest{
		Answer: "removed the post",
		Status: "CLOSED",
	})
	require.NoError(t, err)

	requests := server.Requests()
	require.Len(t, requests, 1)
	var body map[string]string
	require.NoError(t, json.Unmarshal(requests[0].Body, &body))
	assert.Equal(t, map[string]string{"answer": "removed the post", "status": "CLOSED"}, body)
}

func TestGetInquiryDetail(t *testing.T) {
	server := testutil.NewAPIServer(t)
	server.JSON(http.MethodGet, "/api/admin/inquiries/3", http.StatusOK, map[string]any{
		"item":    map[string]any{"id": 3, "type": "SERVICE", "content": "hello", "status": "OPEN"},
		"success": true,
	})
	server.JSON(http.MethodGet, "/api/admin/inquiries/4", http.StatusOK, map[string]any{"success": false})

	item, err := server.Client(t).GetInquiry(context.Background(), "tok", "3")
	require.NoError(t, err)
	assert.Equal(t, "hello", item.Content)

	_, err = server.Client(t).GetInquiry(context.Background(), "tok", "4")
	assert.Equal(t, api.KindRemote, api.KindOf(err))
}

func TestUnreadCount(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "total", body: `{"total": 3}`, want: 3},
		{name: "string total", body: `{"total": "2"}`, want: 2},
		{name: "data list", body: `{"data": [{"id": 1}, {"id": 2}]}`, want: 2},
		{name: "empty", body: `{"data": []}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewAPIServer(t)
			server.Handle(http.MethodGet, "/api/notifications", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "true", r.URL.Query().Get("unreadOnly"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			})

			count, err := server.Client(t).UnreadCount(context.Background(), "tok")
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestMarkNotificationsRead(t *testing.T) {
	server := testutil.NewAPIServer(t)
	server.Handle(http.MethodPatch, "/api/notifications/12/read", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	server.JSON(http.MethodPatch, "/api/notifications/read-all", http.StatusOK, map[string]any{"success": true})

	client := server.Client(t)
	require.NoError(t, client.MarkNotificationRead(context.Background(), "tok", "12"))
	require.NoError(t, client.MarkAllNotificationsRead(context.Background(), "tok"))
	assert.Equal(t, 2, server.RequestCount())
}
