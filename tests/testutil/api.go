package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nhle/ticketdesk/internal/api"
)

// RecordedRequest is one request seen by an APIServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

// APIServer is a fake job-board backend. Routes are matched on method and
// URL path; unmatched requests get 404.
type APIServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewAPIServer starts a fake backend that is closed when the test ends.
func NewAPIServer(t *testing.T) *APIServer {
	t.Helper()

	s := &APIServer{routes: make(map[string]http.HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *APIServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})
	handler, ok := s.routes[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

// Handle registers a handler for method and path.
func (s *APIServer) Handle(method, path string, handler http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = handler
}

// JSON registers a fixed JSON response.
func (s *APIServer) JSON(method, path string, status int, body any) {
	s.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Requests returns a copy of every request received so far.
func (s *APIServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]RecordedRequest, len(s.requests))
	copy(cp, s.requests)
	return cp
}

// RequestCount returns how many requests were received.
func (s *APIServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Client returns an api.Client pointed at the server.
func (s *APIServer) Client(t *testing.T) *api.Client {
	t.Helper()

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:        s.URL,
		RequestTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("creating api client: %v", err)
	}
	return client
}

// WriteJSON writes body as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
