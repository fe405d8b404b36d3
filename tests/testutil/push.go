package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// PushServer is a fake websocket endpoint for the notification channel.
type PushServer struct {
	*httptest.Server

	upgrader websocket.Upgrader

	mu         sync.Mutex
	token      string
	reject     bool
	conns      map[*websocket.Conn]struct{}
	handshakes int
	tokens     []string
}

// NewPushServer starts a push endpoint that accepts only the given token.
// It is closed when the test ends.
func NewPushServer(t *testing.T, token string) *PushServer {
	t.Helper()

	s := &PushServer{
		token: token,
		conns: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(func() {
		s.DropAll()
		s.Close()
	})
	return s
}

func (s *PushServer) serve(w http.ResponseWriter, r *http.Request) {
	got := r.URL.Query().Get("token")

	s.mu.Lock()
	s.handshakes++
	s.tokens = append(s.tokens, got)
	ok := !s.reject && got == s.token
	s.mu.Unlock()

	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WSURL returns the ws:// address of the endpoint.
func (s *PushServer) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

// Send writes {"event": name, "data": data} to every open connection.
func (s *PushServer) Send(name string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		conn.WriteJSON(map[string]any{"event": name, "data": data})
	}
}

// SendRaw writes a raw text frame to every open connection.
func (s *PushServer) SendRaw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		conn.WriteMessage(websocket.TextMessage, []byte(frame))
	}
}

// DropAll closes every open connection without a close frame.
func (s *PushServer) DropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		conn.Close()
	}
}

// Reject makes later handshakes fail with 401.
func (s *PushServer) Reject(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = reject
}

// OpenConns returns how many connections are currently open.
func (s *PushServer) OpenConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Handshakes returns how many handshakes were attempted.
func (s *PushServer) Handshakes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakes
}

// Tokens returns the token query parameter of every handshake.
func (s *PushServer) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]string, len(s.tokens))
	copy(cp, s.tokens)
	return cp
}
