package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/credential"
	"github.com/nhle/ticketdesk/tests/testutil"
)

// switchableToken is a TokenSource whose value tests can change.
type switchableToken struct {
	mu    sync.Mutex
	token string
}

func (s *switchableToken) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *switchableToken) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// serveUnreadSequence answers the unread endpoint with totals in order,
// repeating the last one.
func serveUnreadSequence(server *testutil.APIServer, totals ...int) {
	var calls atomic.Int32
	server.Handle(http.MethodGet, "/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		i := int(calls.Add(1)) - 1
		if i >= len(totals) {
			i = len(totals) - 1
		}
		testutil.WriteJSON(w, http.StatusOK, map[string]any{"total": totals[i]})
	})
}

func TestRefreshFollowsServerCount(t *testing.T) {
	server := testutil.NewAPIServer(t)
	serveUnreadSequence(server, 3, 0)
	store := NewUnreadStore(server.Client(t), credential.Static("tok"), nil)

	assert.False(t, store.HasUnread())

	require.NoError(t, store.Refresh(context.Background()))
	assert.True(t, store.HasUnread())

	require.NoError(t, store.Refresh(context.Background()))
	assert.False(t, store.HasUnread())
}

func TestRefreshWithoutCredentialKeepsState(t *testing.T) {
	server := testutil.NewAPIServer(t)
	serveUnreadSequence(server, 2)
	tokens := &switchableToken{token: "tok"}
	store := NewUnreadStore(server.Client(t), tokens, nil)

	require.NoError(t, store.Refresh(context.Background()))
	require.True(t, store.HasUnread())
	requests := server.RequestCount()

	tokens.set("")
	require.NoError(t, store.Refresh(context.Background()))
	assert.True(t, store.HasUnread())
	assert.Equal(t, requests, server.RequestCount())
}

func TestRefreshErrorKeepsState(t *testing.T) {
	server := testutil.NewAPIServer(t)
	server.JSON(http.MethodGet, "/api/notifications", http.StatusInternalServerError, map[string]any{})
	store := NewUnreadStore(server.Client(t), credential.Static("tok"), nil)

	err := store.Refresh(context.Background())
	assert.Equal(t, api.KindRemote, api.KindOf(err))
	assert.False(t, store.HasUnread())
}

func TestMarkReadResynchronizes(t *testing.T) {
	server := testutil.NewAPIServer(t)
	serveUnreadSequence(server, 2, 1)
	server.JSON(http.MethodPatch, "/api/notifications/7/read", http.StatusOK, map[string]any{"success": true})
	store := NewUnreadStore(server.Client(t), credential.Static("tok"), nil)

	require.NoError(t, store.Refresh(context.Background()))
	require.NoError(t, store.MarkRead(context.Background(), "7"))

	// One item remains unread on the server, so the flag stays set.
	assert.True(t, store.HasUnread())

	requests := server.Requests()
	require.Len(t, requests, 3)
	assert.Equal(t, "/api/notifications/7/read", requests[1].Path)
	assert.Equal(t, "/api/notifications", requests[2].Path)
}

func TestMarkAllRead(t *testing.T) {
	server := testutil.NewAPIServer(t)
	serveUnreadSequence(server, 4, 0)
	server.JSON(http.MethodPatch, "/api/notifications/read-all", http.StatusOK, map[string]any{"success": true})
	store := NewUnreadStore(server.Client(t), credential.Static("tok"), nil)

	require.NoError(t, store.Refresh(context.Background()))
	require.True(t, store.HasUnread())

	require.NoError(t, store.MarkAllRead(context.Background()))
	assert.False(t, store.HasUnread())
}

func TestMarkReadFailureSkipsRefresh(t *testing.T) {
	server := testutil.NewAPIServer(t)
	serveUnreadSequence(server, 1)
	server.JSON(http.MethodPatch, "/api/notifications/read-all", http.StatusOK, map[string]any{"success": false})
	store := NewUnreadStore(server.Client(t), credential.Static("tok"), nil)

	err := store.MarkAllRead(context.Background())
	assert.Equal(t, api.KindRemote, api.KindOf(err))
	assert.Equal(t, 1, server.RequestCount())
}

func TestMarkReadWithoutCredential(t *testing.T) {
	server := testutil.NewAPIServer(t)
	store := NewUnreadStore(server.Client(t), credential.Static(""), nil)

	err := store.MarkRead(context.Background(), "1")
	assert.True(t, errors.Is(err, api.ErrAuthRequired))
	assert.Equal(t, 0, server.RequestCount())
}

// blockingUnreadAPI holds UnreadCount until released.
type blockingUnreadAPI struct {
	started chan struct{}
	release chan struct{}
	count   int
}

func (b *blockingUnreadAPI) UnreadCount(ctx context.Context, token string) (int, error) {
	close(b.started)
	<-b.release
	return b.count, nil
}

func (b *blockingUnreadAPI) MarkNotificationRead(ctx context.Context, token, id string) error {
	return nil
}

func (b *blockingUnreadAPI) MarkAllNotificationsRead(ctx context.Context, token string) error {
	return nil
}

func TestResetIsImmediateAndDiscardsInFlightRefresh(t *testing.T) {
	fake := &blockingUnreadAPI{
		started: make(chan struct{}),
		release: make(chan struct{}),
		count:   5,
	}
	store := NewUnreadStore(fake, credential.Static("tok"), nil)
	store.publishLocked(true)

	done := make(chan error, 1)
	go func() { done <- store.Refresh(context.Background()) }()
	<-fake.started

	store.Reset()
	assert.False(t, store.HasUnread())

	close(fake.release)
	require.NoError(t, <-done)
	assert.False(t, store.HasUnread())
}

func TestSubscribeDeliversChanges(t *testing.T) {
	server := testutil.NewAPIServer(t)
	serveUnreadSequence(server, 1)
	store := NewUnreadStore(server.Client(t), credential.Static("tok"), nil)

	updates, unsubscribe := store.Subscribe()
	defer unsubscribe()

	assert.False(t, <-updates)

	require.NoError(t, store.Refresh(context.Background()))
	assert.True(t, <-updates)

	store.Reset()
	assert.False(t, <-updates)

	unsubscribe()
	require.NoError(t, store.Refresh(context.Background()))
	select {
	case v := <-updates:
		t.Fatalf("unexpected update after unsubscribe: %v", v)
	default:
	}
}

func TestConcurrentOperations(t *testing.T) {
	server := testutil.NewAPIServer(t)
	serveUnreadSequence(server, 1, 0, 2, 0, 3)
	server.JSON(http.MethodPatch, "/api/notifications/read-all", http.StatusOK, map[string]any{})
	store := NewUnreadStore(server.Client(t), credential.Static("tok"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _ = store.Refresh(context.Background()) }()
		go func() { defer wg.Done(); _ = store.MarkAllRead(context.Background()) }()
		go func() { defer wg.Done(); store.Reset() }()
	}
	wg.Wait()

	// Whatever interleaving happened, one more refresh settles on the
	// server's current answer.
	require.NoError(t, store.Refresh(context.Background()))
	assert.True(t, store.HasUnread())
}
