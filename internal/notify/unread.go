// Package notify tracks whether the user has unread notifications and keeps
// that flag in step with the server through REST reads and push signals.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nhle/ticketdesk/internal/api"
)

// TokenSource resolves the current session credential. It returns "" with
// a nil error when no one is logged in.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// UnreadAPI is the subset of the REST client used by UnreadStore.
type UnreadAPI interface {
	UnreadCount(ctx context.Context, token string) (int, error)
	MarkNotificationRead(ctx context.Context, token, id string) error
	MarkAllNotificationsRead(ctx context.Context, token string) error
}

// UnreadStore holds the hasUnread flag. The server owns the count; the
// flag is only ever set from a server response, except by Reset.
//
// All methods are safe for concurrent use. Racing refreshes resolve as
// last response wins; the next refresh corrects any stale value.
type UnreadStore struct {
	api    UnreadAPI
	tokens TokenSource
	logger *slog.Logger

	mu          sync.Mutex
	hasUnread   bool
	epoch       uint64
	subscribers map[int]chan bool
	nextSub     int
}

// NewUnreadStore creates a store with hasUnread=false.
func NewUnreadStore(client UnreadAPI, tokens TokenSource, logger *slog.Logger) *UnreadStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnreadStore{
		api:         client,
		tokens:      tokens,
		logger:      logger,
		subscribers: make(map[int]chan bool),
	}
}

// HasUnread returns the last known value.
func (s *UnreadStore) HasUnread() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasUnread
}

// Refresh reads the unread count and sets hasUnread = count > 0. With no
// credential it does nothing and keeps the current value. On error the
// value is unchanged.
func (s *UnreadStore) Refresh(ctx context.Context) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolving credential: %w", err)
	}
	if token == "" {
		return nil
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	count, err := s.api.UnreadCount(ctx, token)
	if err != nil {
		s.logger.Debug("unread refresh failed", "error", err)
		return err
	}

	s.set(count > 0, epoch)
	return nil
}

// MarkRead marks one notification read on the server, then refreshes.
// Other unread items may remain, so the flag is never cleared directly.
func (s *UnreadStore) MarkRead(ctx context.Context, id string) error {
	token, err := s.requireToken(ctx)
	if err != nil {
		return err
	}
	if err := s.api.MarkNotificationRead(ctx, token, id); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// MarkAllRead marks every notification read on the server, then refreshes.
func (s *UnreadStore) MarkAllRead(ctx context.Context) error {
	token, err := s.requireToken(ctx)
	if err != nil {
		return err
	}
	if err := s.api.MarkAllNotificationsRead(ctx, token); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Reset sets hasUnread=false immediately, without a server call. Refreshes
// already in flight when Reset is called are discarded when they land, so
// a previous session's response cannot repaint the flag.
func (s *UnreadStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.publishLocked(false)
}

// Subscribe returns a channel that receives the current value and then
// every change. Slow readers only see the latest value. Call the returned
// function to unsubscribe.
func (s *UnreadStore) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++

	ch := make(chan bool, 1)
	ch <- s.hasUnread
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (s *UnreadStore) requireToken(ctx context.Context) (string, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving credential: %w", err)
	}
	if token == "" {
		return "", api.ErrAuthRequired
	}
	return token, nil
}

// set applies a server-derived value unless a Reset happened since the
// request started.
func (s *UnreadStore) set(value bool, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		s.logger.Debug("discarding unread refresh from before reset")
		return
	}
	s.publishLocked(value)
}

// publishLocked stores value and notifies subscribers when it changed.
func (s *UnreadStore) publishLocked(value bool) {
	if s.hasUnread == value {
		return
	}
	s.hasUnread = value

	for _, ch := range s.subscribers {
		// Keep only the newest value in the one-slot buffer.
		select {
		case <-ch:
		default:
		}
		ch <- value
	}
}
