package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/push"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	API    UnreadAPI
	Tokens TokenSource

	// Push is the transport template for the realtime channel.
	Push push.Config

	// Dial opens push connections. If nil, DialPush is used.
	Dial DialFunc

	// RequestTimeout bounds the mount refresh and event-triggered refreshes.
	RequestTimeout time.Duration

	Logger *slog.Logger
}

// Service is the process-wide notification state: one UnreadStore plus
// the realtime channel feeding it. Create one per process, call Start when
// a session begins and Stop on logout or shutdown, and hand it to the
// views that show the unread badge.
type Service struct {
	unread   *UnreadStore
	realtime *Realtime
	timeout  time.Duration
	logger   *slog.Logger
}

// NewService wires an UnreadStore to a Realtime adapter.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	unread := NewUnreadStore(cfg.API, cfg.Tokens, logger.With("component", "unread"))
	realtime := NewRealtime(RealtimeConfig{
		Tokens:         cfg.Tokens,
		Unread:         unread,
		Push:           cfg.Push,
		Dial:           cfg.Dial,
		RefreshTimeout: cfg.RequestTimeout,
		Logger:         logger.With("component", "realtime"),
	})

	return &Service{
		unread:   unread,
		realtime: realtime,
		timeout:  cfg.RequestTimeout,
		logger:   logger,
	}
}

// Unread returns the unread state store.
func (s *Service) Unread() *UnreadStore {
	return s.unread
}

// Realtime returns the push channel adapter.
func (s *Service) Realtime() *Realtime {
	return s.realtime
}

// Start runs the mount-time refresh and opens the push channel. A missing
// credential is not an error here: the badge stays as it is and no
// connection is attempted.
func (s *Service) Start(ctx context.Context) error {
	refreshCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.unread.Refresh(refreshCtx)
	cancel()
	if err != nil {
		s.logger.Warn("initial unread refresh failed", "error", err)
	}

	if err := s.realtime.Start(ctx); err != nil {
		if api.IsAuthError(err) {
			s.logger.Info("no session credential, push channel not started")
			return nil
		}
		return err
	}
	return nil
}

// Stop closes the push channel and clears the unread flag so the next
// session does not see stale state.
func (s *Service) Stop() {
	s.realtime.Stop()
	s.unread.Reset()
}
