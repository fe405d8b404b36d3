package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/push"
)

// PushConn is a live push connection.
type PushConn interface {
	Close() error
}

// DialFunc opens a push connection. push.Dial satisfies it through
// DialPush.
type DialFunc func(ctx context.Context, cfg push.Config) (PushConn, error)

// DialPush adapts push.Dial to DialFunc.
func DialPush(ctx context.Context, cfg push.Config) (PushConn, error) {
	conn, err := push.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Refresher is what a push signal triggers.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RealtimeConfig configures a Realtime adapter.
type RealtimeConfig struct {
	Tokens TokenSource
	Unread Refresher

	// Push is the transport template. Token, OnEvent, OnState and Logger are
	// filled in by the adapter.
	Push push.Config

	// Dial opens connections. If nil, DialPush is used.
	Dial DialFunc

	// RefreshTimeout bounds each event-triggered refresh. Zero means 15s.
	RefreshTimeout time.Duration

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Realtime holds at most one push connection per session and turns every
// notification:new signal into an unread refresh. Event payloads are
// never read. Reconnecting after network loss is left to the transport.
type Realtime struct {
	cfg    RealtimeConfig
	logger *slog.Logger

	mu         sync.Mutex
	state      model.ChannelState
	conn       PushConn
	cancelDial context.CancelFunc
	// cancelSession aborts refreshes started by push events of the
	// current connection.
	cancelSession context.CancelFunc
	generation    uint64
}

// NewRealtime creates a disconnected adapter.
func NewRealtime(cfg RealtimeConfig) *Realtime {
	if cfg.Dial == nil {
		cfg.Dial = DialPush
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Realtime{cfg: cfg, logger: logger}
}

// State returns the current connection state.
func (r *Realtime) State() model.ChannelState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start connects once if a credential is available. Without one it stays
// DISCONNECTED and returns an error matching api.ErrAuthRequired; nothing
// retries in the background. Calling Start while CONNECTING or CONNECTED
// is a no-op.
func (r *Realtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != model.ChannelDisconnected {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	token, err := r.cfg.Tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolving credential: %w", err)
	}
	if token == "" {
		return fmt.Errorf("starting push channel: %w", api.ErrAuthRequired)
	}

	r.mu.Lock()
	if r.state != model.ChannelDisconnected {
		r.mu.Unlock()
		return nil
	}
	r.generation++
	generation := r.generation
	dialCtx, cancel := context.WithCancel(ctx)
	sessionCtx, cancelSession := context.WithCancel(context.WithoutCancel(ctx))
	r.cancelDial = cancel
	r.cancelSession = cancelSession
	r.state = model.ChannelConnecting
	r.mu.Unlock()

	cfg := r.cfg.Push
	cfg.Token = token
	cfg.Logger = r.logger
	cfg.OnEvent = func(event push.Event) {
		r.handleEvent(sessionCtx, event)
	}
	cfg.OnState = func(state model.ChannelState) {
		r.handleState(generation, state)
	}

	conn, err := r.cfg.Dial(dialCtx, cfg)
	cancel()

	r.mu.Lock()
	if generation != r.generation {
		// Stop ran while the handshake was in flight. Close waits for the
		// transport goroutine, which may need r.mu, so it runs unlocked.
		r.mu.Unlock()
		cancelSession()
		if conn != nil {
			if err := conn.Close(); err != nil {
				r.logger.Debug("closing late push connection", "error", err)
			}
		}
		return nil
	}
	r.cancelDial = nil
	if err != nil {
		r.state = model.ChannelDisconnected
		r.cancelSession = nil
		r.mu.Unlock()
		cancelSession()
		r.logger.Warn("push channel connect failed", "error", err)
		return fmt.Errorf("starting push channel: %w", err)
	}

	r.conn = conn
	r.state = model.ChannelConnected
	r.mu.Unlock()
	return nil
}

// Stop closes any CONNECTED or CONNECTING connection and leaves the
// adapter DISCONNECTED. It is safe to call at any time.
func (r *Realtime) Stop() {
	r.mu.Lock()
	r.generation++
	conn := r.conn
	cancel := r.cancelDial
	cancelSession := r.cancelSession
	r.conn = nil
	r.cancelDial = nil
	r.cancelSession = nil
	r.state = model.ChannelDisconnected
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cancelSession != nil {
		cancelSession()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			r.logger.Debug("closing push connection", "error", err)
		}
	}
}

// handleEvent triggers a refresh for notification:new. The payload is
// ignored; the server stays the only source of the count. session ends on
// Stop, so a slow refresh never holds up closing the transport.
func (r *Realtime) handleEvent(session context.Context, event push.Event) {
	if event.Name != model.EventNotificationNew {
		return
	}

	ctx, cancel := context.WithTimeout(session, r.cfg.RefreshTimeout)
	defer cancel()

	if err := r.cfg.Unread.Refresh(ctx); err != nil {
		r.logger.Warn("refresh after push event failed", "error", err)
	}
}

// handleState mirrors transport state changes for the current connection.
func (r *Realtime) handleState(generation uint64, state model.ChannelState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.generation || r.conn == nil {
		return
	}
	r.state = state
	if state == model.ChannelDisconnected {
		// The transport gave up; allow a later Start to dial again.
		r.conn = nil
	}
	r.logger.Info("push channel state", "state", state.String())
}
