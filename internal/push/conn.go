// Package push is the websocket transport for realtime notification
// signals. It owns the handshake and the reconnect policy; consumers only
// see events and state changes.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/model"
)

// Event is an inbound frame: {"event": "<name>", "data": <any>}.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Config holds the connection parameters and callbacks.
type Config struct {
	// URL is the websocket endpoint (ws:// or wss://).
	URL string

	// Token is sent as the "token" query parameter of the handshake.
	Token string

	// HandshakeTimeout bounds each dial. Zero means 10s.
	HandshakeTimeout time.Duration

	// ReconnectMin and ReconnectMax bound the exponential reconnect delay.
	ReconnectMin time.Duration
	ReconnectMax time.Duration

	// MaxReconnects caps consecutive failed reconnects; 0 means unlimited.
	MaxReconnects int

	// Dialer is used for all handshakes. If nil, websocket.DefaultDialer is used.
	Dialer *websocket.Dialer

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger

	// OnEvent is called from the read goroutine for every decoded frame.
	OnEvent func(Event)

	// OnState is called from the read goroutine when the transport drops,
	// reconnects, or gives up. It is not called for the initial handshake.
	OnState func(model.ChannelState)
}

// Conn is a live push connection that reconnects on its own after
// transient failures until Close is called.
type Conn struct {
	cfg    Config
	id     string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.Mutex
	ws *websocket.Conn
}

// Dial performs the initial handshake and starts the read loop. A 401
// handshake fails with an error matching api.ErrAuthRequired.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("push: URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("push: %w", api.ErrAuthRequired)
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = 500 * time.Millisecond
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = 30 * time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New().String()
	c := &Conn{
		cfg:    cfg,
		id:     id,
		logger: logger.With("conn_id", id),
		done:   make(chan struct{}),
	}

	ws, err := c.handshake(ctx)
	if err != nil {
		return nil, err
	}
	c.ws = ws

	c.ctx, c.cancel = context.WithCancel(context.Background())
	go c.run()

	c.logger.Info("push connected", "url", cfg.URL)
	return c, nil
}

// ID returns the connection's log identifier.
func (c *Conn) ID() string {
	return c.id
}

// Close stops reconnecting, closes the socket and waits for the read
// loop to exit. It is safe to call more than once.
func (c *Conn) Close() error {
	c.cancel()

	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()

	var err error
	if ws != nil {
		_ = ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = ws.Close()
	}

	<-c.done
	return err
}

// handshake dials the endpoint with the token query parameter.
func (c *Conn) handshake(ctx context.Context) (*websocket.Conn, error) {
	endpoint, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("push: invalid URL %q: %w", c.cfg.URL, err)
	}
	query := endpoint.Query()
	query.Set("token", c.cfg.Token)
	endpoint.RawQuery = query.Encode()

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	ws, resp, err := c.cfg.Dialer.DialContext(dialCtx, endpoint.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("push handshake: %w", api.ErrAuthRequired)
		}
		return nil, fmt.Errorf("push handshake: %w", err)
	}
	return ws, nil
}

// run reads until the socket drops, then reconnects, until closed.
func (c *Conn) run() {
	defer close(c.done)

	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()

		err := c.readLoop(ws)
		if c.ctx.Err() != nil {
			return
		}
		c.logger.Warn("push connection lost", "error", err)
		ws.Close()

		if !c.reconnect() {
			c.setState(model.ChannelDisconnected)
			return
		}
	}
}

// readLoop delivers frames until a read error.
func (c *Conn) readLoop(ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.Debug("ignoring malformed push frame", "error", err)
			continue
		}
		if c.cfg.OnEvent != nil {
			c.cfg.OnEvent(event)
		}
	}
}

// reconnect retries the handshake with exponential backoff. It gives up
// when closed, on an auth rejection, or after MaxReconnects failures.
func (c *Conn) reconnect() bool {
	c.setState(model.ChannelConnecting)

	for attempt := 0; c.cfg.MaxReconnects == 0 || attempt < c.cfg.MaxReconnects; attempt++ {
		select {
		case <-c.ctx.Done():
			return false
		case <-time.After(c.backoff(attempt)):
		}

		ws, err := c.handshake(c.ctx)
		if err == nil {
			c.mu.Lock()
			if c.ctx.Err() != nil {
				c.mu.Unlock()
				ws.Close()
				return false
			}
			c.ws = ws
			c.mu.Unlock()

			c.logger.Info("push reconnected", "attempt", attempt+1)
			c.setState(model.ChannelConnected)
			return true
		}

		if errors.Is(err, api.ErrAuthRequired) {
			c.logger.Warn("push credential rejected, not reconnecting")
			return false
		}
		c.logger.Debug("push reconnect failed", "attempt", attempt+1, "error", err)
	}

	c.logger.Warn("push reconnect attempts exhausted", "max", c.cfg.MaxReconnects)
	return false
}

// backoff doubles from ReconnectMin up to ReconnectMax.
func (c *Conn) backoff(attempt int) time.Duration {
	delay := c.cfg.ReconnectMin
	for i := 0; i < attempt && delay < c.cfg.ReconnectMax; i++ {
		delay *= 2
	}
	if delay > c.cfg.ReconnectMax {
		delay = c.cfg.ReconnectMax
	}
	return delay
}

func (c *Conn) setState(state model.ChannelState) {
	if c.cfg.OnState != nil && c.ctx.Err() == nil {
		c.cfg.OnState(state)
	}
}
