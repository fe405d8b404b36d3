package push_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/push"
	"github.com/nhle/ticketdesk/tests/testutil"
)

type recorder struct {
	events chan push.Event
	states chan model.ChannelState
}

func newRecorder() *recorder {
	return &recorder{
		events: make(chan push.Event, 16),
		states: make(chan model.ChannelState, 16),
	}
}

func (r *recorder) config(url, token string) push.Config {
	return push.Config{
		URL:              url,
		Token:            token,
		HandshakeTimeout: 2 * time.Second,
		ReconnectMin:     10 * time.Millisecond,
		ReconnectMax:     40 * time.Millisecond,
		OnEvent:          func(e push.Event) { r.events <- e },
		OnState:          func(s model.ChannelState) { r.states <- s },
	}
}

func (r *recorder) nextEvent(t *testing.T) push.Event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return push.Event{}
	}
}

func (r *recorder) nextState(t *testing.T) model.ChannelState {
	t.Helper()
	select {
	case s := <-r.states:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state change")
		return model.ChannelDisconnected
	}
}

func dial(t *testing.T, srv *testutil.PushServer, rec *recorder, token string) *push.Conn {
	t.Helper()

	conn, err := push.Dial(context.Background(), rec.config(srv.WSURL(), token))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return srv.OpenConns() == 1 }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func TestDialSendsTokenAndDeliversEvents(t *testing.T) {
	srv := testutil.NewPushServer(t, "tok")
	rec := newRecorder()
	conn := dial(t, srv, rec, "tok")

	assert.NotEmpty(t, conn.ID())
	assert.Equal(t, []string{"tok"}, srv.Tokens())

	srv.Send(model.EventNotificationNew, map[string]any{"id": 1})
	event := rec.nextEvent(t)
	assert.Equal(t, model.EventNotificationNew, event.Name)
	assert.JSONEq(t, `{"id": 1}`, string(event.Data))
}

func TestMalformedFramesAreSkipped(t *testing.T) {
	srv := testutil.NewPushServer(t, "tok")
	rec := newRecorder()
	dial(t, srv, rec, "tok")

	srv.SendRaw("not json")
	srv.Send("other:event", nil)

	assert.Equal(t, "other:event", rec.nextEvent(t).Name)
}

func TestDialRejectedCredential(t *testing.T) {
	srv := testutil.NewPushServer(t, "tok")
	rec := newRecorder()

	_, err := push.Dial(context.Background(), rec.config(srv.WSURL(), "wrong"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrAuthRequired))
	assert.Equal(t, 0, srv.OpenConns())
}

func TestDialWithoutToken(t *testing.T) {
	srv := testutil.NewPushServer(t, "tok")
	rec := newRecorder()

	_, err := push.Dial(context.Background(), rec.config(srv.WSURL(), ""))
	assert.True(t, errors.Is(err, api.ErrAuthRequired))
	assert.Equal(t, 0, srv.Handshakes())
}

func TestReconnectAfterDrop(t *testing.T) {
	srv := testutil.NewPushServer(t, "tok")
	rec := newRecorder()
	dial(t, srv, rec, "tok")

	srv.DropAll()

	assert.Equal(t, model.ChannelConnecting, rec.nextState(t))
	assert.Equal(t, model.ChannelConnected, rec.nextState(t))
	assert.Equal(t, 2, srv.Handshakes())

	require.Eventually(t, func() bool { return srv.OpenConns() == 1 }, 2*time.Second, 5*time.Millisecond)
	srv.Send(model.EventNotificationNew, nil)
	assert.Equal(t, model.EventNotificationNew, rec.nextEvent(t).Name)
}

func TestReconnectStopsOnRejectedCredential(t *testing.T) {
	srv := testutil.NewPushServer(t, "tok")
	rec := newRecorder()
	dial(t, srv, rec, "tok")

	srv.Reject(true)
	srv.DropAll()

	assert.Equal(t, model.ChannelConnecting, rec.nextState(t))
	assert.Equal(t, model.ChannelDisconnected, rec.nextState(t))
	assert.Equal(t, 2, srv.Handshakes())
}

func TestReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	srv := testutil.NewPushServer(t, "tok")
	rec := newRecorder()

	cfg := rec.config(srv.WSURL(), "tok")
	cfg.MaxReconnects = 3
	conn, err := push.Dial(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return srv.OpenConns() == 1 }, 2*time.Second, 5*time.Millisecond)

	srv.DropAll()
	srv.Close()

	assert.Equal(t, model.ChannelConnecting, rec.nextState(t))
	assert.Equal(t, model.ChannelDisconnected, rec.nextState(t))
}

func TestCloseStopsConnection(t *testing.T) {
	srv := testutil.NewPushServer(t, "tok")
	rec := newRecorder()
	conn := dial(t, srv, rec, "tok")

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.OpenConns() == 0 }, 2*time.Second, 5*time.Millisecond)

	// A closed connection neither reconnects nor reports state.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, srv.Handshakes())
	assert.Empty(t, rec.states)
}
