package sync

import (
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ticketdesk/internal/model"
)

type fakeUnread struct {
	ch           chan bool
	unsubscribed atomic.Bool
}

func (f *fakeUnread) Subscribe() (<-chan bool, func()) {
	return f.ch, func() { f.unsubscribed.Store(true) }
}

type fakeChannel struct {
	state atomic.Int32
}

func (f *fakeChannel) State() model.ChannelState {
	return model.ChannelState(f.state.Load())
}

func next(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()

	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher message")
		return nil
	}
}

func TestWatcherRelaysUnreadAndChannelState(t *testing.T) {
	unread := &fakeUnread{ch: make(chan bool, 1)}
	channel := &fakeChannel{}
	w := New(unread, channel, 5*time.Millisecond)
	defer w.Stop()

	cmd := w.Start()
	require.NotNil(t, cmd)
	assert.Nil(t, w.Start())

	assert.Equal(t, ChannelMsg{State: model.ChannelDisconnected}, next(t, cmd))

	unread.ch <- true
	assert.Equal(t, UnreadMsg{HasUnread: true}, next(t, w.WaitForNext()))

	channel.state.Store(int32(model.ChannelConnected))
	assert.Equal(t, ChannelMsg{State: model.ChannelConnected}, next(t, w.WaitForNext()))
}

func TestWatcherStop(t *testing.T) {
	unread := &fakeUnread{ch: make(chan bool)}
	w := New(unread, &fakeChannel{}, 5*time.Millisecond)

	next(t, w.Start())
	w.Stop()
	w.Stop()

	assert.Nil(t, next(t, w.WaitForNext()))
	assert.Eventually(t, unread.unsubscribed.Load, time.Second, 5*time.Millisecond)
}
