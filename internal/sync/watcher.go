// Package sync bridges the notification service into the Bubble Tea
// runtime: unread changes and push channel state arrive as tea messages.
package sync

import (
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ticketdesk/internal/model"
)

// UnreadMsg is a tea.Msg carrying the latest hasUnread value.
type UnreadMsg struct {
	HasUnread bool
}

// ChannelMsg is a tea.Msg sent when the push channel state changes.
type ChannelMsg struct {
	State model.ChannelState
}

// UnreadSource is satisfied by notify.UnreadStore.
type UnreadSource interface {
	Subscribe() (<-chan bool, func())
}

// ChannelSource is satisfied by notify.Realtime.
type ChannelSource interface {
	State() model.ChannelState
}

// defaultStateInterval is how often the channel state is sampled. The
// adapter has no state subscription, and the header only needs to be
// roughly current.
const defaultStateInterval = time.Second

// Watcher relays notification state to the UI.
type Watcher struct {
	unread   UnreadSource
	channel  ChannelSource
	interval time.Duration
	resultCh chan tea.Msg
	stopCh   chan struct{}
	mu       gosync.Mutex
	running  bool
}

// New creates a Watcher. interval <= 0 uses one second.
func New(unread UnreadSource, channel ChannelSource, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultStateInterval
	}
	return &Watcher{
		unread:   unread,
		channel:  channel,
		interval: interval,
		resultCh: make(chan tea.Msg, 4),
		stopCh:   make(chan struct{}),
	}
}

// Start begins relaying and returns the command that waits for the first
// message. Later calls return nil.
func (w *Watcher) Start() tea.Cmd {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	updates, unsubscribe := w.unread.Subscribe()
	go w.run(updates, unsubscribe)

	return w.WaitForNext()
}

// Stop halts the relay goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
}

// WaitForNext returns a tea.Cmd that waits for the next relayed message.
// Call it again after handling each UnreadMsg or ChannelMsg.
func (w *Watcher) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-w.resultCh:
			return msg
		case <-w.stopCh:
			return nil
		}
	}
}

func (w *Watcher) run(updates <-chan bool, unsubscribe func()) {
	defer unsubscribe()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := w.channel.State()
	if !w.send(ChannelMsg{State: last}) {
		return
	}

	for {
		select {
		case <-w.stopCh:
			return
		case v := <-updates:
			if !w.send(UnreadMsg{HasUnread: v}) {
				return
			}
		case <-ticker.C:
			state := w.channel.State()
			if state == last {
				continue
			}
			last = state
			if !w.send(ChannelMsg{State: state}) {
				return
			}
		}
	}
}

// send blocks until the UI takes msg or the watcher stops.
func (w *Watcher) send(msg tea.Msg) bool {
	select {
	case w.resultCh <- msg:
		return true
	case <-w.stopCh:
		return false
	}
}
