package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/store"
	"github.com/nhle/ticketdesk/internal/ticket"
	"github.com/nhle/ticketdesk/internal/ui/detail"
)

// cachedFeedMsg carries the snapshot cached by the previous run.
type cachedFeedMsg struct {
	tickets []model.Ticket
}

// feedLoadedMsg carries the result of one feed load. seq ties it to the
// request so superseded results can be dropped.
type feedLoadedMsg struct {
	seq    int
	result *ticket.FeedResult
	err    error
}

// queueLoadedMsg carries one admin queue load.
type queueLoadedMsg struct {
	source  model.Source
	seq     int
	tickets []model.Ticket
	err     error
}

type deletedMsg struct {
	key model.TicketKey
	err error
}

type answeredMsg struct {
	ticket model.Ticket
	err    error
}

type markedAllReadMsg struct {
	err error
}

type notifyStartedMsg struct {
	err error
}

// withToken runs fn with a request-scoped context and the current
// credential. An empty token is passed through; the core operations
// reject it with api.ErrAuthRequired.
func (m Model) withToken(fn func(ctx context.Context, token string) tea.Msg) tea.Cmd {
	tokens := m.cfg.Tokens
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		token, err := tokens.Token(ctx)
		if err != nil {
			m.logger.Warn("resolving credential", "error", err)
			token = ""
		}
		return fn(ctx, token)
	}
}

// loadCache reads the last cached feed so the list is not empty while the
// first network load runs.
func (m Model) loadCache() tea.Cmd {
	cache := m.cfg.Cache
	if cache == nil {
		return nil
	}
	return func() tea.Msg {
		tickets, err := cache.GetTickets(context.Background(), store.TicketFilter{})
		if err != nil {
			m.logger.Debug("reading snapshot cache", "error", err)
			return cachedFeedMsg{}
		}
		return cachedFeedMsg{tickets: tickets}
	}
}

func (m Model) loadFeed(seq int) tea.Cmd {
	feed := m.cfg.Feed
	return m.withToken(func(ctx context.Context, token string) tea.Msg {
		result, err := feed.Load(ctx, token)
		return feedLoadedMsg{seq: seq, result: result, err: err}
	})
}

func (m Model) loadQueue(source model.Source, seq int) tea.Cmd {
	queue := m.cfg.Queue
	return m.withToken(func(ctx context.Context, token string) tea.Msg {
		tickets, err := queue.Load(ctx, token, source)
		return queueLoadedMsg{source: source, seq: seq, tickets: tickets, err: err}
	})
}

func (m Model) deleteTicket(t model.Ticket) tea.Cmd {
	feed := m.cfg.Feed
	return m.withToken(func(ctx context.Context, token string) tea.Msg {
		return deletedMsg{key: t.Key(), err: feed.Delete(ctx, token, t)}
	})
}

func (m Model) answerTicket(t model.Ticket, text string) tea.Cmd {
	lifecycle := m.cfg.Lifecycle
	return m.withToken(func(ctx context.Context, token string) tea.Msg {
		updated, err := lifecycle.Answer(ctx, token, t, text)
		return answeredMsg{ticket: updated, err: err}
	})
}

func (m Model) loadDetail(t model.Ticket) tea.Cmd {
	lifecycle := m.cfg.Lifecycle
	return m.withToken(func(ctx context.Context, token string) tea.Msg {
		fetched, err := lifecycle.Detail(ctx, token, t.Source, t.ID)
		return detail.LoadedMsg{Ticket: fetched, Err: err}
	})
}

func (m Model) markAllRead() tea.Cmd {
	unread := m.cfg.Notify.Unread()
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return markedAllReadMsg{err: unread.MarkAllRead(ctx)}
	}
}

func (m Model) refreshUnread() tea.Cmd {
	unread := m.cfg.Notify.Unread()
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := unread.Refresh(ctx); err != nil {
			m.logger.Debug("unread refresh failed", "error", err)
		}
		return nil
	}
}

func (m Model) startNotify() tea.Cmd {
	svc := m.cfg.Notify
	return func() tea.Msg {
		return notifyStartedMsg{err: svc.Start(context.Background())}
	}
}
