package app

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/credential"
	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/notify"
	"github.com/nhle/ticketdesk/internal/ticket"
	"github.com/nhle/ticketdesk/internal/ui/answerform"
	"github.com/nhle/ticketdesk/internal/ui/detail"
	"github.com/nhle/ticketdesk/internal/ui/ticketlist"
	"github.com/nhle/ticketdesk/tests/testutil"
)

func newTestModel(admin bool) Model {
	svc := notify.NewService(notify.ServiceConfig{Tokens: credential.Static("")})
	return New(Config{Notify: svc, Tokens: credential.Static(""), Admin: admin})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

var (
	inquiry5 = model.Ticket{ID: "5", Source: model.SourceInquiry, Status: model.StatusOpen, CreatedAt: time.Unix(200, 0)}
	report5  = model.Ticket{ID: "5", Source: model.SourceReport, Status: model.StatusOpen, CreatedAt: time.Unix(100, 0)}
)

func TestStaleFeedResultIsIgnored(t *testing.T) {
	m := newTestModel(false)
	m.seqs[ViewFeed] = 2

	m = update(t, m, feedLoadedMsg{seq: 1, result: &ticket.FeedResult{Tickets: []model.Ticket{inquiry5}}})
	assert.Empty(t, m.feed.Tickets())

	m = update(t, m, feedLoadedMsg{seq: 2, result: &ticket.FeedResult{Tickets: []model.Ticket{inquiry5, report5}}})
	assert.Len(t, m.feed.Tickets(), 2)
}

func TestCachedFeedDoesNotOverrideLiveResult(t *testing.T) {
	m := newTestModel(false)
	m.seqs[ViewFeed] = 1

	m = update(t, m, feedLoadedMsg{seq: 1, result: &ticket.FeedResult{Tickets: []model.Ticket{report5}}})
	m = update(t, m, cachedFeedMsg{tickets: []model.Ticket{inquiry5, report5}})

	assert.Equal(t, []model.Ticket{report5}, m.feed.Tickets())
}

func TestDeletedRemovesExactKey(t *testing.T) {
	m := newTestModel(false)
	m.seqs[ViewFeed] = 1
	m = update(t, m, feedLoadedMsg{seq: 1, result: &ticket.FeedResult{Tickets: []model.Ticket{inquiry5, report5}}})

	m = update(t, m, deletedMsg{key: inquiry5.Key()})
	assert.Equal(t, []model.Ticket{report5}, m.feed.Tickets())
}

func TestDeleteFailureKeepsTicketAndShowsMessage(t *testing.T) {
	m := newTestModel(false)
	m.seqs[ViewFeed] = 1
	m = update(t, m, feedLoadedMsg{seq: 1, result: &ticket.FeedResult{Tickets: []model.Ticket{inquiry5}}})

	m = update(t, m, deletedMsg{key: inquiry5.Key(), err: &api.RemoteError{StatusCode: 500}})
	assert.Len(t, m.feed.Tickets(), 1)
	assert.True(t, m.isError)
	assert.NotEmpty(t, m.message)
}

func TestAnsweredRemovesFromQueue(t *testing.T) {
	m := newTestModel(true)
	m.seqs[ViewReportQueue] = 1
	m = update(t, m, queueLoadedMsg{source: model.SourceReport, seq: 1, tickets: []model.Ticket{report5}})
	require.Len(t, m.queues[model.SourceReport].Tickets(), 1)

	resolved := report5
	resolved.Status = model.StatusClosed
	m = update(t, m, answeredMsg{ticket: resolved})
	assert.Empty(t, m.queues[model.SourceReport].Tickets())
}

func TestAnswerFailureKeepsQueue(t *testing.T) {
	m := newTestModel(true)
	m.seqs[ViewInquiryQueue] = 1
	m = update(t, m, queueLoadedMsg{source: model.SourceInquiry, seq: 1, tickets: []model.Ticket{inquiry5}})

	m = update(t, m, answeredMsg{ticket: inquiry5, err: errors.Join(api.ErrValidation)})
	assert.Len(t, m.queues[model.SourceInquiry].Tickets(), 1)
	assert.True(t, m.isError)
}

func TestSwitchViewRefetchesQueue(t *testing.T) {
	m := newTestModel(true)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewInquiryQueue, m.currentView)
	assert.Equal(t, 1, m.seqs[ViewInquiryQueue])

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewInquiryQueue, m.currentView)
	assert.Equal(t, 2, m.seqs[ViewInquiryQueue])
}

func TestSwitchViewIgnoredForNonAdmin(t *testing.T) {
	m := newTestModel(false)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewFeed, m.currentView)
}

func TestQueueRefetchedWhenRegainingFocus(t *testing.T) {
	m := newTestModel(true)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, ViewInquiryQueue, m.currentView)
	require.Equal(t, 1, m.seqs[ViewInquiryQueue])

	m = update(t, m, ticketlist.SelectedMsg{Ticket: inquiry5})
	require.Equal(t, ViewDetail, m.currentView)
	m = update(t, m, detail.BackMsg{})
	assert.Equal(t, ViewInquiryQueue, m.currentView)
	assert.Equal(t, 2, m.seqs[ViewInquiryQueue])

	m = update(t, m, ticketlist.AnswerRequestMsg{Ticket: inquiry5})
	require.Equal(t, ViewAnswer, m.currentView)
	m = update(t, m, answerform.CancelMsg{})
	assert.Equal(t, ViewInquiryQueue, m.currentView)
	assert.Equal(t, 3, m.seqs[ViewInquiryQueue])

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	require.Equal(t, ViewHelp, m.currentView)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.Equal(t, ViewInquiryQueue, m.currentView)
	assert.Equal(t, 4, m.seqs[ViewInquiryQueue])
}

func TestHelpFromDetailReturnsToDetail(t *testing.T) {
	m := newTestModel(true)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, ticketlist.SelectedMsg{Ticket: inquiry5})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	require.Equal(t, ViewDetail, m.currentView)

	m = update(t, m, detail.BackMsg{})
	assert.Equal(t, ViewInquiryQueue, m.currentView)
}

func TestAnsweredRefetchesVisibleQueueAndRetagsFeed(t *testing.T) {
	m := newTestModel(true)
	m.seqs[ViewFeed] = 1
	m = update(t, m, feedLoadedMsg{seq: 1, result: &ticket.FeedResult{Tickets: []model.Ticket{inquiry5, report5}}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, queueLoadedMsg{source: model.SourceInquiry, seq: 1, tickets: []model.Ticket{inquiry5}})

	m = update(t, m, ticketlist.AnswerRequestMsg{Ticket: inquiry5})
	m = update(t, m, answerform.SubmittedMsg{Ticket: inquiry5, Text: "done"})
	require.Equal(t, ViewInquiryQueue, m.currentView)
	assert.Equal(t, 1, m.seqs[ViewInquiryQueue], "no reload while the answer is in flight")

	resolved := inquiry5
	resolved.Status = model.StatusDone
	resolved.Answer = "done"
	m = update(t, m, answeredMsg{ticket: resolved})

	assert.Equal(t, 2, m.seqs[ViewInquiryQueue])
	assert.Empty(t, m.queues[model.SourceInquiry].Tickets())
	assert.Equal(t, []model.Ticket{resolved, report5}, m.feed.Tickets())
}

func TestLoadCacheShowsSnapshotBeforeFirstLoad(t *testing.T) {
	svc := notify.NewService(notify.ServiceConfig{Tokens: credential.Static("")})
	m := New(Config{
		Notify: svc,
		Tokens: credential.Static(""),
		Cache:  testutil.NewSeededStore(t, inquiry5, report5),
	})

	msg := m.loadCache()()
	cached, ok := msg.(cachedFeedMsg)
	require.True(t, ok)

	m = update(t, m, cached)
	var keys []model.TicketKey
	for _, tk := range m.feed.Tickets() {
		keys = append(keys, tk.Key())
	}
	assert.Equal(t, []model.TicketKey{inquiry5.Key(), report5.Key()}, keys)
}
