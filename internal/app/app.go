package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/keys"
	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/notify"
	"github.com/nhle/ticketdesk/internal/store"
	appsync "github.com/nhle/ticketdesk/internal/sync"
	"github.com/nhle/ticketdesk/internal/theme"
	"github.com/nhle/ticketdesk/internal/ticket"
	"github.com/nhle/ticketdesk/internal/ui"
	"github.com/nhle/ticketdesk/internal/ui/answerform"
	"github.com/nhle/ticketdesk/internal/ui/detail"
	helpview "github.com/nhle/ticketdesk/internal/ui/help"
	"github.com/nhle/ticketdesk/internal/ui/ticketlist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewFeed ViewState = iota
	ViewInquiryQueue
	ViewReportQueue
	ViewDetail
	ViewAnswer
	ViewHelp
)

// Config holds everything the terminal front end talks to.
type Config struct {
	Feed      *ticket.Feed
	Queue     *ticket.Queue
	Lifecycle *ticket.Lifecycle
	Notify    *notify.Service
	Tokens    notify.TokenSource

	// Cache is optional; when set, the last feed is shown before the first
	// load completes.
	Cache store.Store

	// Admin enables the queue views and the answer action.
	Admin bool

	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Model is the root Bubble Tea model: view routing, layout, and the
// unread badge.
type Model struct {
	cfg    Config
	logger *slog.Logger
	keys   *keys.KeyMap
	layout ui.Layout
	ready  bool

	currentView  ViewState
	previousView ViewState
	helpReturn   ViewState

	feed       ticketlist.Model
	queues     map[model.Source]*ticketlist.Model
	detail     detail.Model
	answerForm answerform.Model
	helpView   helpview.Model

	watcher *appsync.Watcher

	// seqs holds the latest request number per list; results carrying an
	// older number are stale and dropped.
	seqs       map[ViewState]int
	feedLoaded bool

	hasUnread bool
	channel   model.ChannelState
	message   string
	isError   bool
}

// New creates the root model.
func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	k := keys.DefaultKeyMap()
	feed := ticketlist.New(k, ticketlist.Options{
		Title:       "My tickets",
		EmptyText:   "No inquiries or reports yet.",
		AllowDelete: true,
	}, 80, 22)
	feed.SetLoading(true)

	inquiries := ticketlist.New(k, ticketlist.Options{
		Title:       "Open inquiries",
		EmptyText:   "No open inquiries.",
		AllowAnswer: true,
	}, 80, 22)
	reports := ticketlist.New(k, ticketlist.Options{
		Title:       "Open reports",
		EmptyText:   "No open reports.",
		AllowAnswer: true,
	}, 80, 22)

	return Model{
		cfg:    cfg,
		logger: logger.With("component", "tui"),
		keys:   k,
		feed:   feed,
		queues: map[model.Source]*ticketlist.Model{
			model.SourceInquiry: &inquiries,
			model.SourceReport:  &reports,
		},
		detail:     detail.New(k, 80, 22),
		answerForm: answerform.New(80, 22),
		helpView:   helpview.New(k, cfg.Admin, 80, 22),
		watcher:    appsync.New(cfg.Notify.Unread(), cfg.Notify.Realtime(), 0),
		seqs:       make(map[ViewState]int),
	}
}

// Init loads the cached and live feed, starts the notification service
// and subscribes to its state.
func (m Model) Init() tea.Cmd {
	m.seqs[ViewFeed]++
	return tea.Batch(
		m.loadCache(),
		m.loadFeed(m.seqs[ViewFeed]),
		m.startNotify(),
		m.watcher.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := msg.Width, m.layout.ContentHeight()
		m.feed.SetSize(w, h)
		for _, q := range m.queues {
			q.SetSize(w, h)
		}
		m.detail.SetSize(w, h)
		m.answerForm.SetSize(w, h)
		m.helpView.SetSize(w, h)
		return m, nil

	case cachedFeedMsg:
		if !m.feedLoaded && len(msg.tickets) > 0 {
			cmd := m.feed.SetTickets(msg.tickets)
			return m, cmd
		}
		return m, nil

	case feedLoadedMsg:
		if msg.seq != m.seqs[ViewFeed] {
			return m, nil
		}
		m.feed.SetLoading(false)
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.feedLoaded = true
		m.clearMessage()
		if msg.result.Partial() {
			m.setWarning(msg.result.Warnings)
		}
		cmd := m.feed.SetTickets(msg.result.Tickets)
		return m, cmd

	case queueLoadedMsg:
		view := queueView(msg.source)
		if msg.seq != m.seqs[view] {
			return m, nil
		}
		q := m.queues[msg.source]
		q.SetLoading(false)
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.clearMessage()
		return m, q.SetTickets(msg.tickets)

	case deletedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setInfo(fmt.Sprintf("Deleted %s #%s", msg.key.Source.Label(), msg.key.ID))
		cmd := m.feed.Remove(msg.key)
		return m, cmd

	case answeredMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		refetch := m.refetchVisibleQueue()
		m.setInfo(fmt.Sprintf("Resolved %s #%s as %s", msg.ticket.Source.Label(), msg.ticket.ID, msg.ticket.Status))
		cmds := []tea.Cmd{refetch, m.feed.Replace(msg.ticket)}
		if q, ok := m.queues[msg.ticket.Source]; ok {
			cmds = append(cmds, q.Remove(msg.ticket.Key()))
		}
		return m, tea.Batch(cmds...)

	case markedAllReadMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setInfo("All notifications marked read")
		}
		return m, nil

	case notifyStartedMsg:
		if msg.err != nil {
			m.logger.Warn("notification service start failed", "error", msg.err)
		}
		return m, nil

	case appsync.UnreadMsg:
		m.hasUnread = msg.HasUnread
		return m, m.watcher.WaitForNext()

	case appsync.ChannelMsg:
		m.channel = msg.State
		return m, m.watcher.WaitForNext()

	case ticketlist.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		admin := m.cfg.Admin && m.previousView != ViewFeed
		m.detail.Show(msg.Ticket, admin)
		if !admin {
			return m, nil
		}
		m.detail.SetLoading(true)
		return m, m.loadDetail(msg.Ticket)

	case ticketlist.DeleteRequestMsg:
		return m, m.deleteTicket(msg.Ticket)

	case ticketlist.AnswerRequestMsg:
		if m.currentView != ViewDetail {
			m.previousView = m.currentView
		}
		m.currentView = ViewAnswer
		cmd := m.answerForm.Start(msg.Ticket)
		return m, cmd

	case answerform.SubmittedMsg:
		// The queue is refetched once the answer lands, so the reload
		// cannot race the write and bring the ticket back.
		m.currentView = m.previousView
		return m, m.answerTicket(msg.Ticket, msg.Text)

	case answerform.CancelMsg:
		cmd := m.returnTo(m.previousView)
		return m, cmd

	case detail.BackMsg:
		cmd := m.returnTo(m.previousView)
		return m, cmd

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that act outside the focused view. Text
// entry in the answer form only honors ctrl+c.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, m.quit(), true
	}
	if m.currentView == ViewAnswer {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			cmd := m.returnTo(m.helpReturn)
			return m, cmd, true
		}
		m.helpReturn = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case !m.isListView():
		return m, nil, false

	case key.Matches(msg, m.keys.Quit):
		return m, m.quit(), true

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.focus(m.currentView)
		return m, tea.Batch(cmd, m.refreshUnread()), true

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllRead(), true

	case key.Matches(msg, m.keys.SwitchView) && m.cfg.Admin:
		m.currentView = nextListView(m.currentView)
		cmd := m.focus(m.currentView)
		return m, cmd, true
	}

	return m, nil, false
}

// focus reloads the list shown in view. Queues are always refetched when
// they gain focus so resolutions by other admins disappear.
func (m *Model) focus(view ViewState) tea.Cmd {
	m.seqs[view]++
	seq := m.seqs[view]

	switch view {
	case ViewFeed:
		m.feed.SetLoading(true)
		return m.loadFeed(seq)
	case ViewInquiryQueue:
		m.queues[model.SourceInquiry].SetLoading(true)
		return m.loadQueue(model.SourceInquiry, seq)
	case ViewReportQueue:
		m.queues[model.SourceReport].SetLoading(true)
		return m.loadQueue(model.SourceReport, seq)
	}
	return nil
}

// returnTo makes view current again. A list regaining focus is reloaded.
func (m *Model) returnTo(view ViewState) tea.Cmd {
	m.currentView = view
	if !m.isListView() {
		return nil
	}
	return m.focus(view)
}

// refetchVisibleQueue reloads the queue on screen, if one is.
func (m *Model) refetchVisibleQueue() tea.Cmd {
	if m.currentView != ViewInquiryQueue && m.currentView != ViewReportQueue {
		return nil
	}
	return m.focus(m.currentView)
}

// quit tears the notification service down off the update loop, then exits.
func (m Model) quit() tea.Cmd {
	m.watcher.Stop()
	svc := m.cfg.Notify
	return tea.Sequence(func() tea.Msg {
		svc.Stop()
		return nil
	}, tea.Quit)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewFeed:
		m.feed, cmd = m.feed.Update(msg)
	case ViewInquiryQueue, ViewReportQueue:
		q := m.queues[listSource(m.currentView)]
		*q, cmd = q.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewAnswer:
		m.answerForm, cmd = m.answerForm.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.hasUnread, m.channel)
	return m.layout.RenderWithFrame(header, m.renderContent(), m.layout.RenderStatusBar(m.statusText()))
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeed:
		return m.feed.View()
	case ViewInquiryQueue, ViewReportQueue:
		return m.queues[listSource(m.currentView)].View()
	case ViewDetail:
		return m.detail.View()
	case ViewAnswer:
		return m.answerForm.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

func (m Model) title() string {
	if m.cfg.Admin {
		return "ticketdesk (admin)"
	}
	return "ticketdesk"
}

// statusText returns the last message, or key hints for the view.
func (m Model) statusText() string {
	if m.message != "" {
		if m.isError {
			return theme.ErrorStyle.Render(m.message)
		}
		return m.message
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help"
	case ViewDetail:
		if m.cfg.Admin && m.previousView != ViewFeed {
			return "esc back | c answer | j/k scroll"
		}
		return "esc back | j/k scroll"
	case ViewAnswer:
		return "enter submit | esc cancel"
	case ViewFeed:
		hints := "q quit | ? help | r refresh | d delete | a mark all read"
		if m.cfg.Admin {
			hints += " | tab queues"
		}
		return hints
	default:
		return "q quit | ? help | r refresh | c answer | tab switch"
	}
}

func (m *Model) setError(err error) {
	m.logger.Warn("operation failed", "kind", api.KindOf(err).String(), "error", err)
	m.message = api.UserMessage(err)
	m.isError = true
}

func (m *Model) setWarning(warnings []ticket.SourceError) {
	text := "Showing partial feed:"
	for _, w := range warnings {
		text += " " + w.Source.Label() + " unavailable."
	}
	m.message = theme.WarningStyle.Render(text)
	m.isError = false
}

func (m *Model) setInfo(text string) {
	m.message = text
	m.isError = false
}

func (m *Model) clearMessage() {
	m.message = ""
	m.isError = false
}

func (m Model) isListView() bool {
	switch m.currentView {
	case ViewFeed, ViewInquiryQueue, ViewReportQueue:
		return true
	}
	return false
}

func nextListView(v ViewState) ViewState {
	switch v {
	case ViewFeed:
		return ViewInquiryQueue
	case ViewInquiryQueue:
		return ViewReportQueue
	default:
		return ViewFeed
	}
}

func queueView(s model.Source) ViewState {
	if s == model.SourceReport {
		return ViewReportQueue
	}
	return ViewInquiryQueue
}

func listSource(v ViewState) model.Source {
	if v == ViewReportQueue {
		return model.SourceReport
	}
	return model.SourceInquiry
}
