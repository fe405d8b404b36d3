// Package ticketlist is the list view shared by the unified feed and the
// admin queues. It owns the client-held snapshot of whatever it shows.
package ticketlist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticketdesk/internal/keys"
	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/theme"
	"github.com/nhle/ticketdesk/internal/ticket"
)

// SelectedMsg is sent when the user opens a ticket.
type SelectedMsg struct {
	Ticket model.Ticket
}

// DeleteRequestMsg is sent when the user asks to delete a ticket.
type DeleteRequestMsg struct {
	Ticket model.Ticket
}

// AnswerRequestMsg is sent when the user asks to answer a ticket.
type AnswerRequestMsg struct {
	Ticket model.Ticket
}

// Options selects which actions a list offers.
type Options struct {
	Title       string
	EmptyText   string
	AllowDelete bool
	AllowAnswer bool
}

// Model is a ticket list backed by a ticket.Snapshot.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	opts     Options
	snapshot *ticket.Snapshot
	loading  bool
	width    int
	height   int
}

// New creates an empty list.
func New(k *keys.KeyMap, opts Options, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = opts.Title
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:     l,
		keys:     k,
		opts:     opts,
		snapshot: ticket.NewSnapshot(nil),
		width:    width,
		height:   height,
	}
}

// SetTickets replaces the snapshot with a freshly loaded one.
func (m *Model) SetTickets(tickets []model.Ticket) tea.Cmd {
	m.snapshot.Set(tickets)
	m.loading = false
	return m.syncItems()
}

// Remove drops exactly the ticket with key from the snapshot.
func (m *Model) Remove(key model.TicketKey) tea.Cmd {
	if !m.snapshot.Remove(key) {
		return nil
	}
	return m.syncItems()
}

// Replace re-tags the ticket with the same key in place, e.g. after it was
// answered. Lists that do not hold the ticket are unchanged.
func (m *Model) Replace(updated model.Ticket) tea.Cmd {
	if !m.snapshot.Replace(updated) {
		return nil
	}
	return m.syncItems()
}

// Tickets returns a copy of the current snapshot.
func (m Model) Tickets() []model.Ticket {
	return m.snapshot.Tickets()
}

// SelectedTicket returns the focused ticket, if any.
func (m Model) SelectedTicket() (model.Ticket, bool) {
	item, ok := m.list.SelectedItem().(TicketItem)
	if !ok {
		return model.Ticket{}, false
	}
	return item.Ticket, true
}

// SetLoading toggles the loading placeholder for an empty list.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

func (m *Model) syncItems() tea.Cmd {
	tickets := m.snapshot.Tickets()
	items := make([]list.Item, len(tickets))
	for i, t := range tickets {
		items[i] = TicketItem{Ticket: t}
	}
	return m.list.SetItems(items)
}

// Update handles key input for the list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		selected, hasSelection := m.SelectedTicket()

		switch {
		case key.Matches(msg, m.keys.Select) && hasSelection:
			return m, func() tea.Msg { return SelectedMsg{Ticket: selected} }

		case key.Matches(msg, m.keys.Delete) && hasSelection && m.opts.AllowDelete:
			return m, func() tea.Msg { return DeleteRequestMsg{Ticket: selected} }

		case key.Matches(msg, m.keys.Answer) && hasSelection && m.opts.AllowAnswer:
			return m, func() tea.Msg { return AnswerRequestMsg{Ticket: selected} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list or a placeholder.
func (m Model) View() string {
	if m.snapshot.Len() == 0 {
		text := m.opts.EmptyText
		if m.loading {
			text = "Loading…"
		}
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(text)
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
