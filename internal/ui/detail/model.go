package detail

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticketdesk/internal/keys"
	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/theme"
	"github.com/nhle/ticketdesk/internal/ui/ticketlist"
)

// BackMsg signals the parent to navigate back to the list it came from.
type BackMsg struct{}

// LoadedMsg carries a ticket fetched for the detail view. Err is set when
// the fetch failed; the view then keeps showing the list copy.
type LoadedMsg struct {
	Ticket model.Ticket
	Err    error
}

// Model is the ticket detail view.
type Model struct {
	ticket      *model.Ticket
	viewport    viewport.Model
	keys        *keys.KeyMap
	allowAnswer bool
	loading     bool
	width       int
	height      int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		viewport: viewport.New(width, height),
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Show displays t immediately. allowAnswer enables the answer action for
// unresolved tickets.
func (m *Model) Show(t model.Ticket, allowAnswer bool) {
	m.ticket = &t
	m.allowAnswer = allowAnswer
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// SetLoading marks a detail refetch in progress.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Current returns the displayed ticket.
func (m Model) Current() (model.Ticket, bool) {
	if m.ticket == nil {
		return model.Ticket{}, false
	}
	return *m.ticket, true
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		// Ignore a late result for a ticket no longer on screen.
		if msg.Err == nil && m.ticket != nil && m.ticket.Key() == msg.Ticket.Key() {
			m.Show(msg.Ticket, m.allowAnswer)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Answer):
			if m.ticket != nil && m.allowAnswer && !m.ticket.Resolved() {
				t := *m.ticket
				return m, func() tea.Msg { return ticketlist.AnswerRequestMsg{Ticket: t} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.ticket == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No ticket selected")
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	t := m.ticket

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	sections := []string{
		titleStyle.Render(fmt.Sprintf("%s #%s", t.Source.Label(), t.ID)),
		lipgloss.JoinHorizontal(lipgloss.Top,
			theme.SourceLabelStyle(t.Source).Render(string(t.Source)),
			theme.StatusStyle(t.Status).Render(string(t.Status)),
		),
		"",
		labelStyle.Render("Category: ") + t.Category.Label(),
	}
	if !t.CreatedAt.IsZero() {
		sections = append(sections, labelStyle.Render("Created:  ")+t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if m.loading {
		sections = append(sections, theme.MutedStyle.Render("refreshing…"))
	}

	body := lipgloss.NewStyle().Width(m.width - 4)
	sections = append(sections, "", titleStyle.Render("Content"), body.Render(t.Body))

	sections = append(sections, "", titleStyle.Render("Answer"))
	if t.Answered() {
		sections = append(sections, body.Render(t.Answer))
	} else {
		sections = append(sections, theme.MutedStyle.Render("Not answered yet"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if m.ticket != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
