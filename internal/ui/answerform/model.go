package answerform

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/theme"
)

// SubmittedMsg is dispatched when the admin submits an answer.
type SubmittedMsg struct {
	Ticket model.Ticket
	Text   string
}

// CancelMsg is dispatched when the admin aborts the form.
type CancelMsg struct{}

// formBindings keeps huh's Value pointers valid across model copies.
type formBindings struct {
	answer string
}

// Model is the answer prompt shown for an open ticket.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	ticket model.Ticket
	width  int
	height int
}

// New creates an idle answer form.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start opens the form for t.
func (m *Model) Start(t model.Ticket) tea.Cmd {
	m.ticket = t
	m.fb.answer = ""
	m.form = huh.NewForm(
		huh.NewGroup(AnswerField(&m.fb.answer)),
	).WithWidth(m.formWidth()).WithShowHelp(true)
	return m.form.Init()
}

// AnswerField is the answer text area, shared with the CLI prompt.
func AnswerField(value *string) *huh.Text {
	return huh.NewText().
		Title("Answer").
		Placeholder("Reply to the user…").
		CharLimit(2000).
		Value(value).
		Validate(ValidateAnswer)
}

// ValidateAnswer rejects answers that are empty after trimming.
func ValidateAnswer(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("answer is required")
	}
	return nil
}

// Update forwards messages to the form and reports completion.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		t, text := m.ticket, m.fb.answer
		m.form = nil
		return m, func() tea.Msg { return SubmittedMsg{Ticket: t, Text: text} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form with the ticket it answers.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	header := titleStyle.Render("Answer " + m.ticket.Source.Label() + " #" + m.ticket.ID)
	excerpt := theme.MutedStyle.Width(m.formWidth()).Render(m.ticket.Body)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, excerpt, "", m.form.View()))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}
