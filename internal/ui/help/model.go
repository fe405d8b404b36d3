package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticketdesk/internal/keys"
	"github.com/nhle/ticketdesk/internal/theme"
)

// Model is the keyboard shortcut overlay.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	admin  bool
	width  int
	height int
}

// New creates a help view. Admin sessions also see the queue notes.
func New(k *keys.KeyMap, admin bool, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	return Model{keys: k, help: h, admin: admin, width: width, height: height}
}

// View renders the overlay.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	parts := []string{title, m.help.View(m.keys)}
	if m.admin {
		parts = append(parts, "",
			theme.MutedStyle.Render("tab cycles feed, inquiry queue and report queue. Queues reload whenever they gain focus."))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
