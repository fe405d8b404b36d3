package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/theme"
)

// Layout manages the header / content / status bar split of the screen.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with one-line header and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the rows left for the active view.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title on the left and, on the right, the
// unread badge followed by the push channel state.
func (l Layout) RenderHeader(title string, hasUnread bool, channel model.ChannelState) string {
	left := theme.HeaderStyle.Render(title)

	right := theme.ChannelStyle(channel).
		Background(theme.HeaderStyle.GetBackground()).
		Render("● " + channel.String())
	if hasUnread {
		right = lipgloss.JoinHorizontal(lipgloss.Top,
			theme.UnreadBadgeStyle.Render("NEW"),
			right,
		)
	}

	return joinWithFiller(l.Width, theme.HeaderStyle, left, right)
}

// RenderStatusBar renders the bottom status bar with hints or a message.
func (l Layout) RenderStatusBar(text string) string {
	return joinWithFiller(l.Width, theme.StatusBarStyle, theme.StatusBarStyle.Render(text), "")
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().Height(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// joinWithFiller pads between left and right with the bar's background so
// the bar spans the full width.
func joinWithFiller(width int, bar lipgloss.Style, left, right string) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(bar.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
