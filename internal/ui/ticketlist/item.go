package ticketlist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/theme"
)

// bodyPreviewLen caps the body excerpt shown on a list row.
const bodyPreviewLen = 60

// TicketItem wraps a model.Ticket so it can be used in a bubbles/list.
type TicketItem struct {
	Ticket model.Ticket
}

// FilterValue returns the string used for fuzzy filtering.
func (i TicketItem) FilterValue() string { return i.Ticket.Body }

// ItemDelegate renders one ticket per line.
type ItemDelegate struct{}

func (d ItemDelegate) Height() int { return 1 }

func (d ItemDelegate) Spacing() int { return 0 }

func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single row: source, status, category, body excerpt, age.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TicketItem)
	if !ok {
		return
	}
	t := ti.Ticket

	srcBadge := theme.SourceLabelStyle(t.Source).Render(sourceAbbrev(t.Source))
	statusBadge := theme.StatusStyle(t.Status).Render(string(t.Status))
	category := theme.MutedStyle.Render(t.Category.Label())

	answered := ""
	if t.Answered() {
		answered = theme.MutedStyle.Render(" ↩")
	}

	line := fmt.Sprintf("%s %s %s %s%s  %s",
		srcBadge, statusBadge, category, preview(t.Body), answered,
		theme.MutedStyle.Render(relativeTime(t.CreatedAt)),
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func sourceAbbrev(s model.Source) string {
	switch s {
	case model.SourceInquiry:
		return "INQ"
	case model.SourceReport:
		return "RPT"
	default:
		return "???"
	}
}

// preview flattens body to one line and truncates it.
func preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	r := []rune(body)
	if len(r) <= bodyPreviewLen {
		return body
	}
	return string(r[:bodyPreviewLen-1]) + "…"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 02")
	}
}
