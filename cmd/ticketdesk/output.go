package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/theme"
)

const previewRunes = 60

// printTickets writes tickets as a table, or as JSON when asJSON is set.
func printTickets(w io.Writer, tickets []model.Ticket, asJSON bool) error {
	if asJSON {
		return writeJSON(w, tickets)
	}
	if len(tickets) == 0 {
		fmt.Fprintln(w, theme.MutedStyle.Render("No tickets."))
		return nil
	}

	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []string{
			t.Key().String(),
			t.Source.Label(),
			t.Category.Label(),
			string(t.Status),
			t.CreatedAt.Local().Format(time.DateTime),
			preview(t.Body),
		})
	}

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("KEY", "SOURCE", "CATEGORY", "STATUS", "CREATED", "BODY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TitleStyle
			}
			switch col {
			case 1:
				return theme.SourceLabelStyle(tickets[row].Source)
			case 3:
				return theme.StatusStyle(tickets[row].Status)
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, tbl.String())
	return nil
}

// printTicket writes one ticket with its full body and answer.
func printTicket(w io.Writer, t model.Ticket, asJSON bool) error {
	if asJSON {
		return writeJSON(w, t)
	}
	fmt.Fprintln(w, theme.TitleStyle.Render(t.Key().String()))
	fmt.Fprintf(w, "%s · %s · %s\n", t.Source.Label(), t.Category.Label(), theme.StatusStyle(t.Status).Render(string(t.Status)))
	fmt.Fprintf(w, "Created %s\n\n", t.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintln(w, t.Body)
	if t.Answered() {
		fmt.Fprintf(w, "\n%s\n%s\n", theme.MutedStyle.Render("Answer:"), t.Answer)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	runes := []rune(body)
	if len(runes) <= previewRunes {
		return body
	}
	return string(runes[:previewRunes-1]) + "…"
}
