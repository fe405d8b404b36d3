// Package ticket merges inquiries and reports into one ticket model and
// implements the feed, admin queue and resolution operations over it.
package ticket

import (
	"strings"
	"time"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/model"
)

// FromInquiry converts a raw inquiry into a Ticket. Fields outside the
// ticket model (title, updatedAt) are dropped.
func FromInquiry(raw api.Inquiry) model.Ticket {
	return model.Ticket{
		ID:        raw.ID.String(),
		Source:    model.SourceInquiry,
		Category:  normalizeCategory(raw.Type),
		Body:      raw.Content,
		Answer:    raw.Answer,
		Status:    normalizeStatus(raw.Status),
		CreatedAt: parseTime(raw.CreatedAt),
	}
}

// FromReport converts a raw report into a Ticket. The reason becomes the
// body; target references are dropped.
func FromReport(raw api.Report) model.Ticket {
	return model.Ticket{
		ID:        raw.ID.String(),
		Source:    model.SourceReport,
		Category:  normalizeCategory(raw.TargetType),
		Body:      raw.Reason,
		Answer:    raw.Answer,
		Status:    normalizeStatus(raw.Status),
		CreatedAt: parseTime(raw.CreatedAt),
	}
}

// FromInquiries converts a slice of raw inquiries, preserving order.
func FromInquiries(raw []api.Inquiry) []model.Ticket {
	tickets := make([]model.Ticket, 0, len(raw))
	for _, item := range raw {
		tickets = append(tickets, FromInquiry(item))
	}
	return tickets
}

// FromReports converts a slice of raw reports, preserving order.
func FromReports(raw []api.Report) []model.Ticket {
	tickets := make([]model.Ticket, 0, len(raw))
	for _, item := range raw {
		tickets = append(tickets, FromReport(item))
	}
	return tickets
}

// normalizeCategory upper-cases the code. Codes outside the known set are
// kept verbatim; only an empty code becomes OTHER.
func normalizeCategory(raw string) model.Category {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return model.CategoryOther
	}
	return model.Category(code)
}

// normalizeStatus upper-cases the literal; a missing status is OPEN.
func normalizeStatus(raw string) model.Status {
	status := strings.ToUpper(strings.TrimSpace(raw))
	if status == "" {
		return model.StatusOpen
	}
	return model.Status(status)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTime parses an API timestamp. Unparseable values yield the zero
// time, which sorts last in the feed.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
