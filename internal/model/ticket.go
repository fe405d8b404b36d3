package model

import (
	"strings"
	"time"
)

// Source identifies which backing resource a ticket belongs to.
type Source string

const (
	SourceInquiry Source = "INQUIRY"
	SourceReport  Source = "REPORT"
)

// Status is a ticket status literal. Valid values depend on the source:
// inquiries use OPEN and DONE, reports use OPEN and CLOSED.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusDone   Status = "DONE"
	StatusClosed Status = "CLOSED"
)

// sourceEntry is the per-source dispatch entry: the REST collection that owns
// the resource and the status value that marks it resolved.
type sourceEntry struct {
	collection string
	resolved   Status
	label      string
}

var sourceTable = map[Source]sourceEntry{
	SourceInquiry: {collection: "inquiries", resolved: StatusDone, label: "Inquiry"},
	SourceReport:  {collection: "reports", resolved: StatusClosed, label: "Report"},
}

// Sources lists every known ticket source in feed merge order.
func Sources() []Source {
	return []Source{SourceInquiry, SourceReport}
}

// Valid reports whether s is a known ticket source.
func (s Source) Valid() bool {
	_, ok := sourceTable[s]
	return ok
}

// Collection returns the REST collection name for the source
// ("inquiries" or "reports"). Unknown sources return "".
func (s Source) Collection() string {
	return sourceTable[s].collection
}

// ResolvedStatus returns the terminal status literal for the source:
// DONE for inquiries, CLOSED for reports.
func (s Source) ResolvedStatus() Status {
	return sourceTable[s].resolved
}

// Label returns a human-readable name for the source.
func (s Source) Label() string {
	if entry, ok := sourceTable[s]; ok {
		return entry.label
	}
	return string(s)
}

// ParseSource accepts a source name in any case, in singular or collection
// form ("inquiry", "INQUIRIES", "report", ...).
func ParseSource(name string) (Source, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "inquiry", "inquiries":
		return SourceInquiry, true
	case "report", "reports":
		return SourceReport, true
	default:
		return "", false
	}
}

// Category is a source-specific classification code.
type Category string

// Inquiry categories.
const (
	CategoryService Category = "SERVICE"
	CategoryBug     Category = "BUG"
	CategoryPraise  Category = "PRAISE"
)

// Report categories.
const (
	CategoryJobPost Category = "JOB_POST"
	CategoryCompany Category = "COMPANY"
	CategoryUser    Category = "USER"
)

// CategoryOther is used by both sources for anything unclassified.
const CategoryOther Category = "OTHER"

var categoryLabels = map[Category]string{
	CategoryService: "Service",
	CategoryBug:     "Bug report",
	CategoryPraise:  "Praise",
	CategoryJobPost: "Job post",
	CategoryCompany: "Company",
	CategoryUser:    "User",
	CategoryOther:   "Other",
}

// Label returns a display label for the category. Unknown codes are
// returned as-is.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// TicketKey is the unique identity of a ticket. ID alone may collide
// across sources.
type TicketKey struct {
	Source Source
	ID     string
}

func (k TicketKey) String() string {
	return string(k.Source) + ":" + k.ID
}

// Ticket is the unified representation of a user inquiry or a content report.
type Ticket struct {
	// ID is the item's identifier within its source.
	ID string `json:"id"`

	// Source selects the backing resource and status vocabulary.
	Source Source `json:"source"`

	// Category is the source-specific classification code.
	Category Category `json:"category"`

	// Body is the inquiry content or the report reason.
	Body string `json:"body"`

	// Answer is the admin's reply. Empty means unanswered.
	Answer string `json:"answer,omitempty"`

	// Status is a source-specific status literal.
	Status Status `json:"status"`

	// CreatedAt is used for ordering only.
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the (source, id) identity of the ticket.
func (t Ticket) Key() TicketKey {
	return TicketKey{Source: t.Source, ID: t.ID}
}

// Resolved reports whether the ticket is in its source's terminal status.
func (t Ticket) Resolved() bool {
	return t.Source.Valid() && t.Status == t.Source.ResolvedStatus()
}

// Answered reports whether the ticket carries an admin answer.
func (t Ticket) Answered() bool {
	return t.Answer != ""
}
