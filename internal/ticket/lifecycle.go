package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/model"
)

// LifecycleAPI is the subset of the REST client used by Lifecycle.
type LifecycleAPI interface {
	Answer(ctx context.Context, token, collection, id string, req api.AnswerRequest) error
	GetInquiry(ctx context.Context, token, id string) (*api.Inquiry, error)
	GetReport(ctx context.Context, token, id string) (*api.Report, error)
}

// Lifecycle performs the admin OPEN → RESOLVED transition. RESOLVED is
// terminal; there is no way back to OPEN.
type Lifecycle struct {
	api    LifecycleAPI
	logger *slog.Logger
}

// NewLifecycle creates a Lifecycle. A nil logger means slog.Default().
func NewLifecycle(client LifecycleAPI, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{api: client, logger: logger}
}

// Answer stores answerText on the ticket and moves it to its source's
// resolved status (DONE for inquiries, CLOSED for reports) in one update.
//
// Blank text, an unknown source, or an already resolved ticket fail with
// api.ErrValidation before any request is made. On failure nothing changes
// locally and the ticket stays OPEN. On success the returned ticket carries
// the new answer and status; the caller must drop it from (or re-tag it in)
// any unresolved queue it holds.
func (l *Lifecycle) Answer(
	ctx context.Context,
	token string,
	t model.Ticket,
	answerText string,
) (model.Ticket, error) {
	if strings.TrimSpace(answerText) == "" {
		return t, &api.ValidationError{Field: "answer", Message: "Answer text is required."}
	}
	if !t.Source.Valid() {
		return t, &api.ValidationError{Field: "source", Message: fmt.Sprintf("unknown ticket source %q", t.Source)}
	}
	if t.Resolved() {
		return t, &api.ValidationError{Field: "status", Message: "Ticket is already resolved."}
	}
	if token == "" {
		return t, fmt.Errorf("answering %s: %w", t.Key(), api.ErrAuthRequired)
	}

	resolved := t.Source.ResolvedStatus()
	req := api.AnswerRequest{Answer: answerText, Status: string(resolved)}
	if err := l.api.Answer(ctx, token, t.Source.Collection(), t.ID, req); err != nil {
		l.logger.Warn("answer failed", "key", t.Key().String(), "error", err)
		return t, err
	}

	l.logger.Info("ticket resolved", "key", t.Key().String(), "status", resolved)

	updated := t
	updated.Answer = answerText
	updated.Status = resolved
	return updated, nil
}

// Detail fetches a single ticket through the admin detail endpoint.
func (l *Lifecycle) Detail(
	ctx context.Context,
	token string,
	source model.Source,
	id string,
) (model.Ticket, error) {
	if token == "" {
		return model.Ticket{}, fmt.Errorf("fetching %s:%s: %w", source, id, api.ErrAuthRequired)
	}

	switch source {
	case model.SourceInquiry:
		raw, err := l.api.GetInquiry(ctx, token, id)
		if err != nil {
			return model.Ticket{}, err
		}
		return FromInquiry(*raw), nil
	case model.SourceReport:
		raw, err := l.api.GetReport(ctx, token, id)
		if err != nil {
			return model.Ticket{}, err
		}
		return FromReport(*raw), nil
	default:
		return model.Ticket{}, &api.ValidationError{
			Field:   "source",
			Message: fmt.Sprintf("unknown ticket source %q", source),
		}
	}
}
