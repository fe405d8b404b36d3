package ticket

import (
	"context"
	"fmt"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/model"
)

// QueueAPI is the subset of the REST client used by Queue.
type QueueAPI interface {
	ListAdminInquiries(ctx context.Context, token string) ([]api.Inquiry, error)
	ListAdminReports(ctx context.Context, token string) ([]api.Report, error)
}

// Queue loads the admin work queues. Each queue is fetched on its own,
// independent of the user feed, and should be reloaded on every focus.
//
// There is no locking: two admins can open the same ticket and the later
// answer overwrites the earlier one.
type Queue struct {
	api QueueAPI
}

// NewQueue creates a Queue.
func NewQueue(client QueueAPI) *Queue {
	return &Queue{api: client}
}

// Load returns the unresolved tickets of one source in server order.
func (q *Queue) Load(ctx context.Context, token string, source model.Source) ([]model.Ticket, error) {
	if token == "" {
		return nil, fmt.Errorf("loading %s queue: %w", source.Collection(), api.ErrAuthRequired)
	}

	var tickets []model.Ticket
	switch source {
	case model.SourceInquiry:
		raw, err := q.api.ListAdminInquiries(ctx, token)
		if err != nil {
			return nil, err
		}
		tickets = FromInquiries(raw)
	case model.SourceReport:
		raw, err := q.api.ListAdminReports(ctx, token)
		if err != nil {
			return nil, err
		}
		tickets = FromReports(raw)
	default:
		return nil, &api.ValidationError{
			Field:   "source",
			Message: fmt.Sprintf("unknown ticket source %q", source),
		}
	}

	return FilterUnresolved(tickets), nil
}

// FilterUnresolved drops tickets whose status equals their own source's
// resolved value, keeping order.
func FilterUnresolved(tickets []model.Ticket) []model.Ticket {
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if !t.Resolved() {
			out = append(out, t)
		}
	}
	return out
}
