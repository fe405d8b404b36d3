package store

import (
	"context"

	"github.com/nhle/ticketdesk/internal/model"
)

// TicketFilter narrows cached ticket queries.
type TicketFilter struct {
	Source *model.Source
	Status *model.Status
	Limit  int
}

// Store is the local cache of the last loaded ticket feed. It is a display
// aid only; writes always go to the server first.
type Store interface {
	// ReplaceTickets swaps the cached snapshot for tickets, keeping their order.
	ReplaceTickets(ctx context.Context, tickets []model.Ticket) error

	// GetTickets returns cached tickets newest first, ties in snapshot order.
	GetTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error)

	// GetTicket returns one cached ticket by its (source, id) key.
	GetTicket(ctx context.Context, key model.TicketKey) (*model.Ticket, error)

	// DeleteTicket evicts exactly the ticket with the given key.
	DeleteTicket(ctx context.Context, key model.TicketKey) error

	Close() error
}
