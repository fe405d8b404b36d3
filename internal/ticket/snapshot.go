package ticket

import (
	"sync"

	"github.com/nhle/ticketdesk/internal/model"
)

// Snapshot is a client-held copy of a ticket list. It never refreshes
// itself; callers apply the post-conditions of successful operations
// (delete, answer) to it by exact (source, id) key.
type Snapshot struct {
	mu      sync.RWMutex
	tickets []model.Ticket
}

// NewSnapshot copies tickets into a new snapshot.
func NewSnapshot(tickets []model.Ticket) *Snapshot {
	s := &Snapshot{}
	s.Set(tickets)
	return s
}

// Set replaces the whole contents, e.g. after a fresh load.
func (s *Snapshot) Set(tickets []model.Ticket) {
	cp := make([]model.Ticket, len(tickets))
	copy(cp, tickets)

	s.mu.Lock()
	s.tickets = cp
	s.mu.Unlock()
}

// Tickets returns a copy of the current contents in order.
func (s *Snapshot) Tickets() []model.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]model.Ticket, len(s.tickets))
	copy(cp, s.tickets)
	return cp
}

// Len returns the number of tickets held.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets)
}

// Remove drops the ticket matching key exactly. A ticket with the same ID
// from the other source is left alone. Reports whether anything was removed.
func (s *Snapshot) Remove(key model.TicketKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tickets {
		if t.Key() == key {
			s.tickets = append(s.tickets[:i], s.tickets[i+1:]...)
			return true
		}
	}
	return false
}

// Replace swaps in an updated ticket at the position of the one with the
// same key. Reports whether a match was found.
func (s *Snapshot) Replace(updated model.Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tickets {
		if t.Key() == updated.Key() {
			s.tickets[i] = updated
			return true
		}
	}
	return false
}
