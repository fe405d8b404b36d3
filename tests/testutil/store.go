package testutil

import (
	"context"
	"testing"

	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/store"
)

// NewTestStore opens an in-memory snapshot cache with migrations applied,
// closed when the test ends.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening snapshot cache: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing snapshot cache: %v", err)
		}
	})
	return s
}

// NewSeededStore returns a test cache already holding tickets, in order.
func NewSeededStore(t *testing.T, tickets ...model.Ticket) *store.SQLiteStore {
	t.Helper()

	s := NewTestStore(t)
	if err := s.ReplaceTickets(context.Background(), tickets); err != nil {
		t.Fatalf("seeding snapshot cache: %v", err)
	}
	return s
}
