package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ticketdesk/internal/model"
	"github.com/nhle/ticketdesk/internal/store"
	"github.com/nhle/ticketdesk/tests/testutil"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleTickets() []model.Ticket {
	return []model.Ticket{
		{ID: "9", Source: model.SourceReport, Category: model.CategoryCompany, Body: "newest", Status: model.StatusOpen, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "5", Source: model.SourceInquiry, Category: model.CategoryOther, Body: "tie-inquiry", Status: model.StatusOpen, CreatedAt: base},
		{ID: "5", Source: model.SourceReport, Category: model.CategoryOther, Body: "tie-report", Status: model.StatusClosed, CreatedAt: base},
		{ID: "1", Source: model.SourceInquiry, Category: model.CategoryOther, Body: "oldest", Answer: "done", Status: model.StatusDone, CreatedAt: base.Add(-time.Hour)},
	}
}

func bodies(tickets []model.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.Body)
	}
	return out
}

func TestReplaceAndGetTicketsKeepsOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceTickets(ctx, sampleTickets()))

	got, err := s.GetTickets(ctx, store.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "tie-inquiry", "tie-report", "oldest"}, bodies(got))

	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, model.CategoryCompany, got[0].Category)
	assert.Equal(t, "done", got[3].Answer)
}

func TestReplaceTicketsDropsPreviousSnapshot(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceTickets(ctx, sampleTickets()))
	require.NoError(t, s.ReplaceTickets(ctx, sampleTickets()[:1]))

	got, err := s.GetTickets(ctx, store.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"newest"}, bodies(got))
}

func TestGetTicketsFilter(t *testing.T) {
	s := testutil.NewSeededStore(t, sampleTickets()...)
	ctx := context.Background()

	report := model.SourceReport
	got, err := s.GetTickets(ctx, store.TicketFilter{Source: &report})
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "tie-report"}, bodies(got))

	open := model.StatusOpen
	got, err = s.GetTickets(ctx, store.TicketFilter{Status: &open, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"newest"}, bodies(got))
}

func TestDeleteTicketMatchesExactKey(t *testing.T) {
	s := testutil.NewSeededStore(t, sampleTickets()...)
	ctx := context.Background()

	require.NoError(t, s.DeleteTicket(ctx, model.TicketKey{Source: model.SourceInquiry, ID: "5"}))

	_, err := s.GetTicket(ctx, model.TicketKey{Source: model.SourceInquiry, ID: "5"})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	kept, err := s.GetTicket(ctx, model.TicketKey{Source: model.SourceReport, ID: "5"})
	require.NoError(t, err)
	assert.Equal(t, "tie-report", kept.Body)

	// Deleting an absent key is a no-op.
	require.NoError(t, s.DeleteTicket(ctx, model.TicketKey{Source: model.SourceInquiry, ID: "5"}))
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceTickets(ctx, sampleTickets()))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetTickets(ctx, store.TicketFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}
