package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/ticketdesk/internal/api"
	"github.com/nhle/ticketdesk/internal/model"
)

// FeedAPI is the subset of the REST client used by Feed.
type FeedAPI interface {
	ListMyInquiries(ctx context.Context, token string) ([]api.Inquiry, error)
	ListMyReports(ctx context.Context, token string) ([]api.Report, error)
	Delete(ctx context.Context, token, collection, id string) error
}

// SnapshotCache persists the last loaded feed locally.
type SnapshotCache interface {
	ReplaceTickets(ctx context.Context, tickets []model.Ticket) error
	DeleteTicket(ctx context.Context, key model.TicketKey) error
}

// FeedConfig configures a Feed.
type FeedConfig struct {
	API FeedAPI

	// Cache is optional. When set, successful loads replace its contents and
	// successful deletes evict the deleted key.
	Cache SnapshotCache

	// AllowPartial returns the surviving source's tickets when exactly one
	// of the two reads fails with a non-auth error.
	AllowPartial bool

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// SourceError records the failure of one source's read during a load.
type SourceError struct {
	Source model.Source
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source.Label(), e.Err)
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// FeedResult is a point-in-time merged view of the caller's tickets.
type FeedResult struct {
	// LoadID identifies this load in logs.
	LoadID string

	// Tickets is ordered by CreatedAt descending.
	Tickets []model.Ticket

	// Warnings lists sources that failed in a partial load.
	Warnings []SourceError

	LoadedAt time.Time
}

// Partial reports whether any source was missing from the result.
func (r *FeedResult) Partial() bool {
	return len(r.Warnings) > 0
}

// Feed builds the unified inquiry + report feed for the current user.
type Feed struct {
	api          FeedAPI
	cache        SnapshotCache
	allowPartial bool
	logger       *slog.Logger
}

// NewFeed creates a Feed.
func NewFeed(config FeedConfig) *Feed {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		api:          config.API,
		cache:        config.Cache,
		allowPartial: config.AllowPartial,
		logger:       logger,
	}
}

// sourceRead is one source's slot in a concurrent load.
type sourceRead struct {
	source  model.Source
	tickets []model.Ticket
	err     error
}

// Load fetches both collections with the same token, normalizes and
// merges them. An empty token fails with api.ErrAuthRequired before any
// read is issued. The result is a snapshot; nothing updates it later.
func (f *Feed) Load(ctx context.Context, token string) (*FeedResult, error) {
	if token == "" {
		return nil, fmt.Errorf("loading feed: %w", api.ErrAuthRequired)
	}

	loadID := uuid.New().String()
	reads := []*sourceRead{
		{source: model.SourceInquiry},
		{source: model.SourceReport},
	}

	// An auth failure on either read cancels the other one. Other failures
	// stay in their slot so the partial policy can be applied.
	group, groupCtx := errgroup.WithContext(ctx)
	for _, read := range reads {
		group.Go(func() error {
			read.tickets, read.err = f.read(groupCtx, token, read.source)
			if api.IsAuthError(read.err) {
				return read.err
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("loading feed: %w", err)
	}

	var (
		failures []SourceError
		parts    [][]model.Ticket
	)
	for _, read := range reads {
		if read.err != nil {
			failures = append(failures, SourceError{Source: read.source, Err: read.err})
			continue
		}
		parts = append(parts, read.tickets)
	}

	if len(failures) > 0 && (!f.allowPartial || len(failures) == len(reads)) {
		errs := make([]error, 0, len(failures))
		for _, failure := range failures {
			errs = append(errs, failure)
		}
		return nil, fmt.Errorf("loading feed: %w", errors.Join(errs...))
	}

	result := &FeedResult{
		LoadID:   loadID,
		Tickets:  Merge(parts...),
		Warnings: failures,
		LoadedAt: time.Now(),
	}

	for _, failure := range failures {
		f.logger.Warn("feed loaded without source",
			"load_id", loadID, "source", failure.Source, "error", failure.Err)
	}
	f.logger.Debug("feed loaded",
		"load_id", loadID, "tickets", len(result.Tickets), "partial", result.Partial())

	if f.cache != nil && !result.Partial() {
		if err := f.cache.ReplaceTickets(ctx, result.Tickets); err != nil {
			f.logger.Warn("caching feed snapshot", "load_id", loadID, "error", err)
		}
	}

	return result, nil
}

// read fetches and normalizes one source's collection.
func (f *Feed) read(ctx context.Context, token string, source model.Source) ([]model.Ticket, error) {
	switch source {
	case model.SourceInquiry:
		raw, err := f.api.ListMyInquiries(ctx, token)
		if err != nil {
			return nil, err
		}
		return FromInquiries(raw), nil
	case model.SourceReport:
		raw, err := f.api.ListMyReports(ctx, token)
		if err != nil {
			return nil, err
		}
		return FromReports(raw), nil
	default:
		return nil, fmt.Errorf("unknown ticket source %q", source)
	}
}

// Delete removes the ticket on the server through its source's endpoint.
// On success the caller must drop exactly t.Key() from any snapshot it
// holds (see Snapshot.Remove); the local cache is evicted here.
func (f *Feed) Delete(ctx context.Context, token string, t model.Ticket) error {
	if !t.Source.Valid() {
		return &api.ValidationError{Field: "source", Message: fmt.Sprintf("unknown ticket source %q", t.Source)}
	}
	if token == "" {
		return fmt.Errorf("deleting %s: %w", t.Key(), api.ErrAuthRequired)
	}

	if err := f.api.Delete(ctx, token, t.Source.Collection(), t.ID); err != nil {
		return err
	}

	if f.cache != nil {
		if err := f.cache.DeleteTicket(ctx, t.Key()); err != nil {
			f.logger.Warn("evicting deleted ticket from cache", "key", t.Key().String(), "error", err)
		}
	}
	return nil
}

// Merge concatenates the given ticket lists and sorts them by CreatedAt
// descending. Ties keep concatenation order.
func Merge(parts ...[]model.Ticket) []model.Ticket {
	total := 0
	for _, part := range parts {
		total += len(part)
	}

	merged := make([]model.Ticket, 0, total)
	for _, part := range parts {
		merged = append(merged, part...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}
