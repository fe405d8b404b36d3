package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/ticketdesk/internal/model"
)

// ErrNotFound is returned when a cached ticket does not exist.
var ErrNotFound = errors.New("ticket not cached")

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// ticketRow mirrors the tickets table.
type ticketRow struct {
	Source    string    `db:"source"`
	ID        string    `db:"id"`
	Category  string    `db:"category"`
	Body      string    `db:"body"`
	Answer    string    `db:"answer"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	Position  int       `db:"position"`
	CachedAt  time.Time `db:"cached_at"`
}

func (r ticketRow) toTicket() model.Ticket {
	return model.Ticket{
		ID:        r.ID,
		Source:    model.Source(r.Source),
		Category:  model.Category(r.Category),
		Body:      r.Body,
		Answer:    r.Answer,
		Status:    model.Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceTickets clears the cache and inserts tickets in order. The
// position column preserves the snapshot's tie order.
func (s *SQLiteStore) ReplaceTickets(ctx context.Context, tickets []model.Ticket) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tickets"); err != nil {
		return fmt.Errorf("clearing ticket cache: %w", err)
	}

	const query = `
		INSERT OR REPLACE INTO tickets (
			source, id, category, body, answer, status,
			created_at, position, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, t := range tickets {
		_, err := stmt.ExecContext(ctx,
			string(t.Source), t.ID, string(t.Category), t.Body, t.Answer, string(t.Status),
			t.CreatedAt.UTC(), i, now,
		)
		if err != nil {
			return fmt.Errorf("caching ticket %s: %w", t.Key(), err)
		}
	}

	return tx.Commit()
}

// GetTickets retrieves cached tickets matching the filter.
func (s *SQLiteStore) GetTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	var conditions []string
	var args []interface{}

	if filter.Source != nil {
		conditions = append(conditions, "source = ?")
		args = append(args, string(*filter.Source))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}

	query := "SELECT * FROM tickets"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, position ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var rows []ticketRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}

	tickets := make([]model.Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, row.toTicket())
	}
	return tickets, nil
}

// GetTicket retrieves one cached ticket by key.
func (s *SQLiteStore) GetTicket(ctx context.Context, key model.TicketKey) (*model.Ticket, error) {
	var row ticketRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM tickets WHERE source = ? AND id = ?",
		string(key.Source), key.ID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting ticket %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting ticket %s: %w", key, err)
	}

	t := row.toTicket()
	return &t, nil
}

// DeleteTicket evicts the ticket with exactly this (source, id).
func (s *SQLiteStore) DeleteTicket(ctx context.Context, key model.TicketKey) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM tickets WHERE source = ? AND id = ?",
		string(key.Source), key.ID,
	)
	if err != nil {
		return fmt.Errorf("deleting ticket %s: %w", key, err)
	}
	return nil
}
