package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calebwray/hedgebot/internal/domain"
)

// JournalStore implements domain.JournalStore using PostgreSQL.
type JournalStore struct {
	pool *pgxpool.Pool
}

var _ domain.JournalStore = (*JournalStore)(nil)

// NewJournalStore creates a journal store backed by the given connection pool.
func NewJournalStore(pool *pgxpool.Pool) *JournalStore {
	return &JournalStore{pool: pool}
}

const journalSelectCols = `id, timestamp, market_id, action, side, size, price, confidence, rationale`

func scanJournalRows(rows pgx.Rows) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var side string
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.MarketID, &e.Action, &side,
			&e.Size, &e.Price, &e.Confidence, &e.Rationale,
		); err != nil {
			return nil, err
		}
		e.Side = domain.Side(side)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertBatch inserts journal entries using pgx Batch. Entries with an ID that
// already exists are skipped via ON CONFLICT DO NOTHING, so replays after a
// partial failure are safe.
func (s *JournalStore) InsertBatch(ctx context.Context, entries []domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO journal_entries (
			id, timestamp, market_id, action, side, size, price, confidence, rationale
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) ON CONFLICT (id) DO NOTHING`

	for _, e := range entries {
		batch.Queue(query,
			e.ID, e.Timestamp, e.MarketID, e.Action, string(e.Side),
			e.Size, e.Price, e.Confidence, e.Rationale,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert journal batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListByMarket returns entries for a given market with pagination and optional
// time filtering, newest first.
func (s *JournalStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.JournalEntry, error) {
	query := `SELECT ` + journalSelectCols + ` FROM journal_entries WHERE market_id = $1`
	args := []any{marketID}

	query, args = applyListOpts(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list journal by market: %w", err)
	}
	defer rows.Close()

	entries, err := scanJournalRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan journal by market: %w", err)
	}
	return entries, nil
}

// ListRecent returns entries across all markets, newest first.
func (s *JournalStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.JournalEntry, error) {
	query := `SELECT ` + journalSelectCols + ` FROM journal_entries WHERE TRUE`
	var args []any

	query, args = applyListOpts(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent journal: %w", err)
	}
	defer rows.Close()

	entries, err := scanJournalRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent journal: %w", err)
	}
	return entries, nil
}

// ListBefore returns all entries older than the cutoff, oldest first, for
// archiving.
func (s *JournalStore) ListBefore(ctx context.Context, before time.Time) ([]domain.JournalEntry, error) {
	query := `SELECT ` + journalSelectCols + ` FROM journal_entries WHERE timestamp < $1 ORDER BY timestamp ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list journal before: %w", err)
	}
	defer rows.Close()
	return scanJournalRows(rows)
}

// DeleteBefore removes all entries older than the cutoff and returns the
// number deleted.
func (s *JournalStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM journal_entries WHERE timestamp < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete journal before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// applyListOpts appends time filters, ordering, and pagination to a query that
// already ends in a WHERE clause.
func applyListOpts(query string, args []any, opts domain.ListOpts) (string, []any) {
	argIdx := len(args) + 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY timestamp DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}
