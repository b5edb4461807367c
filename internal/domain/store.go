package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// JournalStore persists trade journal entries.
type JournalStore interface {
	InsertBatch(ctx context.Context, entries []JournalEntry) error
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]JournalEntry, error)
	ListRecent(ctx context.Context, opts ListOpts) ([]JournalEntry, error)
	// ListBefore returns entries older than the cutoff, for archival.
	ListBefore(ctx context.Context, before time.Time) ([]JournalEntry, error)
	// DeleteBefore removes archived entries and returns the number deleted.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
