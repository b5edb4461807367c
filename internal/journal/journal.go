// Package journal records every position transition the engine makes and
// derives the performance summary exposed over the API. Entries always land
// in memory; when a store is attached they are persisted as well.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calebwray/hedgebot/internal/domain"
)

// Summary aggregates journal activity for reporting.
type Summary struct {
	Trades      int     `json:"trades"`
	TotalVolume float64 `json:"total_volume"`
	WinRate     float64 `json:"win_rate"`
	Enters      int     `json:"enters"`
	Hedges      int     `json:"hedges"`
	Exits       int     `json:"exits"`
}

// Journal is the in-memory trade log. All methods are safe for concurrent
// use.
type Journal struct {
	winConfidence float64
	store         domain.JournalStore
	logger        *slog.Logger

	mu      sync.RWMutex
	entries []domain.JournalEntry
}

// Option configures a Journal.
type Option func(*Journal)

// WithStore attaches a persistent sink. Recording fails if the store insert
// fails; the in-memory copy is kept either way.
func WithStore(store domain.JournalStore) Option {
	return func(j *Journal) { j.store = store }
}

// New creates a Journal. Entries with confidence at or above winConfidence
// count as wins in the summary.
func New(winConfidence float64, logger *slog.Logger, opts ...Option) *Journal {
	j := &Journal{
		winConfidence: winConfidence,
		logger:        logger.With("component", "journal"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Record appends a journal entry, assigning an ID and timestamp when absent.
func (j *Journal) Record(ctx context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()

	j.logger.InfoContext(ctx, "trade journaled",
		"market_id", entry.MarketID,
		"action", entry.Action,
		"side", entry.Side,
		"size", entry.Size,
		"price", entry.Price,
	)

	if j.store != nil {
		if err := j.store.InsertBatch(ctx, []domain.JournalEntry{entry}); err != nil {
			return entry, fmt.Errorf("journal: persist entry: %w", err)
		}
	}
	return entry, nil
}

// ListRecent returns the newest entries, most recent first. A zero limit
// returns everything.
func (j *Journal) ListRecent(limit int) []domain.JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	n := len(j.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.JournalEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, j.entries[i])
	}
	return out
}

// ListByMarket returns all entries for one market in insertion order.
func (j *Journal) ListByMarket(marketID string) []domain.JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []domain.JournalEntry
	for _, e := range j.entries {
		if e.MarketID == marketID {
			out = append(out, e)
		}
	}
	return out
}

// Summarize computes the running performance summary.
func (j *Journal) Summarize() Summary {
	j.mu.RLock()
	defer j.mu.RUnlock()

	s := Summary{Trades: len(j.entries)}
	wins := 0
	for _, e := range j.entries {
		s.TotalVolume += e.Notional()
		if e.Confidence >= j.winConfidence {
			wins++
		}
		switch e.Action {
		case "ENTER":
			s.Enters++
		case "HEDGE":
			s.Hedges++
		case "EXIT":
			s.Exits++
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(wins) / float64(s.Trades)
	}
	return s
}
