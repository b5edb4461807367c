package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebwray/hedgebot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubStore struct {
	inserted []domain.JournalEntry
	err      error
}

func (s *stubStore) InsertBatch(_ context.Context, entries []domain.JournalEntry) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, entries...)
	return nil
}

func (s *stubStore) ListByMarket(context.Context, string, domain.ListOpts) ([]domain.JournalEntry, error) {
	return nil, nil
}

func (s *stubStore) ListRecent(context.Context, domain.ListOpts) ([]domain.JournalEntry, error) {
	return nil, nil
}

func (s *stubStore) ListBefore(context.Context, time.Time) ([]domain.JournalEntry, error) {
	return nil, nil
}

func (s *stubStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func entry(market, action string, size, price, confidence float64) domain.JournalEntry {
	return domain.JournalEntry{
		MarketID:   market,
		Action:     action,
		Side:       domain.SideYes,
		Size:       size,
		Price:      price,
		Confidence: confidence,
	}
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	j := New(0.5, discardLogger())

	got, err := j.Record(context.Background(), entry("mkt-1", "ENTER", 10, 0.40, 0.7))
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestRecordPersistsToStore(t *testing.T) {
	store := &stubStore{}
	j := New(0.5, discardLogger(), WithStore(store))

	_, err := j.Record(context.Background(), entry("mkt-1", "ENTER", 10, 0.40, 0.7))
	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "mkt-1", store.inserted[0].MarketID)
}

func TestRecordKeepsMemoryCopyOnStoreFailure(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	j := New(0.5, discardLogger(), WithStore(store))

	_, err := j.Record(context.Background(), entry("mkt-1", "ENTER", 10, 0.40, 0.7))
	assert.Error(t, err)
	assert.Len(t, j.ListRecent(0), 1)
}

func TestListRecentNewestFirst(t *testing.T) {
	j := New(0.5, discardLogger())
	ctx := context.Background()

	for _, m := range []string{"a", "b", "c"} {
		_, err := j.Record(ctx, entry(m, "ENTER", 1, 0.5, 0.5))
		require.NoError(t, err)
	}

	got := j.ListRecent(2)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].MarketID)
	assert.Equal(t, "b", got[1].MarketID)
}

func TestListByMarket(t *testing.T) {
	j := New(0.5, discardLogger())
	ctx := context.Background()

	_, _ = j.Record(ctx, entry("mkt-1", "ENTER", 1, 0.5, 0.5))
	_, _ = j.Record(ctx, entry("mkt-2", "ENTER", 1, 0.5, 0.5))
	_, _ = j.Record(ctx, entry("mkt-1", "EXIT", 1, 0.6, 0.5))

	got := j.ListByMarket("mkt-1")
	require.Len(t, got, 2)
	assert.Equal(t, "ENTER", got[0].Action)
	assert.Equal(t, "EXIT", got[1].Action)
}

func TestSummarize(t *testing.T) {
	j := New(0.6, discardLogger())
	ctx := context.Background()

	_, _ = j.Record(ctx, entry("mkt-1", "ENTER", 10, 0.40, 0.8)) // win
	_, _ = j.Record(ctx, entry("mkt-1", "HEDGE", 10, 0.50, 0.3))
	_, _ = j.Record(ctx, entry("mkt-1", "EXIT", 10, 0.55, 0.6)) // win

	s := j.Summarize()
	assert.Equal(t, 3, s.Trades)
	assert.InDelta(t, 4+5+5.5, s.TotalVolume, 1e-9)
	assert.InDelta(t, 2.0/3.0, s.WinRate, 1e-9)
	assert.Equal(t, 1, s.Enters)
	assert.Equal(t, 1, s.Hedges)
	assert.Equal(t, 1, s.Exits)
}

func TestSummarizeEmpty(t *testing.T) {
	j := New(0.5, discardLogger())
	s := j.Summarize()
	assert.Zero(t, s.Trades)
	assert.Zero(t, s.WinRate)
}
