package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebwray/hedgebot/internal/domain"
)

type fakeWriter struct {
	path    string
	body    []byte
	ctype   string
	failPut bool
}

func (f *fakeWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	if f.failPut {
		return errors.New("upload refused")
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.path, f.body, f.ctype = path, body, contentType
	return nil
}

func (f *fakeWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return f.Put(ctx, path, data, "")
}

type fakeJournalStore struct {
	entries []domain.JournalEntry
	deleted int64
}

func (f *fakeJournalStore) InsertBatch(context.Context, []domain.JournalEntry) error { return nil }

func (f *fakeJournalStore) ListByMarket(context.Context, string, domain.ListOpts) ([]domain.JournalEntry, error) {
	return nil, nil
}

func (f *fakeJournalStore) ListRecent(context.Context, domain.ListOpts) ([]domain.JournalEntry, error) {
	return nil, nil
}

func (f *fakeJournalStore) ListBefore(_ context.Context, before time.Time) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	for _, e := range f.entries {
		if e.Timestamp.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeJournalStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	var kept []domain.JournalEntry
	for _, e := range f.entries {
		if e.Timestamp.Before(before) {
			f.deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return f.deleted, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiveJournalUploadsAndDeletes(t *testing.T) {
	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeJournalStore{entries: []domain.JournalEntry{
		{ID: "a", Timestamp: cutoff.Add(-48 * time.Hour), MarketID: "mkt-1", Action: "ENTER"},
		{ID: "b", Timestamp: cutoff.Add(-time.Hour), MarketID: "mkt-1", Action: "EXIT"},
		{ID: "c", Timestamp: cutoff.Add(time.Hour), MarketID: "mkt-2", Action: "ENTER"},
	}}
	writer := &fakeWriter{}

	n, err := NewArchiver(writer, store, testLogger()).ArchiveJournal(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, "archive/journal/2026-08.jsonl", writer.path)
	assert.Equal(t, "application/x-ndjson", writer.ctype)

	lines := bytes.Split(bytes.TrimSpace(writer.body), []byte("\n"))
	require.Len(t, lines, 2)
	assert.True(t, strings.Contains(string(lines[0]), `"ID":"a"`))

	// The entry after the cutoff survives.
	require.Len(t, store.entries, 1)
	assert.Equal(t, "c", store.entries[0].ID)
}

func TestArchiveJournalNothingToArchive(t *testing.T) {
	store := &fakeJournalStore{}
	writer := &fakeWriter{}

	n, err := NewArchiver(writer, store, testLogger()).ArchiveJournal(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, writer.path)
}

func TestArchiveJournalUploadFailureKeepsRows(t *testing.T) {
	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeJournalStore{entries: []domain.JournalEntry{
		{ID: "a", Timestamp: cutoff.Add(-time.Hour)},
	}}
	writer := &fakeWriter{failPut: true}

	_, err := NewArchiver(writer, store, testLogger()).ArchiveJournal(context.Background(), cutoff)
	require.Error(t, err)
	assert.Len(t, store.entries, 1)
	assert.Zero(t, store.deleted)
}
