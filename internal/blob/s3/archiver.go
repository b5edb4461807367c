package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/calebwray/hedgebot/internal/domain"
)

// Archiver implements domain.Archiver by querying the journal store for aged
// rows, serializing them to JSONL, uploading to object storage, and then
// deleting the archived rows from the primary store. The upload happens
// strictly before the delete so a failed upload leaves the rows in place.
type Archiver struct {
	writer domain.BlobWriter
	store  domain.JournalStore
	logger *slog.Logger
}

var _ domain.Archiver = (*Archiver)(nil)

// NewArchiver creates an archiver writing journal snapshots to the given blob
// writer.
func NewArchiver(writer domain.BlobWriter, store domain.JournalStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		store:  store,
		logger: logger.With("component", "archiver"),
	}
}

// ArchiveJournal moves all journal entries older than the cutoff to cold
// storage at archive/journal/YYYY-MM.jsonl and returns the number archived.
func (a *Archiver) ArchiveJournal(ctx context.Context, before time.Time) (int64, error) {
	entries, err := a.store.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive journal query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive journal marshal: %w", err)
	}

	path := archivePath("journal", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive journal upload: %w", err)
	}

	deleted, err := a.store.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(entries)), fmt.Errorf("s3blob: archive journal delete: %w", err)
	}

	a.logger.InfoContext(ctx, "journal archived",
		"path", path,
		"archived", len(entries),
		"deleted", deleted,
		"before", before.Format(time.RFC3339),
	)
	return int64(len(entries)), nil
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
