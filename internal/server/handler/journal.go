package handler

import (
	"net/http"

	"github.com/calebwray/hedgebot/internal/domain"
	"github.com/calebwray/hedgebot/internal/journal"
)

// JournalHandler serves the trade journal and its performance summary. Reads
// prefer the persistent store when one is attached so restarts do not lose
// history; the in-memory journal is the fallback.
type JournalHandler struct {
	journal *journal.Journal
	store   domain.JournalStore
}

// NewJournalHandler creates a JournalHandler. store may be nil.
func NewJournalHandler(j *journal.Journal, store domain.JournalStore) *JournalHandler {
	return &JournalHandler{journal: j, store: store}
}

// List returns journal entries, newest first. ?market_id= filters to one
// market; limit/offset/since/until paginate.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	marketID := r.URL.Query().Get("market_id")
	opts := parseListOpts(r)

	if h.store != nil {
		var (
			entries []domain.JournalEntry
			err     error
		)
		if marketID != "" {
			entries, err = h.store.ListByMarket(r.Context(), marketID, opts)
		} else {
			entries, err = h.store.ListRecent(r.Context(), opts)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "journal query failed")
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	if marketID != "" {
		writeJSON(w, http.StatusOK, h.journal.ListByMarket(marketID))
		return
	}
	writeJSON(w, http.StatusOK, h.journal.ListRecent(opts.Limit))
}

// Summary returns the running performance summary.
func (h *JournalHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.journal.Summarize())
}
