package handler

import (
	"errors"
	"net/http"

	"github.com/calebwray/hedgebot/internal/bot"
	"github.com/calebwray/hedgebot/internal/domain"
	"github.com/calebwray/hedgebot/internal/hedge"
)

// MarketsHandler serves tradeable markets and their cached book snapshots.
type MarketsHandler struct {
	scanner *bot.Scanner
	coord   *hedge.Coordinator
	cache   domain.SnapshotCache
}

// NewMarketsHandler creates a MarketsHandler. cache may be nil when no
// snapshot cache is configured.
func NewMarketsHandler(scanner *bot.Scanner, coord *hedge.Coordinator, cache domain.SnapshotCache) *MarketsHandler {
	return &MarketsHandler{scanner: scanner, coord: coord, cache: cache}
}

// List scans the venue for crypto quarter-hour markets and annotates each
// with its hedge phase.
func (h *MarketsHandler) List(w http.ResponseWriter, r *http.Request) {
	markets, err := h.scanner.Scan(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "market scan failed")
		return
	}

	type annotated struct {
		domain.Market
		Phase domain.HedgePhase `json:"phase"`
	}
	out := make([]annotated, 0, len(markets))
	for _, m := range markets {
		out = append(out, annotated{Market: m, Phase: h.coord.Phase(m.ID)})
	}
	writeJSON(w, http.StatusOK, out)
}

// Depth returns the latest cached book depth for one market.
func (h *MarketsHandler) Depth(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusNotFound, "depth snapshots not enabled")
		return
	}

	marketID := r.PathValue("id")
	depth, err := h.cache.GetDepth(r.Context(), marketID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no depth snapshot for market")
			return
		}
		writeError(w, http.StatusInternalServerError, "depth lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, depth)
}
