package handler

import (
	"encoding/json"
	"net/http"

	"github.com/calebwray/hedgebot/internal/bot"
)

// SelectionHandler exposes the entry allow list. New entries are restricted
// to the listed market IDs; an empty list allows every scanned market.
type SelectionHandler struct {
	engine *bot.Engine
}

// NewSelectionHandler creates a SelectionHandler.
func NewSelectionHandler(engine *bot.Engine) *SelectionHandler {
	return &SelectionHandler{engine: engine}
}

// Get returns the current allow list.
func (h *SelectionHandler) Get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"market_ids": h.engine.AllowList(),
	})
}

// Put replaces the allow list. Open positions keep being managed regardless
// of the list.
func (h *SelectionHandler) Put(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MarketIDs []string `json:"market_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.engine.SetAllowList(body.MarketIDs)
	writeJSON(w, http.StatusOK, map[string]any{
		"market_ids": h.engine.AllowList(),
	})
}
