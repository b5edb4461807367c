package handler

import (
	"net/http"
	"time"

	"github.com/calebwray/hedgebot/internal/ledger"
)

// PortfolioHandler serves the live paper-trading portfolio.
type PortfolioHandler struct {
	ledger *ledger.Ledger
}

// NewPortfolioHandler creates a PortfolioHandler.
func NewPortfolioHandler(l *ledger.Ledger) *PortfolioHandler {
	return &PortfolioHandler{ledger: l}
}

// Portfolio returns the current ledger view: cash, realized and unrealized
// PnL, equity, and open positions.
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, _ *http.Request) {
	view := h.ledger.View(time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]any{
		"cash":           view.Cash,
		"realized_pnl":   view.RealizedPnL,
		"unrealized_pnl": view.UnrealizedPnL,
		"equity":         view.Equity(),
		"positions":      view.Positions,
		"as_of":          view.AsOf,
	})
}
