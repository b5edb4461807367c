package handler

import (
	"net/http"
	"time"

	"github.com/calebwray/hedgebot/internal/bot"
)

// StatusHandler serves liveness and engine state.
type StatusHandler struct {
	engine  *bot.Engine
	started time.Time
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(engine *bot.Engine) *StatusHandler {
	return &StatusHandler{engine: engine, started: time.Now().UTC()}
}

// Health responds to liveness probes.
func (h *StatusHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status returns the engine's current state and process uptime.
func (h *StatusHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"engine":  h.engine.Status(),
		"summary": h.engine.Describe(),
		"uptime":  time.Since(h.started).String(),
	})
}
