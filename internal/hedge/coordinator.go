// Package hedge drives the per-market pairing state machine. A market moves
// FLAT -> SINGLE_LEG when the first leg is bought, SINGLE_LEG -> HEDGED when
// the opposite leg is filled below the trigger, and back to FLAT when the
// single leg is exited. A market that reached HEDGED is never traded again;
// the pair rides to settlement.
package hedge

import (
	"fmt"
	"sync"
	"time"

	"github.com/calebwray/hedgebot/internal/domain"
)

// Config holds the hedge and exit thresholds.
type Config struct {
	Timeout             time.Duration // max single-leg holding time before exit pressure
	CombinedAvgLimit    float64       // projected pair cost must stay below this
	DepthMultiple       float64       // near-top depth must cover this multiple of the hedge size
	TriggerDiscount     float64       // tightens the hedge trigger below the other leg's entry-time price; 1 = none
	VolThreshold        float64
	SpreadWideningLimit float64
}

// ActionKind enumerates coordinator decisions.
type ActionKind string

const (
	ActionNone  ActionKind = "NONE"
	ActionHedge ActionKind = "HEDGE"
	ActionExit  ActionKind = "EXIT"
)

// Action is a concrete instruction for the engine to execute.
type Action struct {
	Kind      ActionKind
	MarketID  string
	Side      domain.Side
	Size      float64
	Price     float64
	Rationale string
}

// Snapshot is the per-cycle view of one market the coordinator decides on.
type Snapshot struct {
	Market       domain.Market
	Features     domain.MicroFeatures
	NearTopDepth float64
	Position     domain.Position // the open single leg, zero when flat
	Now          time.Time
}

// Coordinator tracks the hedge phase of every market it has touched.
type Coordinator struct {
	cfg Config

	mu      sync.Mutex
	phases  map[string]domain.HedgePhase
	pending map[string]domain.PendingEntry
}

// NewCoordinator creates a Coordinator. A non-positive trigger discount is
// treated as 1.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.TriggerDiscount <= 0 {
		cfg.TriggerDiscount = 1
	}
	return &Coordinator{
		cfg:     cfg,
		phases:  make(map[string]domain.HedgePhase),
		pending: make(map[string]domain.PendingEntry),
	}
}

// Phase returns the current hedge phase for a market.
func (c *Coordinator) Phase(marketID string) domain.HedgePhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.phases[marketID]; ok {
		return p
	}
	return domain.HedgePhaseFlat
}

// ProposeEntry picks the leg a fresh entry should buy: the cheaper side, with
// a tie going to NO. It returns false when the market is not flat or has no
// usable quote.
func (c *Coordinator) ProposeEntry(m domain.Market) (domain.Side, float64, bool) {
	if c.Phase(m.ID) != domain.HedgePhaseFlat {
		return "", 0, false
	}
	if m.YesPrice <= 0 || m.NoPrice <= 0 {
		return "", 0, false
	}
	if m.YesPrice < m.NoPrice {
		return domain.SideYes, m.YesPrice, true
	}
	return domain.SideNo, m.NoPrice, true
}

// CommitEntry records a filled first leg and arms the hedge trigger. The
// trigger is the other leg's price at entry time, so the hedge only fires
// once the opposite outcome has actually cheapened.
func (c *Coordinator) CommitEntry(marketID string, side domain.Side, size, price, otherPrice float64, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phases[marketID] {
	case domain.HedgePhaseSingleLeg:
		return fmt.Errorf("hedge: commit entry %s: leg already open: %w", marketID, domain.ErrInvalidOrder)
	case domain.HedgePhaseHedged:
		return fmt.Errorf("hedge: commit entry %s: %w", marketID, domain.ErrMarketHedged)
	}

	c.phases[marketID] = domain.HedgePhaseSingleLeg
	c.pending[marketID] = domain.PendingEntry{
		MarketID:     marketID,
		Side:         side,
		Size:         size,
		EntryPrice:   price,
		TriggerPrice: otherPrice * c.cfg.TriggerDiscount,
		EnteredAt:    now,
	}
	return nil
}

// CommitHedge marks the pair complete. The market is retired from trading.
func (c *Coordinator) CommitHedge(marketID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phases[marketID] = domain.HedgePhaseHedged
	delete(c.pending, marketID)
}

// CommitExit returns the market to flat after the single leg was sold.
func (c *Coordinator) CommitExit(marketID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phases[marketID] = domain.HedgePhaseFlat
	delete(c.pending, marketID)
}

// Evaluate decides what, if anything, to do with a single-leg market this
// cycle. Flat and hedged markets always yield ActionNone; entries are decided
// upstream by the timing gate and the advisory pipeline.
//
// The hedge fires when the opposite leg trades below the armed trigger, the
// projected pair cost stays under the combined limit, near-top depth covers
// the hedge size with margin, and the clock is outside the macro risk window.
// The exit fires when the leg has gone stale or conditions have turned, but
// only at or above the average entry so a timeout never forces a loss.
func (c *Coordinator) Evaluate(s Snapshot) Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	marketID := s.Market.ID
	if c.phases[marketID] != domain.HedgePhaseSingleLeg {
		return Action{Kind: ActionNone, MarketID: marketID}
	}
	pending, ok := c.pending[marketID]
	if !ok {
		return Action{Kind: ActionNone, MarketID: marketID}
	}

	otherSide := pending.Side.Opposite()
	otherPrice := s.Market.Price(otherSide)

	avgEntry := pending.EntryPrice
	size := pending.Size
	if s.Position.Size > 0 {
		avgEntry = s.Position.AvgPrice
		size = s.Position.Size
	}

	if otherPrice > 0 && otherPrice < pending.TriggerPrice {
		projected := avgEntry + otherPrice
		if projected < c.cfg.CombinedAvgLimit &&
			s.NearTopDepth >= c.cfg.DepthMultiple*size &&
			!s.Features.InRiskWindow {
			return Action{
				Kind:      ActionHedge,
				MarketID:  marketID,
				Side:      otherSide,
				Size:      size,
				Price:     otherPrice,
				Rationale: fmt.Sprintf("hedge leg at %.3f, projected pair cost %.3f", otherPrice, projected),
			}
		}
	}

	if reason := c.exitPressure(pending, s); reason != "" {
		price := s.Market.Price(pending.Side)
		if price >= avgEntry {
			return Action{
				Kind:      ActionExit,
				MarketID:  marketID,
				Side:      pending.Side,
				Size:      size,
				Price:     price,
				Rationale: reason,
			}
		}
	}
	return Action{Kind: ActionNone, MarketID: marketID}
}

func (c *Coordinator) exitPressure(pending domain.PendingEntry, s Snapshot) string {
	if s.Now.Sub(pending.EnteredAt) > c.cfg.Timeout {
		return fmt.Sprintf("single leg stale after %s", c.cfg.Timeout)
	}
	if s.Features.RealizedVol > c.cfg.VolThreshold {
		return fmt.Sprintf("realized vol %.4f above %.4f", s.Features.RealizedVol, c.cfg.VolThreshold)
	}
	if s.Features.DepthChange < 0 {
		return fmt.Sprintf("depth shrinking %.4f", s.Features.DepthChange)
	}
	if s.Features.SpreadChange > c.cfg.SpreadWideningLimit {
		return fmt.Sprintf("spread widening %.4f above %.4f", s.Features.SpreadChange, c.cfg.SpreadWideningLimit)
	}
	return ""
}

// Pending returns the armed entry for a single-leg market.
func (c *Coordinator) Pending(marketID string) (domain.PendingEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[marketID]
	return p, ok
}
