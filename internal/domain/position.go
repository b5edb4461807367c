package domain

import "time"

// FillAction distinguishes opening fills from closing fills.
type FillAction string

const (
	FillActionOpen  FillAction = "OPEN"
	FillActionClose FillAction = "CLOSE"
)

// Position is one leg of inventory in a single market.
type Position struct {
	MarketID string
	Side     Side
	Size     float64
	AvgPrice float64
	OpenedAt time.Time
}

// Cost returns the total cost basis of the position.
func (p Position) Cost() float64 {
	return p.AvgPrice * p.Size
}

// PortfolioView is a read-only snapshot of ledger state.
type PortfolioView struct {
	Cash          float64
	RealizedPnL   float64
	UnrealizedPnL float64
	Positions     []Position
	AsOf          time.Time
}

// Equity returns cash plus the cost basis of all open positions adjusted by
// unrealized PnL.
func (v PortfolioView) Equity() float64 {
	total := v.Cash + v.UnrealizedPnL
	for _, p := range v.Positions {
		total += p.Cost()
	}
	return total
}

// HedgePhase is the per-market state of the hedge machine.
type HedgePhase string

const (
	HedgePhaseFlat      HedgePhase = "FLAT"
	HedgePhaseSingleLeg HedgePhase = "SINGLE_LEG"
	HedgePhaseHedged    HedgePhase = "HEDGED"
)

// PendingEntry records the first leg of a planned pair while the hedge leg is
// still being waited on.
type PendingEntry struct {
	MarketID     string
	Side         Side
	Size         float64
	EntryPrice   float64
	TriggerPrice float64 // the other leg must trade below this to hedge
	EnteredAt    time.Time
}
