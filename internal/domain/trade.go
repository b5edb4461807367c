package domain

import "time"

// JournalEntry is one row of the append-only trade journal. Every position
// transition (entry, hedge, exit) produces exactly one entry.
type JournalEntry struct {
	ID         string
	Timestamp  time.Time
	MarketID   string
	Action     string // "ENTER", "HEDGE", "EXIT"
	Side       Side
	Size       float64
	Price      float64
	Confidence float64
	Rationale  string
}

// Notional returns the USD value of the journaled fill.
func (e JournalEntry) Notional() float64 {
	return e.Size * e.Price
}

// OrderRequest describes an order to submit to the venue.
type OrderRequest struct {
	MarketID string
	TokenID  string
	Side     Side
	Action   FillAction
	Size     float64
	Price    float64
}

// OrderResult is the venue's response to an order submission. Status is
// "simulated" when the venue call failed or order placement is disabled and
// the engine fell back to paper execution.
type OrderResult struct {
	OrderID string
	Status  string
	Filled  float64
	Price   float64
}

// Simulated reports whether the order never reached the venue.
func (r OrderResult) Simulated() bool {
	return r.Status == "simulated"
}

// AccountSnapshot is the venue-side account state used to bootstrap the
// ledger at startup.
type AccountSnapshot struct {
	Cash      float64
	Positions []Position
	AsOf      time.Time
}
