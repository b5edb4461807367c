package domain

import "time"

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderbookSnapshot is a full snapshot of bids and asks for an asset.
type OrderbookSnapshot struct {
	AssetID   string
	Bids      []PriceLevel
	Asks      []PriceLevel
	BestBid   float64
	BestAsk   float64
	MidPrice  float64
	Timestamp time.Time
}

// BookDepth summarises an orderbook into the aggregates the trading loop
// consumes: best prices, top-of-book depth per side, and the near-top depth
// used for hedge feasibility checks.
type BookDepth struct {
	MarketID     string
	BestBid      float64
	BestAsk      float64
	DepthBid     float64 // aggregated size of the top 5 bid levels
	DepthAsk     float64 // aggregated size of the top 5 ask levels
	NearTopDepth float64 // aggregated size of the top 2 levels across both sides
	Timestamp    time.Time
}

// Spread returns the bid-ask spread, or 0 when either side is missing.
func (b BookDepth) Spread() float64 {
	if b.BestBid <= 0 || b.BestAsk <= 0 {
		return 0
	}
	return b.BestAsk - b.BestBid
}

// Mid returns the midpoint price, or 0 when either side is missing.
func (b BookDepth) Mid() float64 {
	if b.BestBid <= 0 || b.BestAsk <= 0 {
		return 0
	}
	return (b.BestBid + b.BestAsk) / 2
}

// CombinedDepth returns the total aggregated depth across both sides.
func (b BookDepth) CombinedDepth() float64 {
	return b.DepthBid + b.DepthAsk
}

// PriceChange is an incremental orderbook level update.
type PriceChange struct {
	AssetID   string
	Side      string // "BUY" or "SELL"
	Price     float64
	Size      float64 // 0 means remove level
	Timestamp time.Time
}
