package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive  MarketStatus = "active"
	MarketStatusClosed  MarketStatus = "closed"
	MarketStatusSettled MarketStatus = "settled"
)

// Market represents a Polymarket binary-outcome prediction market.
type Market struct {
	ID          string
	Question    string
	Slug        string
	Outcomes    [2]string // e.g. ["Yes","No"] or ["Up","Down"]
	TokenIDs    [2]string // ERC-1155 token IDs (76-digit strings)
	ConditionID string
	YesPrice    float64 // venue-quoted price of the first outcome
	NoPrice     float64 // venue-quoted price of the second outcome
	Volume      float64
	Status      MarketStatus
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Side identifies one leg of a binary market.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Opposite returns the other leg of the pair.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// TokenID returns the ERC-1155 token ID for the given side of the market.
func (m Market) TokenID(side Side) string {
	if side == SideYes {
		return m.TokenIDs[0]
	}
	return m.TokenIDs[1]
}

// Price returns the venue-quoted price for the given side.
func (m Market) Price(side Side) float64 {
	if side == SideYes {
		return m.YesPrice
	}
	return m.NoPrice
}
