// Package ledger tracks cash, open positions and realized/unrealized PnL for
// the trading engine. It is the single source of truth for portfolio state;
// every fill, simulated or real, flows through ApplyFill.
package ledger

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/calebwray/hedgebot/internal/domain"
)

// Ledger is an in-memory position book. All methods are safe for concurrent
// use.
type Ledger struct {
	mu        sync.RWMutex
	cash      float64
	realized  float64
	positions map[string]domain.Position
	marks     map[string]float64
}

// New creates a Ledger seeded with the given cash balance.
func New(initialCash float64) *Ledger {
	return &Ledger{
		cash:      initialCash,
		positions: make(map[string]domain.Position),
		marks:     make(map[string]float64),
	}
}

func key(marketID string, side domain.Side) string {
	return marketID + "|" + string(side)
}

// Bootstrap replaces the ledger state with a venue account snapshot. Realized
// PnL and marks reset; positions carry over as reported.
func (l *Ledger) Bootstrap(snap domain.AccountSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cash = snap.Cash
	l.realized = 0
	l.positions = make(map[string]domain.Position, len(snap.Positions))
	l.marks = make(map[string]float64)
	for _, p := range snap.Positions {
		l.positions[key(p.MarketID, p.Side)] = p
	}
}

// ApplyFill applies an open or close fill to the book.
//
// OPEN accumulates into the existing position at a cost-weighted average
// price and debits cash by the full notional. CLOSE reduces the position by
// at most its current size, credits cash for the closed notional, and books
// realized PnL against the average entry; the position is removed once its
// size reaches zero.
func (l *Ledger) ApplyFill(action domain.FillAction, marketID string, side domain.Side, size, price float64, at time.Time) error {
	if size <= 0 {
		return fmt.Errorf("ledger: apply fill: size %.4f not positive: %w", size, domain.ErrInvalidOrder)
	}
	if price <= 0 {
		return fmt.Errorf("ledger: apply fill: price %.4f not positive: %w", price, domain.ErrInvalidOrder)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k := key(marketID, side)
	pos := l.positions[k]

	switch action {
	case domain.FillActionOpen:
		oldCost := pos.AvgPrice * pos.Size
		newCost := price * size
		total := pos.Size + size
		pos.MarketID = marketID
		pos.Side = side
		pos.AvgPrice = (oldCost + newCost) / math.Max(math.Abs(total), 1)
		pos.Size = total
		if pos.OpenedAt.IsZero() {
			pos.OpenedAt = at
		}
		l.positions[k] = pos
		l.cash -= newCost

	case domain.FillActionClose:
		closeSize := math.Min(size, pos.Size)
		if closeSize <= 0 {
			return fmt.Errorf("ledger: close %s %s: no open position: %w", marketID, side, domain.ErrNotFound)
		}
		l.cash += closeSize * price
		l.realized += (price - pos.AvgPrice) * closeSize
		pos.Size -= closeSize
		if pos.Size <= 0 {
			delete(l.positions, k)
		} else {
			l.positions[k] = pos
		}

	default:
		return fmt.Errorf("ledger: apply fill: unknown action %q: %w", action, domain.ErrInvalidOrder)
	}
	return nil
}

// Mark records the latest tradable prices for a market so unrealized PnL can
// be computed in View. Markets with no open position have their marks dropped.
func (l *Ledger) Mark(marketID string, yesPrice, noPrice float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if yesPrice > 0 {
		l.marks[key(marketID, domain.SideYes)] = yesPrice
	}
	if noPrice > 0 {
		l.marks[key(marketID, domain.SideNo)] = noPrice
	}
	for k := range l.marks {
		if _, open := l.positions[k]; !open {
			delete(l.marks, k)
		}
	}
}

// Position returns the open position for a market side.
func (l *Ledger) Position(marketID string, side domain.Side) (domain.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.positions[key(marketID, side)]
	return p, ok
}

// Positions returns a copy of all open positions.
func (l *Ledger) Positions() []domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	return out
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash
}

// RealizedPnL returns the cumulative realized profit and loss.
func (l *Ledger) RealizedPnL() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.realized
}

// View assembles a consistent portfolio snapshot. Unrealized PnL covers only
// positions with a current mark.
func (l *Ledger) View(asOf time.Time) domain.PortfolioView {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var unrealized float64
	positions := make([]domain.Position, 0, len(l.positions))
	for k, p := range l.positions {
		positions = append(positions, p)
		if mark, ok := l.marks[k]; ok {
			unrealized += (mark - p.AvgPrice) * p.Size
		}
	}
	return domain.PortfolioView{
		Cash:          l.cash,
		RealizedPnL:   l.realized,
		UnrealizedPnL: unrealized,
		Positions:     positions,
		AsOf:          asOf,
	}
}
