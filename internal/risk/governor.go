// Package risk sizes positions and enforces the daily loss limit.
package risk

import (
	"sync"
	"time"
)

// Config holds the sizing parameters and the daily loss limit in USD.
type Config struct {
	BaseSizeFrac   float64
	MaxPerMarket   float64
	DailyLossLimit float64
	DepthMultiple  float64
}

// Governor combines position sizing with a per-UTC-day loss circuit breaker
// over realized plus unrealized PnL. A breach suppresses new entries only;
// exits always run.
type Governor struct {
	cfg Config

	mu          sync.Mutex
	day         time.Time
	dayBaseline float64
	realized    float64
	unrealized  float64
}

// NewGovernor creates a Governor. DepthMultiple defaults to 3 when unset.
func NewGovernor(cfg Config) *Governor {
	if cfg.DepthMultiple <= 0 {
		cfg.DepthMultiple = 3
	}
	return &Governor{cfg: cfg}
}

// ObservePnL records the cumulative realized PnL and the current unrealized
// PnL at now. The realized baseline resets at each UTC day boundary so the
// loss limit applies per day; unrealized drawdown always counts in full since
// open marks carry no history.
func (g *Governor) ObservePnL(realized, unrealized float64, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(g.day) {
		g.day = day
		g.dayBaseline = realized
	}
	g.realized = realized
	g.unrealized = unrealized
}

// DailyLossBreached reports whether realized losses since the start of the
// current UTC day plus the current unrealized drawdown have reached the
// configured limit.
func (g *Governor) DailyLossBreached() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cfg.DailyLossLimit <= 0 {
		return false
	}
	return g.dayBaseline-g.realized-g.unrealized >= g.cfg.DailyLossLimit
}

// ClampPosition returns the allowed size for a new leg given available cash
// and the near-top book depth. The base size is a fraction of cash capped at
// the per-market maximum; when depth is known the size is further capped so
// the order never exceeds depth divided by the depth multiple.
func (g *Governor) ClampPosition(cash, nearTopDepth float64) float64 {
	base := cash * g.cfg.BaseSizeFrac
	if base > g.cfg.MaxPerMarket {
		base = g.cfg.MaxPerMarket
	}
	if base < 0 {
		return 0
	}
	if nearTopDepth > 0 {
		cap := nearTopDepth / g.cfg.DepthMultiple
		if cap < base {
			base = cap
		}
	}
	return base
}

// KellyPosition returns the Kelly-fraction notional for a binary contract at
// price p with the given win-probability edge over the market. The fraction
// is clamped to [-1, 1]; prices outside (0, 1) size to zero.
func (g *Governor) KellyPosition(bankroll, edge, price float64) float64 {
	if price <= 0 || price >= 1 {
		return 0
	}
	frac := edge / (price * (1 - price))
	if frac > 1 {
		frac = 1
	}
	if frac < -1 {
		frac = -1
	}
	return bankroll * frac
}
