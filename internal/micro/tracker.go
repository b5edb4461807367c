// Package micro maintains rolling per-market order-book observation buffers
// and derives the microstructure features the timing gate and hedge logic
// consume.
package micro

import (
	"math"
	"sync"
	"time"

	"github.com/calebwray/hedgebot/internal/domain"
)

// point is a single buffered observation.
type point struct {
	ts       time.Time
	mid      float64
	depth    float64
	spread   float64
	nearTop  float64
}

// Config holds the tracker windows. Hours are UTC and inclusive on both ends.
type Config struct {
	Retention     time.Duration
	VolWindow     time.Duration
	ChangeWindow  time.Duration
	RiskHourStart int
	RiskHourEnd   int
}

// Tracker maintains a sliding window of recent observations for each market
// and exposes the statistical summary used for entry and exit decisions.
type Tracker struct {
	cfg     Config
	history map[string][]point
	mu      sync.RWMutex
}

// NewTracker creates a Tracker with the given windows. Points older than
// Retention relative to the newest observation are discarded on every Record.
func NewTracker(cfg Config) *Tracker {
	if cfg.Retention <= 0 {
		cfg.Retention = 5 * time.Minute
	}
	if cfg.VolWindow <= 0 {
		cfg.VolWindow = time.Minute
	}
	if cfg.ChangeWindow <= 0 {
		cfg.ChangeWindow = 30 * time.Second
	}
	return &Tracker{
		cfg:     cfg,
		history: make(map[string][]point),
	}
}

// Record buffers a new observation for the market and trims points that have
// fallen outside the retention window.
func (t *Tracker) Record(obs domain.MicroObservation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history[obs.MarketID] = append(t.history[obs.MarketID], point{
		ts:      obs.Timestamp,
		mid:     obs.MidPrice,
		depth:   obs.Depth,
		spread:  obs.Spread,
		nearTop: obs.NearTopDepth,
	})
	t.trim(obs.MarketID, obs.Timestamp)
}

// Features computes the microstructure summary for a market as of its newest
// observation. The second return value is false when no observations exist.
func (t *Tracker) Features(marketID string) (domain.MicroFeatures, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pts := t.history[marketID]
	if len(pts) == 0 {
		return domain.MicroFeatures{}, false
	}

	newest := pts[len(pts)-1]
	f := domain.MicroFeatures{
		MarketID:     marketID,
		RealizedVol:  t.realizedVol(pts, newest.ts),
		DepthChange:  changeOver(pts, newest.ts.Add(-t.cfg.ChangeWindow), func(p point) float64 { return p.depth }),
		SpreadChange: changeOver(pts, newest.ts.Add(-t.cfg.ChangeWindow), func(p point) float64 { return p.spread }),
		InRiskWindow: t.InRiskWindow(newest.ts),
		Observations: len(pts),
		AsOf:         newest.ts,
	}
	return f, true
}

// NearTopDepth returns the most recent near-top depth reading for the market,
// or 0 when nothing is buffered.
func (t *Tracker) NearTopDepth(marketID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pts := t.history[marketID]
	if len(pts) == 0 {
		return 0
	}
	return pts[len(pts)-1].nearTop
}

// InRiskWindow reports whether ts falls inside the configured UTC hour band.
func (t *Tracker) InRiskWindow(ts time.Time) bool {
	h := ts.UTC().Hour()
	return h >= t.cfg.RiskHourStart && h <= t.cfg.RiskHourEnd
}

// Forget drops all buffered observations for the market.
func (t *Tracker) Forget(marketID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.history, marketID)
}

// realizedVol is the population standard deviation of sequential fractional
// mid-price returns inside the vol window. Non-positive prices are skipped.
// A single return yields its absolute value; fewer yield 0.
func (t *Tracker) realizedVol(pts []point, newest time.Time) float64 {
	cutoff := newest.Add(-t.cfg.VolWindow)

	var prices []float64
	for _, p := range pts {
		if p.ts.Before(cutoff) {
			continue
		}
		if p.mid <= 0 {
			continue
		}
		prices = append(prices, p.mid)
	}
	if len(prices) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(returns) == 1 {
		return math.Abs(returns[0])
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

// changeOver returns the fractional change between the current value and the
// last value observed at or before the cutoff. It returns 0 when no point
// predates the cutoff or the past value is 0.
func changeOver(pts []point, cutoff time.Time, value func(point) float64) float64 {
	cur := value(pts[len(pts)-1])

	past := 0.0
	found := false
	for _, p := range pts {
		if p.ts.After(cutoff) {
			break
		}
		past = value(p)
		found = true
	}
	if !found || past == 0 {
		return 0
	}
	return (cur - past) / past
}

// trim removes all points older than the retention window relative to the
// reference time. The caller must hold t.mu.
func (t *Tracker) trim(marketID string, now time.Time) {
	cutoff := now.Add(-t.cfg.Retention)
	pts := t.history[marketID]

	i := 0
	for i < len(pts) && pts[i].ts.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.history[marketID] = pts[i:]
	}
}
