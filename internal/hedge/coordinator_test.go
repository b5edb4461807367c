package hedge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebwray/hedgebot/internal/domain"
)

var t0 = time.Date(2026, 8, 25, 7, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Timeout:             3 * time.Minute,
		CombinedAvgLimit:    0.99,
		DepthMultiple:       3,
		TriggerDiscount:     1,
		VolThreshold:        0.015,
		SpreadWideningLimit: 0.50,
	}
}

func market(yes, no float64) domain.Market {
	return domain.Market{ID: "mkt-1", YesPrice: yes, NoPrice: no}
}

func calmSnapshot(m domain.Market, now time.Time) Snapshot {
	return Snapshot{
		Market:       m,
		Features:     domain.MicroFeatures{MarketID: m.ID, RealizedVol: 0.001, DepthChange: 0.1, SpreadChange: 0.1},
		NearTopDepth: 1000,
		Now:          now,
	}
}

// enterYes opens a YES leg at 0.40 with the NO side quoted 0.55 at entry.
func enterYes(t *testing.T, c *Coordinator) {
	t.Helper()
	require.NoError(t, c.CommitEntry("mkt-1", domain.SideYes, 10, 0.40, 0.55, t0))
}

func TestProposeEntryCheapSide(t *testing.T) {
	c := NewCoordinator(testConfig())

	side, price, ok := c.ProposeEntry(market(0.40, 0.62))
	require.True(t, ok)
	assert.Equal(t, domain.SideYes, side)
	assert.Equal(t, 0.40, price)

	side, price, ok = c.ProposeEntry(market(0.62, 0.40))
	require.True(t, ok)
	assert.Equal(t, domain.SideNo, side)
	assert.Equal(t, 0.40, price)
}

func TestProposeEntryTieGoesToNo(t *testing.T) {
	c := NewCoordinator(testConfig())

	side, price, ok := c.ProposeEntry(market(0.30, 0.30))
	require.True(t, ok)
	assert.Equal(t, domain.SideNo, side)
	assert.Equal(t, 0.30, price)
}

func TestProposeEntryRejectsBadQuotes(t *testing.T) {
	c := NewCoordinator(testConfig())
	_, _, ok := c.ProposeEntry(market(0, 0.50))
	assert.False(t, ok)
}

func TestCommitEntryArmsTriggerAtOtherLegPrice(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)

	assert.Equal(t, domain.HedgePhaseSingleLeg, c.Phase("mkt-1"))
	p, ok := c.Pending("mkt-1")
	require.True(t, ok)
	assert.InDelta(t, 0.55, p.TriggerPrice, 1e-9)
}

func TestTriggerDiscountTightensTrigger(t *testing.T) {
	cfg := testConfig()
	cfg.TriggerDiscount = 0.97
	c := NewCoordinator(cfg)
	require.NoError(t, c.CommitEntry("mkt-1", domain.SideYes, 10, 0.40, 0.55, t0))

	p, ok := c.Pending("mkt-1")
	require.True(t, ok)
	assert.InDelta(t, 0.55*0.97, p.TriggerPrice, 1e-9)
}

func TestCommitEntryRejectsOpenAndHedgedMarkets(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)
	assert.ErrorIs(t, c.CommitEntry("mkt-1", domain.SideYes, 10, 0.40, 0.55, t0), domain.ErrInvalidOrder)

	c.CommitHedge("mkt-1")
	assert.ErrorIs(t, c.CommitEntry("mkt-1", domain.SideYes, 10, 0.40, 0.55, t0), domain.ErrMarketHedged)
}

func TestHedgedMarketNeverReentered(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)
	c.CommitHedge("mkt-1")

	_, _, ok := c.ProposeEntry(market(0.40, 0.62))
	assert.False(t, ok)
	a := c.Evaluate(calmSnapshot(market(0.40, 0.30), t0))
	assert.Equal(t, ActionNone, a.Kind)
}

func TestEvaluateHedgeFires(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)

	// NO cheapened from 0.55 to 0.35; pair cost 0.75.
	a := c.Evaluate(calmSnapshot(market(0.42, 0.35), t0.Add(time.Minute)))
	require.Equal(t, ActionHedge, a.Kind)
	assert.Equal(t, domain.SideNo, a.Side)
	assert.Equal(t, 10.0, a.Size)
	assert.Equal(t, 0.35, a.Price)
}

func TestEvaluateHedgeNeedsTriggerBreach(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)

	// NO still at its entry-time price: no hedge.
	a := c.Evaluate(calmSnapshot(market(0.42, 0.55), t0.Add(time.Minute)))
	assert.NotEqual(t, ActionHedge, a.Kind)
}

func TestEvaluateHedgeBlockedByCombinedLimit(t *testing.T) {
	c := NewCoordinator(testConfig())
	require.NoError(t, c.CommitEntry("mkt-1", domain.SideYes, 10, 0.70, 0.65, t0))

	// NO cheapened below 0.65 but 0.70 + 0.30 hits the 0.99 limit at 1.00.
	a := c.Evaluate(calmSnapshot(market(0.72, 0.30), t0.Add(time.Minute)))
	assert.NotEqual(t, ActionHedge, a.Kind)
}

func TestEvaluateHedgeBlockedByThinDepth(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)

	s := calmSnapshot(market(0.42, 0.35), t0.Add(time.Minute))
	s.NearTopDepth = 29 // needs 3 * 10
	a := c.Evaluate(s)
	assert.NotEqual(t, ActionHedge, a.Kind)
}

func TestEvaluateHedgeBlockedByRiskWindow(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)

	s := calmSnapshot(market(0.42, 0.35), t0.Add(time.Minute))
	s.Features.InRiskWindow = true
	a := c.Evaluate(s)
	assert.Equal(t, ActionNone, a.Kind)
}

func TestEvaluateExitOnTimeoutOnlyAtOrAboveEntry(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)

	late := t0.Add(4 * time.Minute)

	// Underwater: hold even past the timeout.
	a := c.Evaluate(calmSnapshot(market(0.35, 0.60), late))
	assert.Equal(t, ActionNone, a.Kind)

	// At entry: flat exit allowed.
	a = c.Evaluate(calmSnapshot(market(0.40, 0.60), late))
	require.Equal(t, ActionExit, a.Kind)
	assert.Equal(t, domain.SideYes, a.Side)
	assert.Equal(t, 0.40, a.Price)
}

func TestEvaluateExitOnVolDepthSpread(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)

	soon := t0.Add(30 * time.Second)

	s := calmSnapshot(market(0.45, 0.60), soon)
	s.Features.RealizedVol = 0.02
	assert.Equal(t, ActionExit, c.Evaluate(s).Kind)

	s = calmSnapshot(market(0.45, 0.60), soon)
	s.Features.DepthChange = -0.01
	assert.Equal(t, ActionExit, c.Evaluate(s).Kind)

	s = calmSnapshot(market(0.45, 0.60), soon)
	s.Features.SpreadChange = 0.6
	assert.Equal(t, ActionExit, c.Evaluate(s).Kind)

	// Calm and in time: hold.
	assert.Equal(t, ActionNone, c.Evaluate(calmSnapshot(market(0.45, 0.60), soon)).Kind)
}

func TestEvaluateUsesLedgerPositionWhenPresent(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)

	s := calmSnapshot(market(0.41, 0.60), t0.Add(4*time.Minute))
	s.Position = domain.Position{MarketID: "mkt-1", Side: domain.SideYes, Size: 12, AvgPrice: 0.42}

	// Ledger average 0.42 is above the 0.41 quote: no exit.
	assert.Equal(t, ActionNone, c.Evaluate(s).Kind)

	s.Market = market(0.42, 0.60)
	a := c.Evaluate(s)
	require.Equal(t, ActionExit, a.Kind)
	assert.Equal(t, 12.0, a.Size)
}

func TestCommitExitReturnsToFlat(t *testing.T) {
	c := NewCoordinator(testConfig())
	enterYes(t, c)
	c.CommitExit("mkt-1")

	assert.Equal(t, domain.HedgePhaseFlat, c.Phase("mkt-1"))
	_, _, ok := c.ProposeEntry(market(0.40, 0.62))
	assert.True(t, ok)
}
