package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/calebwray/hedgebot/internal/domain"
)

func testGate() Gate {
	return Gate{
		VolThreshold:        0.015,
		DepthAccelThreshold: -0.25,
		SpreadWideningLimit: 0.50,
		QuietHourStart:      5,
		QuietHourEnd:        10,
	}
}

func calmFeatures() domain.MicroFeatures {
	return domain.MicroFeatures{
		MarketID:     "mkt-1",
		RealizedVol:  0.002,
		DepthChange:  0.10,
		SpreadChange: 0.05,
		AsOf:         time.Date(2026, 8, 25, 7, 0, 0, 0, time.UTC),
	}
}

func TestAllowCalmQuietHour(t *testing.T) {
	ok, reason := testGate().Allow(calmFeatures())
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestRejectRiskWindow(t *testing.T) {
	f := calmFeatures()
	f.InRiskWindow = true
	ok, reason := testGate().Allow(f)
	assert.False(t, ok)
	assert.Contains(t, reason, "risk window")
}

func TestRejectVolAtThreshold(t *testing.T) {
	f := calmFeatures()
	f.RealizedVol = 0.015 // comparison is >=
	ok, _ := testGate().Allow(f)
	assert.False(t, ok)

	f.RealizedVol = 0.0149
	ok, _ = testGate().Allow(f)
	assert.True(t, ok)
}

func TestRejectDepthCollapseAtThreshold(t *testing.T) {
	f := calmFeatures()
	f.DepthChange = -0.25 // comparison is <=
	ok, _ := testGate().Allow(f)
	assert.False(t, ok)

	f.DepthChange = -0.24
	ok, _ = testGate().Allow(f)
	assert.True(t, ok)
}

func TestRejectSpreadWideningAtLimit(t *testing.T) {
	f := calmFeatures()
	f.SpreadChange = 0.50 // comparison is >=
	ok, _ := testGate().Allow(f)
	assert.False(t, ok)

	f.SpreadChange = 0.49
	ok, _ = testGate().Allow(f)
	assert.True(t, ok)
}

func TestQuietHoursInclusive(t *testing.T) {
	g := testGate()

	for hour, want := range map[int]bool{4: false, 5: true, 10: true, 11: false} {
		f := calmFeatures()
		f.AsOf = time.Date(2026, 8, 25, hour, 30, 0, 0, time.UTC)
		ok, _ := g.Allow(f)
		assert.Equal(t, want, ok, "hour %d", hour)
	}
}
