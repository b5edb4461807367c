// Package timing implements the deterministic entry gate. The gate never
// looks at prices or positions; it only judges whether market conditions make
// this moment acceptable for opening a new leg.
package timing

import (
	"fmt"

	"github.com/calebwray/hedgebot/internal/domain"
)

// Gate holds the rejection thresholds. Quiet hours are UTC, inclusive on both
// ends; entries are only permitted inside them.
type Gate struct {
	VolThreshold        float64
	DepthAccelThreshold float64
	SpreadWideningLimit float64
	QuietHourStart      int
	QuietHourEnd        int
}

// Allow evaluates the gate against a microstructure summary. It returns false
// with the first matching rejection reason; the comparison directions are
// deliberate and must not be loosened.
func (g Gate) Allow(f domain.MicroFeatures) (bool, string) {
	if f.InRiskWindow {
		return false, "inside macro risk window"
	}
	if f.RealizedVol >= g.VolThreshold {
		return false, fmt.Sprintf("realized vol %.4f >= %.4f", f.RealizedVol, g.VolThreshold)
	}
	if f.DepthChange <= g.DepthAccelThreshold {
		return false, fmt.Sprintf("depth change %.4f <= %.4f", f.DepthChange, g.DepthAccelThreshold)
	}
	if f.SpreadChange >= g.SpreadWideningLimit {
		return false, fmt.Sprintf("spread change %.4f >= %.4f", f.SpreadChange, g.SpreadWideningLimit)
	}
	if !g.quietHour(f.AsOf.UTC().Hour()) {
		return false, "outside quiet hours"
	}
	return true, ""
}

func (g Gate) quietHour(h int) bool {
	return h >= g.QuietHourStart && h <= g.QuietHourEnd
}
