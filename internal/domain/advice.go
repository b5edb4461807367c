package domain

// Forecast is a directional opinion on a market produced by the forecasting
// stage of the advisory pipeline.
type Forecast struct {
	MarketID       string
	ProbabilityYes float64 // estimated true probability of the YES outcome
	Direction      string  // "UP", "DOWN", or "FLAT"
	Confidence     float64 // 0..1
	Rationale      string
	Model          string // model provenance, "offline-<model>" when degraded
}

// Edge returns the forecast's probability edge over the quoted YES price.
func (f Forecast) Edge(yesPrice float64) float64 {
	return f.ProbabilityYes - yesPrice
}

// Critique is the risk review of a forecast.
type Critique struct {
	MarketID   string
	Approve    bool
	RiskScore  float64 // 0..1, higher is riskier
	Concerns   string
	Model      string
}

// Advice is the final trading decision from the advisory pipeline.
type Advice struct {
	MarketID   string
	Action     string  // "BUY", "BUY_YES", "BUY_NO", "HEDGE", "SKIP", ...
	Side       Side
	Size       float64
	Confidence float64 // 0..1
	Rationale  string
	Model      string
}

// Declines reports whether the advice refuses the proposed entry on the given
// cheap side. Anything other than an explicit buy of that side (or a hedge)
// counts as a decline.
func (a Advice) Declines(cheap Side) bool {
	switch a.Action {
	case "BUY", "HEDGE", string(cheap), "BUY_" + string(cheap):
		return false
	default:
		return true
	}
}
