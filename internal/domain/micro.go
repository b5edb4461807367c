package domain

import "time"

// MicroFeatures is the per-market microstructure summary computed from the
// rolling observation buffers. All change fields are fractional, e.g. 0.05
// means a 5 % increase over the comparison window.
type MicroFeatures struct {
	MarketID     string
	RealizedVol  float64 // population stddev of sequential mid-price returns over the vol window
	DepthChange  float64 // fractional change in combined depth over the change window
	SpreadChange float64 // fractional change in spread over the change window
	InRiskWindow bool    // observation time falls inside the configured UTC risk hours
	Observations int     // number of buffered observations backing the summary
	AsOf         time.Time
}

// MicroObservation is a single order-book reading fed into the tracker.
type MicroObservation struct {
	MarketID     string
	MidPrice     float64
	Depth        float64
	Spread       float64
	NearTopDepth float64
	Timestamp    time.Time
}
