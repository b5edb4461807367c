package domain

import "context"

// SnapshotCache stores the latest book depth per market for dashboard reads.
type SnapshotCache interface {
	SetDepth(ctx context.Context, marketID string, depth BookDepth) error
	GetDepth(ctx context.Context, marketID string) (BookDepth, error)
	SetPortfolio(ctx context.Context, view PortfolioView) error
	GetPortfolio(ctx context.Context) (PortfolioView, error)
}

// SignalBus provides pub/sub for trade and position events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
