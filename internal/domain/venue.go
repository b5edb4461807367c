package domain

import "context"

// VenueClient is the trading venue surface the engine consumes. Implementations
// must degrade rather than fail: PlaceOrder returns a simulated result instead
// of propagating venue errors, and the other calls return empty values with an
// error the caller may log and continue past.
type VenueClient interface {
	// ListMarkets returns active markets, up to limit.
	ListMarkets(ctx context.Context, limit int) ([]Market, error)

	// OrderBook returns the aggregated book depth for one side's token.
	OrderBook(ctx context.Context, tokenID string) (BookDepth, error)

	// PlaceOrder submits an order. It never returns a venue error; on failure
	// the result carries status "simulated".
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)

	// AccountSnapshot returns venue-side balances and positions.
	AccountSnapshot(ctx context.Context) (AccountSnapshot, error)
}
