package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebwray/hedgebot/internal/domain"
)

type listOnlyVenue struct {
	markets []domain.Market
}

func (v *listOnlyVenue) ListMarkets(context.Context, int) ([]domain.Market, error) {
	return v.markets, nil
}

func (v *listOnlyVenue) OrderBook(context.Context, string) (domain.BookDepth, error) {
	return domain.BookDepth{}, nil
}

func (v *listOnlyVenue) PlaceOrder(context.Context, domain.OrderRequest) (domain.OrderResult, error) {
	return domain.OrderResult{}, nil
}

func (v *listOnlyVenue) AccountSnapshot(context.Context) (domain.AccountSnapshot, error) {
	return domain.AccountSnapshot{}, nil
}

func scannerAt(venue domain.VenueClient, now time.Time) *Scanner {
	s := NewScanner(venue, 100, []string{"BTC", "ETH", "XRP"})
	s.now = func() time.Time { return now }
	return s
}

func endAt(t time.Time) *time.Time { return &t }

func TestScanKeepsCryptoQuarterHourMarkets(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	venue := &listOnlyVenue{markets: []domain.Market{
		{
			ID:       "btc-1",
			Question: "Bitcoin Up or Down - August 25, 12:15PM ET",
			Status:   domain.MarketStatusActive,
			EndDate:  endAt(now.Add(15 * time.Minute)),
		},
		{
			ID:       "eth-1",
			Question: "Ethereum Up or Down - August 25, 12:15PM ET",
			Status:   domain.MarketStatusActive,
			EndDate:  endAt(now.Add(15 * time.Minute)),
		},
		{
			ID:       "politics-1",
			Question: "Will candidate X win the election?",
			Status:   domain.MarketStatusActive,
		},
		{
			ID:       "btc-daily",
			Question: "Bitcoin up or down today?",
			Status:   domain.MarketStatusActive,
		},
	}}

	got, err := scannerAt(venue, now).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "btc-1", got[0].ID)
	assert.Equal(t, "eth-1", got[1].ID)
}

func TestScanMatchesAssetAliases(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	venue := &listOnlyVenue{markets: []domain.Market{
		{
			ID:       "xrp-1",
			Question: "Ripple Up or Down - 15 minute close",
			Status:   domain.MarketStatusActive,
		},
	}}

	got, err := scannerAt(venue, now).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "xrp-1", got[0].ID)
}

func TestScanDropsClosedAndStaleMarkets(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	venue := &listOnlyVenue{markets: []domain.Market{
		{
			ID:       "closed",
			Question: "Bitcoin Up or Down - 15 minute",
			Status:   domain.MarketStatusClosed,
		},
		{
			ID:       "expired",
			Question: "Bitcoin Up or Down - 15 minute",
			Status:   domain.MarketStatusActive,
			EndDate:  endAt(now.Add(-time.Hour)),
		},
		{
			ID:       "next-year",
			Question: "Bitcoin Up or Down - 15 minute",
			Status:   domain.MarketStatusActive,
			EndDate:  endAt(time.Date(2027, 1, 1, 0, 15, 0, 0, time.UTC)),
		},
	}}

	got, err := scannerAt(venue, now).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanUnknownAssetMatchesLowercaseSymbol(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	venue := &listOnlyVenue{markets: []domain.Market{
		{
			ID:       "sol-1",
			Question: "SOL Up or Down - 15 minute close",
			Status:   domain.MarketStatusActive,
		},
	}}

	s := NewScanner(venue, 100, []string{"SOL"})
	s.now = func() time.Time { return now }

	got, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
}
