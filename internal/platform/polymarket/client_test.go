package polymarket

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebwray/hedgebot/internal/crypto"
	"github.com/calebwray/hedgebot/internal/domain"
	"github.com/calebwray/hedgebot/internal/ratelimit"
)

var testAuth = crypto.HMACAuth{Key: "key-1", Secret: "c2VjcmV0", Passphrase: "pass"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(gamma, clob string, opts ...Option) *Client {
	return NewClient(gamma, clob, ratelimit.New(1000, time.Minute), discardLogger(), opts...)
}

func TestListMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("active"))
		_, _ = w.Write([]byte(`[{
			"id": "mkt-1",
			"question": "Bitcoin Up or Down - August 25, 7:15AM ET",
			"active": "true",
			"closed": false,
			"outcomes": "[\"Up\",\"Down\"]",
			"outcomePrices": "[\"0.48\",\"0.54\"]",
			"volume": "12345.6",
			"endDate": "2026-08-25T11:15:00Z",
			"clob_token_ids": "[\"111\",\"222\"]"
		}]`))
	}))
	defer srv.Close()

	markets, err := newTestClient(srv.URL, srv.URL).ListMarkets(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, markets, 1)

	m := markets[0]
	assert.Equal(t, "mkt-1", m.ID)
	assert.Equal(t, domain.MarketStatusActive, m.Status)
	assert.Equal(t, [2]string{"Up", "Down"}, m.Outcomes)
	assert.InDelta(t, 0.48, m.YesPrice, 1e-9)
	assert.InDelta(t, 0.54, m.NoPrice, 1e-9)
	assert.Equal(t, "111", m.TokenID(domain.SideYes))
	assert.Equal(t, "222", m.TokenID(domain.SideNo))
	require.NotNil(t, m.EndDate)
	assert.Equal(t, 2026, m.EndDate.Year())
}

func TestOrderBookAggregatesDepth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/book", r.URL.Path)
		require.Equal(t, "111", r.URL.Query().Get("token_id"))
		_, _ = w.Write([]byte(`{
			"market": "mkt-1",
			"asset_id": "111",
			"bids": [
				{"price":"0.47","size":"10"},
				{"price":"0.46","size":"20"},
				{"price":"0.45","size":"30"},
				{"price":"0.44","size":"40"},
				{"price":"0.43","size":"50"},
				{"price":"0.42","size":"999"}
			],
			"asks": [
				{"price":"0.49","size":"5"},
				{"price":"0.50","size":"15"}
			],
			"timestamp": "1756100000000"
		}`))
	}))
	defer srv.Close()

	depth, err := newTestClient(srv.URL, srv.URL).OrderBook(context.Background(), "111")
	require.NoError(t, err)

	assert.Equal(t, "mkt-1", depth.MarketID)
	assert.InDelta(t, 0.47, depth.BestBid, 1e-9)
	assert.InDelta(t, 0.49, depth.BestAsk, 1e-9)
	assert.InDelta(t, 150, depth.DepthBid, 1e-9) // top 5 bids only
	assert.InDelta(t, 20, depth.DepthAsk, 1e-9)
	assert.InDelta(t, 10+20+5+15, depth.NearTopDepth, 1e-9) // top 2 each side
	assert.InDelta(t, 0.02, depth.Spread(), 1e-9)
	assert.InDelta(t, 0.48, depth.Mid(), 1e-9)
}

func TestOrderBookEmptySidesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"market":"mkt-1","asset_id":"111","bids":[],"asks":[]}`))
	}))
	defer srv.Close()

	depth, err := newTestClient(srv.URL, srv.URL).OrderBook(context.Background(), "111")
	require.NoError(t, err)
	assert.Zero(t, depth.BestBid)
	assert.Equal(t, 1.0, depth.BestAsk)
	assert.Zero(t, depth.NearTopDepth)
}

func TestPlaceOrderSimulatedOnVenueError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, srv.URL).PlaceOrder(context.Background(), domain.OrderRequest{
		MarketID: "mkt-1", TokenID: "111", Side: domain.SideYes, Size: 10, Price: 0.48,
	})
	require.NoError(t, err)
	assert.True(t, res.Simulated())
	assert.Equal(t, 10.0, res.Filled)
	assert.Equal(t, 0.48, res.Price)
}

func TestPlaceOrderAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/order", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"orderID":"ord-9","status":"matched"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, srv.URL).PlaceOrder(context.Background(), domain.OrderRequest{
		MarketID: "mkt-1", TokenID: "111", Side: domain.SideYes, Size: 10, Price: 0.48,
	})
	require.NoError(t, err)
	assert.False(t, res.Simulated())
	assert.Equal(t, "ord-9", res.OrderID)
	assert.Equal(t, "matched", res.Status)
}

func TestPlaceOrderRejectedDegradesToSimulated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"errorMsg":"insufficient balance"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, srv.URL).PlaceOrder(context.Background(), domain.OrderRequest{
		MarketID: "mkt-1", TokenID: "111", Side: domain.SideYes, Size: 10, Price: 0.48,
	})
	require.NoError(t, err)
	assert.True(t, res.Simulated())
}

func TestAccountSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/balances":
			_, _ = w.Write([]byte(`[{"symbol":"USDC","balance":512.5},{"symbol":"MATIC","balance":3}]`))
		case "/positions":
			_, _ = w.Write([]byte(`[
				{"marketId":"mkt-1","outcome":"NO","size":20,"avgPrice":0.35},
				{"marketId":"mkt-2","outcome":"YES","size":0,"avgPrice":0.5}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL, srv.URL).AccountSnapshot(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 512.5, snap.Cash, 1e-9)
	require.Len(t, snap.Positions, 1) // zero-size positions dropped
	assert.Equal(t, domain.SideNo, snap.Positions[0].Side)
}

func TestHMACHeadersApplied(t *testing.T) {
	var gotKey, gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("POLY_API_KEY")
		gotSig = r.Header.Get("POLY_SIGNATURE")
		_, _ = w.Write([]byte(`{"market":"m","asset_id":"1","bids":[],"asks":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, WithHMACAuth(&testAuth, "0xabc"))
	_, err := c.OrderBook(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "key-1", gotKey)
	assert.NotEmpty(t, gotSig)
}

func TestBearerKeyApplied(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, WithBearerKey("abc123"))
	_, err := c.ListMarkets(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", got)
}

func TestErrorMapping(t *testing.T) {
	for status, want := range map[int]error{
		http.StatusNotFound:        domain.ErrNotFound,
		http.StatusUnauthorized:    domain.ErrUnauthorized,
		http.StatusTooManyRequests: domain.ErrRateLimited,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newTestClient(srv.URL, srv.URL).ListMarkets(context.Background(), 1)
		assert.ErrorIs(t, err, want, "status %d", status)
		srv.Close()
	}
}
