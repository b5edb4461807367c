// Package polymarket implements the venue client: Gamma market discovery,
// CLOB book and order endpoints, and the real-time WebSocket feed. All REST
// traffic passes through a shared sliding-window rate limiter.
package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/calebwray/hedgebot/internal/crypto"
	"github.com/calebwray/hedgebot/internal/domain"
	"github.com/calebwray/hedgebot/internal/ratelimit"
)

// Client is the REST venue client. It implements domain.VenueClient.
type Client struct {
	gammaHost  string
	clobHost   string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	auth       *crypto.HMACAuth
	address    string
	apiKey     string
	logger     *slog.Logger
}

var _ domain.VenueClient = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHMACAuth attaches L2 HMAC credentials for authenticated endpoints.
func WithHMACAuth(auth *crypto.HMACAuth, address string) Option {
	return func(c *Client) {
		c.auth = auth
		c.address = address
	}
}

// WithBearerKey attaches a plain bearer API key, used when no HMAC triple is
// configured.
func WithBearerKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates a venue client.
//
// gammaHost is the discovery API root, e.g. "https://gamma-api.polymarket.com".
// clobHost is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClient(gammaHost, clobHost string, limiter *ratelimit.Limiter, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		gammaHost: gammaHost,
		clobHost:  clobHost,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
		logger:  logger.With("component", "polymarket"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListMarkets returns active markets from the Gamma API, up to limit.
func (c *Client) ListMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	if limit <= 0 {
		limit = 250
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("active", "true")
	params.Set("closed", "false")

	body, err := c.doGet(ctx, c.gammaHost, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket: list markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket: decode markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(apiMarkets))
	for i := range apiMarkets {
		markets = append(markets, apiMarkets[i].ToDomainMarket())
	}
	return markets, nil
}

// OrderBook returns the aggregated book depth for one outcome token.
func (c *Client) OrderBook(ctx context.Context, tokenID string) (domain.BookDepth, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, c.clobHost, "/book?"+params.Encode())
	if err != nil {
		return domain.BookDepth{}, fmt.Errorf("polymarket: order book %s: %w", tokenID, err)
	}

	var book APIBook
	if err := json.Unmarshal(body, &book); err != nil {
		return domain.BookDepth{}, fmt.Errorf("polymarket: decode book: %w", err)
	}
	return book.ToDomainDepth(book.Market), nil
}

// PlaceOrder submits an order to the CLOB. Venue failures never propagate;
// the result degrades to status "simulated" so the paper ledger stays
// consistent whether or not the venue accepted the order.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	payload := map[string]any{
		"marketId": req.MarketID,
		"tokenId":  req.TokenID,
		"side":     string(req.Side),
		"size":     req.Size,
		"price":    req.Price,
	}

	body, err := c.doPost(ctx, c.clobHost, "/order", payload)
	if err != nil {
		c.logger.WarnContext(ctx, "order fell back to simulation",
			"market_id", req.MarketID,
			"side", req.Side,
			"error", err,
		)
		return domain.OrderResult{
			Status: "simulated",
			Filled: req.Size,
			Price:  req.Price,
		}, nil
	}

	var result APIOrderResult
	if err := json.Unmarshal(body, &result); err != nil || !result.Success {
		return domain.OrderResult{
			Status: "simulated",
			Filled: req.Size,
			Price:  req.Price,
		}, nil
	}

	status := result.Status
	if status == "" {
		status = "submitted"
	}
	return domain.OrderResult{
		OrderID: result.OrderID,
		Status:  status,
		Filled:  req.Size,
		Price:   req.Price,
	}, nil
}

// AccountSnapshot aggregates wallet balances and open positions. Cash is the
// USDC balance; a venue that exposes neither endpoint yields an empty
// snapshot and an error the caller may log and continue past.
func (c *Client) AccountSnapshot(ctx context.Context) (domain.AccountSnapshot, error) {
	snap := domain.AccountSnapshot{AsOf: time.Now().UTC()}

	body, err := c.doGet(ctx, c.clobHost, "/balances")
	if err != nil {
		return snap, fmt.Errorf("polymarket: account balances: %w", err)
	}
	var balances []APIBalance
	if err := json.Unmarshal(body, &balances); err == nil {
		for _, b := range balances {
			switch b.Symbol {
			case "USDC", "USD", "USDC.E":
				snap.Cash = b.Balance
			}
		}
	}

	body, err = c.doGet(ctx, c.clobHost, "/positions")
	if err != nil {
		return snap, fmt.Errorf("polymarket: account positions: %w", err)
	}
	var positions []APIPosition
	if err := json.Unmarshal(body, &positions); err == nil {
		for i := range positions {
			if positions[i].Size <= 0 {
				continue
			}
			snap.Positions = append(snap.Positions, positions[i].ToDomainPosition())
		}
	}
	return snap, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func (c *Client) doGet(ctx context.Context, host, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, host, path, nil)
}

func (c *Client) doPost(ctx context.Context, host, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, host, path, payload)
}

// do builds, authenticates, sends, and reads an HTTP request. Every call
// waits on the shared rate limiter first.
func (c *Client) do(ctx context.Context, method, host, path string, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var bodyReader io.Reader
	var bodyStr string
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, host+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	switch {
	case c.auth != nil:
		for k, v := range c.auth.L2Headers(c.address, method, path, bodyStr) {
			req.Header.Set(k, v)
		}
	case c.apiKey != "":
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
