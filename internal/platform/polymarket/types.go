package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/calebwray/hedgebot/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"condition_id"`
	Slug          string   `json:"slug"`
	ActiveFromAPI flexBool `json:"active"` // API may send bool or "true"/"false" string
	Closed        bool     `json:"closed"`
	Outcomes      string   `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	Tokens        []Token  `json:"tokens"`
	Volume        string   `json:"volume"`
	EndDateISO    string   `json:"end_date_iso"`
	EndDate       string   `json:"endDate"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	ClobTokenIDs  string   `json:"clob_token_ids"` // JSON-encoded: e.g. "[\"123\",\"456\"]"
}

// Token represents a token entry inside the Gamma API market response.
type Token struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
	Winner  bool   `json:"winner"`
}

// ToDomainMarket converts a Gamma APIMarket to a domain.Market.
func (m *APIMarket) ToDomainMarket() domain.Market {
	dm := domain.Market{
		ID:          m.ID,
		Question:    m.Question,
		Slug:        m.Slug,
		ConditionID: m.ConditionID,
		Outcomes:    [2]string{"Yes", "No"},
	}
	if dm.Question == "" {
		dm.Question = "Unknown"
	}

	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		dm.Volume = v
	}

	if m.Closed {
		dm.Status = domain.MarketStatusClosed
	} else if bool(m.ActiveFromAPI) {
		dm.Status = domain.MarketStatusActive
	} else {
		dm.Status = domain.MarketStatusSettled
	}

	// Outcome labels and quoted prices arrive as JSON-encoded string arrays.
	var outcomes []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err == nil {
		for i := 0; i < len(outcomes) && i < 2; i++ {
			dm.Outcomes[i] = outcomes[i]
		}
	}
	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err == nil {
		if len(prices) > 0 {
			dm.YesPrice, _ = strconv.ParseFloat(prices[0], 64)
		}
		if len(prices) > 1 {
			dm.NoPrice, _ = strconv.ParseFloat(prices[1], 64)
		}
	}

	// Token IDs: prefer the tokens array, fall back to clob_token_ids.
	for i, tok := range m.Tokens {
		if i >= 2 {
			break
		}
		dm.TokenIDs[i] = tok.TokenID
		if tok.Outcome != "" {
			dm.Outcomes[i] = tok.Outcome
		}
	}
	if dm.TokenIDs[0] == "" && m.ClobTokenIDs != "" {
		var ids []string
		if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err == nil {
			for i := 0; i < len(ids) && i < 2; i++ {
				dm.TokenIDs[i] = ids[i]
			}
		}
	}

	if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
		dm.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, m.UpdatedAt); err == nil {
		dm.UpdatedAt = t
	}
	raw := m.EndDateISO
	if raw == "" {
		raw = m.EndDate
	}
	if raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			dm.EndDate = &t
		}
	}

	return dm
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBookLevel is a single price level in the CLOB book response.
type APIBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// APIBook is the CLOB order book response for one token.
type APIBook struct {
	Market    string         `json:"market"`
	AssetID   string         `json:"asset_id"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
}

// ToDomainDepth aggregates the raw book into the depth summary the engine
// consumes: top-5 depth per side and the top-2 near-top total across both.
func (b *APIBook) ToDomainDepth(marketID string) domain.BookDepth {
	d := domain.BookDepth{
		MarketID:  marketID,
		Timestamp: parseBookTimestamp(b.Timestamp),
	}

	for i, lvl := range b.Bids {
		p, _ := strconv.ParseFloat(lvl.Price, 64)
		s, _ := strconv.ParseFloat(lvl.Size, 64)
		if i == 0 {
			d.BestBid = p
		}
		if i < 5 {
			d.DepthBid += s
		}
		if i < 2 {
			d.NearTopDepth += s
		}
	}
	for i, lvl := range b.Asks {
		p, _ := strconv.ParseFloat(lvl.Price, 64)
		s, _ := strconv.ParseFloat(lvl.Size, 64)
		if i == 0 {
			d.BestAsk = p
		}
		if i < 5 {
			d.DepthAsk += s
		}
		if i < 2 {
			d.NearTopDepth += s
		}
	}
	if len(b.Bids) == 0 {
		d.BestBid = 0
	}
	if len(b.Asks) == 0 {
		d.BestAsk = 1
	}
	return d
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg,omitempty"`
	OrderID  string `json:"orderID,omitempty"`
	Status   string `json:"status,omitempty"`
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// BookMessage represents a full orderbook snapshot delivered over WebSocket.
type BookMessage struct {
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []WSPriceLevel `json:"bids"`
	Asks      []WSPriceLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
}

// WSPriceLevel is a single bid/ask level in the WebSocket orderbook data.
type WSPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// WSCommand is the JSON payload sent to the WebSocket to subscribe/unsubscribe.
type WSCommand struct {
	Type    string   `json:"type"` // "subscribe" or "unsubscribe"
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids,omitempty"`
}

// BookToDomainSnapshot converts a BookMessage to a domain.OrderbookSnapshot.
func BookToDomainSnapshot(b *BookMessage) domain.OrderbookSnapshot {
	snap := domain.OrderbookSnapshot{
		AssetID:   b.AssetID,
		Timestamp: parseBookTimestamp(b.Timestamp),
	}

	for _, lvl := range b.Bids {
		p, _ := strconv.ParseFloat(lvl.Price, 64)
		s, _ := strconv.ParseFloat(lvl.Size, 64)
		snap.Bids = append(snap.Bids, domain.PriceLevel{Price: p, Size: s})
		if p > snap.BestBid {
			snap.BestBid = p
		}
	}
	for _, lvl := range b.Asks {
		p, _ := strconv.ParseFloat(lvl.Price, 64)
		s, _ := strconv.ParseFloat(lvl.Size, 64)
		snap.Asks = append(snap.Asks, domain.PriceLevel{Price: p, Size: s})
		if snap.BestAsk == 0 || p < snap.BestAsk {
			snap.BestAsk = p
		}
	}

	if snap.BestBid > 0 && snap.BestAsk > 0 {
		snap.MidPrice = (snap.BestBid + snap.BestAsk) / 2
	}
	return snap
}

func parseBookTimestamp(raw string) time.Time {
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		// CLOB timestamps are unix millis.
		if ts > 1e12 {
			return time.UnixMilli(ts)
		}
		return time.Unix(ts, 0)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Now()
}

// --------------------------------------------------------------------------
// Account DTOs
// --------------------------------------------------------------------------

// APIBalance is a single wallet balance entry.
type APIBalance struct {
	Symbol  string  `json:"symbol"`
	Balance float64 `json:"balance"`
}

// APIPosition is an open position as reported by the venue.
type APIPosition struct {
	MarketID string  `json:"marketId"`
	Outcome  string  `json:"outcome"`
	Size     float64 `json:"size"`
	AvgPrice float64 `json:"avgPrice"`
}

// ToDomainPosition converts an APIPosition to a domain.Position. Sides other
// than NO default to YES, matching the venue's lenient reporting.
func (p *APIPosition) ToDomainPosition() domain.Position {
	side := domain.SideYes
	if strings.EqualFold(p.Outcome, string(domain.SideNo)) {
		side = domain.SideNo
	}
	return domain.Position{
		MarketID: p.MarketID,
		Side:     side,
		Size:     p.Size,
		AvgPrice: p.AvgPrice,
	}
}
