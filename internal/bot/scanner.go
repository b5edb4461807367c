// Package bot contains the market scanner and the trading engine that ties
// the microstructure tracker, timing gate, hedge coordinator, risk governor,
// and advisory pipeline into one scan cycle.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calebwray/hedgebot/internal/domain"
)

// assetAliases maps an asset symbol to the spellings that may appear in a
// market question.
var assetAliases = map[string][]string{
	"BTC": {"bitcoin", "btc"},
	"ETH": {"ethereum", "eth"},
	"XRP": {"xrp", "ripple"},
}

// Scanner discovers tradeable crypto quarter-hour markets.
type Scanner struct {
	venue   domain.VenueClient
	limit   int
	aliases []string
	now     func() time.Time
}

// NewScanner creates a Scanner watching the given asset symbols. Symbols
// without a known alias set match on their lowercase spelling.
func NewScanner(venue domain.VenueClient, limit int, assets []string) *Scanner {
	var aliases []string
	for _, a := range assets {
		sym := strings.ToUpper(strings.TrimSpace(a))
		if known, ok := assetAliases[sym]; ok {
			aliases = append(aliases, known...)
			continue
		}
		aliases = append(aliases, strings.ToLower(sym))
	}
	return &Scanner{
		venue:   venue,
		limit:   limit,
		aliases: aliases,
		now:     time.Now,
	}
}

// Scan lists active markets from the venue and keeps only open crypto
// quarter-hour contracts.
func (s *Scanner) Scan(ctx context.Context) ([]domain.Market, error) {
	markets, err := s.venue.ListMarkets(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("bot: scan markets: %w", err)
	}

	now := s.now().UTC()
	var out []domain.Market
	for _, m := range markets {
		if s.isCryptoQuarterHour(m) && isOpenThisYear(m, now) {
			out = append(out, m)
		}
	}
	return out, nil
}

// isCryptoQuarterHour reports whether the question names a watched asset and
// reads like a 15-minute up/down contract.
func (s *Scanner) isCryptoQuarterHour(m domain.Market) bool {
	q := strings.ToLower(m.Question)

	matched := false
	for _, alias := range s.aliases {
		if strings.Contains(q, alias) {
			matched = true
			break
		}
	}
	return matched &&
		strings.Contains(q, "up") &&
		strings.Contains(q, "down") &&
		strings.Contains(q, "15")
}

// isOpenThisYear keeps active markets whose end date, when known, lies in the
// current UTC year and has not passed.
func isOpenThisYear(m domain.Market, now time.Time) bool {
	if m.Status != domain.MarketStatusActive {
		return false
	}
	if m.EndDate == nil {
		return true
	}
	end := m.EndDate.UTC()
	return end.Year() == now.Year() && end.After(now)
}
