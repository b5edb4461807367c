package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calebwray/hedgebot/internal/domain"
)

// Trader turns a forecast and its critique into the final trade decision.
type Trader struct {
	client Completer
	model  string
}

// NewTrader creates a Trader over the given completer.
func NewTrader(client Completer, model string) *Trader {
	return &Trader{client: client, model: model}
}

type decisionPayload struct {
	Action     string  `json:"action"`
	Size       float64 `json:"size"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// Decide issues the trading decision for the proposed cheap-side entry.
// Any failure degrades to SKIP at zero size, which the engine treats as a
// decline.
func (t *Trader) Decide(ctx context.Context, m domain.Market, cheap domain.Side, forecast domain.Forecast, critique domain.Critique, cash, equity float64) domain.Advice {
	prompt := fmt.Sprintf(
		"You are the Trader agent. Use the forecast and critique to decide"+
			" whether to BUY_%s, HEDGE, or SKIP this short-horizon Polymarket"+
			" contract. Use Kelly sizing and risk controls: size must be between"+
			" 0 and %.2f. Concerns: %s. Respond with JSON: action, size,"+
			" reasoning, confidence (0-1). Forecast: probability_yes=%.2f"+
			" confidence=%.2f. Current portfolio: %.2f USD",
		cheap, cash, critique.Concerns, forecast.ProbabilityYes, forecast.Confidence, equity,
	)

	comp, err := t.client.Complete(ctx, prompt)
	if err != nil {
		return domain.Advice{
			MarketID:   m.ID,
			Action:     "SKIP",
			Side:       cheap,
			Size:       0,
			Confidence: 0.1,
			Rationale:  "Offline mode: insufficient signal to trade.",
			Model:      offlineModel(t.model),
		}
	}

	var p decisionPayload
	if err := json.Unmarshal([]byte(comp.Text), &p); err != nil {
		return domain.Advice{
			MarketID:   m.ID,
			Action:     "SKIP",
			Side:       cheap,
			Size:       0,
			Confidence: 0.1,
			Rationale:  truncate(comp.Text, 200),
			Model:      comp.Model,
		}
	}

	confidence := p.Confidence
	if confidence == 0 {
		confidence = forecast.Confidence
	}
	return domain.Advice{
		MarketID:   m.ID,
		Action:     p.Action,
		Side:       cheap,
		Size:       p.Size,
		Confidence: confidence,
		Rationale:  p.Reasoning,
		Model:      comp.Model,
	}
}
