package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calebwray/hedgebot/internal/domain"
)

// Forecaster estimates the true YES probability for a market from its
// question and recent headlines.
type Forecaster struct {
	client Completer
	model  string
}

// NewForecaster creates a Forecaster over the given completer.
func NewForecaster(client Completer, model string) *Forecaster {
	return &Forecaster{client: client, model: model}
}

type forecastPayload struct {
	ProbabilityYes float64 `json:"probability_yes"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// Forecast produces a probability estimate. Unreachable models yield the
// neutral prior at low confidence; malformed JSON keeps the raw text as the
// rationale.
func (f *Forecaster) Forecast(ctx context.Context, m domain.Market, news string) domain.Forecast {
	prompt := fmt.Sprintf(
		"You are the Forecaster agent. Estimate the true probability that this"+
			" short-horizon Polymarket question resolves YES. Provide JSON with"+
			" probability_yes (0-1), confidence (0-1), and reasoning."+
			" Market question: %s. Last news: %s",
		m.Question, news,
	)

	comp, err := f.client.Complete(ctx, prompt)
	if err != nil {
		return domain.Forecast{
			MarketID:       m.ID,
			ProbabilityYes: 0.5,
			Direction:      "FLAT",
			Confidence:     0.2,
			Rationale:      "AI forecast unavailable",
			Model:          offlineModel(f.model),
		}
	}

	var p forecastPayload
	if err := json.Unmarshal([]byte(comp.Text), &p); err != nil {
		return domain.Forecast{
			MarketID:       m.ID,
			ProbabilityYes: 0.5,
			Direction:      "FLAT",
			Confidence:     0.1,
			Rationale:      truncate(comp.Text, 200),
			Model:          comp.Model,
		}
	}

	return domain.Forecast{
		MarketID:       m.ID,
		ProbabilityYes: p.ProbabilityYes,
		Direction:      direction(p.ProbabilityYes),
		Confidence:     p.Confidence,
		Rationale:      p.Reasoning,
		Model:          comp.Model,
	}
}

func direction(probYes float64) string {
	switch {
	case probYes > 0.5:
		return "UP"
	case probYes < 0.5:
		return "DOWN"
	default:
		return "FLAT"
	}
}
