package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/calebwray/hedgebot/internal/domain"
)

// Critic reviews a forecast for blind spots before the trader acts on it.
type Critic struct {
	client Completer
	model  string
}

// NewCritic creates a Critic over the given completer.
func NewCritic(client Completer, model string) *Critic {
	return &Critic{client: client, model: model}
}

type critiquePayload struct {
	Approval  bool     `json:"approval"`
	Concerns  []string `json:"concerns"`
	RiskScore float64  `json:"risk_score"`
}

// Review critiques the forecast. Failures approve by default with the
// degradation noted as a concern, so an offline critic never blocks trading
// on its own.
func (c *Critic) Review(ctx context.Context, m domain.Market, forecast domain.Forecast) domain.Critique {
	prompt := fmt.Sprintf(
		"You are the Critic agent. Review the forecast for potential blind spots"+
			" such as liquidity, news events, correlation, or timing risk."+
			" Provide JSON with approval (true/false), a list of concerns, and"+
			" risk_score (0-1). Market: %s. Forecast: probability_yes=%.2f"+
			" confidence=%.2f reasoning=%s",
		m.Question, forecast.ProbabilityYes, forecast.Confidence, forecast.Rationale,
	)

	comp, err := c.client.Complete(ctx, prompt)
	if err != nil {
		return domain.Critique{
			MarketID: m.ID,
			Approve:  true,
			Concerns: "Using cached forecast due to offline AI client; ensure manual review before executing large orders",
			Model:    offlineModel(c.model),
		}
	}

	var p critiquePayload
	if err := json.Unmarshal([]byte(comp.Text), &p); err != nil {
		return domain.Critique{
			MarketID: m.ID,
			Approve:  true,
			Concerns: truncate(comp.Text, 120),
			Model:    comp.Model,
		}
	}

	return domain.Critique{
		MarketID:  m.ID,
		Approve:   p.Approval,
		RiskScore: p.RiskScore,
		Concerns:  strings.Join(p.Concerns, "; "),
		Model:     comp.Model,
	}
}
