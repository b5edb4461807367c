package advisor

import (
	"context"
	"log/slog"

	"github.com/calebwray/hedgebot/internal/domain"
)

// Pipeline chains the three agents over a shared completion backend. Each
// market decision runs forecaster, critic, and trader in order; the critic's
// concerns feed the trader prompt but never veto on their own.
type Pipeline struct {
	forecaster *Forecaster
	critic     *Critic
	trader     *Trader
	news       *NewsClient
	currency   string
	logger     *slog.Logger
}

// NewPipeline assembles the advisory pipeline. The currency scopes the news
// feed, e.g. "BTC".
func NewPipeline(forecaster *Forecaster, critic *Critic, trader *Trader, news *NewsClient, currency string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		forecaster: forecaster,
		critic:     critic,
		trader:     trader,
		news:       news,
		currency:   currency,
		logger:     logger.With("component", "advisor"),
	}
}

// Verdict bundles the output of one pipeline run for journaling and the
// dashboard.
type Verdict struct {
	Forecast domain.Forecast
	Critique domain.Critique
	Advice   domain.Advice
}

// Decide runs the full pipeline for a proposed cheap-side entry.
func (p *Pipeline) Decide(ctx context.Context, m domain.Market, cheap domain.Side, cash, equity float64) Verdict {
	news := p.news.LatestHeadlines(ctx, p.currency)

	forecast := p.forecaster.Forecast(ctx, m, news)
	critique := p.critic.Review(ctx, m, forecast)
	advice := p.trader.Decide(ctx, m, cheap, forecast, critique, cash, equity)

	p.logger.InfoContext(ctx, "advisory verdict",
		"market_id", m.ID,
		"probability_yes", forecast.ProbabilityYes,
		"approve", critique.Approve,
		"action", advice.Action,
		"size", advice.Size,
		"model", advice.Model,
	)
	return Verdict{Forecast: forecast, Critique: critique, Advice: advice}
}
