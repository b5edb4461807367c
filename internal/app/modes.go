package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calebwray/hedgebot/internal/domain"
	"github.com/calebwray/hedgebot/internal/platform/polymarket"
	"github.com/calebwray/hedgebot/internal/server"
	"github.com/calebwray/hedgebot/internal/server/handler"
)

// TradeMode runs the full scan-decide-execute loop with venue order
// submission enabled (subject to engine.place_orders).
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")
	return a.runEngine(ctx, deps)
}

// MonitorMode runs the same loop as trade mode but every fill stays on the
// paper ledger; nothing is ever submitted to the venue.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")
	return a.runEngine(ctx, deps)
}

// OnceMode runs a single scan cycle and exits. Useful for cron-style paper
// runs and smoke testing a config.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting single-cycle mode")

	deps.Engine.Tick(ctx)

	summary := deps.Journal.Summarize()
	a.logger.InfoContext(ctx, "single cycle complete",
		slog.Int("trades", summary.Trades),
		slog.Float64("cash", deps.Ledger.Cash()),
		slog.Float64("realized_pnl", deps.Ledger.RealizedPnL()),
	)
	return nil
}

// ServerMode serves the dashboard API without running the trading loop. The
// engine exists for status and selection endpoints but never ticks.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// runEngine starts the engine loop plus the optional websocket book feed,
// journal archival, and HTTP server goroutines, and blocks until the first
// failure or context cancellation.
func (a *App) runEngine(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Engine.Run(ctx)
	})

	if a.cfg.Venue.WsEnabled && a.cfg.Venue.WsHost != "" {
		a.startBookFeed(ctx, g, deps)
	}

	if deps.Archiver != nil {
		a.startArchiver(ctx, g, deps)
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// startHTTPServer adds the dashboard API server and its shutdown watcher to
// the errgroup.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, server.Handlers{
		Status:    handler.NewStatusHandler(deps.Engine),
		Portfolio: handler.NewPortfolioHandler(deps.Ledger),
		Markets:   handler.NewMarketsHandler(deps.Scanner, deps.Coordinator, deps.Cache),
		Journal:   handler.NewJournalHandler(deps.Journal, deps.JournalStore),
		Selection: handler.NewSelectionHandler(deps.Engine),
	}, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// startBookFeed streams live book snapshots into the microstructure tracker
// between scan cycles. The feed is best effort; failures are logged and the
// polling loop keeps the tracker fed either way.
func (a *App) startBookFeed(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	g.Go(func() error {
		markets, err := deps.Scanner.Scan(ctx)
		if err != nil {
			a.logger.WarnContext(ctx, "book feed: initial scan failed", slog.String("error", err.Error()))
			return nil
		}

		byToken := make(map[string]string)
		var tokens []string
		for _, m := range markets {
			for _, tid := range m.TokenIDs {
				if tid == "" || byToken[tid] != "" {
					continue
				}
				byToken[tid] = m.ID
				tokens = append(tokens, tid)
			}
		}
		if len(tokens) == 0 {
			a.logger.InfoContext(ctx, "book feed: no markets to watch, skipping")
			return nil
		}

		ws := polymarket.NewWSClient(a.cfg.Venue.WsHost)
		ws.OnBookUpdate(func(snap domain.OrderbookSnapshot) {
			marketID, ok := byToken[snap.AssetID]
			if !ok {
				return
			}
			deps.Tracker.Record(bookObservation(marketID, snap))
		})

		if err := ws.Connect(ctx); err != nil {
			a.logger.WarnContext(ctx, "book feed: connect failed", slog.String("error", err.Error()))
			return nil
		}
		defer ws.Close()

		if err := ws.SubscribeBooks(ctx, tokens); err != nil {
			a.logger.WarnContext(ctx, "book feed: subscribe failed", slog.String("error", err.Error()))
			return nil
		}

		a.logger.InfoContext(ctx, "book feed started", slog.Int("assets", len(tokens)))
		<-ctx.Done()
		return ctx.Err()
	})
}

// startArchiver moves journal entries past the retention window to blob
// storage once a day.
func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	days := a.cfg.Journal.ArchiveDays

	g.Go(func() error {
		run := func() {
			cutoff := time.Now().UTC().AddDate(0, 0, -days)
			moved, err := deps.Archiver.ArchiveJournal(ctx, cutoff)
			if err != nil {
				a.logger.WarnContext(ctx, "journal archival failed", slog.String("error", err.Error()))
				return
			}
			if moved > 0 {
				a.logger.InfoContext(ctx, "journal entries archived",
					slog.Int64("entries", moved),
					slog.Time("cutoff", cutoff),
				)
			}
		}

		run()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				run()
			}
		}
	})
}

// bookObservation condenses a live book snapshot into the tracker's input,
// matching the aggregation the REST client applies: depth over the top five
// levels per side, near-top over the top two levels across both sides.
func bookObservation(marketID string, snap domain.OrderbookSnapshot) domain.MicroObservation {
	var spread float64
	if snap.BestBid > 0 && snap.BestAsk > 0 {
		spread = snap.BestAsk - snap.BestBid
	}
	return domain.MicroObservation{
		MarketID:     marketID,
		MidPrice:     snap.MidPrice,
		Depth:        levelSize(snap.Bids, 5) + levelSize(snap.Asks, 5),
		Spread:       spread,
		NearTopDepth: levelSize(snap.Bids, 2) + levelSize(snap.Asks, 2),
		Timestamp:    snap.Timestamp,
	}
}

func levelSize(levels []domain.PriceLevel, n int) float64 {
	var total float64
	for i, lvl := range levels {
		if i >= n {
			break
		}
		total += lvl.Size
	}
	return total
}
