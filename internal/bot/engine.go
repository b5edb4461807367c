package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calebwray/hedgebot/internal/advisor"
	"github.com/calebwray/hedgebot/internal/domain"
	"github.com/calebwray/hedgebot/internal/hedge"
	"github.com/calebwray/hedgebot/internal/journal"
	"github.com/calebwray/hedgebot/internal/ledger"
	"github.com/calebwray/hedgebot/internal/micro"
	"github.com/calebwray/hedgebot/internal/risk"
	"github.com/calebwray/hedgebot/internal/timing"
)

// Journal confidences per transition. Entries carry the advisor's confidence
// when one was produced.
const (
	entryConfidence = 0.72
	hedgeConfidence = 0.88
	exitConfidence  = 0.55
)

// signalChannel is the pub/sub channel trade events are published on.
const signalChannel = "signals:trades"

// maxMarketWorkers caps concurrent per-market evaluations in a cycle.
const maxMarketWorkers = 8

// Config holds the engine's cycle parameters.
type Config struct {
	ScanInterval time.Duration
	PlaceOrders  bool
	SlippageBps  float64
	// AllowList restricts new entries to the named market IDs. Open positions
	// are managed regardless.
	AllowList []string
}

// Deps bundles the engine's collaborators. Advisor, Notifier, Cache, and Bus
// are optional.
type Deps struct {
	Venue       domain.VenueClient
	Scanner     *Scanner
	Tracker     *micro.Tracker
	Gate        timing.Gate
	Coordinator *hedge.Coordinator
	Ledger      *ledger.Ledger
	Governor    *risk.Governor
	Journal     *journal.Journal
	Advisor     *advisor.Pipeline
	Notifier    Notifier
	Cache       domain.SnapshotCache
	Bus         domain.SignalBus
	Logger      *slog.Logger
}

// Notifier is the alert surface the engine needs.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Status is a point-in-time view of the engine for the API.
type Status struct {
	Running        bool      `json:"running"`
	LastScan       time.Time `json:"last_scan"`
	MarketsTracked int       `json:"markets_tracked"`
	OpenPositions  int       `json:"open_positions"`
	OrdersEnabled  bool      `json:"orders_enabled"`
	LossLimitHit   bool      `json:"loss_limit_hit"`
	LastSkipReason string    `json:"last_skip_reason,omitempty"`
}

// Engine runs the scan cycle: discover markets, feed the tracker, let the
// coordinator manage open legs, and gate fresh entries through the timing
// gate and the advisory pipeline.
type Engine struct {
	cfg  Config
	deps Deps

	allow  map[string]bool
	logger *slog.Logger
	now    func() time.Time

	bootstrapOnce sync.Once

	mu             sync.Mutex
	running        bool
	lastScan       time.Time
	marketsTracked int
	lastSkip       string
}

// NewEngine creates an Engine from its dependencies.
func NewEngine(cfg Config, deps Deps) *Engine {
	allow := make(map[string]bool, len(cfg.AllowList))
	for _, id := range cfg.AllowList {
		allow[id] = true
	}
	return &Engine{
		cfg:    cfg,
		deps:   deps,
		allow:  allow,
		logger: deps.Logger.With("component", "engine"),
		now:    time.Now,
	}
}

// Run executes scan cycles until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.setRunning(true)
	defer e.setRunning(false)

	ticker := time.NewTicker(e.cfg.ScanInterval)
	defer ticker.Stop()

	e.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick runs one full scan cycle. Failures on individual markets are logged
// and never abort the cycle.
func (e *Engine) Tick(ctx context.Context) {
	now := e.now().UTC()

	e.bootstrapOnce.Do(func() { e.bootstrap(ctx) })
	view := e.deps.Ledger.View(now)
	e.deps.Governor.ObservePnL(view.RealizedPnL, view.UnrealizedPnL, now)

	markets, err := e.deps.Scanner.Scan(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "market scan failed", "error", err)
		return
	}

	// Markets are evaluated concurrently; each market appears once per scan,
	// and the tracker, ledger, and coordinator serialize internally.
	g := new(errgroup.Group)
	g.SetLimit(maxMarketWorkers)
	for _, m := range markets {
		g.Go(func() error {
			e.processMarket(ctx, m, now)
			return nil
		})
	}
	_ = g.Wait()

	if e.deps.Cache != nil {
		if err := e.deps.Cache.SetPortfolio(ctx, e.deps.Ledger.View(now)); err != nil {
			e.logger.WarnContext(ctx, "portfolio cache write failed", "error", err)
		}
	}

	e.mu.Lock()
	e.lastScan = now
	e.marketsTracked = len(markets)
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "scan cycle complete",
		"markets", len(markets),
		"cash", e.deps.Ledger.Cash(),
		"realized_pnl", e.deps.Ledger.RealizedPnL(),
	)
}

// Status returns the engine's current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Running:        e.running,
		LastScan:       e.lastScan,
		MarketsTracked: e.marketsTracked,
		OpenPositions:  len(e.deps.Ledger.Positions()),
		OrdersEnabled:  e.cfg.PlaceOrders,
		LossLimitHit:   e.deps.Governor.DailyLossBreached(),
		LastSkipReason: e.lastSkip,
	}
}

// Describe returns a one-line human-readable summary of the engine's state.
func (e *Engine) Describe() string {
	s := e.Status()
	out := fmt.Sprintf("scanned %d markets, %d open positions", s.MarketsTracked, s.OpenPositions)
	if !s.LastScan.IsZero() {
		out += ", last scan " + s.LastScan.Format(time.RFC3339)
	}
	if s.LossLimitHit {
		out += "; entries suspended by daily loss limit"
	}
	if s.LastSkipReason != "" {
		out += "; last skip: " + s.LastSkipReason
	}
	return out
}

// bootstrap seeds the ledger from the venue account once at startup. A venue
// that exposes no account endpoints leaves the configured paper balance in
// place.
func (e *Engine) bootstrap(ctx context.Context) {
	snap, err := e.deps.Venue.AccountSnapshot(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "account bootstrap unavailable, using paper balance", "error", err)
		return
	}
	if snap.Cash <= 0 && len(snap.Positions) == 0 {
		return
	}
	e.deps.Ledger.Bootstrap(snap)
	e.logger.InfoContext(ctx, "ledger bootstrapped from venue",
		"cash", snap.Cash,
		"positions", len(snap.Positions),
	)
}

// processMarket runs one market through the cycle: observe the book, manage
// any open leg, and consider a fresh entry when flat.
func (e *Engine) processMarket(ctx context.Context, m domain.Market, now time.Time) {
	depth, err := e.deps.Venue.OrderBook(ctx, m.TokenID(domain.SideYes))
	if err != nil {
		e.logger.WarnContext(ctx, "order book unavailable", "market_id", m.ID, "error", err)
		return
	}

	// The venue quote and the live book can disagree; trade off the cheaper
	// of the two on each leg.
	m.YesPrice = minPositive(depth.BestAsk, m.YesPrice)
	m.NoPrice = minPositive(depth.BestBid, m.NoPrice)

	e.deps.Tracker.Record(domain.MicroObservation{
		MarketID:     m.ID,
		MidPrice:     depth.Mid(),
		Depth:        depth.CombinedDepth(),
		Spread:       depth.Spread(),
		NearTopDepth: depth.NearTopDepth,
		Timestamp:    now,
	})
	e.deps.Ledger.Mark(m.ID, m.YesPrice, m.NoPrice)

	if e.deps.Cache != nil {
		depth.MarketID = m.ID
		if err := e.deps.Cache.SetDepth(ctx, m.ID, depth); err != nil {
			e.logger.WarnContext(ctx, "depth cache write failed", "market_id", m.ID, "error", err)
		}
	}

	features, _ := e.deps.Tracker.Features(m.ID)
	nearTop := e.deps.Tracker.NearTopDepth(m.ID)

	var position domain.Position
	if pending, ok := e.deps.Coordinator.Pending(m.ID); ok {
		if pos, ok := e.deps.Ledger.Position(m.ID, pending.Side); ok {
			position = pos
		}
	}

	action := e.deps.Coordinator.Evaluate(hedge.Snapshot{
		Market:       m,
		Features:     features,
		NearTopDepth: nearTop,
		Position:     position,
		Now:          now,
	})

	switch action.Kind {
	case hedge.ActionHedge:
		e.executeHedge(ctx, m, action, now)
	case hedge.ActionExit:
		e.executeExit(ctx, m, action, now)
	default:
		if e.deps.Coordinator.Phase(m.ID) == domain.HedgePhaseFlat {
			e.considerEntry(ctx, m, features, nearTop, now)
		}
	}
}

// considerEntry walks the entry checklist: loss limit, allow list, timing
// gate, cheap-side proposal, sizing, and the advisory pipeline.
func (e *Engine) considerEntry(ctx context.Context, m domain.Market, features domain.MicroFeatures, nearTop float64, now time.Time) {
	if e.deps.Governor.DailyLossBreached() {
		e.setSkip(m.ID, "daily loss limit reached")
		e.logger.WarnContext(ctx, "daily loss limit hit, entries suspended", "market_id", m.ID)
		return
	}
	if !e.entryAllowed(m.ID) {
		return
	}
	if features.Observations == 0 {
		return
	}
	if ok, reason := e.deps.Gate.Allow(features); !ok {
		e.setSkip(m.ID, reason)
		e.logger.DebugContext(ctx, "entry gated", "market_id", m.ID, "reason", reason)
		return
	}

	side, price, ok := e.deps.Coordinator.ProposeEntry(m)
	if !ok {
		return
	}

	sizeCap := e.deps.Governor.ClampPosition(e.deps.Ledger.Cash(), nearTop)
	if sizeCap <= 0 {
		return
	}

	size := sizeCap
	confidence := entryConfidence
	rationale := "timing gate clear on cheap side"

	if e.deps.Advisor != nil {
		view := e.deps.Ledger.View(now)
		verdict := e.deps.Advisor.Decide(ctx, m, side, view.Cash, view.Equity())
		if verdict.Advice.Declines(side) {
			e.setSkip(m.ID, "advisor declined: "+verdict.Advice.Rationale)
			e.logger.InfoContext(ctx, "advisor declined entry",
				"market_id", m.ID,
				"action", verdict.Advice.Action,
				"rationale", verdict.Advice.Rationale,
			)
			return
		}
		if verdict.Advice.Size > 0 && verdict.Advice.Size < size {
			size = verdict.Advice.Size
		}
		if verdict.Advice.Confidence > 0 {
			confidence = verdict.Advice.Confidence
		}
		if verdict.Advice.Rationale != "" {
			rationale = verdict.Advice.Rationale
		}
	}

	result := e.submit(ctx, domain.OrderRequest{
		MarketID: m.ID,
		TokenID:  m.TokenID(side),
		Side:     side,
		Action:   domain.FillActionOpen,
		Size:     size,
		Price:    price,
	})
	if result.Filled <= 0 {
		return
	}

	if err := e.deps.Ledger.ApplyFill(domain.FillActionOpen, m.ID, side, result.Filled, result.Price, now); err != nil {
		e.logger.ErrorContext(ctx, "entry fill rejected by ledger", "market_id", m.ID, "error", err)
		return
	}

	otherPrice := m.Price(side.Opposite())
	if err := e.deps.Coordinator.CommitEntry(m.ID, side, result.Filled, result.Price, otherPrice, now); err != nil {
		e.logger.ErrorContext(ctx, "entry commit failed", "market_id", m.ID, "error", err)
		return
	}

	e.record(ctx, "entry", domain.JournalEntry{
		MarketID:   m.ID,
		Action:     "ENTER",
		Side:       side,
		Size:       result.Filled,
		Price:      result.Price,
		Confidence: confidence,
		Rationale:  rationale,
	})
}

func (e *Engine) executeHedge(ctx context.Context, m domain.Market, action hedge.Action, now time.Time) {
	result := e.submit(ctx, domain.OrderRequest{
		MarketID: m.ID,
		TokenID:  m.TokenID(action.Side),
		Side:     action.Side,
		Action:   domain.FillActionOpen,
		Size:     action.Size,
		Price:    action.Price,
	})
	if result.Filled <= 0 {
		return
	}

	if err := e.deps.Ledger.ApplyFill(domain.FillActionOpen, m.ID, action.Side, result.Filled, result.Price, now); err != nil {
		e.logger.ErrorContext(ctx, "hedge fill rejected by ledger", "market_id", m.ID, "error", err)
		return
	}
	e.deps.Coordinator.CommitHedge(m.ID)

	e.record(ctx, "hedge", domain.JournalEntry{
		MarketID:   m.ID,
		Action:     "HEDGE",
		Side:       action.Side,
		Size:       result.Filled,
		Price:      result.Price,
		Confidence: hedgeConfidence,
		Rationale:  action.Rationale,
	})
}

func (e *Engine) executeExit(ctx context.Context, m domain.Market, action hedge.Action, now time.Time) {
	result := e.submit(ctx, domain.OrderRequest{
		MarketID: m.ID,
		TokenID:  m.TokenID(action.Side),
		Side:     action.Side,
		Action:   domain.FillActionClose,
		Size:     action.Size,
		Price:    action.Price,
	})
	if result.Filled <= 0 {
		return
	}

	if err := e.deps.Ledger.ApplyFill(domain.FillActionClose, m.ID, action.Side, result.Filled, result.Price, now); err != nil {
		e.logger.ErrorContext(ctx, "exit fill rejected by ledger", "market_id", m.ID, "error", err)
		return
	}
	e.deps.Coordinator.CommitExit(m.ID)
	e.deps.Tracker.Forget(m.ID)

	e.record(ctx, "exit", domain.JournalEntry{
		MarketID:   m.ID,
		Action:     "EXIT",
		Side:       action.Side,
		Size:       result.Filled,
		Price:      result.Price,
		Confidence: exitConfidence,
		Rationale:  action.Rationale,
	})
}

// submit sends the order to the venue, or synthesizes a paper fill when order
// placement is disabled. Paper fills pay the configured slippage.
func (e *Engine) submit(ctx context.Context, req domain.OrderRequest) domain.OrderResult {
	if !e.cfg.PlaceOrders {
		price := req.Price
		slip := price * e.cfg.SlippageBps / 10_000
		if req.Action == domain.FillActionOpen {
			price += slip
		} else {
			price -= slip
		}
		return domain.OrderResult{Status: "simulated", Filled: req.Size, Price: price}
	}

	result, err := e.deps.Venue.PlaceOrder(ctx, req)
	if err != nil {
		// The venue client degrades rather than fails; treat an error here as
		// a dropped order.
		e.logger.ErrorContext(ctx, "order submission failed", "market_id", req.MarketID, "error", err)
		return domain.OrderResult{}
	}
	return result
}

// record journals the transition, alerts the notifier, and publishes the
// event on the signal bus. None of the sinks can fail the trade itself.
func (e *Engine) record(ctx context.Context, event string, entry domain.JournalEntry) {
	recorded, err := e.deps.Journal.Record(ctx, entry)
	if err != nil {
		e.logger.WarnContext(ctx, "journal persistence failed", "market_id", entry.MarketID, "error", err)
		recorded = entry
	}

	if e.deps.Notifier != nil {
		title := fmt.Sprintf("%s %s", recorded.Action, recorded.MarketID)
		message := fmt.Sprintf("%s %.2f @ %.3f\n%s", recorded.Side, recorded.Size, recorded.Price, recorded.Rationale)
		if err := e.deps.Notifier.Notify(ctx, event, title, message); err != nil {
			e.logger.WarnContext(ctx, "notification failed", "error", err)
		}
	}

	if e.deps.Bus != nil {
		payload, err := json.Marshal(recorded)
		if err == nil {
			if err := e.deps.Bus.Publish(ctx, signalChannel, payload); err != nil {
				e.logger.WarnContext(ctx, "signal publish failed", "error", err)
			}
		}
	}
}

// entryAllowed applies the allow list. An empty list allows every market.
func (e *Engine) entryAllowed(marketID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.allow) == 0 || e.allow[marketID]
}

// AllowList returns the current entry allow list.
func (e *Engine) AllowList() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.allow))
	for id := range e.allow {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SetAllowList replaces the entry allow list. Open positions keep being
// managed regardless of the list.
func (e *Engine) SetAllowList(ids []string) {
	allow := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			allow[id] = true
		}
	}
	e.mu.Lock()
	e.allow = allow
	e.mu.Unlock()
}

func (e *Engine) setSkip(marketID, reason string) {
	e.mu.Lock()
	e.lastSkip = marketID + ": " + reason
	e.mu.Unlock()
}

func (e *Engine) setRunning(v bool) {
	e.mu.Lock()
	e.running = v
	e.mu.Unlock()
}

// minPositive returns the smaller of two prices, ignoring non-positive ones.
func minPositive(a, b float64) float64 {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}
