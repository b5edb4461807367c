package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/calebwray/hedgebot/internal/advisor"
	s3blob "github.com/calebwray/hedgebot/internal/blob/s3"
	"github.com/calebwray/hedgebot/internal/bot"
	"github.com/calebwray/hedgebot/internal/cache/redis"
	"github.com/calebwray/hedgebot/internal/config"
	"github.com/calebwray/hedgebot/internal/crypto"
	"github.com/calebwray/hedgebot/internal/domain"
	"github.com/calebwray/hedgebot/internal/hedge"
	"github.com/calebwray/hedgebot/internal/journal"
	"github.com/calebwray/hedgebot/internal/ledger"
	"github.com/calebwray/hedgebot/internal/micro"
	"github.com/calebwray/hedgebot/internal/notify"
	"github.com/calebwray/hedgebot/internal/platform/polymarket"
	"github.com/calebwray/hedgebot/internal/ratelimit"
	"github.com/calebwray/hedgebot/internal/risk"
	"github.com/calebwray/hedgebot/internal/store/postgres"
	"github.com/calebwray/hedgebot/internal/timing"
)

// Dependencies bundles everything the application modes need to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Venue       domain.VenueClient
	Scanner     *bot.Scanner
	Tracker     *micro.Tracker
	Coordinator *hedge.Coordinator
	Ledger      *ledger.Ledger
	Governor    *risk.Governor
	Journal     *journal.Journal
	Engine      *bot.Engine

	// Optional, nil when the backing service is not configured.
	JournalStore domain.JournalStore
	Cache        domain.SnapshotCache
	Bus          domain.SignalBus
	Archiver     domain.Archiver
	Notifier     *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Venue client ---
	limiter := ratelimit.New(cfg.Venue.RequestsPerMin, time.Minute)

	var venueOpts []polymarket.Option
	if cfg.Creds.ApiKey != "" {
		secret, err := crypto.LoadSecret(crypto.SecretConfig{
			RawSecret:           cfg.Creds.ApiSecret,
			EncryptedSecretPath: cfg.Creds.EncryptedKeyPath,
			Password:            cfg.Creds.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load api secret: %w", err)
		}
		auth := &crypto.HMACAuth{
			Key:        cfg.Creds.ApiKey,
			Secret:     secret,
			Passphrase: cfg.Creds.ApiPassphrase,
		}
		venueOpts = append(venueOpts, polymarket.WithHMACAuth(auth, cfg.Creds.Address))
	}
	venue := polymarket.NewClient(cfg.Venue.GammaHost, cfg.Venue.ClobHost, limiter, logger, venueOpts...)
	deps.Venue = venue

	// --- PostgreSQL (only when the journal is persisted) ---
	if cfg.Journal.Persist {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.JournalStore = postgres.NewJournalStore(pgClient.Pool())
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = redis.NewSnapshotCache(redisClient)
		deps.Bus = redis.NewSignalBus(redisClient)
	}

	// --- S3 journal archival ---
	if cfg.Journal.Persist && cfg.Journal.ArchiveDays > 0 {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.JournalStore, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	// --- Advisory pipeline ---
	var advisorPipeline *advisor.Pipeline
	if cfg.Advisor.Enabled {
		timeout := cfg.Advisor.Timeout.Duration
		forecaster := advisor.NewForecaster(
			advisor.NewOllamaClient(cfg.Advisor.Host, cfg.Advisor.ForecasterModel, timeout),
			cfg.Advisor.ForecasterModel,
		)
		critic := advisor.NewCritic(
			advisor.NewOllamaClient(cfg.Advisor.Host, cfg.Advisor.CriticModel, timeout),
			cfg.Advisor.CriticModel,
		)
		trader := advisor.NewTrader(
			advisor.NewOllamaClient(cfg.Advisor.Host, cfg.Advisor.TraderModel, timeout),
			cfg.Advisor.TraderModel,
		)
		news := advisor.NewNewsClient(cfg.Advisor.NewsHost, cfg.Advisor.NewsApiKey)

		currency := "BTC"
		if len(cfg.Engine.Assets) > 0 {
			currency = cfg.Engine.Assets[0]
		}
		advisorPipeline = advisor.NewPipeline(forecaster, critic, trader, news, currency, logger)
	}

	// --- Trading core ---
	deps.Tracker = micro.NewTracker(micro.Config{
		Retention:     cfg.Micro.Retention.Duration,
		VolWindow:     cfg.Micro.VolWindow.Duration,
		ChangeWindow:  cfg.Micro.ChangeWindow.Duration,
		RiskHourStart: cfg.Micro.RiskHourStart,
		RiskHourEnd:   cfg.Micro.RiskHourEnd,
	})
	gate := timing.Gate{
		VolThreshold:        cfg.Timing.VolThreshold,
		DepthAccelThreshold: cfg.Timing.DepthAccelThreshold,
		SpreadWideningLimit: cfg.Timing.SpreadWideningLimit,
		QuietHourStart:      cfg.Micro.QuietHourStart,
		QuietHourEnd:        cfg.Micro.QuietHourEnd,
	}
	deps.Coordinator = hedge.NewCoordinator(hedge.Config{
		Timeout:             cfg.Hedge.Timeout.Duration,
		CombinedAvgLimit:    cfg.Hedge.CombinedAvgLimit,
		DepthMultiple:       cfg.Hedge.DepthMultiple,
		TriggerDiscount:     cfg.Hedge.TriggerDiscount,
		VolThreshold:        cfg.Timing.VolThreshold,
		SpreadWideningLimit: cfg.Timing.SpreadWideningLimit,
	})
	deps.Ledger = ledger.New(cfg.Risk.InitialCash)
	deps.Governor = risk.NewGovernor(risk.Config{
		BaseSizeFrac:   cfg.Risk.BaseSizeFrac,
		MaxPerMarket:   cfg.Risk.MaxPerMarket,
		DailyLossLimit: cfg.Risk.DailyLossLimit,
		DepthMultiple:  cfg.Hedge.DepthMultiple,
	})

	var journalOpts []journal.Option
	if deps.JournalStore != nil {
		journalOpts = append(journalOpts, journal.WithStore(deps.JournalStore))
	}
	deps.Journal = journal.New(cfg.Journal.WinConfidence, logger, journalOpts...)

	deps.Scanner = bot.NewScanner(venue, cfg.Venue.MarketScanLimit, cfg.Engine.Assets)

	// Orders only go to the venue in trade mode; every other mode is paper.
	placeOrders := cfg.Engine.PlaceOrders && cfg.Mode == "trade"

	deps.Engine = bot.NewEngine(bot.Config{
		ScanInterval: cfg.Engine.ScanInterval.Duration,
		PlaceOrders:  placeOrders,
		SlippageBps:  cfg.Risk.SlippageBps,
		AllowList:    cfg.Engine.AllowList,
	}, bot.Deps{
		Venue:       venue,
		Scanner:     deps.Scanner,
		Tracker:     deps.Tracker,
		Gate:        gate,
		Coordinator: deps.Coordinator,
		Ledger:      deps.Ledger,
		Governor:    deps.Governor,
		Journal:     deps.Journal,
		Advisor:     advisorPipeline,
		Notifier:    engineNotifier(deps.Notifier),
		Cache:       deps.Cache,
		Bus:         deps.Bus,
		Logger:      logger,
	})

	return deps, cleanup, nil
}

// engineNotifier avoids handing the engine a typed nil interface value.
func engineNotifier(n *notify.Notifier) bot.Notifier {
	if n == nil {
		return nil
	}
	return n
}
