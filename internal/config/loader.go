package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies HEDGEBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known HEDGEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Venue ──
	setStr(&cfg.Venue.ClobHost, "HEDGEBOT_VENUE_CLOB_HOST")
	setStr(&cfg.Venue.GammaHost, "HEDGEBOT_VENUE_GAMMA_HOST")
	setStr(&cfg.Venue.WsHost, "HEDGEBOT_VENUE_WS_HOST")
	setInt(&cfg.Venue.RequestsPerMin, "HEDGEBOT_VENUE_REQUESTS_PER_MIN")
	setBool(&cfg.Venue.WsEnabled, "HEDGEBOT_VENUE_WS_ENABLED")
	setInt(&cfg.Venue.MarketScanLimit, "HEDGEBOT_VENUE_MARKET_SCAN_LIMIT")

	// ── Creds ──
	setStr(&cfg.Creds.ApiKey, "HEDGEBOT_CREDS_API_KEY")
	setStr(&cfg.Creds.ApiSecret, "HEDGEBOT_CREDS_API_SECRET")
	setStr(&cfg.Creds.ApiPassphrase, "HEDGEBOT_CREDS_API_PASSPHRASE")
	setStr(&cfg.Creds.Address, "HEDGEBOT_CREDS_ADDRESS")
	setStr(&cfg.Creds.EncryptedKeyPath, "HEDGEBOT_CREDS_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Creds.KeyPassword, "HEDGEBOT_CREDS_KEY_PASSWORD")

	// ── Engine ──
	setDuration(&cfg.Engine.ScanInterval, "HEDGEBOT_ENGINE_SCAN_INTERVAL")
	setBool(&cfg.Engine.PlaceOrders, "HEDGEBOT_ENGINE_PLACE_ORDERS")
	setStringSlice(&cfg.Engine.Assets, "HEDGEBOT_ENGINE_ASSETS")
	setStringSlice(&cfg.Engine.AllowList, "HEDGEBOT_ENGINE_ALLOW_LIST")

	// ── Micro ──
	setDuration(&cfg.Micro.Retention, "HEDGEBOT_MICRO_RETENTION")
	setDuration(&cfg.Micro.VolWindow, "HEDGEBOT_MICRO_VOL_WINDOW")
	setDuration(&cfg.Micro.ChangeWindow, "HEDGEBOT_MICRO_CHANGE_WINDOW")
	setInt(&cfg.Micro.RiskHourStart, "HEDGEBOT_MICRO_RISK_HOUR_START")
	setInt(&cfg.Micro.RiskHourEnd, "HEDGEBOT_MICRO_RISK_HOUR_END")
	setInt(&cfg.Micro.QuietHourStart, "HEDGEBOT_MICRO_QUIET_HOUR_START")
	setInt(&cfg.Micro.QuietHourEnd, "HEDGEBOT_MICRO_QUIET_HOUR_END")

	// ── Timing ──
	setFloat64(&cfg.Timing.VolThreshold, "HEDGEBOT_TIMING_VOL_THRESHOLD")
	setFloat64(&cfg.Timing.DepthAccelThreshold, "HEDGEBOT_TIMING_DEPTH_ACCEL_THRESHOLD")
	setFloat64(&cfg.Timing.SpreadWideningLimit, "HEDGEBOT_TIMING_SPREAD_WIDENING_LIMIT")

	// ── Hedge ──
	setDuration(&cfg.Hedge.Timeout, "HEDGEBOT_HEDGE_TIMEOUT")
	setFloat64(&cfg.Hedge.CombinedAvgLimit, "HEDGEBOT_HEDGE_COMBINED_AVG_LIMIT")
	setFloat64(&cfg.Hedge.DepthMultiple, "HEDGEBOT_HEDGE_DEPTH_MULTIPLE")
	setFloat64(&cfg.Hedge.TriggerDiscount, "HEDGEBOT_HEDGE_TRIGGER_DISCOUNT")

	// ── Risk ──
	setFloat64(&cfg.Risk.InitialCash, "HEDGEBOT_RISK_INITIAL_CASH")
	setFloat64(&cfg.Risk.BaseSizeFrac, "HEDGEBOT_RISK_BASE_SIZE_FRAC")
	setFloat64(&cfg.Risk.MaxPerMarket, "HEDGEBOT_RISK_MAX_PER_MARKET")
	setFloat64(&cfg.Risk.DailyLossLimit, "HEDGEBOT_RISK_DAILY_LOSS_LIMIT")
	setFloat64(&cfg.Risk.SlippageBps, "HEDGEBOT_RISK_SLIPPAGE_BPS")

	// ── Advisor ──
	setBool(&cfg.Advisor.Enabled, "HEDGEBOT_ADVISOR_ENABLED")
	setStr(&cfg.Advisor.Host, "HEDGEBOT_ADVISOR_HOST")
	setStr(&cfg.Advisor.ForecasterModel, "HEDGEBOT_ADVISOR_FORECASTER_MODEL")
	setStr(&cfg.Advisor.CriticModel, "HEDGEBOT_ADVISOR_CRITIC_MODEL")
	setStr(&cfg.Advisor.TraderModel, "HEDGEBOT_ADVISOR_TRADER_MODEL")
	setDuration(&cfg.Advisor.Timeout, "HEDGEBOT_ADVISOR_TIMEOUT")
	setStr(&cfg.Advisor.NewsApiKey, "HEDGEBOT_ADVISOR_NEWS_API_KEY")
	setStr(&cfg.Advisor.NewsHost, "HEDGEBOT_ADVISOR_NEWS_HOST")

	// ── Journal ──
	setFloat64(&cfg.Journal.WinConfidence, "HEDGEBOT_JOURNAL_WIN_CONFIDENCE")
	setBool(&cfg.Journal.Persist, "HEDGEBOT_JOURNAL_PERSIST")
	setInt(&cfg.Journal.ArchiveDays, "HEDGEBOT_JOURNAL_ARCHIVE_DAYS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "HEDGEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "HEDGEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "HEDGEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "HEDGEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "HEDGEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "HEDGEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "HEDGEBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "HEDGEBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "HEDGEBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "HEDGEBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "HEDGEBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "HEDGEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "HEDGEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "HEDGEBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "HEDGEBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "HEDGEBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "HEDGEBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "HEDGEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "HEDGEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "HEDGEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "HEDGEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "HEDGEBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "HEDGEBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "HEDGEBOT_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "HEDGEBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "HEDGEBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "HEDGEBOT_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "HEDGEBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HEDGEBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "HEDGEBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "HEDGEBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "HEDGEBOT_MODE")
	setStr(&cfg.LogLevel, "HEDGEBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
