// Package config defines the top-level configuration for the hedge bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by HEDGEBOT_* environment variables.
type Config struct {
	Venue    VenueConfig    `toml:"venue"`
	Creds    CredsConfig    `toml:"creds"`
	Engine   EngineConfig   `toml:"engine"`
	Micro    MicroConfig    `toml:"micro"`
	Timing   TimingConfig   `toml:"timing"`
	Hedge    HedgeConfig    `toml:"hedge"`
	Risk     RiskConfig     `toml:"risk"`
	Advisor  AdvisorConfig  `toml:"advisor"`
	Journal  JournalConfig  `toml:"journal"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// VenueConfig holds Polymarket API endpoints and request budgets.
type VenueConfig struct {
	ClobHost         string `toml:"clob_host"`
	GammaHost        string `toml:"gamma_host"`
	WsHost           string `toml:"ws_host"`
	RequestsPerMin   int    `toml:"requests_per_min"`
	WsEnabled        bool   `toml:"ws_enabled"`
	MarketScanLimit  int    `toml:"market_scan_limit"`
}

// CredsConfig holds venue API credentials. The HMAC triple must be set
// together; the encrypted key file is an alternative secret source.
type CredsConfig struct {
	ApiKey           string `toml:"api_key"`
	ApiSecret        string `toml:"api_secret"`
	ApiPassphrase    string `toml:"api_passphrase"`
	Address          string `toml:"address"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// EngineConfig holds scan-cycle parameters.
type EngineConfig struct {
	ScanInterval duration `toml:"scan_interval"`
	PlaceOrders  bool     `toml:"place_orders"`
	// Assets restricts the crypto quarter-hour filter, e.g. ["BTC","ETH","XRP"].
	Assets []string `toml:"assets"`
	// AllowList restricts NEW entries to the named markets. Open positions are
	// always managed regardless of the list.
	AllowList []string `toml:"allow_list"`
}

// MicroConfig holds microstructure tracker windows. Hours are UTC, inclusive.
type MicroConfig struct {
	Retention      duration `toml:"retention"`
	VolWindow      duration `toml:"vol_window"`
	ChangeWindow   duration `toml:"change_window"`
	RiskHourStart  int      `toml:"risk_hour_start"`
	RiskHourEnd    int      `toml:"risk_hour_end"`
	QuietHourStart int      `toml:"quiet_hour_start"`
	QuietHourEnd   int      `toml:"quiet_hour_end"`
}

// TimingConfig holds entry-gate thresholds.
type TimingConfig struct {
	VolThreshold        float64 `toml:"vol_threshold"`
	DepthAccelThreshold float64 `toml:"depth_accel_threshold"`
	SpreadWideningLimit float64 `toml:"spread_widening_limit"`
}

// HedgeConfig holds hedge state machine parameters.
type HedgeConfig struct {
	Timeout          duration `toml:"timeout"`
	CombinedAvgLimit float64  `toml:"combined_avg_limit"`
	DepthMultiple    float64  `toml:"depth_multiple"`
	TriggerDiscount  float64  `toml:"trigger_discount"`
}

// RiskConfig holds position sizing and loss limits.
type RiskConfig struct {
	InitialCash    float64 `toml:"initial_cash"`
	BaseSizeFrac   float64 `toml:"base_size_frac"`
	MaxPerMarket   float64 `toml:"max_per_market"`
	DailyLossLimit float64 `toml:"daily_loss_limit"`
	SlippageBps    float64 `toml:"slippage_bps"`
}

// AdvisorConfig holds LLM advisory pipeline parameters.
type AdvisorConfig struct {
	Enabled         bool     `toml:"enabled"`
	Host            string   `toml:"host"`
	ForecasterModel string   `toml:"forecaster_model"`
	CriticModel     string   `toml:"critic_model"`
	TraderModel     string   `toml:"trader_model"`
	Timeout         duration `toml:"timeout"`
	NewsApiKey      string   `toml:"news_api_key"`
	NewsHost        string   `toml:"news_host"`
}

// JournalConfig holds performance-log parameters.
type JournalConfig struct {
	WinConfidence float64 `toml:"win_confidence"`
	Persist       bool    `toml:"persist"`
	ArchiveDays   int     `toml:"archive_days"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Venue: VenueConfig{
			ClobHost:        "https://clob.polymarket.com",
			GammaHost:       "https://gamma-api.polymarket.com",
			WsHost:          "wss://ws-subscriptions-clob.polymarket.com/ws/market",
			RequestsPerMin:  60,
			WsEnabled:       true,
			MarketScanLimit: 200,
		},
		Engine: EngineConfig{
			ScanInterval: duration{30 * time.Second},
			PlaceOrders:  false,
			Assets:       []string{"BTC", "ETH", "XRP"},
		},
		Micro: MicroConfig{
			Retention:      duration{5 * time.Minute},
			VolWindow:      duration{time.Minute},
			ChangeWindow:   duration{30 * time.Second},
			RiskHourStart:  13,
			RiskHourEnd:    20,
			QuietHourStart: 5,
			QuietHourEnd:   10,
		},
		Timing: TimingConfig{
			VolThreshold:        0.015,
			DepthAccelThreshold: -0.25,
			SpreadWideningLimit: 0.50,
		},
		Hedge: HedgeConfig{
			Timeout:          duration{3 * time.Minute},
			CombinedAvgLimit: 0.99,
			DepthMultiple:    3.0,
			TriggerDiscount:  1.0,
		},
		Risk: RiskConfig{
			InitialCash:    1000.0,
			BaseSizeFrac:   0.05,
			MaxPerMarket:   50.0,
			DailyLossLimit: 100.0,
			SlippageBps:    50.0,
		},
		Advisor: AdvisorConfig{
			Enabled:         true,
			Host:            "http://localhost:11434",
			ForecasterModel: "llama3.1",
			CriticModel:     "llama3.1",
			TraderModel:     "llama3.1",
			Timeout:         duration{20 * time.Second},
			NewsHost:        "https://cryptopanic.com/api/v1",
		},
		Journal: JournalConfig{
			WinConfidence: 0.5,
			Persist:       false,
			ArchiveDays:   90,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "hedgebot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "",
			Region:         "us-east-1",
			Bucket:         "hedgebot-data",
			UseSSL:         true,
			ForcePathStyle: false,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"entry", "hedge", "exit", "error"},
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade":   true,
	"monitor": true,
	"once":    true,
	"server":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, monitor, once, server)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Venue endpoints
	if c.Venue.ClobHost == "" {
		errs = append(errs, "venue: clob_host must not be empty")
	}
	if c.Venue.GammaHost == "" {
		errs = append(errs, "venue: gamma_host must not be empty")
	}
	if c.Venue.RequestsPerMin < 1 {
		errs = append(errs, "venue: requests_per_min must be >= 1")
	}
	if c.Venue.MarketScanLimit < 1 {
		errs = append(errs, "venue: market_scan_limit must be >= 1")
	}

	// Creds — the HMAC triple must be set together, or all empty.
	ck := c.Creds.ApiKey != ""
	cs := c.Creds.ApiSecret != ""
	cp := c.Creds.ApiPassphrase != ""
	if ck || cs || cp {
		if !(ck && cs && cp) {
			errs = append(errs, "creds: api_key, api_secret, and api_passphrase must all be set together")
		}
	}
	if c.Creds.EncryptedKeyPath != "" && c.Creds.KeyPassword == "" {
		errs = append(errs, "creds: key_password is required when encrypted_key_path is set")
	}

	// Engine
	if c.Engine.ScanInterval.Duration <= 0 {
		errs = append(errs, "engine: scan_interval must be positive")
	}
	if c.Mode == "trade" && c.Engine.PlaceOrders && !ck {
		errs = append(errs, "creds: api credentials are required to place orders in trade mode")
	}

	// Micro windows
	if c.Micro.Retention.Duration <= 0 {
		errs = append(errs, "micro: retention must be positive")
	}
	if c.Micro.VolWindow.Duration <= 0 || c.Micro.VolWindow.Duration > c.Micro.Retention.Duration {
		errs = append(errs, "micro: vol_window must be positive and within retention")
	}
	if c.Micro.ChangeWindow.Duration <= 0 || c.Micro.ChangeWindow.Duration > c.Micro.Retention.Duration {
		errs = append(errs, "micro: change_window must be positive and within retention")
	}
	for _, h := range []struct {
		name string
		val  int
	}{
		{"risk_hour_start", c.Micro.RiskHourStart},
		{"risk_hour_end", c.Micro.RiskHourEnd},
		{"quiet_hour_start", c.Micro.QuietHourStart},
		{"quiet_hour_end", c.Micro.QuietHourEnd},
	} {
		if h.val < 0 || h.val > 23 {
			errs = append(errs, fmt.Sprintf("micro: %s must be 0-23, got %d", h.name, h.val))
		}
	}

	// Timing
	if c.Timing.VolThreshold <= 0 {
		errs = append(errs, "timing: vol_threshold must be > 0")
	}

	// Hedge
	if c.Hedge.Timeout.Duration <= 0 {
		errs = append(errs, "hedge: timeout must be positive")
	}
	if c.Hedge.CombinedAvgLimit <= 0 || c.Hedge.CombinedAvgLimit > 1 {
		errs = append(errs, fmt.Sprintf("hedge: combined_avg_limit must be in (0,1], got %g", c.Hedge.CombinedAvgLimit))
	}
	if c.Hedge.DepthMultiple <= 0 {
		errs = append(errs, "hedge: depth_multiple must be > 0")
	}
	if c.Hedge.TriggerDiscount <= 0 || c.Hedge.TriggerDiscount > 1 {
		errs = append(errs, fmt.Sprintf("hedge: trigger_discount must be in (0,1], got %g", c.Hedge.TriggerDiscount))
	}

	// Risk
	if c.Risk.InitialCash <= 0 {
		errs = append(errs, "risk: initial_cash must be > 0")
	}
	if c.Risk.BaseSizeFrac <= 0 || c.Risk.BaseSizeFrac > 1 {
		errs = append(errs, fmt.Sprintf("risk: base_size_frac must be in (0,1], got %g", c.Risk.BaseSizeFrac))
	}
	if c.Risk.MaxPerMarket <= 0 {
		errs = append(errs, "risk: max_per_market must be > 0")
	}
	if c.Risk.DailyLossLimit <= 0 {
		errs = append(errs, "risk: daily_loss_limit must be > 0")
	}

	// Advisor
	if c.Advisor.Enabled {
		if c.Advisor.Host == "" {
			errs = append(errs, "advisor: host must not be empty when enabled")
		}
		if c.Advisor.Timeout.Duration <= 0 {
			errs = append(errs, "advisor: timeout must be positive")
		}
	}

	// Journal
	if c.Journal.WinConfidence < 0 || c.Journal.WinConfidence > 1 {
		errs = append(errs, fmt.Sprintf("journal: win_confidence must be 0-1, got %g", c.Journal.WinConfidence))
	}

	// Postgres — only validated when journal persistence is on.
	if c.Journal.Persist {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3 — only needed when journal archival is configured.
	if c.Journal.Persist && c.Journal.ArchiveDays > 0 {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when journal archival is enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when journal archival is enabled")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
