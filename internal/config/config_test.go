package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "banana"
	cfg.Risk.MaxPerMarket = 0
	cfg.Hedge.DepthMultiple = -1

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "unknown mode")
	assert.Contains(t, msg, "max_per_market")
	assert.Contains(t, msg, "depth_multiple")
}

func TestValidateCredsTriple(t *testing.T) {
	cfg := Defaults()
	cfg.Creds.ApiKey = "key"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set together")

	cfg.Creds.ApiSecret = "secret"
	cfg.Creds.ApiPassphrase = "pass"
	require.NoError(t, cfg.Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		`mode = "trade"`,
		``,
		`[engine]`,
		`scan_interval = "15s"`,
		``,
		`[risk]`,
		`max_per_market = 25.0`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "trade", cfg.Mode)
	assert.Equal(t, 15*time.Second, cfg.Engine.ScanInterval.Duration)
	assert.Equal(t, 25.0, cfg.Risk.MaxPerMarket)
	// Untouched sections keep their defaults.
	assert.Equal(t, "https://clob.polymarket.com", cfg.Venue.ClobHost)
	assert.Equal(t, 0.99, cfg.Hedge.CombinedAvgLimit)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HEDGEBOT_MODE", "once")
	t.Setenv("HEDGEBOT_RISK_DAILY_LOSS_LIMIT", "42.5")
	t.Setenv("HEDGEBOT_ENGINE_ASSETS", "BTC, ETH")
	t.Setenv("HEDGEBOT_MICRO_RISK_HOUR_START", "14")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "once", cfg.Mode)
	assert.Equal(t, 42.5, cfg.Risk.DailyLossLimit)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Engine.Assets)
	assert.Equal(t, 14, cfg.Micro.RiskHourStart)
}
