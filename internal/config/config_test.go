package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 3, cfg.Estimate.Coefficients["revenue"], 0.001)
	assert.InDelta(t, 2.5, cfg.Estimate.Coefficients["ux"], 0.001)
	assert.InDelta(t, 2, cfg.Estimate.Coefficients["risk"], 0.001)
	assert.InDelta(t, 1.5, cfg.Estimate.Coefficients["care"], 0.001)
	assert.InDelta(t, 10000, cfg.Estimate.Conversions["revenue"], 0.001)
	assert.InDelta(t, 15000, cfg.Estimate.Conversions["ux"], 0.001)
	assert.InDelta(t, 2000, cfg.Estimate.Conversions["risk"], 0.001)
	assert.InDelta(t, 5000, cfg.Estimate.Conversions["care"], 0.001)
	assert.Len(t, cfg.Estimate.Rates, 7)
	assert.InDelta(t, 26000, cfg.Estimate.Rates["system-analyst"], 0.001)
	assert.InDelta(t, 3, cfg.Estimate.ImplementBelowMonths, 0.001)
	assert.InDelta(t, 6, cfg.Estimate.ConsiderUpToMonths, 0.001)
	assert.Equal(t, "ru", cfg.Format.Locale)
	assert.Equal(t, "₽", cfg.Format.CurrencySuffix)
	assert.Equal(t, "admin2026", cfg.Admin.Secret)
	assert.Equal(t, "roi-desk@example.com", cfg.Mail.DeskRecipient)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "roi.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 3, cfg.Store.RetryAttempts)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080/", cfg.Server.PublicURL)
	assert.InDelta(t, 10, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 20, cfg.Server.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, ":9090", cfg.Metrics.Address)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: none
log:
  level: debug
  format: console
server:
  port: 9091
estimate:
  implement_below_months: 2
  consider_up_to_months: 9
format:
  locale: en
  currency_suffix: USD
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9091, cfg.Server.Port)
	assert.InDelta(t, 2, cfg.Estimate.ImplementBelowMonths, 0.001)
	assert.InDelta(t, 9, cfg.Estimate.ConsiderUpToMonths, 0.001)
	assert.Equal(t, "en", cfg.Format.Locale)
	assert.Equal(t, "USD", cfg.Format.CurrencySuffix)
	// Defaults still apply for unset values
	assert.Equal(t, ":9090", cfg.Metrics.Address)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: none
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ROI_STORE_DRIVER", "sqlite")
	t.Setenv("ROI_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ROI_SERVER_PORT", "3000")
	t.Setenv("ROI_ADMIN_SECRET", "letmein")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "letmein", cfg.Admin.Secret)
}

func TestLoadInvalidFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unterminated"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ROI_STORE_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: validate")
	assert.Contains(t, err.Error(), "Driver")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Estimate.ImplementBelowMonths = 3
	cfg.Estimate.ConsiderUpToMonths = 6
	cfg.Format.Locale = "ru"
	cfg.Mail.DeskRecipient = "desk@example.com"
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "roi.db"
	cfg.Server.Port = 8080
	cfg.Server.PublicURL = "http://localhost:8080/"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Validate(validDefaults()))
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "Driver"},
		{"missing database url", func(c *Config) { c.Store.DatabaseURL = "" }, "DatabaseURL"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }, "RateLimit"},
		{"zero implement threshold", func(c *Config) { c.Estimate.ImplementBelowMonths = 0 }, "ImplementBelowMonths"},
		{"consider below implement", func(c *Config) { c.Estimate.ConsiderUpToMonths = 2 }, "ConsiderUpToMonths"},
		{"desk without at sign", func(c *Config) { c.Mail.DeskRecipient = "desk" }, "DeskRecipient"},
		{"missing locale", func(c *Config) { c.Format.Locale = "" }, "Locale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_NoneDriverNeedsNoURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "none"
	cfg.Store.DatabaseURL = ""
	assert.NoError(t, Validate(cfg))
}
