package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Estimate EstimateConfig `yaml:"estimate" mapstructure:"estimate"`
	Format   FormatConfig   `yaml:"format" mapstructure:"format"`
	Admin    AdminConfig    `yaml:"admin" mapstructure:"admin"`
	Mail     MailConfig     `yaml:"mail" mapstructure:"mail"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// EstimateConfig holds the default estimation parameters. Keys of the
// maps are criterion keys (revenue, ux, risk, care) and role keys
// (analyst, designer, frontend, backend, system-analyst, integration-dev,
// architect). Missing or non-positive entries fall back to built-in
// constants.
type EstimateConfig struct {
	Coefficients         map[string]float64 `yaml:"coefficients" mapstructure:"coefficients"`
	Conversions          map[string]float64 `yaml:"conversions" mapstructure:"conversions"`
	Rates                map[string]float64 `yaml:"rates" mapstructure:"rates"`
	ImplementBelowMonths float64            `yaml:"implement_below_months" mapstructure:"implement_below_months" validate:"gt=0"`
	ConsiderUpToMonths   float64            `yaml:"consider_up_to_months" mapstructure:"consider_up_to_months" validate:"gtefield=ImplementBelowMonths"`
}

// FormatConfig configures how figures are rendered.
type FormatConfig struct {
	Locale         string `yaml:"locale" mapstructure:"locale" validate:"required"`
	CurrencySuffix string `yaml:"currency_suffix" mapstructure:"currency_suffix"`
}

// AdminConfig holds the shared secret that reveals the admin inputs.
type AdminConfig struct {
	Secret string `yaml:"secret" mapstructure:"secret"`
}

// MailConfig configures the composed brief and final-evaluation messages.
type MailConfig struct {
	DeskRecipient string `yaml:"desk_recipient" mapstructure:"desk_recipient" validate:"required,contains=@"`
	Organisation  string `yaml:"organisation" mapstructure:"organisation"`
}

// StoreConfig configures the evaluation archive backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=sqlite postgres none"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url" validate:"required_unless=Driver none"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns" validate:"gte=0"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns" validate:"gte=0"`

	// RetryAttempts bounds attempts of archive calls that hit transient
	// lock or connection errors. 1 disables retries.
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts" validate:"gte=0"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	PublicURL      string   `yaml:"public_url" mapstructure:"public_url" validate:"required"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst" validate:"gte=0"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Address string `yaml:"address" mapstructure:"address"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("estimate.coefficients", map[string]any{
		"revenue": 3, "ux": 2.5, "risk": 2, "care": 1.5,
	})
	v.SetDefault("estimate.conversions", map[string]any{
		"revenue": 10000, "ux": 15000, "risk": 2000, "care": 5000,
	})
	v.SetDefault("estimate.rates", map[string]any{
		"analyst": 24000, "designer": 24000, "frontend": 28000, "backend": 30000,
		"system-analyst": 26000, "integration-dev": 30000, "architect": 36000,
	})
	v.SetDefault("estimate.implement_below_months", 3)
	v.SetDefault("estimate.consider_up_to_months", 6)
	v.SetDefault("format.locale", "ru")
	v.SetDefault("format.currency_suffix", "₽")
	v.SetDefault("admin.secret", "admin2026")
	v.SetDefault("mail.desk_recipient", "roi-desk@example.com")
	v.SetDefault("mail.organisation", "ROI calculator")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "roi.db")
	v.SetDefault("store.retry_attempts", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "http://localhost:8080/")
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("metrics.address", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that a Config is internally consistent.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return eris.Wrap(err, "config: validate")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
