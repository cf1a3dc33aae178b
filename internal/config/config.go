package config

import (
	"strings"

	"paper-trading-go/internal/models"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
	Logger     Logger     `mapstructure:"logger"`
	Paper      Paper      `mapstructure:"paper"`
	Quotes     Quotes     `mapstructure:"quotes"`
	MarketData MarketData `mapstructure:"market_data"`
}

// Server holds the configuration for the HTTP API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Paper holds the starting balance and the default risk policy applied
// to newly created paper-trading accounts.
type Paper struct {
	StartingCashCents     int64    `mapstructure:"starting_cash_cents"`
	MaxPositionPct        int      `mapstructure:"max_position_pct"`
	MaxOrderNotionalCents int64    `mapstructure:"max_order_notional_cents"`
	AllowShort            bool     `mapstructure:"allow_short"`
	BlockedSymbols        []string `mapstructure:"blocked_symbols"`
	MaxOpenPositions      int      `mapstructure:"max_open_positions"`
	MaxDailyLossCents     int64    `mapstructure:"max_daily_loss_cents"`
	MaxDrawdownPct        float64  `mapstructure:"max_drawdown_pct"`
	KillSwitchEnabled     bool     `mapstructure:"kill_switch_enabled"`
}

// Policy converts the configured defaults into a domain policy.
func (p Paper) Policy() models.PaperTradingPolicy {
	return models.PaperTradingPolicy{
		MaxPositionPct:        p.MaxPositionPct,
		MaxOrderNotionalCents: p.MaxOrderNotionalCents,
		AllowShort:            p.AllowShort,
		BlockedSymbols:        p.BlockedSymbols,
		MaxOpenPositions:      p.MaxOpenPositions,
		MaxDailyLossCents:     p.MaxDailyLossCents,
		MaxDrawdownPct:        p.MaxDrawdownPct,
		KillSwitchEnabled:     p.KillSwitchEnabled,
	}
}

// Quotes holds the configuration for the synthetic quote source.
type Quotes struct {
	BucketSeconds   int `mapstructure:"bucket_seconds"`
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// MarketData holds the configuration for the optional live quote
// provider. When Endpoint is empty the synthetic source is used.
type MarketData struct {
	Endpoint       string  `mapstructure:"endpoint"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("database.dsn", "paper_trading.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	viper.SetDefault("paper.starting_cash_cents", 10_000_000) // $100,000
	viper.SetDefault("paper.max_position_pct", 25)
	viper.SetDefault("paper.max_order_notional_cents", 2_500_000)
	viper.SetDefault("paper.allow_short", false)
	viper.SetDefault("paper.max_open_positions", 20)
	viper.SetDefault("paper.max_daily_loss_cents", 500_000)
	viper.SetDefault("paper.max_drawdown_pct", 30.0)
	viper.SetDefault("paper.kill_switch_enabled", false)

	viper.SetDefault("quotes.bucket_seconds", 60)
	viper.SetDefault("quotes.cache_ttl_seconds", 30)

	viper.SetDefault("market_data.rate_limit", 10)      // requests per second
	viper.SetDefault("market_data.rate_limit_burst", 5) // burst size

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	err = models.ValidatePolicy(config.Paper.Policy())
	return
}
