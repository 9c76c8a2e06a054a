package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Logger   Logger   `mapstructure:"logger"`
	Scanner  Scanner  `mapstructure:"scanner"`
	Quotes   Quotes   `mapstructure:"quotes"`
}

// Server holds the configuration for the HTTP server.
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

// Scanner holds the configuration for the opportunity scanner.
type Scanner struct {
	Watchlist     []string `mapstructure:"watchlist"`
	MinSpreadPips float64  `mapstructure:"min_spread_pips"`
	ListLimit     int      `mapstructure:"list_limit"`
	// LotSizes maps an asset class ("forex", "metals") to the multiplier
	// used for profit projection. Forex defaults to the 100,000-unit
	// standard lot.
	LotSizes map[string]float64 `mapstructure:"lot_sizes"`
}

// Quotes holds the configuration for quote acquisition.
type Quotes struct {
	// Mode selects the provider: "simulated" or "feed".
	Mode      string   `mapstructure:"mode"`
	Sources   []string `mapstructure:"sources"`
	JitterPct float64  `mapstructure:"jitter_pct"`
	Feed      Feed     `mapstructure:"feed"`
}

// Feed holds the configuration for the external quote feed client.
type Feed struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "signals.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("scanner.watchlist", []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD"})
	viper.SetDefault("scanner.min_spread_pips", 0.5)
	viper.SetDefault("scanner.list_limit", 100)
	viper.SetDefault("scanner.lot_sizes", map[string]float64{"forex": 100000})
	viper.SetDefault("quotes.mode", "simulated")
	viper.SetDefault("quotes.sources", []string{"broker-a", "broker-b", "broker-c"})
	viper.SetDefault("quotes.jitter_pct", 0.0005)
	viper.SetDefault("quotes.feed.rate_limit", 10) // requests per second
	viper.SetDefault("quotes.feed.rate_limit_burst", 5)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
