package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Symbols  []string       `mapstructure:"symbols"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port             string `mapstructure:"port"`
	WSEnabled        bool   `mapstructure:"ws_enabled"`
	WSStreamInterval string `mapstructure:"ws_stream_interval"`
	MarketHoursOnly  bool   `mapstructure:"market_hours_only"`
	MaxBatchSymbols  int    `mapstructure:"max_batch_symbols"`
}

type ProviderConfig struct {
	Mode          string `mapstructure:"mode"` // "http" or "file"
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	ChainDir      string `mapstructure:"chain_dir"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelaySec int    `mapstructure:"retry_delay_sec"`
}

type CacheConfig struct {
	TTLSec int `mapstructure:"ttl_sec"`
}

type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Server   string `mapstructure:"server"`
	Topic    string `mapstructure:"topic"`
	Priority string `mapstructure:"priority"`
	Tags     string `mapstructure:"tags"`
	Token    string `mapstructure:"token"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.ws_enabled", true)
	v.SetDefault("server.ws_stream_interval", "5s")
	v.SetDefault("server.market_hours_only", false)
	v.SetDefault("server.max_batch_symbols", 10)
	v.SetDefault("provider.mode", "http")
	v.SetDefault("provider.base_url", "https://api.marketdata.example.com")
	v.SetDefault("provider.rate_per_second", 5)
	v.SetDefault("provider.timeout_sec", 30)
	v.SetDefault("provider.retry_count", 3)
	v.SetDefault("provider.retry_delay_sec", 1)
	v.SetDefault("cache.ttl_sec", 60)
	v.SetDefault("symbols", []string{"SPY", "QQQ", "IWM"})
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "chart_with_upwards_trend")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("TRADEAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("provider.api_key", "TRADEAPI_API_KEY")
	_ = v.BindEnv("notify.token", "TRADEAPI_NTFY_TOKEN")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Provider.Mode {
	case "http":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required in http mode (set TRADEAPI_API_KEY env var)")
		}
	case "file":
		if c.Provider.ChainDir == "" {
			return fmt.Errorf("provider.chain_dir is required in file mode")
		}
	default:
		return fmt.Errorf("invalid provider.mode: %s (must be 'http' or 'file')", c.Provider.Mode)
	}

	if c.Provider.RatePerSecond < 1 {
		return fmt.Errorf("provider.rate_per_second must be >= 1")
	}
	if c.Server.MaxBatchSymbols < 1 {
		return fmt.Errorf("server.max_batch_symbols must be >= 1")
	}
	if _, err := time.ParseDuration(c.Server.WSStreamInterval); err != nil {
		return fmt.Errorf("invalid server.ws_stream_interval: %w", err)
	}

	if c.Notify.Enabled {
		if c.Notify.Topic == "" {
			return fmt.Errorf("notify.topic is required when notifications are enabled")
		}
		validPriorities := map[string]bool{
			"min": true, "low": true, "default": true, "high": true, "urgent": true,
		}
		if !validPriorities[c.Notify.Priority] {
			return fmt.Errorf("invalid notify.priority: %s (valid: min, low, default, high, urgent)", c.Notify.Priority)
		}
	}

	return nil
}

// StreamInterval returns the parsed websocket stream interval. Validate has
// already rejected unparseable values.
func (c *Config) StreamInterval() time.Duration {
	d, err := time.ParseDuration(c.Server.WSStreamInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// CacheTTL returns the snapshot cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}
