package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
const DefaultUserAgent = "subweave/1.0 (+https://github.com/velharta/subweave)"

// DefaultAlignThreshold is the tolerance window used by the temporal aligner
// when no threshold is configured.
const DefaultAlignThreshold = 500 * time.Millisecond

type Config struct {
	ProviderDomain        string `mapstructure:"provider_domain"`
	ProxyConnectionString string `mapstructure:"proxy_connection_string"`
	ClientTimeout         string `mapstructure:"client_timeout"` // Go duration string like "30s", "1h", etc.
	UserAgent             string `mapstructure:"user_agent"`
	LogLevel              string `mapstructure:"log_level"`
	SentryDSN             string `mapstructure:"sentry_dsn"`
	Server                struct {
		Port    int    `mapstructure:"port"`
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	RateLimit struct {
		PerMinute int    `mapstructure:"per_minute"` // Outbound provider requests per minute
		MaxWait   string `mapstructure:"max_wait"`   // How long a request may wait for a permit
	} `mapstructure:"rate_limit"`
	Alignment struct {
		Threshold       string `mapstructure:"threshold"` // Go duration string, default "500ms"
		SecondaryColor  string `mapstructure:"secondary_color"`
		SecondaryItalic bool   `mapstructure:"secondary_italic"`
	} `mapstructure:"alignment"`
	Candidates struct {
		PrimaryAttempts  int `mapstructure:"primary_attempts"`  // Ranked primary candidates tried before giving up
		SecondaryOutputs int `mapstructure:"secondary_outputs"` // Max merged tracks produced, one per viable secondary
	} `mapstructure:"candidates"`
	Cache struct {
		Provider      string `mapstructure:"provider"` // "memory" or "redis"
		Size          int    `mapstructure:"size"`     // Maximum number of entries in the LRU cache
		TTL           string `mapstructure:"ttl"`      // Go duration string like "1h", "24h", etc.
		RedisAddress  string `mapstructure:"redis_address"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
	} `mapstructure:"cache"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// Parse and set log level from config
	level := zerolog.InfoLevel // default
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	// Set the global log level
	zerolog.SetGlobalLevel(level)

	// Update logger with the configured level
	logger = logger.Level(level)

	globalConfig = config
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Add specific environment variable for log level
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	// Defaults that keep the service usable with an empty config file
	viper.SetDefault("server.port", 7590)
	viper.SetDefault("server.address", "0.0.0.0")
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("rate_limit.per_minute", 40)
	viper.SetDefault("rate_limit.max_wait", "10s")
	viper.SetDefault("alignment.threshold", "500ms")
	viper.SetDefault("alignment.secondary_color", "yellow")
	viper.SetDefault("alignment.secondary_italic", true)
	viper.SetDefault("candidates.primary_attempts", 4)
	viper.SetDefault("candidates.secondary_outputs", 4)
	viper.SetDefault("cache.provider", "memory")
	viper.SetDefault("cache.size", 512)
	viper.SetDefault("cache.ttl", "6h")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}

// AlignThreshold returns the configured aligner tolerance window,
// falling back to the 500ms default when unset or unparsable.
func (c *Config) AlignThreshold() time.Duration {
	if c.Alignment.Threshold == "" {
		return DefaultAlignThreshold
	}
	d, err := time.ParseDuration(c.Alignment.Threshold)
	if err != nil || d <= 0 {
		logger.Warn().Str("threshold", c.Alignment.Threshold).Msg("Invalid alignment threshold, using default 500ms")
		return DefaultAlignThreshold
	}
	return d
}

// ClientTimeoutOrDefault parses the configured HTTP client timeout,
// defaulting to 30 seconds.
func (c *Config) ClientTimeoutOrDefault() time.Duration {
	if c.ClientTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.ClientTimeout)
	if err != nil {
		logger.Warn().Err(err).Str("timeout", c.ClientTimeout).Msg("Invalid timeout duration, using default 30s")
		return 30 * time.Second
	}
	return d
}

// RateLimitMaxWait parses the configured rate limiter wait budget,
// defaulting to 10 seconds.
func (c *Config) RateLimitMaxWait() time.Duration {
	if c.RateLimit.MaxWait == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(c.RateLimit.MaxWait)
	if err != nil {
		logger.Warn().Err(err).Str("max_wait", c.RateLimit.MaxWait).Msg("Invalid rate limit max wait, using default 10s")
		return 10 * time.Second
	}
	return d
}

// CacheTTL parses the configured cache TTL, defaulting to 6 hours.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTL == "" {
		return 6 * time.Hour
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		logger.Warn().Err(err).Str("ttl", c.Cache.TTL).Msg("Invalid cache TTL, using default 6h")
		return 6 * time.Hour
	}
	return d
}
