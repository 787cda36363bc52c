package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "config/config.yml"

// Config holds the overall configuration for the application.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Birdeye     BirdeyeConfig     `yaml:"birdeye"`
	DEXScreener DEXScreenerConfig `yaml:"dexScreener"`
	Cache       CacheConfig       `yaml:"cache"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port              string   `yaml:"port"`
	CORSOrigins       []string `yaml:"corsOrigins"`
	RateLimitMax      int      `yaml:"rateLimitMax"`
	RateLimitWindowMs int64    `yaml:"rateLimitWindowMs"`
	ReadTimeout       int      `yaml:"readTimeout"`
	WriteTimeout      int      `yaml:"writeTimeout"`
	IdleTimeout       int      `yaml:"idleTimeout"`
	ShutdownTimeout   int      `yaml:"shutdownTimeout"`
	Pprof             bool     `yaml:"pprof"`
}

// BirdeyeConfig holds the configuration for the Birdeye token list client.
type BirdeyeConfig struct {
	BaseURL                string `yaml:"baseURL"`
	APIKey                 string `yaml:"apiKey"`
	PageSize               int    `yaml:"pageSize"`
	TotalTokens            int    `yaml:"totalTokens"`
	InterPageDelayMillis   int64  `yaml:"interPageDelayMillis"`
	RequestsPerMinute      int    `yaml:"requestsPerMinute"`
	MaxAttempts            int    `yaml:"maxAttempts"`
	RateLimitBackoffMillis int64  `yaml:"rateLimitBackoffMillis"`
	TransientBackoffMillis int64  `yaml:"transientBackoffMillis"`
	RequestTimeoutMillis   int64  `yaml:"requestTimeoutMillis"`
}

// DEXScreenerConfig holds the configuration for the DEX Screener client.
type DEXScreenerConfig struct {
	BaseURL               string `yaml:"baseURL"`
	ChainID               string `yaml:"chainID"`
	BatchSize             int    `yaml:"batchSize"`
	InterBatchDelayMillis int64  `yaml:"interBatchDelayMillis"`
	RequestTimeoutMillis  int64  `yaml:"requestTimeoutMillis"`
}

// CacheConfig holds configuration of the on-disk token cache.
type CacheConfig struct {
	Dir              string `yaml:"dir"`
	File             string `yaml:"file"`
	FreshnessMinutes int    `yaml:"freshnessMinutes"`
}

// RefreshConfig holds configuration of the refresh cycle.
type RefreshConfig struct {
	IntervalMinutes  int    `yaml:"intervalMinutes"`
	SuspiciousSuffix string `yaml:"suspiciousSuffix"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// MetricsConfig holds configuration for the Prometheus endpoint.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// RateLimitWindow returns the per-client rate limit window.
func (c ServerConfig) RateLimitWindow() time.Duration { return millis(c.RateLimitWindowMs) }

// InterPageDelay returns the delay between token list pages.
func (c BirdeyeConfig) InterPageDelay() time.Duration { return millis(c.InterPageDelayMillis) }

// RateLimitBackoff returns the base delay of the 429 backoff schedule.
func (c BirdeyeConfig) RateLimitBackoff() time.Duration { return millis(c.RateLimitBackoffMillis) }

// TransientBackoff returns the base delay of the transient-failure backoff schedule.
func (c BirdeyeConfig) TransientBackoff() time.Duration { return millis(c.TransientBackoffMillis) }

// RequestTimeout returns the per-request timeout.
func (c BirdeyeConfig) RequestTimeout() time.Duration { return millis(c.RequestTimeoutMillis) }

// InterBatchDelay returns the delay between enrichment batches.
func (c DEXScreenerConfig) InterBatchDelay() time.Duration { return millis(c.InterBatchDelayMillis) }

// RequestTimeout returns the per-request timeout.
func (c DEXScreenerConfig) RequestTimeout() time.Duration { return millis(c.RequestTimeoutMillis) }

// Freshness returns how long a cache file is served.
func (c CacheConfig) Freshness() time.Duration { return time.Duration(c.FreshnessMinutes) * time.Minute }

// Interval returns the scheduled refresh period.
func (c RefreshConfig) Interval() time.Duration { return time.Duration(c.IntervalMinutes) * time.Minute }

// LoadConfig loads configuration from a YAML file, then .env and the process environment.
// A missing file is not an error: defaults and the environment are used instead.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		logrus.Warnf("Config file %s not found, using defaults and environment", path)
	default:
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Failed to load .env file: %v", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// PathFromEnv returns CONFIG_PATH or DefaultPath.
func PathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv("CONFIG_PATH")); p != "" {
		return p
	}
	return DefaultPath
}

func applyEnv(cfg *Config) {
	setStr(&cfg.Birdeye.APIKey, "BIRDEYE_API_KEY")
	setStr(&cfg.Birdeye.APIKey, "API_KEY")
	setStr(&cfg.Server.Port, "PORT")
	setInt(&cfg.Server.RateLimitMax, "RATE_LIMIT_MAX")
	setInt64(&cfg.Server.RateLimitWindowMs, "RATE_LIMIT_WINDOW_MS")
	setInt(&cfg.Birdeye.TotalTokens, "TOTAL_TOKENS")
	setInt(&cfg.Refresh.IntervalMinutes, "REFRESH_INTERVAL_MINUTES")
	setStr(&cfg.Cache.Dir, "CACHE_DIR")
	setStr(&cfg.Logging.Level, "LOG_LEVEL")

	if v := strings.TrimSpace(os.Getenv("CORS_ORIGIN")); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
}

func applyDefaults(cfg *Config) {
	// Server
	if cfg.Server.Port == "" {
		cfg.Server.Port = "3001"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Server.RateLimitMax == 0 {
		cfg.Server.RateLimitMax = 30
		logrus.Infof("Server.RateLimitMax not set, defaulting to %d", cfg.Server.RateLimitMax)
	}
	if cfg.Server.RateLimitWindowMs == 0 {
		cfg.Server.RateLimitWindowMs = 60000
		logrus.Infof("Server.RateLimitWindowMs not set, defaulting to %d ms", cfg.Server.RateLimitWindowMs)
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30
	}

	// Birdeye
	if cfg.Birdeye.BaseURL == "" {
		cfg.Birdeye.BaseURL = "https://public-api.birdeye.so"
		logrus.Infof("Birdeye.BaseURL not set, defaulting to %s", cfg.Birdeye.BaseURL)
	}
	if cfg.Birdeye.PageSize == 0 {
		cfg.Birdeye.PageSize = 50
		logrus.Infof("Birdeye.PageSize not set, defaulting to %d", cfg.Birdeye.PageSize)
	}
	if cfg.Birdeye.TotalTokens == 0 {
		cfg.Birdeye.TotalTokens = 1000
		logrus.Infof("Birdeye.TotalTokens not set, defaulting to %d", cfg.Birdeye.TotalTokens)
	}
	if cfg.Birdeye.InterPageDelayMillis == 0 {
		cfg.Birdeye.InterPageDelayMillis = 1200
		logrus.Infof("Birdeye.InterPageDelayMillis not set, defaulting to %d ms", cfg.Birdeye.InterPageDelayMillis)
	}
	if cfg.Birdeye.RequestsPerMinute == 0 {
		cfg.Birdeye.RequestsPerMinute = 1000
		logrus.Infof("Birdeye.RequestsPerMinute not set, defaulting to %d", cfg.Birdeye.RequestsPerMinute)
	}
	if cfg.Birdeye.MaxAttempts == 0 {
		cfg.Birdeye.MaxAttempts = 4
		logrus.Infof("Birdeye.MaxAttempts not set, defaulting to %d", cfg.Birdeye.MaxAttempts)
	}
	if cfg.Birdeye.RateLimitBackoffMillis == 0 {
		cfg.Birdeye.RateLimitBackoffMillis = 2000
	}
	if cfg.Birdeye.TransientBackoffMillis == 0 {
		cfg.Birdeye.TransientBackoffMillis = 300
	}
	if cfg.Birdeye.RequestTimeoutMillis == 0 {
		cfg.Birdeye.RequestTimeoutMillis = 10000 // Default to 10 seconds
		logrus.Infof("Birdeye.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Birdeye.RequestTimeoutMillis)
	}

	// DEX Screener
	if cfg.DEXScreener.BaseURL == "" {
		cfg.DEXScreener.BaseURL = "https://api.dexscreener.com"
		logrus.Infof("DEXScreener.BaseURL not set, defaulting to %s", cfg.DEXScreener.BaseURL)
	}
	if cfg.DEXScreener.ChainID == "" {
		cfg.DEXScreener.ChainID = "solana"
		logrus.Infof("DEXScreener.ChainID not set, defaulting to %s", cfg.DEXScreener.ChainID)
	}
	if cfg.DEXScreener.BatchSize == 0 {
		cfg.DEXScreener.BatchSize = 30 // Default for DEXScreener
		logrus.Infof("DEXScreener.BatchSize not set, defaulting to %d", cfg.DEXScreener.BatchSize)
	}
	if cfg.DEXScreener.InterBatchDelayMillis == 0 {
		cfg.DEXScreener.InterBatchDelayMillis = 250
	}
	if cfg.DEXScreener.RequestTimeoutMillis == 0 {
		cfg.DEXScreener.RequestTimeoutMillis = 15000
		logrus.Infof("DEXScreener.RequestTimeoutMillis not set, defaulting to %d ms", cfg.DEXScreener.RequestTimeoutMillis)
	}

	// Cache
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "data"
	}
	if cfg.Cache.File == "" {
		cfg.Cache.File = "token_cache.json"
	}
	if cfg.Cache.FreshnessMinutes == 0 {
		cfg.Cache.FreshnessMinutes = 30
		logrus.Infof("Cache.FreshnessMinutes not set, defaulting to %d minutes", cfg.Cache.FreshnessMinutes)
	}

	// Refresh
	if cfg.Refresh.IntervalMinutes == 0 {
		cfg.Refresh.IntervalMinutes = 30
		logrus.Infof("Refresh.IntervalMinutes not set, defaulting to %d minutes", cfg.Refresh.IntervalMinutes)
	}
	if cfg.Refresh.SuspiciousSuffix == "" {
		cfg.Refresh.SuspiciousSuffix = "pump"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "token_screener"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Birdeye.APIKey) == "" {
		return errors.New("birdeye API key is required (set API_KEY or birdeye.apiKey)")
	}
	if c.Birdeye.PageSize < 0 || c.Birdeye.TotalTokens < 0 {
		return fmt.Errorf("birdeye pageSize (%d) and totalTokens (%d) must be positive", c.Birdeye.PageSize, c.Birdeye.TotalTokens)
	}
	if c.DEXScreener.BatchSize < 0 || c.DEXScreener.BatchSize > 30 {
		return fmt.Errorf("dexScreener batchSize must be between 1 and 30, got %d", c.DEXScreener.BatchSize)
	}
	if c.Server.RateLimitMax < 0 || c.Server.RateLimitWindowMs < 0 {
		return errors.New("server rate limit settings must be positive")
	}
	if c.Refresh.IntervalMinutes < 0 || c.Cache.FreshnessMinutes < 0 {
		return errors.New("refresh interval and cache freshness must be positive")
	}
	return nil
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("Ignoring invalid %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

func setInt64(dst *int64, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		logrus.Warnf("Ignoring invalid %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
