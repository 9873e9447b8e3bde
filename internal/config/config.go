package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LocalBaseURL selects the bundled fixture dataset instead of a remote API.
const LocalBaseURL = "local"

// Config holds all configuration for the medigate client
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Fixtures  FixturesConfig  `mapstructure:"fixtures"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	DevServer DevServerConfig `mapstructure:"devserver"`
}

// APIConfig holds backend API settings
type APIConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	Version         string  `mapstructure:"version"`
	TimeoutMS       int     `mapstructure:"timeout_ms"`
	EnableLogging   bool    `mapstructure:"enable_logging"`
	RateLimitRPS    float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int     `mapstructure:"rate_limit_burst"`
	BreakerFailures uint32  `mapstructure:"breaker_failures"`
	BreakerCooldown int     `mapstructure:"breaker_cooldown_seconds"`
}

// FixturesConfig holds local-mode dataset settings
type FixturesConfig struct {
	Path      string `mapstructure:"path"`
	LatencyMS int    `mapstructure:"latency_ms"`
	Watch     bool   `mapstructure:"watch"`
}

// StorageConfig holds on-device persistence settings
type StorageConfig struct {
	DataDir       string `mapstructure:"data_dir"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	BadgerPath    string `mapstructure:"badger_path"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

// FeedbackConfig holds feedback collector settings
type FeedbackConfig struct {
	CollectorURL string `mapstructure:"collector_url"`
	SyncSchedule string `mapstructure:"sync_schedule"`
}

// DevServerConfig holds settings for the fixture-backed development server
type DevServerConfig struct {
	Address   string `mapstructure:"address"`
	Port      int    `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "medigate.db"))
	v.SetDefault("storage.badger_path", filepath.Join(dataDir, "secure"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "medigate.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (MEDIGATE_API_BASE_URL, MEDIGATE_STORAGE_ENCRYPTION_KEY, etc.)
	v.SetEnvPrefix("MEDIGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", LocalBaseURL)
	v.SetDefault("api.version", "v1")
	v.SetDefault("api.timeout_ms", 10000)
	v.SetDefault("api.enable_logging", false)
	v.SetDefault("api.rate_limit_rps", 0)
	v.SetDefault("api.rate_limit_burst", 10)
	v.SetDefault("api.breaker_failures", 5)
	v.SetDefault("api.breaker_cooldown_seconds", 30)

	v.SetDefault("fixtures.latency_ms", 300)
	v.SetDefault("fixtures.watch", false)

	v.SetDefault("feedback.sync_schedule", "@every 15m")

	v.SetDefault("devserver.address", "127.0.0.1")
	v.SetDefault("devserver.port", 8888)
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medigate")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "medigate")
}

// loadEnvOverrides applies aliases carried over from the mobile build environment
func loadEnvOverrides(cfg *Config) {
	if url := ResolveEnvWithAliases("MEDIGATE_API_BASE_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if url := ResolveEnvWithAliases("MEDIGATE_FEEDBACK_COLLECTOR_URL"); url != "" {
		cfg.Feedback.CollectorURL = url
	}
	if key := ResolveEnvWithAliases("MEDIGATE_STORAGE_ENCRYPTION_KEY"); key != "" {
		cfg.Storage.EncryptionKey = key
	}
	if port := os.Getenv("MEDIGATE_DEVSERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DevServer.Port = p
		}
	}
	cfg.DevServer.JWTSecret = GetEnvDefault("MEDIGATE_DEVSERVER_JWT_SECRET", cfg.DevServer.JWTSecret)
}

func validate(cfg *Config) error {
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = LocalBaseURL
	}

	if cfg.API.TimeoutMS <= 0 {
		return fmt.Errorf("api.timeout_ms must be positive, got %d", cfg.API.TimeoutMS)
	}
	if cfg.API.RateLimitRPS < 0 {
		return fmt.Errorf("api.rate_limit_rps must not be negative")
	}
	if cfg.Fixtures.LatencyMS < 0 {
		return fmt.Errorf("fixtures.latency_ms must not be negative")
	}

	if cfg.Storage.EncryptionKey != "" {
		if _, err := cfg.EncryptionKey(); err != nil {
			return err
		}
	}

	if cfg.DevServer.JWTSecret == "" {
		cfg.DevServer.JWTSecret = generateRandomString(32)
	}

	return nil
}

func generateRandomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	rand.Read(b)
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}

// IsLocal reports whether requests are served from the fixture dataset
func (c *Config) IsLocal() bool {
	return c.API.BaseURL == "" || c.API.BaseURL == LocalBaseURL
}

// Timeout returns the remote request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutMS) * time.Millisecond
}

// FixtureLatency returns the simulated delay for local-mode requests
func (c *Config) FixtureLatency() time.Duration {
	return time.Duration(c.Fixtures.LatencyMS) * time.Millisecond
}

// EncryptionKey decodes the hex storage key. A nil key means no encrypted store is available.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.Storage.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.Storage.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("storage.encryption_key must be hex encoded: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("storage.encryption_key must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}
