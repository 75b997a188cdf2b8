// Package config loads runtime settings from an optional YAML file plus
// COLLETR_-prefixed environment variables. Env always wins over the file,
// and every setting has a default, so a bare `colletr-server` run works.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend names accepted by Config.StorageBackend.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // graceful shutdown budget

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StorageBackend string // "sqlite" | "redis" | "memory"
	SQLitePath     string // ex: "./colletr.db"

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GeminiAPIKey            string // empty disables identification/valuation
	GeminiModel             string
	GeminiRequestsPerMinute int

	AlertCheckInterval time.Duration // price-alert worker cadence

	CORSOrigins []string // allowed origins, empty = allow all
}

// fileConfig mirrors Config for the optional YAML file. Pointer fields
// distinguish "absent" from zero values so env defaults survive.
type fileConfig struct {
	ListenPort      *string `yaml:"listen_port"`
	ShutdownTimeout *string `yaml:"shutdown_timeout"`

	LogLevel  *string `yaml:"log_level"`
	PrettyLog *bool   `yaml:"pretty_log"`

	StorageBackend *string `yaml:"storage_backend"`
	SQLitePath     *string `yaml:"sqlite_path"`

	RedisAddr     *string `yaml:"redis_addr"`
	RedisPassword *string `yaml:"redis_password"`
	RedisDB       *int    `yaml:"redis_db"`

	GeminiAPIKey            *string `yaml:"gemini_api_key"`
	GeminiModel             *string `yaml:"gemini_model"`
	GeminiRequestsPerMinute *int    `yaml:"gemini_requests_per_minute"`

	AlertCheckInterval *string  `yaml:"alert_check_interval"`
	CORSOrigins        []string `yaml:"cors_origins"`
}

// Load builds the config: defaults, then the YAML file named by
// COLLETR_CONFIG_FILE (if any), then env overrides.
func Load() (*Config, error) {
	cfg := &Config{
		ListenPort:              ":8080",
		ShutdownTimeout:         5 * time.Second,
		LogLevel:                "info",
		PrettyLog:               false,
		StorageBackend:          BackendSQLite,
		SQLitePath:              "./colletr.db",
		RedisAddr:               "localhost:6379",
		GeminiModel:             "gemini-2.5-flash",
		GeminiRequestsPerMinute: 10,
		AlertCheckInterval:      6 * time.Hour,
	}

	if path := os.Getenv("COLLETR_CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	switch cfg.StorageBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.ListenPort, fc.ListenPort)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.StorageBackend, fc.StorageBackend)
	setString(&cfg.SQLitePath, fc.SQLitePath)
	setString(&cfg.RedisAddr, fc.RedisAddr)
	setString(&cfg.RedisPassword, fc.RedisPassword)
	setString(&cfg.GeminiAPIKey, fc.GeminiAPIKey)
	setString(&cfg.GeminiModel, fc.GeminiModel)
	if fc.PrettyLog != nil {
		cfg.PrettyLog = *fc.PrettyLog
	}
	if fc.RedisDB != nil {
		cfg.RedisDB = *fc.RedisDB
	}
	if fc.GeminiRequestsPerMinute != nil {
		cfg.GeminiRequestsPerMinute = *fc.GeminiRequestsPerMinute
	}
	if fc.ShutdownTimeout != nil {
		d, err := time.ParseDuration(*fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if fc.AlertCheckInterval != nil {
		d, err := time.ParseDuration(*fc.AlertCheckInterval)
		if err != nil {
			return fmt.Errorf("invalid alert_check_interval: %w", err)
		}
		cfg.AlertCheckInterval = d
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ListenPort = getenv("COLLETR_LISTEN_PORT", cfg.ListenPort)
	cfg.ShutdownTimeout = getenvDuration("COLLETR_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LogLevel = getenv("COLLETR_LOG_LEVEL", cfg.LogLevel)
	cfg.PrettyLog = getenvBool("COLLETR_PRETTY_LOG", cfg.PrettyLog)
	cfg.StorageBackend = getenv("COLLETR_STORAGE_BACKEND", cfg.StorageBackend)
	cfg.SQLitePath = getenv("COLLETR_SQLITE_PATH", cfg.SQLitePath)
	cfg.RedisAddr = getenv("COLLETR_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenv("COLLETR_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvInt("COLLETR_REDIS_DB", cfg.RedisDB)
	cfg.GeminiAPIKey = getenv("COLLETR_GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getenv("COLLETR_GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiRequestsPerMinute = getenvInt("COLLETR_GEMINI_RPM", cfg.GeminiRequestsPerMinute)
	cfg.AlertCheckInterval = getenvDuration("COLLETR_ALERT_CHECK_INTERVAL", cfg.AlertCheckInterval)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
