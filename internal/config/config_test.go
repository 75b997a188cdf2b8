package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.StorageBackend != BackendSQLite {
		t.Errorf("StorageBackend = %q, want sqlite", cfg.StorageBackend)
	}
	if cfg.AlertCheckInterval != 6*time.Hour {
		t.Errorf("AlertCheckInterval = %v, want 6h", cfg.AlertCheckInterval)
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("GeminiAPIKey = %q, want empty", cfg.GeminiAPIKey)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("COLLETR_LISTEN_PORT", ":9000")
	t.Setenv("COLLETR_STORAGE_BACKEND", "memory")
	t.Setenv("COLLETR_ALERT_CHECK_INTERVAL", "30m")
	t.Setenv("COLLETR_GEMINI_RPM", "25")
	t.Setenv("COLLETR_PRETTY_LOG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenPort != ":9000" {
		t.Errorf("ListenPort = %q, want :9000", cfg.ListenPort)
	}
	if cfg.StorageBackend != BackendMemory {
		t.Errorf("StorageBackend = %q, want memory", cfg.StorageBackend)
	}
	if cfg.AlertCheckInterval != 30*time.Minute {
		t.Errorf("AlertCheckInterval = %v, want 30m", cfg.AlertCheckInterval)
	}
	if cfg.GeminiRequestsPerMinute != 25 {
		t.Errorf("GeminiRequestsPerMinute = %d, want 25", cfg.GeminiRequestsPerMinute)
	}
	if !cfg.PrettyLog {
		t.Error("PrettyLog not applied")
	}
}

func TestLoadYAMLFileWithEnvWinning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colletr.yaml")
	yaml := `
listen_port: ":7777"
storage_backend: redis
redis_addr: "redis.internal:6379"
alert_check_interval: 1h
cors_origins:
  - https://colletr.example
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("COLLETR_CONFIG_FILE", path)
	t.Setenv("COLLETR_LISTEN_PORT", ":8888") // env beats the file

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenPort != ":8888" {
		t.Errorf("ListenPort = %q, want env override :8888", cfg.ListenPort)
	}
	if cfg.StorageBackend != BackendRedis {
		t.Errorf("StorageBackend = %q, want redis from file", cfg.StorageBackend)
	}
	if cfg.RedisAddr != "redis.internal:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.AlertCheckInterval != time.Hour {
		t.Errorf("AlertCheckInterval = %v, want 1h", cfg.AlertCheckInterval)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://colletr.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("COLLETR_STORAGE_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted an unknown storage backend")
	}
}
