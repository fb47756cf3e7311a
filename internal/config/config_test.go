package config

import (
	"testing"
	"time"
)

func noDotEnv(t *testing.T) {
	t.Helper()
	orig := loadDotEnv
	loadDotEnv = func() error { return nil }
	t.Cleanup(func() { loadDotEnv = orig })
}

func TestLoadDefaults(t *testing.T) {
	noDotEnv(t)
	for _, k := range []string{
		"OUTPUT_DIR", "LOG_LEVEL", "HTTP_TIMEOUT_SECS", "TASK_TIMEOUT_SECS",
		"BROWSER_ENABLED", "BROWSER_MAX_PAGES", "REDIS_URL", "DATABASE_URL",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "HTTP_PORT", "TRACING_ENABLED",
		"SSH_PORT", "SSH_HOST_KEY_PATH", "SSH_AUTHORIZED_KEYS",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.OutputDir != "." || cfg.JSONFile != "rates.json" || cfg.ReportFile != "README.md" {
		t.Fatalf("unexpected output defaults: %+v", cfg)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("expected 10s http timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.TaskTimeout != time.Minute {
		t.Fatalf("expected 60s task timeout, got %s", cfg.TaskTimeout)
	}
	if cfg.BrowserMaxPages != 12 {
		t.Fatalf("expected 12 pages, got %d", cfg.BrowserMaxPages)
	}
	if cfg.KafkaTopic != "bdt-rates" {
		t.Fatalf("expected default topic, got %s", cfg.KafkaTopic)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected no brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.TracingEnabled {
		t.Fatal("tracing should be off by default")
	}
	if cfg.SSHPort != 2222 || cfg.SSHHostKeyPath != ".ssh/id_ed25519" || cfg.SSHAuthorizedKeys != "" {
		t.Fatalf("unexpected ssh defaults: %+v", cfg)
	}
}

func TestLoadWithEnv(t *testing.T) {
	noDotEnv(t)
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("BROWSER_ENABLED", "false")
	t.Setenv("BROWSER_MAX_PAGES", "4")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("API_KEY", " s3cret ")
	t.Setenv("SSH_PORT", "2022")
	t.Setenv("SSH_AUTHORIZED_KEYS", "/etc/rates/authorized_keys")

	cfg := Load()
	if cfg.OutputDir != "/tmp/out" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.BrowserEnabled || cfg.BrowserMaxPages != 4 {
		t.Fatalf("unexpected browser config: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.RedisURL != "redis://cache:6379/0" || !cfg.TracingEnabled || cfg.APIKey != "s3cret" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if cfg.SSHPort != 2022 || cfg.SSHAuthorizedKeys != "/etc/rates/authorized_keys" {
		t.Fatalf("unexpected ssh config: %+v", cfg)
	}

	t.Setenv("BROWSER_MAX_PAGES", "bad")
	cfg = Load()
	if cfg.BrowserMaxPages != 12 {
		t.Fatalf("invalid page count should fall back to default, got %d", cfg.BrowserMaxPages)
	}
}
