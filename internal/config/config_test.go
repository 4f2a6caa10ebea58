package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidateAndSetupDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	var cfg ServiceConfig
	if err := cfg.ValidateAndSetup(); err != nil {
		t.Fatal(err)
	}

	if cfg.LogLevel != "info" {
		t.Fatalf("log level=%q", cfg.LogLevel)
	}
	if cfg.Server.Port != "8000" || cfg.Server.CORSOrigin != "*" {
		t.Fatalf("server cfg: %+v", cfg.Server)
	}
	if cfg.Oracle.Address == "" || cfg.Oracle.QuoteCurrency != "USDT" || cfg.Oracle.QuoteTimeout != 5*time.Second {
		t.Fatalf("oracle cfg: %+v", cfg.Oracle)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour || cfg.Auth.Secret != "test-secret" {
		t.Fatalf("auth cfg: %+v", cfg.Auth)
	}
	if cfg.Journal.Backend != JournalMemory {
		t.Fatalf("journal cfg: %+v", cfg.Journal)
	}
}

func TestValidateAndSetupRequiresSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")

	var cfg ServiceConfig
	if err := cfg.ValidateAndSetup(); err == nil {
		t.Fatal("expected error for empty SECRET_KEY")
	}
}

func TestValidateAndSetupRejectsUnknownJournalBackend(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	cfg := ServiceConfig{Journal: JournalConfig{Backend: "redis"}}
	if err := cfg.ValidateAndSetup(); err == nil {
		t.Fatal("expected error for unknown journal backend")
	}
}

func TestLoadServiceConfig(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	input := `log_level: debug
server:
  port: "9000"
oracle:
  quote_timeout: 2s
auth:
  token_ttl: 1h
journal:
  backend: postgres
`
	if err := os.WriteFile(path, []byte(input), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadServiceConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Server.Port != "9000" {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.Oracle.QuoteTimeout != 2*time.Second || cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.Journal.Backend != JournalPostgres {
		t.Fatalf("journal: %+v", cfg.Journal)
	}
}
