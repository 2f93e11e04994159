package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TASKFLOW_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Client.BaseURL != "http://localhost:8080" {
		t.Errorf("unexpected base url %q", cfg.Client.BaseURL)
	}
	if cfg.JWT.TTL != time.Hour {
		t.Errorf("unexpected ttl %s", cfg.JWT.TTL)
	}
	if cfg.Database.URL != "postgres://backend_user:pw@localhost:5432/backend_db?sslmode=disable" {
		t.Errorf("unexpected database url %q", cfg.Database.URL)
	}
	if cfg.Client.SessionPath == "" {
		t.Error("expected a default session path")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TASKFLOW_URL", "https://tasks.example.com")
	t.Setenv("TASKFLOW_REQUEST_TIMEOUT", "3")
	t.Setenv("TASKFLOW_OUTPUT", "yaml")
	t.Setenv("JWT_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Client.BaseURL != "https://tasks.example.com" {
		t.Errorf("unexpected base url %q", cfg.Client.BaseURL)
	}
	if cfg.Client.RequestTimeout != 3*time.Second {
		t.Errorf("expected seconds fallback, got %s", cfg.Client.RequestTimeout)
	}
	if cfg.JWT.TTL != 30*time.Minute {
		t.Errorf("unexpected ttl %s", cfg.JWT.TTL)
	}
	if err := cfg.ValidateClient(); err != nil {
		t.Errorf("validate client: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{JWT: JWTConfig{TTL: time.Hour}, Database: DatabaseConfig{URL: "postgres://x"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing secret to be rejected")
	}
	cfg.JWT.Secret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateClient_RejectsUnknownOutput(t *testing.T) {
	cfg := &Config{Client: ClientConfig{BaseURL: "http://x", Output: "xml"}}
	if err := cfg.ValidateClient(); err == nil {
		t.Error("expected error")
	}
}
