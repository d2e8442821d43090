package qdranthttp

import (
	"errors"
	"testing"
	"time"
)

func TestResolveConfigFromEnv(t *testing.T) {
	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_API_KEY", "secret")
	t.Setenv("QDRANT_TIMEOUT_SECONDS", "30")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.URL != "http://qdrant:6333" || cfg.APIKey != "secret" {
		t.Fatalf("config: %+v", cfg)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("timeout: got=%v", cfg.Timeout)
	}
}

func TestResolveConfigMissingURL(t *testing.T) {
	t.Setenv("QDRANT_URL", "")
	t.Setenv("QDRANT_TIMEOUT_SECONDS", "")

	_, err := ResolveConfigFromEnv()
	var typed *ConfigError
	if !errors.As(err, &typed) || typed.Code != ConfigErrorMissingURL {
		t.Fatalf("want missing_url, got %v", err)
	}
}

func TestResolveConfigInvalidValues(t *testing.T) {
	t.Setenv("QDRANT_URL", "not a url")
	t.Setenv("QDRANT_TIMEOUT_SECONDS", "")
	_, err := ResolveConfigFromEnv()
	var typed *ConfigError
	if !errors.As(err, &typed) || typed.Code != ConfigErrorInvalidURL {
		t.Fatalf("want invalid_url, got %v", err)
	}

	t.Setenv("QDRANT_URL", "http://qdrant:6333")
	t.Setenv("QDRANT_TIMEOUT_SECONDS", "zero")
	_, err = ResolveConfigFromEnv()
	if !errors.As(err, &typed) || typed.Code != ConfigErrorInvalidTimeout {
		t.Fatalf("want invalid_timeout, got %v", err)
	}
}
