package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != TransportStdio {
		t.Fatalf("default transport = %q, want stdio", cfg.Transport)
	}
	if cfg.Port != 3000 {
		t.Fatalf("default port = %d, want 3000", cfg.Port)
	}
	if cfg.MessagePath != "/messages" {
		t.Fatalf("default message path = %q", cfg.MessagePath)
	}
	if cfg.RateMinInterval != 100*time.Millisecond {
		t.Fatalf("default rate interval = %v", cfg.RateMinInterval)
	}
	if cfg.RateMaxConcurrent != 4 {
		t.Fatalf("default rate concurrency = %d", cfg.RateMaxConcurrent)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CRM_TRANSPORT", "SSE")
	t.Setenv("CRM_PORT", "8080")
	t.Setenv("CRM_API_TOKEN", "tok")
	t.Setenv("CRM_COMPANY_DOMAIN", "corp.example.com")
	t.Setenv("CRM_RATE_MIN_INTERVAL", "250ms")
	t.Setenv("CRM_AUTH_JWT_SECRET", "shh")
	t.Setenv("CRM_AUTH_JWT_AUDIENCE", "crm-mcp")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != TransportSSE {
		t.Fatalf("transport = %q, want sse", cfg.Transport)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if cfg.APIToken != "tok" || cfg.CompanyDomain != "corp.example.com" {
		t.Fatalf("credentials not loaded: %+v", cfg)
	}
	if cfg.RateMinInterval != 250*time.Millisecond {
		t.Fatalf("rate interval = %v", cfg.RateMinInterval)
	}
	if cfg.Auth.Secret != "shh" || cfg.Auth.Audience != "crm-mcp" {
		t.Fatalf("auth config not loaded: %+v", cfg.Auth)
	}
	if cfg.Auth.Algorithm != "HS256" {
		t.Fatalf("auth algorithm default = %q", cfg.Auth.Algorithm)
	}
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	t.Setenv("CRM_TRANSPORT", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown transport")
	}
}

func TestLoadRejectsBadMessagePath(t *testing.T) {
	t.Setenv("CRM_MESSAGE_PATH", "messages")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for relative message path")
	}
}
