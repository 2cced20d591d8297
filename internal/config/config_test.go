package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q, want release", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api" {
		t.Errorf("APIBasePath = %q, want /api", cfg.APIBasePath)
	}
	if cfg.DefaultQuota != 1000 || cfg.ContextWindow != 10 || cfg.MaxMessageLen != 2000 {
		t.Errorf("chatbot defaults = %d/%d/%d", cfg.DefaultQuota, cfg.ContextWindow, cfg.MaxMessageLen)
	}
	if cfg.TokenLifetime != 24*time.Hour {
		t.Errorf("TokenLifetime = %v, want 24h", cfg.TokenLifetime)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" || cfg.OpenAI.Temperature != 0.7 || cfg.OpenAI.MaxTokens != 500 {
		t.Errorf("openai defaults = %+v", cfg.OpenAI)
	}
	if cfg.OTEL.Enabled || cfg.OTEL.ServiceName != "quran-api" {
		t.Errorf("otel defaults = %+v", cfg.OTEL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("CHATBOT_DEFAULT_QUOTA", "50")
	t.Setenv("ADMIN_EMAIL", "Boss@Example.COM")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "debug" || cfg.DefaultQuota != 50 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.AdminEmail != "boss@example.com" {
		t.Errorf("AdminEmail = %q, want lowercased", cfg.AdminEmail)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("CORS origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"zero quota", "CHATBOT_DEFAULT_QUOTA", "0", "CHATBOT_DEFAULT_QUOTA"},
		{"zero window", "CHATBOT_CONTEXT_WINDOW", "0", "CHATBOT_CONTEXT_WINDOW"},
		{"temperature range", "OPENAI_TEMPERATURE", "3.5", "OPENAI_TEMPERATURE"},
		{"zero burst", "RATE_BURST", "0", "RATE_BURST"},
		{"sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := DBConfig{Host: "db", Port: "3306", User: "app", Password: "secret", Name: "islamicApp"}
	got := d.DSN()
	want := "app:secret@tcp(db:3306)/islamicApp?charset=utf8mb4&parseTime=True&loc=UTC"
	if got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":       "/",
		"/":      "/",
		"api":    "/api",
		"/api":   "/api",
		"/api/":  "/api",
		"/v1///": "/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
