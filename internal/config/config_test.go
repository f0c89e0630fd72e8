package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:         "local",
		LogLevel:            "info",
		TranslationProvider: ProviderDeepL,
		ProviderTimeout:     30 * time.Second,
		LanguageDetector:    DetectorProvider,
		DBMinConns:          1,
		DBMaxConns:          8,
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TRANSLATION_PROVIDER", "LANGUAGE_DETECTOR", "PROVIDER_TIMEOUT", "DATABASE_URL", "HISTORY_TOKEN_HASH", "STREAM_RATE_LIMIT", "DB_MIN_CONNS", "DB_MAX_CONNS"} {
		t.Setenv(key, "")
	}
	t.Setenv("TRANSLATION_PROVIDER", " DeepL ")
	t.Setenv("LANGUAGE_DETECTOR", "provider")
	t.Setenv("PROVIDER_TIMEOUT", "15s")
	t.Setenv("DB_MIN_CONNS", "1")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("STREAM_RATE_LIMIT", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TranslationProvider != ProviderDeepL {
		t.Fatalf("unexpected provider: %q", cfg.TranslationProvider)
	}
	if cfg.ProviderTimeout != 15*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.ProviderTimeout)
	}
	if cfg.HistoryEnabled() {
		t.Fatalf("history should be disabled without DATABASE_URL")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "unknown provider", mutate: func(c *Config) { c.TranslationProvider = "google" }, want: "TRANSLATION_PROVIDER"},
		{name: "unknown detector", mutate: func(c *Config) { c.LanguageDetector = "cld3" }, want: "LANGUAGE_DETECTOR"},
		{name: "negative timeout", mutate: func(c *Config) { c.ProviderTimeout = -time.Second }, want: "PROVIDER_TIMEOUT"},
		{name: "min over max", mutate: func(c *Config) { c.DBMinConns = 9 }, want: "DB_MIN_CONNS"},
		{name: "zero max", mutate: func(c *Config) { c.DBMinConns = 0; c.DBMaxConns = 0 }, want: "DB_MAX_CONNS"},
		{name: "negative rate", mutate: func(c *Config) { c.StreamRateLimit = -1 }, want: "STREAM_RATE_LIMIT"},
		{name: "token without database", mutate: func(c *Config) { c.HistoryTokenHash = "$2a$10$abc" }, want: "HISTORY_TOKEN_HASH"},
	}
	for _, tc := range cases {
		cfg := validConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error mentioning %s, got %v", tc.name, tc.want, err)
		}
	}

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for valid config: %v", err)
	}
}

func TestCORSAllowedOriginsList(t *testing.T) {
	t.Parallel()

	cfg := &Config{CORSAllowedOrigins: " https://a.example ,,https://b.example,https://a.example"}
	got := cfg.CORSAllowedOriginsList()
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected origins: got %v want %v", got, want)
	}
}
