package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderDeepL = "deepl"
	ProviderLocal = "local"

	DetectorProvider = "provider"
	DetectorLingua   = "lingua"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	TranslationProvider string        `envconfig:"TRANSLATION_PROVIDER" default:"deepl"`
	DeepLAPIURL         string        `envconfig:"DEEPL_API_URL" default:""`
	TranslationEndpoint string        `envconfig:"TRANSLATION_ENDPOINT" default:""`
	TranslationModel    string        `envconfig:"TRANSLATION_MODEL" default:""`
	ProviderTimeout     time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`
	LanguageDetector    string        `envconfig:"LANGUAGE_DETECTOR" default:"provider"`

	// DatabaseURL is optional; run history is disabled without it.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"8"`

	HistoryTokenHash   string  `envconfig:"HISTORY_TOKEN_HASH" default:""`
	CORSAllowedOrigins string  `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
	StreamRateLimit    float64 `envconfig:"STREAM_RATE_LIMIT" default:"0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.TranslationProvider = strings.ToLower(strings.TrimSpace(cfg.TranslationProvider))
	cfg.LanguageDetector = strings.ToLower(strings.TrimSpace(cfg.LanguageDetector))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.TranslationProvider {
	case ProviderDeepL, ProviderLocal:
	default:
		return fmt.Errorf("TRANSLATION_PROVIDER must be %q or %q, got %q", ProviderDeepL, ProviderLocal, c.TranslationProvider)
	}
	switch c.LanguageDetector {
	case DetectorProvider, DetectorLingua:
	default:
		return fmt.Errorf("LANGUAGE_DETECTOR must be %q or %q, got %q", DetectorProvider, DetectorLingua, c.LanguageDetector)
	}
	if c.ProviderTimeout < 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be >= 0")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.StreamRateLimit < 0 {
		return fmt.Errorf("STREAM_RATE_LIMIT must be >= 0")
	}
	if strings.TrimSpace(c.HistoryTokenHash) != "" && !c.HistoryEnabled() {
		return fmt.Errorf("HISTORY_TOKEN_HASH requires DATABASE_URL")
	}
	return nil
}

// HistoryEnabled reports whether completed runs can be stored.
func (c *Config) HistoryEnabled() bool {
	return c != nil && strings.TrimSpace(c.DatabaseURL) != ""
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
