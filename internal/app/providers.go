package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/telephone/internal/config"
	"horse.fit/telephone/internal/langdetect"
	"horse.fit/telephone/internal/language"
	"horse.fit/telephone/internal/metrics"
	"horse.fit/telephone/internal/translation"
)

// buildRegistry registers every provider the binary knows. Each factory binds
// one caller credential and applies the configured detector, timeout and
// metrics wrappers.
func buildRegistry(cfg *config.Config, logger zerolog.Logger) (*translation.Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	catalog := language.Default()
	client := &http.Client{}

	var offline translation.Detector
	if cfg.LanguageDetector == config.DetectorLingua || cfg.TranslationProvider == config.ProviderLocal {
		offline = langdetect.New(catalog)
	}

	decorate := func(p translation.Provider) translation.Provider {
		if cfg.LanguageDetector == config.DetectorLingua {
			p = translation.WithDetector(p, offline)
		}
		p = translation.WithTimeout(p, cfg.ProviderTimeout)
		return translation.WithObserver(p, metrics.ObserveProviderCall)
	}

	registry := translation.NewRegistry(cfg.TranslationProvider)
	if err := registry.Register(config.ProviderDeepL, func(credential string) (translation.Provider, error) {
		p, err := translation.NewDeepLProvider(credential, translation.DeepLOptions{
			BaseURL: cfg.DeepLAPIURL,
			Client:  client,
			Catalog: catalog,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("provider", p.Name()).Str("base_url", p.BaseURL()).Msg("provider opened")
		return decorate(p), nil
	}); err != nil {
		return nil, err
	}

	if err := registry.Register(config.ProviderLocal, func(credential string) (translation.Provider, error) {
		detector := offline
		if detector == nil {
			detector = langdetect.New(catalog)
		}
		p, err := translation.NewLocalProvider(credential, translation.LocalOptions{
			Endpoint: cfg.TranslationEndpoint,
			Model:    cfg.TranslationModel,
			Client:   client,
			Catalog:  catalog,
			Detector: detector,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("provider", p.Name()).Str("endpoint", p.EndpointURL()).Str("model", p.ModelName()).Msg("provider opened")
		return decorate(p), nil
	}); err != nil {
		return nil, err
	}

	if _, err := registry.Resolve(""); err != nil {
		return nil, fmt.Errorf("default provider %q: %w", strings.TrimSpace(cfg.TranslationProvider), err)
	}
	return registry, nil
}
