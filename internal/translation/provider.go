package translation

import (
	"context"
	"fmt"

	"horse.fit/telephone/internal/language"
)

// Provider is the machine-translation capability a chain run depends on.
// Implementations are bound to one credential and must be safe for sequential use.
type Provider interface {
	Name() string
	DetectLanguage(ctx context.Context, text string) (language.Code, error)
	Translate(ctx context.Context, text string, target language.Code) (string, error)
}

// Detector identifies the language of a text.
type Detector interface {
	DetectLanguage(ctx context.Context, text string) (language.Code, error)
}

// BatchTranslator is implemented by providers that translate several texts in one call.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, texts []string, target language.Code) ([]string, error)
}

// TranslateAll translates texts into target, using one batch call when the
// provider supports it and falling back to sequential calls otherwise.
func TranslateAll(ctx context.Context, p Provider, texts []string, target language.Code) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batcher, ok := p.(BatchTranslator); ok {
		out, err := batcher.TranslateBatch(ctx, texts, target)
		if err != nil {
			return nil, err
		}
		if len(out) != len(texts) {
			return nil, &ProviderError{
				Provider: p.Name(),
				Op:       OpTranslate,
				Kind:     KindInvalidResponse,
				Err:      fmt.Errorf("batch returned %d translations for %d texts", len(out), len(texts)),
			}
		}
		return out, nil
	}

	out := make([]string, 0, len(texts))
	for _, text := range texts {
		translated, err := p.Translate(ctx, text, target)
		if err != nil {
			return nil, err
		}
		out = append(out, translated)
	}
	return out, nil
}
