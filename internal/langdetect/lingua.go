// Package langdetect identifies the language of a text offline with lingua.
package langdetect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"horse.fit/telephone/internal/language"
	"horse.fit/telephone/internal/translation"
)

// MinLetters is the least number of letters a sample needs before detection is attempted.
const MinLetters = 6

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// Detector maps lingua results onto catalog codes.
type Detector struct {
	catalog *language.Catalog
	detect  func(text string) (string, bool)
}

// New returns a detector backed by the shared lingua model set.
func New(catalog *language.Catalog) *Detector {
	if catalog == nil {
		catalog = language.Default()
	}
	return &Detector{catalog: catalog, detect: DetectISO6391}
}

func (d *Detector) Name() string {
	return "lingua"
}

// DetectLanguage implements translation.Detector.
func (d *Detector) DetectLanguage(ctx context.Context, text string) (language.Code, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	iso, ok := d.detect(text)
	if !ok {
		return "", &translation.ProviderError{
			Provider: d.Name(),
			Op:       translation.OpDetect,
			Kind:     translation.KindUnsupported,
			Err:      errors.New("could not determine the language of the text"),
		}
	}
	code, err := d.catalog.FromProviderCode(iso)
	if err != nil {
		return "", &translation.ProviderError{
			Provider: d.Name(),
			Op:       translation.OpDetect,
			Kind:     translation.KindUnsupported,
			Err:      fmt.Errorf("detected language is not supported: %w", err),
		}
	}
	return code, nil
}

// DetectISO6391 returns the lowercase ISO 639-1 code of text, or false when the
// sample is too short or lingua is not confident.
func DetectISO6391(text string) (string, bool) {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return "", false
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < MinLetters {
		return "", false
	}

	detected, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return "", false
	}

	code := strings.ToLower(detected.IsoCode639_1().String())
	if len(code) != 2 {
		return "", false
	}
	return code, true
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
