package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"horse.fit/telephone/internal/language"
)

// WithTimeout bounds every provider call by d. An expired deadline is reported
// as a ProviderError of kind KindTimeout. A non-positive d returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{next: p, timeout: d}
}

type timeoutProvider struct {
	next    Provider
	timeout time.Duration
}

func (p *timeoutProvider) Name() string { return p.next.Name() }

func (p *timeoutProvider) DetectLanguage(ctx context.Context, text string) (language.Code, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	code, err := p.next.DetectLanguage(callCtx, text)
	return code, p.classify(ctx, callCtx, OpDetect, err)
}

func (p *timeoutProvider) Translate(ctx context.Context, text string, target language.Code) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	out, err := p.next.Translate(callCtx, text, target)
	return out, p.classify(ctx, callCtx, OpTranslate, err)
}

func (p *timeoutProvider) TranslateBatch(ctx context.Context, texts []string, target language.Code) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	out, err := TranslateAll(callCtx, p.next, texts, target)
	return out, p.classify(ctx, callCtx, OpTranslate, err)
}

// classify rewrites failures caused by this wrapper's deadline. Cancellation of
// the parent context is passed through untouched.
func (p *timeoutProvider) classify(parent, callCtx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil || !errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return err
	}
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Kind == KindTimeout {
		return err
	}
	return &ProviderError{
		Provider: p.next.Name(),
		Op:       op,
		Kind:     KindTimeout,
		Err:      fmt.Errorf("no response within %s: %w", p.timeout, err),
	}
}

// WithDetector routes DetectLanguage to d while translations still go to p.
func WithDetector(p Provider, d Detector) Provider {
	if d == nil {
		return p
	}
	return &detectorProvider{Provider: p, detector: d}
}

type detectorProvider struct {
	Provider
	detector Detector
}

func (p *detectorProvider) DetectLanguage(ctx context.Context, text string) (language.Code, error) {
	return p.detector.DetectLanguage(ctx, text)
}

func (p *detectorProvider) TranslateBatch(ctx context.Context, texts []string, target language.Code) ([]string, error) {
	return TranslateAll(ctx, p.Provider, texts, target)
}

// Observer receives one report per provider call.
type Observer func(provider, op string, err error, elapsed time.Duration)

// WithObserver reports every call on p to fn.
func WithObserver(p Provider, fn Observer) Provider {
	if fn == nil {
		return p
	}
	return &observedProvider{next: p, observe: fn}
}

type observedProvider struct {
	next    Provider
	observe Observer
}

func (p *observedProvider) Name() string { return p.next.Name() }

func (p *observedProvider) DetectLanguage(ctx context.Context, text string) (language.Code, error) {
	started := time.Now()
	code, err := p.next.DetectLanguage(ctx, text)
	p.observe(p.next.Name(), OpDetect, err, time.Since(started))
	return code, err
}

func (p *observedProvider) Translate(ctx context.Context, text string, target language.Code) (string, error) {
	started := time.Now()
	out, err := p.next.Translate(ctx, text, target)
	p.observe(p.next.Name(), OpTranslate, err, time.Since(started))
	return out, err
}

func (p *observedProvider) TranslateBatch(ctx context.Context, texts []string, target language.Code) ([]string, error) {
	started := time.Now()
	out, err := TranslateAll(ctx, p.next, texts, target)
	p.observe(p.next.Name(), OpTranslate, err, time.Since(started))
	return out, err
}
