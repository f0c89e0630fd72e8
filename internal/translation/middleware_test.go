package translation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"horse.fit/telephone/internal/language"
)

type blockingProvider struct{}

func (blockingProvider) Name() string { return "blocking" }

func (blockingProvider) DetectLanguage(ctx context.Context, _ string) (language.Code, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingProvider) Translate(ctx context.Context, _ string, _ language.Code) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type echoProvider struct {
	err error
}

func (p echoProvider) Name() string { return "echo" }

func (p echoProvider) DetectLanguage(_ context.Context, _ string) (language.Code, error) {
	return "EN-US", p.err
}

func (p echoProvider) Translate(_ context.Context, text string, target language.Code) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return text + "@" + string(target), nil
}

func TestWithTimeoutReportsTimeoutKind(t *testing.T) {
	t.Parallel()

	provider := WithTimeout(blockingProvider{}, 20*time.Millisecond)

	_, err := provider.Translate(context.Background(), "Hello", "DE")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Kind != KindTimeout || perr.Op != OpTranslate || perr.Provider != "blocking" {
		t.Fatalf("unexpected provider error: %+v", perr)
	}

	if _, err := provider.DetectLanguage(context.Background(), "Hello"); KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout kind for detect, got %v", err)
	}
}

func TestWithTimeoutPassesParentCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithTimeout(blockingProvider{}, time.Minute).Translate(ctx, "Hello", "DE")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if KindOf(err) == KindTimeout {
		t.Fatalf("did not expect parent cancellation to be reported as timeout")
	}
}

func TestWithTimeoutDisabled(t *testing.T) {
	t.Parallel()

	inner := echoProvider{}
	if got := WithTimeout(inner, 0); got != Provider(inner) {
		t.Fatalf("expected non-positive timeout to return the provider unchanged")
	}
}

func TestWithDetector(t *testing.T) {
	t.Parallel()

	provider := WithDetector(echoProvider{}, stubDetector{code: "JA"})
	code, err := provider.DetectLanguage(context.Background(), "こんにちは")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if code != "JA" {
		t.Fatalf("unexpected detected code: %s", code)
	}
	out, err := provider.Translate(context.Background(), "hi", "DE")
	if err != nil || out != "hi@DE" {
		t.Fatalf("expected translation to reach the wrapped provider, got %q (%v)", out, err)
	}
}

func TestWithObserver(t *testing.T) {
	t.Parallel()

	type call struct {
		provider string
		op       string
		err      error
	}
	var (
		mu    sync.Mutex
		calls []call
	)
	failure := &ProviderError{Provider: "echo", Op: OpTranslate, Kind: KindRateLimit}
	provider := WithObserver(echoProvider{err: failure}, func(provider, op string, err error, _ time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, call{provider: provider, op: op, err: err})
	})

	_, _ = provider.DetectLanguage(context.Background(), "x")
	_, _ = provider.Translate(context.Background(), "x", "DE")

	if len(calls) != 2 {
		t.Fatalf("unexpected observer call count: got %d want 2", len(calls))
	}
	if calls[0].op != OpDetect || calls[1].op != OpTranslate || calls[1].provider != "echo" {
		t.Fatalf("unexpected observed calls: %+v", calls)
	}
	if !errors.Is(calls[1].err, failure) {
		t.Fatalf("expected observer to receive the provider error, got %v", calls[1].err)
	}
}

func TestTranslateAllSequentialFallback(t *testing.T) {
	t.Parallel()

	got, err := TranslateAll(context.Background(), echoProvider{}, []string{"a", "b"}, "FR")
	if err != nil {
		t.Fatalf("translate all: %v", err)
	}
	if len(got) != 2 || got[0] != "a@FR" || got[1] != "b@FR" {
		t.Fatalf("unexpected translations: %v", got)
	}
}

func TestProviderErrorMessage(t *testing.T) {
	t.Parallel()

	err := &ProviderError{Provider: "deepl", Op: OpTranslate, Kind: KindRateLimit, StatusCode: 429, Err: errors.New("Too many requests")}
	want := "deepl translate failed (rate_limit, status 429): Too many requests"
	if err.Error() != want {
		t.Fatalf("unexpected message: got %q want %q", err.Error(), want)
	}
}
