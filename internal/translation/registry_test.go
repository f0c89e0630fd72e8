package translation

import (
	"errors"
	"testing"
)

func TestRegistryOpen(t *testing.T) {
	t.Parallel()

	var gotCredential string
	registry := NewRegistry("")
	if err := registry.Register("DeepL", func(credential string) (Provider, error) {
		gotCredential = credential
		return echoProvider{}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	provider, err := registry.Open("", "  key  ")
	if err != nil {
		t.Fatalf("open default provider: %v", err)
	}
	if provider.Name() != "echo" {
		t.Fatalf("unexpected provider: %s", provider.Name())
	}
	if gotCredential != "key" {
		t.Fatalf("expected trimmed credential, got %q", gotCredential)
	}
}

func TestRegistryOpenRequiresCredential(t *testing.T) {
	t.Parallel()

	called := false
	registry := NewRegistry("deepl")
	_ = registry.Register("deepl", func(string) (Provider, error) {
		called = true
		return echoProvider{}, nil
	})

	if _, err := registry.Open("deepl", " "); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if called {
		t.Fatalf("did not expect the factory to run without a credential")
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("deepl")
	_ = registry.Register("deepl", func(string) (Provider, error) { return echoProvider{}, nil })
	_ = registry.Register("local", func(string) (Provider, error) { return echoProvider{}, nil })

	if _, err := registry.Open("google", "key"); err == nil {
		t.Fatalf("expected unknown provider to fail")
	}
	if names := registry.ProviderNames(); len(names) != 2 || names[0] != "deepl" || names[1] != "local" {
		t.Fatalf("unexpected provider names: %v", names)
	}
	if got, err := registry.Resolve(" LOCAL "); err != nil || got != "local" {
		t.Fatalf("unexpected resolve result: %q (%v)", got, err)
	}
}

func TestRegistryRegisterValidation(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if err := registry.Register("", func(string) (Provider, error) { return nil, nil }); err == nil {
		t.Fatalf("expected empty name to be rejected")
	}
	if err := registry.Register("x", nil); err == nil {
		t.Fatalf("expected nil factory to be rejected")
	}
	if registry.DefaultProvider() != DefaultProviderName {
		t.Fatalf("unexpected default provider: %q", registry.DefaultProvider())
	}
}
