package translation

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultProviderName is used when no provider is configured.
const DefaultProviderName = "deepl"

// Factory builds a provider bound to one caller credential.
type Factory func(credential string) (Provider, error)

// Registry stores provider factories and resolves a default provider.
// It is populated once at startup and only read afterwards.
type Registry struct {
	factories       map[string]Factory
	defaultProvider string
}

func NewRegistry(defaultProvider string) *Registry {
	normalizedDefault := normalizeProviderName(defaultProvider)
	if normalizedDefault == "" {
		normalizedDefault = DefaultProviderName
	}

	return &Registry{
		factories:       make(map[string]Factory),
		defaultProvider: normalizedDefault,
	}
}

// Register adds one named factory.
func (r *Registry) Register(name string, factory Factory) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if factory == nil {
		return fmt.Errorf("provider factory is nil")
	}
	normalized := normalizeProviderName(name)
	if normalized == "" {
		return fmt.Errorf("provider name is required")
	}
	r.factories[normalized] = factory
	return nil
}

// Open builds the named provider for credential. Empty names use the default provider.
// A blank credential fails with ErrMissingCredential before the factory runs.
func (r *Registry) Open(name, credential string) (Provider, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}
	resolvedName, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	provider, err := r.factories[resolvedName](strings.TrimSpace(credential))
	if err != nil {
		return nil, fmt.Errorf("open %s provider: %w", resolvedName, err)
	}
	return provider, nil
}

// Resolve returns the registered provider name that Open would use for name.
func (r *Registry) Resolve(name string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("registry is nil")
	}
	if len(r.factories) == 0 {
		return "", fmt.Errorf("no translation providers are registered")
	}
	resolvedName := normalizeProviderName(name)
	if resolvedName == "" {
		resolvedName = r.defaultProvider
	}
	if _, ok := r.factories[resolvedName]; ok {
		return resolvedName, nil
	}
	return "", fmt.Errorf("translation provider %q is not registered (available: %s)", resolvedName, strings.Join(r.ProviderNames(), ", "))
}

func (r *Registry) DefaultProvider() string {
	if r == nil {
		return ""
	}
	return r.defaultProvider
}

func (r *Registry) ProviderNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeProviderName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
