package telephone

import (
	"fmt"
	"sort"
	"strings"

	"horse.fit/telephone/internal/chain"
	"horse.fit/telephone/internal/language"
)

// Request is the caller input for one chain run.
type Request struct {
	Text string
	// LanguageChain is an explicit route. Mutually exclusive with RandomChainLength.
	LanguageChain []string
	// RandomChainLength asks for a generated route of this many hops.
	RandomChainLength *int
	// StartLanguage overrides detection when set.
	StartLanguage string
	Credential    string
}

// ValidationError lists request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = message
}

// plan is a validated request.
type plan struct {
	text         string
	chain        []language.Code
	randomLength int
	start        language.Code
}

func (p plan) totalSteps() int {
	if len(p.chain) > 0 {
		return len(p.chain)
	}
	return p.randomLength
}

// Validate checks the request against catalog without contacting any provider.
// The returned error is a *ValidationError.
func (r Request) Validate(catalog *language.Catalog) error {
	_, err := r.plan(catalog)
	return err
}

func (r Request) plan(catalog *language.Catalog) (plan, error) {
	verr := &ValidationError{}
	out := plan{text: r.Text}

	if strings.TrimSpace(r.Credential) == "" {
		verr.add("apiKey", "is required")
	}
	if strings.TrimSpace(r.Text) == "" {
		verr.add("text", "is required")
	}

	hasChain := len(r.LanguageChain) > 0
	hasRandom := r.RandomChainLength != nil
	switch {
	case hasChain && hasRandom:
		verr.add("languageChain", "cannot be combined with randomChainLength")
	case !hasChain && !hasRandom:
		verr.add("languageChain", "either languageChain or randomChainLength must be provided")
	case hasChain:
		codes, err := chain.Validate(catalog, r.LanguageChain)
		if err != nil {
			verr.add("languageChain", err.Error())
		}
		out.chain = codes
	default:
		if err := chain.ValidateLength(*r.RandomChainLength); err != nil {
			verr.add("randomChainLength", fmt.Sprintf("must be between %d and %d", chain.MinLength, chain.MaxLength))
		}
		out.randomLength = *r.RandomChainLength
	}

	if strings.TrimSpace(r.StartLanguage) != "" {
		code, err := catalog.Parse(r.StartLanguage)
		if err != nil {
			verr.add("startLanguage", err.Error())
		}
		out.start = code
	}

	if len(verr.Fields) > 0 {
		return plan{}, verr
	}
	return out, nil
}
