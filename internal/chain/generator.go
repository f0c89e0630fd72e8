// Package chain builds and validates the language routes a text travels through.
package chain

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"horse.fit/telephone/internal/language"
)

const (
	MinLength = 3
	MaxLength = 15
)

var (
	ErrInvalidLength = fmt.Errorf("chain length must be between %d and %d", MinLength, MaxLength)
	ErrEmptyCatalog  = errors.New("language catalog has no usable codes")
)

// Rand is the randomness source used to draw chain entries.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// ValidateLength reports whether n is an allowed chain length.
func ValidateLength(n int) error {
	if n < MinLength || n > MaxLength {
		return fmt.Errorf("%w (got %d)", ErrInvalidLength, n)
	}
	return nil
}

// Generate draws a random chain of the given length from the catalog.
//
// The first entry is never exclude (when non-empty) and no two adjacent entries
// are equal. Non-adjacent repeats are allowed, including exclude itself after
// the first position.
func Generate(rng Rand, catalog *language.Catalog, length int, exclude language.Code) ([]language.Code, error) {
	if err := ValidateLength(length); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = globalRand{}
	}

	all := catalog.Codes()
	pool := without(all, exclude)
	out := make([]language.Code, 0, length)
	for range length {
		if len(pool) == 0 {
			return nil, ErrEmptyCatalog
		}
		picked := pool[rng.IntN(len(pool))]
		out = append(out, picked)
		pool = without(all, picked)
	}
	return out, nil
}

// Validate checks an explicit chain and returns it in canonical spelling.
// Errors name the offending position.
func Validate(catalog *language.Catalog, raw []string) ([]language.Code, error) {
	if err := ValidateLength(len(raw)); err != nil {
		return nil, err
	}
	out := make([]language.Code, 0, len(raw))
	for i, value := range raw {
		code, err := catalog.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("languageChain[%d]: %w", i, err)
		}
		out = append(out, code)
	}
	return out, nil
}

func without(codes []language.Code, drop language.Code) []language.Code {
	out := make([]language.Code, 0, len(codes))
	for _, code := range codes {
		if drop != "" && code == drop {
			continue
		}
		out = append(out, code)
	}
	return out
}
