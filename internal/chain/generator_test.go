package chain

import (
	"errors"
	"math/rand/v2"
	"testing"

	"horse.fit/telephone/internal/language"
)

func TestGenerateLengths(t *testing.T) {
	t.Parallel()

	catalog := language.Default()
	for n := MinLength; n <= MaxLength; n++ {
		got, err := Generate(nil, catalog, n, "")
		if err != nil {
			t.Fatalf("generate length %d: %v", n, err)
		}
		if len(got) != n {
			t.Fatalf("unexpected chain length: got %d want %d", len(got), n)
		}
	}
}

func TestGenerateRejectsInvalidLength(t *testing.T) {
	t.Parallel()

	for _, n := range []int{-1, 0, 2, 16, 100} {
		if _, err := Generate(nil, language.Default(), n, ""); !errors.Is(err, ErrInvalidLength) {
			t.Fatalf("expected ErrInvalidLength for %d, got %v", n, err)
		}
	}
}

func TestGenerateAdjacencyAndMembership(t *testing.T) {
	t.Parallel()

	catalog := language.Default()
	rng := rand.New(rand.NewPCG(1, 2))
	for iter := 0; iter < 500; iter++ {
		got, err := Generate(rng, catalog, MaxLength, "EN-US")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if got[0] == "EN-US" {
			t.Fatalf("first entry must not equal the excluded start language: %v", got)
		}
		for i, code := range got {
			if !catalog.Contains(code) {
				t.Fatalf("chain contains unknown code %q: %v", code, got)
			}
			if i > 0 && got[i-1] == code {
				t.Fatalf("adjacent duplicate at %d: %v", i, got)
			}
		}
	}
}

func TestGenerateTwoLanguageCatalogAlternates(t *testing.T) {
	t.Parallel()

	catalog := language.NewCatalog([]language.Entry{
		{Code: "DE", Name: "German"},
		{Code: "FR", Name: "French"},
	}, nil)

	got, err := Generate(rand.New(rand.NewPCG(7, 7)), catalog, 5, "DE")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := []language.Code{"FR", "DE", "FR", "DE", "FR"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected chain: got %v want %v", got, want)
		}
	}
}

func TestGenerateSingleLanguageCatalogFails(t *testing.T) {
	t.Parallel()

	catalog := language.NewCatalog([]language.Entry{{Code: "DE", Name: "German"}}, nil)
	if _, err := Generate(nil, catalog, 3, ""); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	got, err := Validate(language.Default(), []string{"de", " fr ", "PT_BR"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got[0] != "DE" || got[1] != "FR" || got[2] != "PT-BR" {
		t.Fatalf("unexpected canonical chain: %v", got)
	}

	if _, err := Validate(language.Default(), []string{"DE", "FR"}); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected short chain to be rejected, got %v", err)
	}
	if _, err := Validate(language.Default(), []string{"DE", "XX", "FR"}); !errors.Is(err, language.ErrUnknownCode) {
		t.Fatalf("expected unknown code error, got %v", err)
	}
}
