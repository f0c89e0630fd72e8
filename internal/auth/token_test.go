package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyToken(t *testing.T) {
	t.Parallel()

	hash, err := HashToken("history-secret")
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}
	if hash == "" {
		t.Fatalf("expected non-empty hash")
	}
	if !VerifyToken(" history-secret ", hash) {
		t.Fatalf("expected token verification to succeed")
	}
	if VerifyToken("wrong-token", hash) {
		t.Fatalf("did not expect wrong token to verify")
	}
	if VerifyToken("", hash) || VerifyToken("history-secret", "") {
		t.Fatalf("blank input must never verify")
	}
}

func TestHashTokenRejectsInvalid(t *testing.T) {
	t.Parallel()

	if _, err := HashToken("   "); err == nil {
		t.Fatalf("expected error for blank token")
	}
	if _, err := HashToken(strings.Repeat("x", 73)); err == nil {
		t.Fatalf("expected error for oversized token")
	}
}

func TestVerifyTokenLowCostHash(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("abc"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}
	if !VerifyToken("abc", string(hash)) {
		t.Fatalf("expected verification against a min-cost hash")
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer  abc ", want: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer", ok: false},
		{header: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := BearerToken(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("unexpected result for %q: got %q,%v want %q,%v", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
