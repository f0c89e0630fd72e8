package cli

import (
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestLoader(t *testing.T, args []string, override string) *EnvLoader {
	t.Helper()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, ".env", "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	loader.getenv = func(key string) string {
		if key == EnvFileVar {
			return override
		}
		return ""
	}
	loader.logf = func(string, ...any) {}
	return loader
}

func TestCandidatesOrder(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, []string{"--env", "config/prod.env"}, "/etc/telephone.env")
	got := loader.candidates()
	want := []string{"/etc/telephone.env", "config/prod.env", "prod.env", ".env"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected candidates: got %v want %v", got, want)
	}
}

func TestCandidatesDeduplicates(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t, nil, "")
	if got := loader.candidates(); !reflect.DeepEqual(got, []string{".env"}) {
		t.Fatalf("unexpected candidates: %v", got)
	}
}

func TestLoadOverlaysVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telephone.env")
	if err := os.WriteFile(path, []byte("TELEPHONE_CLI_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("TELEPHONE_CLI_TEST_VALUE", "before")

	loader := newTestLoader(t, []string{"--env", path}, "")
	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded != path {
		t.Fatalf("unexpected loaded path: got %q want %q", loaded, path)
	}
	if got := os.Getenv("TELEPHONE_CLI_TEST_VALUE"); got != "from-file" {
		t.Fatalf("unexpected value: got %q want %q", got, "from-file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope", "missing.env")
	loader := newTestLoader(t, []string{"--env", missing}, "")
	loader.defaultPath = missing
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error for missing env file")
	}
}
