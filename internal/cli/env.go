// Package cli holds flag helpers shared by the telephone subcommands.
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar names a .env file that takes precedence over the --env flag.
const EnvFileVar = "TELEPHONE_ENV_FILE"

// EnvLoader loads the first readable .env file among its candidates.
type EnvLoader struct {
	value       *string
	defaultPath string
	getenv      func(string) string
	logf        func(format string, args ...any)
}

// AddEnvFlag registers --env on fs and returns the loader bound to it.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}
	if description == "" {
		description = "Path to the .env file"
	}

	return &EnvLoader{
		value:       fs.String("env", defaultPath, description),
		defaultPath: defaultPath,
		getenv:      os.Getenv,
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
}

// Load overlays the environment with the first candidate that parses and
// returns its path. Values from the file replace existing variables.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	candidates := l.candidates()
	for _, path := range candidates {
		if err := godotenv.Overload(path); err == nil {
			l.logf("Loaded environment from %s", path)
			return path, nil
		}
	}
	return "", fmt.Errorf("failed to load env file from %s", strings.Join(candidates, ", "))
}

// candidates lists paths in lookup order: the EnvFileVar override, the flag
// value, the flag value's basename, then the default path.
func (l *EnvLoader) candidates() []string {
	var out []string
	add := func(path string) {
		path = strings.TrimSpace(path)
		if path != "" && !slices.Contains(out, path) {
			out = append(out, path)
		}
	}

	if l.getenv != nil {
		add(l.getenv(EnvFileVar))
	}
	requested := l.defaultPath
	if l.value != nil && strings.TrimSpace(*l.value) != "" {
		requested = *l.value
	}
	add(requested)
	add(filepath.Base(strings.TrimSpace(requested)))
	add(l.defaultPath)
	return out
}
