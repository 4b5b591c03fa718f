package stack

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// LookupFunc resolves a variable reference during interpolation.
type LookupFunc func(name string) (string, bool)

// EnvLookup returns a LookupFunc over the process environment, supplemented
// by a .env file in dir when one exists. Process environment values win over
// the file.
func EnvLookup(dir string) (LookupFunc, error) {
	fileVars := map[string]string{}
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		fileVars, err = godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", envPath, err)
		}
	}
	return func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := fileVars[name]
		return v, ok
	}, nil
}

// MapLookup returns a LookupFunc over a fixed map.
func MapLookup(vars map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

var expandPattern = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Expand substitutes ${VAR} and ${VAR:-default} references in s. A variable
// that is unset or empty falls back to its default, or to the empty string
// without one. $$ escapes a literal dollar sign. Only the braced form is
// recognized.
func Expand(s string, lookup LookupFunc) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return expandPattern.ReplaceAllStringFunc(s, func(match string) string {
		if match == "$$" {
			return "$"
		}
		groups := expandPattern.FindStringSubmatch(match)
		name, fallback := groups[1], groups[2]
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		return fallback
	})
}
