package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ParseEnv reads KEY=value lines. Blank lines and # comments are skipped, an
// "export " prefix is accepted, unquoted values lose a trailing " # comment",
// and ${KEY} refers to a key defined earlier in the same file or the process env.
func ParseEnv(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, raw, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("line %d: expected KEY=value", n)
		}
		val, quoted := unquoteEnv(strings.TrimSpace(raw))
		if !quoted {
			if i := strings.Index(val, " #"); i >= 0 {
				val = strings.TrimSpace(val[:i])
			}
		}
		if !quoted || strings.HasPrefix(strings.TrimSpace(raw), `"`) {
			val = os.Expand(val, func(k string) string {
				if v, ok := vars[k]; ok {
					return v
				}
				return os.Getenv(k)
			})
		}
		vars[key] = val
	}
	return vars, sc.Err()
}

// LoadEnvFile sets variables from a .env file. Variables already set in the process
// environment win, so CI secrets are not clobbered by a checked-in file. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	vars, err := ParseEnv(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for k, v := range vars {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}

// unquoteEnv strips one pair of matching quotes. Single quotes are literal.
func unquoteEnv(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return s, false
}
