package config

import (
	"strings"
)

// ConfigError reports everything wrong with a config file at once:
// unresolved ${VAR} references and validation failures.
type ConfigError struct {
	Path    string
	Missing []string
	Errors  []string
}

func (e *ConfigError) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	if e.Path != "" {
		b.WriteString("config " + e.Path + ":\n")
	}
	if len(e.Missing) > 0 {
		b.WriteString("missing environment variables: " + strings.Join(e.Missing, ", ") + "\n")
	}
	if len(e.Errors) > 0 {
		b.WriteString("validation failed:\n")
		for _, msg := range e.Errors {
			b.WriteString("  - " + msg + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (e *ConfigError) HasErrors() bool {
	return len(e.Missing)+len(e.Errors) > 0
}
