package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvPath names the environment variable that overrides discovery.
const EnvPath = "MEDIAROUTE_CONFIG"

// ErrNoConfig is returned by Discover when none of the candidates exist.
var ErrNoConfig = errors.New("config not found")

// DefaultPath is where `mediaroute init` writes the example config:
// $XDG_CONFIG_HOME/mediaroute/config.toml, with ~/.config as the fallback.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mediaroute", "config.toml")
}

// Candidates lists the paths Discover tries, in order.
func Candidates() []string {
	return []string{"config.toml", DefaultPath(), "/etc/mediaroute/config.toml"}
}

// Discover returns the config path to use. MEDIAROUTE_CONFIG wins and must
// exist; otherwise the first existing candidate is returned.
func Discover() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvPath, p, err)
		}
		return p, nil
	}

	candidates := Candidates()
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s)", ErrNoConfig, strings.Join(candidates, ", "))
}
