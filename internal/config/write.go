package config

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed default_config.toml
var defaultConfig []byte

const redacted = "********"

// WriteDefault writes the example config to path, creating its directory.
// The file is owner-only since it may end up holding SMB credentials.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, defaultConfig, 0o600)
}

// Redacted returns a copy of c that is safe to print.
func (c Config) Redacted() Config {
	if c.Transfer.SMB.Password != "" {
		c.Transfer.SMB.Password = redacted
	}
	return c
}

// Encode writes c as TOML, after defaults and ${VAR} substitution.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
