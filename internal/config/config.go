// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Database   DatabaseConfig   `toml:"database"`
	Scan       ScanConfig       `toml:"scan"`
	Routing    RoutingConfig    `toml:"routing"`
	Extraction ExtractionConfig `toml:"extraction"`
	Remux      RemuxConfig      `toml:"remux"`
	Probe      ProbeConfig      `toml:"probe"`
	Transfer   TransferConfig   `toml:"transfer"`
	Cleanup    CleanupConfig    `toml:"cleanup"`
	Dashboard  DashboardConfig  `toml:"dashboard"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type DatabaseConfig struct {
	Path           string        `toml:"path"`
	EventRetention time.Duration `toml:"event_retention"`
}

type ScanConfig struct {
	DownloadDir     string        `toml:"download_dir"`
	Interval        time.Duration `toml:"interval"`
	StabilityWindow time.Duration `toml:"stability_window"`
	Extensions      []string      `toml:"extensions"`
	Watch           bool          `toml:"watch"`
	WatchDebounce   time.Duration `toml:"watch_debounce"`
	DryRun          bool          `toml:"dry_run"`
	RemoveOriginals bool          `toml:"remove_originals"`
}

// RoutingConfig maps each media type and language bucket to a destination
// path relative to the share.
type RoutingConfig struct {
	MovieTemplate   string            `toml:"movie_template"`
	EpisodeTemplate string            `toml:"episode_template"`
	LibraryRoot     string            `toml:"library_root"` // local mount of the share, optional
	Movies          map[string]string `toml:"movies"`
	TV              map[string]string `toml:"tv"`
}

type ExtractionConfig struct {
	Enabled           bool              `toml:"enabled"`
	Languages         []string          `toml:"languages"`
	PreferredSubtitle string            `toml:"preferred_subtitle"`
	TargetCodes       map[string]string `toml:"target_codes"`
}

type RemuxConfig struct {
	Path    string        `toml:"path"`
	TempDir string        `toml:"temp_dir"`
	Timeout time.Duration `toml:"timeout"`
}

type ProbeConfig struct {
	Path    string        `toml:"path"`
	Timeout time.Duration `toml:"timeout"`
}

type TransferConfig struct {
	Method     string        `toml:"method"` // "smb" or "local"
	Retries    int           `toml:"retries"`
	RetryDelay time.Duration `toml:"retry_delay"`
	Timeout    time.Duration `toml:"timeout"`
	SMB        SMBConfig     `toml:"smb"`
	Local      LocalConfig   `toml:"local"`
}

type SMBConfig struct {
	Client   string `toml:"client"`
	Server   string `toml:"server"`
	Share    string `toml:"share"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Domain   string `toml:"domain"`
}

type LocalConfig struct {
	Root string `toml:"root"`
}

type CleanupConfig struct {
	Archives  bool `toml:"archives"`
	EmptyDirs bool `toml:"empty_dirs"`
}

type DashboardConfig struct {
	URL     string        `toml:"url"`
	Timeout time.Duration `toml:"timeout"`
}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping validation.
func LoadWithoutValidation(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/mediaroute.db"
	}
	if c.Database.EventRetention == 0 {
		c.Database.EventRetention = 30 * 24 * time.Hour
	}
	if c.Scan.Interval == 0 {
		c.Scan.Interval = 60 * time.Second
	}
	if c.Scan.StabilityWindow == 0 {
		c.Scan.StabilityWindow = time.Second
	}
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = []string{".mkv", ".mp4", ".avi"}
	}
	if c.Remux.Path == "" {
		c.Remux.Path = "mkvmerge"
	}
	if c.Remux.Timeout == 0 {
		c.Remux.Timeout = 30 * time.Minute
	}
	if c.Remux.TempDir == "" {
		c.Remux.TempDir = filepath.Join(os.TempDir(), "mediaroute")
	}
	if c.Probe.Path == "" {
		c.Probe.Path = "ffprobe"
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = 30 * time.Second
	}
	if c.Transfer.Method == "" {
		c.Transfer.Method = "smb"
	}
	if c.Transfer.Retries == 0 {
		c.Transfer.Retries = 3
	}
	if c.Transfer.RetryDelay == 0 {
		c.Transfer.RetryDelay = 10 * time.Second
	}
	if c.Transfer.Timeout == 0 {
		c.Transfer.Timeout = 2 * time.Hour
	}
	if c.Transfer.SMB.Client == "" {
		c.Transfer.SMB.Client = "smbclient"
	}
	if c.Dashboard.Timeout == 0 {
		c.Dashboard.Timeout = 10 * time.Second
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars expands environment references outside comment lines.
// Unresolved references are left in place and reported in missing.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	expand := func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if value == "" {
				return arg
			}
			return value
		case ":?":
			if value == "" {
				missing = append(missing, name+": "+strings.TrimSpace(arg))
				return match
			}
			return value
		}
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	}

	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines[i] = envVarPattern.ReplaceAllStringFunc(line, expand)
	}
	return strings.Join(lines, ""), missing
}
