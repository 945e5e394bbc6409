package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/vmunix/mediaroute/internal/detect"
	"github.com/vmunix/mediaroute/internal/naming"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validMethods = map[string]bool{
	"smb": true, "local": true,
}

var validLanguages = map[detect.Language]bool{
	detect.LangMalayalam: true,
	detect.LangEnglish:   true,
	detect.LangBollywood: true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	if c.Scan.DownloadDir == "" {
		errs = append(errs, "scan.download_dir: required")
	} else if _, err := os.Stat(c.Scan.DownloadDir); os.IsNotExist(err) {
		errs = append(errs, fmt.Sprintf("scan.download_dir: directory %q does not exist", c.Scan.DownloadDir))
	}
	if c.Scan.Interval < 0 {
		errs = append(errs, "scan.interval: must not be negative")
	}

	if len(c.Routing.Movies) == 0 && len(c.Routing.TV) == 0 {
		errs = append(errs, "routing: at least one movies or tv route must be configured")
	}
	if err := naming.CheckTemplate(c.Routing.MovieTemplate); err != nil {
		errs = append(errs, fmt.Sprintf("routing.movie_template: %v", err))
	}
	if err := naming.CheckTemplate(c.Routing.EpisodeTemplate); err != nil {
		errs = append(errs, fmt.Sprintf("routing.episode_template: %v", err))
	}
	errs = append(errs, validateRoutes("routing.movies", c.Routing.Movies)...)
	errs = append(errs, validateRoutes("routing.tv", c.Routing.TV)...)

	for _, lang := range c.Extraction.Languages {
		if !validLanguages[detect.Language(lang)] {
			errs = append(errs, fmt.Sprintf("extraction.languages: unknown language %q", lang))
		}
	}
	for _, lang := range sortedKeys(c.Extraction.TargetCodes) {
		if !validLanguages[detect.Language(lang)] {
			errs = append(errs, fmt.Sprintf("extraction.target_codes: unknown language %q", lang))
		}
	}

	if !validMethods[c.Transfer.Method] {
		errs = append(errs, fmt.Sprintf("transfer.method: must be one of smb, local; got %q", c.Transfer.Method))
	}
	if c.Transfer.Retries < 0 {
		errs = append(errs, "transfer.retries: must not be negative")
	}
	switch c.Transfer.Method {
	case "smb":
		if c.Transfer.SMB.Server == "" {
			errs = append(errs, "transfer.smb.server: required when method is smb")
		}
		if c.Transfer.SMB.Share == "" {
			errs = append(errs, "transfer.smb.share: required when method is smb")
		}
		if c.Transfer.SMB.Username == "" {
			errs = append(errs, "transfer.smb.username: required when method is smb")
		}
	case "local":
		if c.Transfer.Local.Root == "" {
			errs = append(errs, "transfer.local.root: required when method is local")
		}
	}

	if c.Dashboard.URL != "" {
		u, err := url.Parse(c.Dashboard.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("dashboard.url: must be an http(s) URL; got %q", c.Dashboard.URL))
		}
	}

	return errs
}

func validateRoutes(section string, routes map[string]string) []string {
	var errs []string
	for _, lang := range sortedKeys(routes) {
		if !validLanguages[detect.Language(lang)] {
			errs = append(errs, fmt.Sprintf("%s: unknown language %q", section, lang))
		}
		if routes[lang] == "" {
			errs = append(errs, fmt.Sprintf("%s.%s: path required", section, lang))
		}
	}
	return errs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Languages converts configured bucket names.
func Languages(names []string) []detect.Language {
	out := make([]detect.Language, 0, len(names))
	for _, n := range names {
		out = append(out, detect.Language(n))
	}
	return out
}

// LanguageMap converts a bucket-keyed map.
func LanguageMap(m map[string]string) map[detect.Language]string {
	out := make(map[detect.Language]string, len(m))
	for k, v := range m {
		out[detect.Language(k)] = v
	}
	return out
}
