package main

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediaroute/internal/app"
	"github.com/vmunix/mediaroute/internal/config"
)

var version = "dev"

var (
	configPath string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "mediaroute",
	Short: "Sort finished downloads onto the media share",
	Long: `mediaroute - sort finished downloads onto the media share

Detects language and type, prunes unwanted audio and subtitle tracks,
names files consistently and transfers them to the right library folder.

Run 'mediarouted' to watch the download directory continuously.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log processing steps to stderr")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("mediaroute {{.Version}}\n")
}

// loadConfig discovers and loads the config. Without validation, missing
// paths and credentials are tolerated for read-only commands.
func loadConfig(validate bool) (*config.Config, error) {
	path := configPath
	if path == "" {
		p, err := config.Discover()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if validate {
		return config.Load(path)
	}
	return config.LoadWithoutValidation(path)
}

// openDB loads the config and opens its database.
func openDB() (*config.Config, *sql.DB, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, nil, err
	}
	db, err := app.OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func cliLogger(level string) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: app.ParseLogLevel(level)}))
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
