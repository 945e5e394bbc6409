// Package app assembles the processing pipeline from configuration. Both
// the daemon and the CLI build their components here.
package app

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
	_ "modernc.org/sqlite"

	"github.com/vmunix/mediaroute/internal/config"
	"github.com/vmunix/mediaroute/internal/dashboard"
	"github.com/vmunix/mediaroute/internal/events"
	"github.com/vmunix/mediaroute/internal/history"
	"github.com/vmunix/mediaroute/internal/migrations"
	"github.com/vmunix/mediaroute/internal/naming"
	"github.com/vmunix/mediaroute/internal/probe"
	"github.com/vmunix/mediaroute/internal/processor"
	"github.com/vmunix/mediaroute/internal/remux"
	"github.com/vmunix/mediaroute/internal/server"
	"github.com/vmunix/mediaroute/internal/transfer"
	"github.com/vmunix/mediaroute/internal/unify"
	"github.com/vmunix/mediaroute/internal/watch"
)

// ParseLogLevel maps a config level name to a slog level.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates the text logger. When cfg.File is set, output is also
// written to a rotating log file. The returned closer releases the file.
func NewLogger(cfg config.LogConfig, stdout io.Writer) (*slog.Logger, io.Closer) {
	var w io.Writer = stdout
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(stdout, rotating)
		closer = rotating
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLogLevel(cfg.Level),
	}))
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenDB opens the sqlite database at path, creating its directory, and
// applies the schema.
func OpenDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// App holds the assembled components.
type App struct {
	History   *history.Store
	Mappings  *unify.Store
	Unifier   *unify.Unifier
	EventLog  *events.EventLog
	Bus       *events.Bus
	Processor *processor.Processor
	Scanner   *processor.Scanner
	Dashboard *dashboard.Handler // nil when no dashboard URL is configured
	Watcher   *watch.Watcher     // nil when watching is disabled
}

// Build wires every component from cfg around db.
func Build(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		History:  history.NewStore(db),
		Mappings: unify.NewStore(db),
		EventLog: events.NewEventLog(db),
	}
	a.Bus = events.NewBus(a.EventLog, logger.With("component", "bus"))
	a.Unifier = unify.New(a.Mappings, cfg.Routing.LibraryRoot, logger)

	transferer, err := NewTransferer(cfg.Transfer, logger)
	if err != nil {
		return nil, err
	}

	a.Processor = processor.New(processor.Config{
		DryRun:          cfg.Scan.DryRun,
		RemoveOriginals: cfg.Scan.RemoveOriginals,
		StabilityWindow: cfg.Scan.StabilityWindow,
		Routes: processor.Routes{
			Movies: config.LanguageMap(cfg.Routing.Movies),
			TV:     config.LanguageMap(cfg.Routing.TV),
		},
		Extraction: processor.ExtractionConfig{
			Enabled:           cfg.Extraction.Enabled,
			Languages:         config.Languages(cfg.Extraction.Languages),
			PreferredSubtitle: cfg.Extraction.PreferredSubtitle,
			TargetCodes:       config.LanguageMap(cfg.Extraction.TargetCodes),
		},
	}, processor.Deps{
		History:    a.History,
		Builder:    naming.NewBuilder(cfg.Routing.MovieTemplate, cfg.Routing.EpisodeTemplate),
		Transferer: transferer,
		Prober:     probe.NewFFProbe(cfg.Probe.Path, cfg.Probe.Timeout, logger),
		Remuxer:    NewRemuxer(cfg.Remux, logger),
		Unifier:    a.Unifier,
		Notifier:   a.Bus,
	}, logger)

	a.Scanner = processor.NewScanner(a.Processor, a.History, a.Bus, processor.ScanConfig{
		DownloadDir:      cfg.Scan.DownloadDir,
		Interval:         cfg.Scan.Interval,
		Extensions:       cfg.Scan.Extensions,
		CleanupArchives:  cfg.Cleanup.Archives,
		CleanupEmptyDirs: cfg.Cleanup.EmptyDirs,
		DryRun:           cfg.Scan.DryRun,
	}, logger)

	if cfg.Dashboard.URL != "" {
		client := dashboard.NewClient(cfg.Dashboard.URL, cfg.Dashboard.Timeout)
		a.Dashboard = dashboard.NewHandler(a.Bus, client, logger)
	}
	if cfg.Scan.Watch {
		a.Watcher = watch.New(cfg.Scan.DownloadDir, a.Scanner, cfg.Scan.WatchDebounce, logger)
	}
	return a, nil
}

// NewRemuxer builds the mkvmerge remuxer from cfg.
func NewRemuxer(cfg config.RemuxConfig, logger *slog.Logger) *remux.MKVMerge {
	return remux.NewMKVMerge(cfg.Path, cfg.TempDir, cfg.Timeout, logger)
}

// NewTransferer builds the configured transfer method wrapped in retries.
func NewTransferer(cfg config.TransferConfig, logger *slog.Logger) (transfer.Transferer, error) {
	var next transfer.Transferer
	switch cfg.Method {
	case "smb":
		next = transfer.NewSMBClient(transfer.SMBOptions{
			Path:     cfg.SMB.Client,
			Server:   cfg.SMB.Server,
			Share:    cfg.SMB.Share,
			Username: cfg.SMB.Username,
			Password: cfg.SMB.Password,
			Domain:   cfg.SMB.Domain,
		}, logger)
	case "local":
		next = transfer.NewLocal(cfg.Local.Root, logger)
	default:
		return nil, fmt.Errorf("unknown transfer method %q", cfg.Method)
	}
	return transfer.NewRetrying(next, cfg.Retries+1, cfg.RetryDelay, cfg.Timeout, logger), nil
}

// Components returns the daemon's long-running components.
func (a *App) Components() []server.Component {
	var components []server.Component
	// Subscribers go first so they see the first scan's events.
	if a.Dashboard != nil {
		components = append(components, a.Dashboard)
	}
	components = append(components, a.Scanner)
	if a.Watcher != nil {
		components = append(components, a.Watcher)
	}
	return components
}

// Close releases the event bus.
func (a *App) Close() error {
	return a.Bus.Close()
}
