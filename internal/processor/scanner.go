package processor

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/vmunix/mediaroute/internal/events"
	"github.com/vmunix/mediaroute/internal/history"
)

// DefaultExtensions are the media file extensions scanned when none are configured.
var DefaultExtensions = []string{".mkv", ".mp4", ".avi"}

// samplePattern matches "sample" as a separate token of a file name.
var samplePattern = regexp.MustCompile(`(?i)(^|[^a-z0-9])sample([^a-z0-9]|$)`)

// ScanConfig configures the scan loop.
type ScanConfig struct {
	DownloadDir      string
	Interval         time.Duration
	Extensions       []string
	CleanupArchives  bool
	CleanupEmptyDirs bool
	DryRun           bool
}

// Scanner periodically walks the download directory and feeds stable media
// files to the processor one at a time.
type Scanner struct {
	proc     *Processor
	history  *history.Store
	notifier Notifier
	cfg      ScanConfig
	nudge    chan struct{}
	log      *slog.Logger
}

// NewScanner creates a scanner. notifier may be nil.
func NewScanner(proc *Processor, store *history.Store, notifier Notifier, cfg ScanConfig, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	return &Scanner{
		proc:     proc,
		history:  store,
		notifier: notifier,
		cfg:      cfg,
		nudge:    make(chan struct{}, 1),
		log:      logger.With("component", "scanner"),
	}
}

// Name returns the component name.
func (s *Scanner) Name() string {
	return "scanner"
}

// Nudge requests an early scan. It never blocks; nudges arriving while one
// is pending are merged.
func (s *Scanner) Nudge() {
	select {
	case s.nudge <- struct{}{}:
	default:
	}
}

// Start scans immediately and then on every interval tick or nudge until
// ctx is cancelled.
func (s *Scanner) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Info("scanner started", "dir", s.cfg.DownloadDir, "interval", s.cfg.Interval, "dry_run", s.cfg.DryRun)
	for {
		if _, err := s.ScanOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-s.nudge:
			s.log.Debug("scan nudged")
		}
	}
}

// IsMediaFile reports whether name has one of the scanned extensions and is
// not a sample.
func (s *Scanner) IsMediaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(s.cfg.Extensions, ext) {
		return false
	}
	return !samplePattern.MatchString(strings.TrimSuffix(name, filepath.Ext(name)))
}

// Find returns the media files under the download directory in walk order.
func (s *Scanner) Find() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.cfg.DownloadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.cfg.DownloadDir {
				return err
			}
			s.log.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != s.cfg.DownloadDir && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.IsMediaFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// ScanOnce runs one pass: process every new media file, then clean up.
func (s *Scanner) ScanOnce(ctx context.Context) (*history.Session, error) {
	files, err := s.Find()
	if err != nil {
		return nil, err
	}

	sess, err := s.history.StartSession()
	if err != nil {
		return nil, err
	}
	sess.FilesFound = len(files)

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		s.processOne(ctx, sess, path)
	}

	if ctx.Err() == nil {
		if s.cfg.CleanupArchives {
			CleanupArchives(s.cfg.DownloadDir, s.cfg.DryRun, s.log)
		}
		if s.cfg.CleanupEmptyDirs {
			CleanupEmptyDirs(s.cfg.DownloadDir, s.cfg.DryRun, s.log)
		}
	}

	if err := s.history.FinishSession(sess); err != nil {
		s.log.Error("finish session failed", "session_id", sess.ID, "error", err)
	}
	s.log.Info("scan complete",
		"session_id", sess.ID,
		"found", sess.FilesFound,
		"processed", sess.Processed,
		"succeeded", sess.Succeeded,
		"failed", sess.Failed)
	s.publishCompleted(ctx, sess)
	return sess, nil
}

func (s *Scanner) processOne(ctx context.Context, sess *history.Session, path string) {
	info, err := os.Stat(path)
	if err != nil {
		s.log.Debug("skipping file", "path", path, "error", err)
		return
	}
	done, err := s.history.Completed(path, info.Size(), s.cfg.DryRun)
	if err != nil {
		s.log.Error("history lookup failed", "path", path, "error", err)
		return
	}
	if done {
		s.log.Debug("already processed", "path", path)
		return
	}

	res, err := s.proc.process(ctx, path, sess.ID)
	switch {
	case errors.Is(err, ErrUnstable):
		s.log.Info("skipping incomplete file", "path", path)
		return
	case res == nil && err != nil:
		s.log.Warn("skipping file", "path", path, "error", err)
		return
	}

	sess.Processed++
	sess.TotalBytes += res.File.SizeBytes
	if err != nil {
		sess.Failed++
		return
	}
	sess.Succeeded++
}

func (s *Scanner) publishCompleted(ctx context.Context, sess *history.Session) {
	if s.notifier == nil {
		return
	}
	e := events.NewScanCompleted(sess.ID)
	e.FilesFound = sess.FilesFound
	e.Processed = sess.Processed
	e.Succeeded = sess.Succeeded
	e.Failed = sess.Failed
	e.TotalBytes = sess.TotalBytes
	if err := s.notifier.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.log.Warn("publish scan summary failed", "error", err)
	}
}
