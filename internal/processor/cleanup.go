package processor

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// archiveRemnantRegex matches the leftovers of an unpacked multi-part
// archive: .rar, .r00-.r99 and .partNN.rar.
var archiveRemnantRegex = regexp.MustCompile(`(?i)\.(?:rar|r\d{2})$`)

// IsArchiveRemnant reports whether name is part of a RAR set.
func IsArchiveRemnant(name string) bool {
	return archiveRemnantRegex.MatchString(name)
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// CleanupArchives removes archive parts from directories under root that
// hold nothing else apart from hidden files. It returns the removed paths.
func CleanupArchives(root string, dryRun bool, log *slog.Logger) []string {
	var removed []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			log.Warn("read directory failed", "path", path, "error", err)
			return nil
		}

		var parts []string
		for _, e := range entries {
			switch {
			case e.IsDir(), hidden(e.Name()):
				continue
			case IsArchiveRemnant(e.Name()):
				parts = append(parts, filepath.Join(path, e.Name()))
			default:
				return nil // directory holds something worth keeping
			}
		}

		for _, p := range parts {
			if dryRun {
				log.Info("dry run, would remove archive part", "path", p)
				continue
			}
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				log.Error("remove archive part failed", "path", p, "error", err)
				continue
			}
			log.Info("removed archive part", "path", p)
			removed = append(removed, p)
		}
		return nil
	})
	return removed
}

// CleanupEmptyDirs removes directories under root that contain nothing but
// hidden files, deepest first. root itself is never removed.
func CleanupEmptyDirs(root string, dryRun bool, log *slog.Logger) []string {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})

	cleanRoot := filepath.Clean(root)
	var removed []string
	// Walk order lists parents before children, so reverse it.
	for _, dir := range slices.Backward(dirs) {
		if filepath.Clean(dir) == cleanRoot {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		empty := true
		for _, e := range entries {
			if !hidden(e.Name()) || e.IsDir() {
				empty = false
				break
			}
		}
		if !empty {
			continue
		}

		if dryRun {
			log.Info("dry run, would remove empty directory", "path", dir)
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			log.Error("remove empty directory failed", "path", dir, "error", err)
			continue
		}
		log.Info("removed empty directory", "path", dir)
		removed = append(removed, dir)
	}
	return removed
}
