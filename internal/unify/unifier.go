// Package unify converges differently spelled series names onto a single
// canonical folder per language bucket.
package unify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"sync"

	"github.com/vmunix/mediaroute/internal/naming"
	"github.com/vmunix/mediaroute/pkg/release"
)

// Source says how a canonical folder was chosen.
type Source string

const (
	SourceMapping    Source = "mapping"
	SourceFilesystem Source = "filesystem"
	SourceNew        Source = "new"
)

// Resolution is where an episode of a series should go.
type Resolution struct {
	CanonicalName string
	SeriesPath    string // baseDir joined with CanonicalName
	SeasonPath    string // SeriesPath joined with the season folder
	Source        Source
	Seasons       []int // seasons known for the series, including this one
}

// Unifier resolves series folders. Root is a locally mounted view of the
// destination share; when empty, existing folders cannot be inspected and
// persisted mappings are trusted as-is.
type Unifier struct {
	store MappingStore
	root  string
	log   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Unifier.
func New(store MappingStore, root string, logger *slog.Logger) *Unifier {
	return &Unifier{
		store: store,
		root:  root,
		log:   logger.With("component", "unify"),
		locks: make(map[string]*sync.Mutex),
	}
}

// Resolve finds or creates the canonical folder for series under baseDir.
// Lookup, filesystem check and the mapping update happen in one store
// transaction, and concurrent calls for the same key are serialised.
func (u *Unifier) Resolve(ctx context.Context, series, language, baseDir string, season int) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	key := release.NormalizeSeriesName(release.StripSitePrefix(series))
	if key == "" {
		return Resolution{}, fmt.Errorf("%q: %w", series, ErrEmptyName)
	}

	unlock := u.lock(key + "\x00" + language)
	defer unlock()

	var res Resolution
	err := u.store.WithTx(func(tx MappingStore) error {
		m, err := tx.Get(key, language)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		canonical, source := u.choose(m, key, series, baseDir)
		if m == nil {
			m = &Mapping{NormalizedName: key, Language: language}
		}
		if m.CanonicalName != "" && m.CanonicalName != canonical {
			u.log.Info("series folder changed", "series", series, "from", m.CanonicalName, "to", canonical)
		}
		m.CanonicalName = canonical
		m.DestinationRoot = baseDir
		m.AddVariation(series)
		m.AddSeason(season)
		m.EpisodeCount++
		if err := tx.Put(m); err != nil {
			return err
		}

		seriesPath := path.Join(baseDir, canonical)
		res = Resolution{
			CanonicalName: canonical,
			SeriesPath:    seriesPath,
			SeasonPath:    path.Join(seriesPath, naming.SeasonFolder(season)),
			Source:        source,
			Seasons:       slices.Clone(m.Seasons),
		}
		return nil
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve series %q: %w", series, err)
	}

	u.log.Debug("resolved series", "series", series, "folder", res.CanonicalName, "source", res.Source)
	return res, nil
}

// choose picks the canonical folder: an existing mapped folder, else a
// matching folder on disk, else the mapped name, else a fresh name.
func (u *Unifier) choose(m *Mapping, key, series, baseDir string) (string, Source) {
	if m != nil && (u.root == "" || u.folderExists(baseDir, m.CanonicalName)) {
		return m.CanonicalName, SourceMapping
	}
	if name, ok := u.findExisting(baseDir, key); ok {
		return name, SourceFilesystem
	}
	if m != nil {
		return m.CanonicalName, SourceMapping
	}
	name := naming.SanitizeFilename(release.CleanSeriesFolderName(series))
	if name == "" {
		name = naming.SanitizeFilename(series)
	}
	return name, SourceNew
}

func (u *Unifier) lock(key string) func() {
	u.mu.Lock()
	l, ok := u.locks[key]
	if !ok {
		l = &sync.Mutex{}
		u.locks[key] = l
	}
	u.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (u *Unifier) localDir(baseDir string) string {
	return filepath.Join(u.root, filepath.FromSlash(baseDir))
}

func (u *Unifier) folderExists(baseDir, name string) bool {
	info, err := os.Stat(filepath.Join(u.localDir(baseDir), name))
	return err == nil && info.IsDir()
}

// findExisting scans baseDir for a folder whose normalized name equals key,
// or failing that the closest folder that passes CloseMatch.
func (u *Unifier) findExisting(baseDir, key string) (string, bool) {
	if u.root == "" {
		return "", false
	}
	dirs, err := listDirs(u.localDir(baseDir))
	if err != nil {
		u.log.Debug("cannot list destination", "path", baseDir, "error", err)
		return "", false
	}

	best, bestScore := "", 0.0
	for _, d := range dirs {
		norm := folderKey(d)
		if norm == key {
			return d, true
		}
		if score := Jaccard(norm, key); score >= CloseMatchThreshold && score > bestScore {
			best, bestScore = d, score
		}
	}
	return best, best != ""
}

func folderKey(dir string) string {
	return release.NormalizeSeriesName(release.StripSitePrefix(dir))
}

func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

var seasonDirRegex = regexp.MustCompile(`(?i)^(?:season\s*|s)(\d{1,2})$`)

// seasonsIn lists the season numbers of the season folders inside dir.
func seasonsIn(dir string) []int {
	dirs, err := listDirs(dir)
	if err != nil {
		return nil
	}
	var seasons []int
	for _, d := range dirs {
		if m := seasonDirRegex.FindStringSubmatch(d); m != nil {
			n, _ := strconv.Atoi(m[1])
			if !slices.Contains(seasons, n) {
				seasons = append(seasons, n)
			}
		}
	}
	slices.Sort(seasons)
	return seasons
}
