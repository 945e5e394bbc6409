package unify

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hbollon/go-edlib"
)

// ErrNoRoot is returned when folder inspection is requested without a
// locally mounted destination.
var ErrNoRoot = errors.New("destination root not configured")

// Suggestion proposes merging duplicate series folders into Primary.
type Suggestion struct {
	Key        string
	Primary    string
	Duplicates []string
	Seasons    map[string][]int
}

type folder struct {
	name    string
	key     string
	seasons []int
}

// SuggestConsolidation groups sibling folders under baseDir that normalize
// to the same or a closely matching series name. The primary folder is the
// one already mapped for language, else the one holding the most seasons,
// else the one whose spelling is closest to the normalized key.
func (u *Unifier) SuggestConsolidation(baseDir, language string) ([]Suggestion, error) {
	if u.root == "" {
		return nil, ErrNoRoot
	}
	dirs, err := listDirs(u.localDir(baseDir))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", baseDir, err)
	}

	var groups [][]folder
	for _, d := range dirs {
		f := folder{name: d, key: folderKey(d)}
		if f.key == "" {
			continue
		}
		f.seasons = seasonsIn(u.localDir(baseDir + "/" + d))

		placed := false
		for i, g := range groups {
			if g[0].key == f.key || CloseMatch(g[0].key, f.key) {
				groups[i] = append(g, f)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []folder{f})
		}
	}

	var out []Suggestion
	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		primary := u.pickPrimary(g, language)
		s := Suggestion{Key: g[0].key, Primary: primary.name, Seasons: make(map[string][]int)}
		for _, f := range g {
			s.Seasons[f.name] = f.seasons
			if f.name != primary.name {
				s.Duplicates = append(s.Duplicates, f.name)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (u *Unifier) pickPrimary(g []folder, language string) folder {
	for _, f := range g {
		if m, err := u.store.Get(f.key, language); err == nil {
			if i := slices.IndexFunc(g, func(c folder) bool { return c.name == m.CanonicalName }); i >= 0 {
				return g[i]
			}
		}
	}

	return slices.MaxFunc(g, func(a, b folder) int {
		if d := len(a.seasons) - len(b.seasons); d != 0 {
			return d
		}
		sa := edlib.JaroWinklerSimilarity(strings.ToLower(a.name), a.key)
		sb := edlib.JaroWinklerSimilarity(strings.ToLower(b.name), b.key)
		switch {
		case sa > sb:
			return 1
		case sa < sb:
			return -1
		}
		return strings.Compare(b.name, a.name)
	})
}
