package processor

import (
	"fmt"

	"github.com/vmunix/mediaroute/internal/detect"
)

// Routes maps each language bucket to its destination root on the share,
// separately for movies and TV. Unknown-type files go to the movie root.
type Routes struct {
	Movies map[detect.Language]string
	TV     map[detect.Language]string
}

// Base returns the destination root for a type and language.
func (r Routes) Base(t detect.MediaType, lang detect.Language) (string, error) {
	table := r.Movies
	if t == detect.TypeTVShow {
		table = r.TV
	}
	base, ok := table[lang]
	if !ok || base == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrNoRoute, t, lang)
	}
	return base, nil
}
