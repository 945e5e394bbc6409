// Package naming builds destination paths on the media share.
package naming

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/vmunix/mediaroute/internal/detect"
	"github.com/vmunix/mediaroute/pkg/release"
)

// Default naming templates. {tags} expands to ".{resolution}.{Language}",
// each part omitted when not applicable.
const (
	DefaultMovieTemplate   = "{title}/{title}{tags}.{ext}"
	DefaultEpisodeTemplate = "{series}/Season {season}/{series} - S{season:02}E{episode:02}{tags}.{ext}"

	guessTemplate   = "{series}/Season {season}/{title}{tags}.{ext}"
	orphanTemplate  = "{title}/{title}{tags}.{ext}"
	unknownTemplate = "UnknownType/{title}{tags}.{ext}"
)

// Kind says which layout a Plan renders to.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
	KindGuess   Kind = "guess"  // series name guessed, filed under Season 1
	KindOrphan  Kind = "orphan" // no series structure recovered
	KindUnknown Kind = "unknown"
)

// Input is what the builder needs to know about one file.
type Input struct {
	Filename   string // original file name, used for title parsing
	Type       detect.MediaType
	Language   detect.Language
	Resolution string
	Ext        string // extension of the file actually transferred; taken from Filename when empty
	Base       string // destination root for the type/language bucket
}

// Plan is the parsed naming decision before rendering. Series may be
// replaced with a canonical folder name before Render is called.
type Plan struct {
	Kind    Kind
	Base    string
	Title   string
	Series  string
	Season  int
	Episode int
	Tags    string
	Ext     string
}

// Target is a rendered destination.
type Target struct {
	Kind   Kind
	Path   string // Base joined with the relative path
	Series string
	Season int
	Orphan bool
}

// Builder applies naming templates.
type Builder struct {
	movieTemplate   string
	episodeTemplate string
}

// NewBuilder creates a Builder. Empty templates use the defaults.
func NewBuilder(movieTemplate, episodeTemplate string) *Builder {
	if movieTemplate == "" {
		movieTemplate = DefaultMovieTemplate
	}
	if episodeTemplate == "" {
		episodeTemplate = DefaultEpisodeTemplate
	}
	return &Builder{movieTemplate: movieTemplate, episodeTemplate: episodeTemplate}
}

// Build plans and renders in one step, without series unification.
func (b *Builder) Build(in Input) (Target, error) {
	plan, err := b.Plan(in)
	if err != nil {
		return Target{}, err
	}
	return b.Render(plan)
}

// Plan parses the filename according to the detected type.
func (b *Builder) Plan(in Input) (Plan, error) {
	ext := strings.TrimPrefix(in.Ext, ".")
	if ext == "" {
		ext = strings.TrimPrefix(filepath.Ext(in.Filename), ".")
	}
	p := Plan{
		Base: in.Base,
		Tags: Tags(in.Resolution, in.Language),
		Ext:  strings.ToLower(ext),
	}

	switch in.Type {
	case detect.TypeMovie:
		p.Kind = KindMovie
		p.Title = release.CleanTitle(in.Filename)
	case detect.TypeTVShow:
		ep := release.ParseEpisode(in.Filename)
		p.Series = ep.Series
		p.Title = ep.Title
		switch {
		case ep.Matched():
			p.Kind = KindEpisode
			p.Season = ep.SeasonNumber()
			p.Episode = ep.EpisodeNumber()
		case ep.Guessed:
			p.Kind = KindGuess
			p.Season = 1
		default:
			p.Kind = KindOrphan
		}
	default:
		p.Kind = KindUnknown
		p.Title = release.CleanTitle(in.Filename)
	}

	if SanitizeFilename(p.Title) == "" && SanitizeFilename(p.Series) == "" {
		return Plan{}, fmt.Errorf("%s: %w", in.Filename, ErrEmptyName)
	}
	return p, nil
}

// Render expands the plan into a destination path under its base.
func (b *Builder) Render(p Plan) (Target, error) {
	var tmpl string
	switch p.Kind {
	case KindMovie:
		tmpl = b.movieTemplate
	case KindEpisode:
		tmpl = b.episodeTemplate
	case KindGuess:
		tmpl = guessTemplate
	case KindOrphan:
		tmpl = orphanTemplate
	default:
		tmpl = unknownTemplate
	}

	title := SanitizeFilename(p.Title)
	series := SanitizeFilename(p.Series)
	if title == "" {
		title = series
	}
	if series == "" && (p.Kind == KindEpisode || p.Kind == KindGuess) {
		return Target{}, fmt.Errorf("render %s: %w", p.Kind, ErrEmptyName)
	}
	if title == "" {
		return Target{}, fmt.Errorf("render %s: %w", p.Kind, ErrEmptyName)
	}

	rel := expand(tmpl, fields{
		title:   title,
		series:  series,
		tags:    p.Tags,
		ext:     p.Ext,
		season:  p.Season,
		episode: p.Episode,
	})

	full := path.Join(p.Base, rel)
	if err := ValidatePath(full, p.Base); err != nil {
		return Target{}, fmt.Errorf("%s: %w", full, err)
	}

	return Target{
		Kind:   p.Kind,
		Path:   full,
		Series: series,
		Season: p.Season,
		Orphan: p.Kind == KindOrphan,
	}, nil
}

// Tags renders the filename tag suffix: ".{res}" when known and
// ".{Language}" unless the language is english.
func Tags(resolution string, language detect.Language) string {
	var b strings.Builder
	if resolution != "" {
		b.WriteString(".")
		b.WriteString(resolution)
	}
	if language != "" && language != detect.LangEnglish {
		b.WriteString(".")
		b.WriteString(capitalize(string(language)))
	}
	return b.String()
}

// SeasonFolder is the folder name used for a season.
func SeasonFolder(season int) string {
	return fmt.Sprintf("Season %d", season)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
