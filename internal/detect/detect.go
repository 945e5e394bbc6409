// Package detect classifies media files by type, routing language,
// resolution and subtitle languages.
package detect

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/vmunix/mediaroute/internal/probe"
	"github.com/vmunix/mediaroute/pkg/release"
)

// MediaType is the kind of content a file holds.
type MediaType string

const (
	TypeMovie   MediaType = "movie"
	TypeTVShow  MediaType = "tvshow"
	TypeUnknown MediaType = "unknown"
)

// Language is a routing bucket, not strictly a spoken language: regional
// content shares the malayalam bucket and multi-audio releases go to
// bollywood.
type Language string

const (
	LangMalayalam Language = "malayalam"
	LangEnglish   Language = "english"
	LangBollywood Language = "bollywood"
	LangUnknown   Language = "unknown"
)

// Attributes is everything the detector decides about one file.
type Attributes struct {
	Type       MediaType
	Language   Language
	Resolution string   // "2160p", "1080p", "720p", "480p" or empty
	Subtitles  []string // lower-cased, sorted, deduplicated

	// NeedsExtraction is set when embedded audio shows Malayalam alongside
	// other languages, so the file should be remuxed.
	NeedsExtraction bool

	// LanguageSource names how the language was decided: "audio" or the
	// name of the filename rule that matched.
	LanguageSource string
}

// Detector derives Attributes from a filename and optional probe result.
type Detector struct {
	rules []LanguageRule
}

// New returns a Detector using the default language rule table.
func New() *Detector {
	return &Detector{rules: DefaultLanguageRules()}
}

// Detect classifies filename. A nil probe result means filename-only
// detection.
func (d *Detector) Detect(filename string, meta *probe.Result) Attributes {
	base := filepath.Base(filename)
	attrs := Attributes{
		Type:       DetectType(base),
		Resolution: DetectResolution(base, meta),
		Subtitles:  SubtitleLanguages(meta),
	}

	if lang, needs, ok := languageFromAudio(meta.Audio()); ok {
		attrs.Language = lang
		attrs.NeedsExtraction = needs
		attrs.LanguageSource = "audio"
		return attrs
	}

	attrs.Language, attrs.LanguageSource = d.LanguageFromFilename(base)
	return attrs
}

// LanguageFromFilename applies the ordered rule table and returns the bucket
// together with the name of the rule that decided it.
func (d *Detector) LanguageFromFilename(filename string) (Language, string) {
	in := newKeywordInput(release.StripSitePrefix(filename))
	for _, r := range d.rules {
		if r.matches(in) {
			return r.Language, r.Name
		}
	}
	return LangMalayalam, "default"
}

var tvPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bs\d{1,2}\s?e\d{1,3}\b`),
	regexp.MustCompile(`(?i)\bs\d{1,2}\s?[ex]\s?\d{1,3}\b`),
	regexp.MustCompile(`(?i)\bseason\s*\d+\s*-?\s*episode\s*\d+`),
	regexp.MustCompile(`(?i)\b\d{1,2}x\d{1,3}\b`),
	regexp.MustCompile(`(?i)\bs\d{1,2}\b`),
	regexp.MustCompile(`(?i)\bseason\s*\d+`),
	regexp.MustCompile(`(?i)\bpart\s*\d+`),
	regexp.MustCompile(`(?i)\bepisode\s*\d+`),
	regexp.MustCompile(`(?i)\bep\s?\d{1,3}\b`),
	regexp.MustCompile(`(?i)\bep\s?\(?\d{1,3}\s?-\s?\d{1,3}\)?`),
}

var tvKeywords = []string{"series", "episode", "season", "s0", "s1", "s2", "e0", "e1", "e2"}

var separatorRegex = regexp.MustCompile(`[._]+`)

// DetectType decides between movie and tvshow from the raw filename.
func DetectType(filename string) MediaType {
	s := separatorRegex.ReplaceAllString(filename, " ")
	for _, re := range tvPatterns {
		if re.MatchString(s) {
			return TypeTVShow
		}
	}
	lower := strings.ToLower(release.StripExtension(filename))
	for _, kw := range tvKeywords {
		if strings.Contains(lower, kw) {
			return TypeTVShow
		}
	}
	return TypeMovie
}

// DetectResolution prefers the first video track's dimensions and falls
// back to tags in the filename.
func DetectResolution(filename string, meta *probe.Result) string {
	for _, v := range meta.Video() {
		if tag := resolutionFromSize(v.Width, v.Height); tag != "" {
			return tag
		}
		break
	}
	lower := strings.ToLower(filename)
	switch {
	case strings.Contains(lower, "2160p"), strings.Contains(lower, "4k"):
		return "2160p"
	case strings.Contains(lower, "1080p"):
		return "1080p"
	case strings.Contains(lower, "720p"):
		return "720p"
	case strings.Contains(lower, "480p"):
		return "480p"
	}
	return ""
}

func resolutionFromSize(width, height int) string {
	switch {
	case width >= 3800 || height >= 2100:
		return "2160p"
	case width >= 1900 || height >= 1000:
		return "1080p"
	case width >= 1200 || height >= 700:
		return "720p"
	case width >= 600 || height >= 400:
		return "480p"
	}
	return ""
}

// SubtitleLanguages lists embedded subtitle languages.
func SubtitleLanguages(meta *probe.Result) []string {
	var langs []string
	for _, s := range meta.Subtitles() {
		lang := strings.ToLower(strings.TrimSpace(s.Language))
		if lang == "" || slices.Contains(langs, lang) {
			continue
		}
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}
