package release

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Episode is the result of parsing a TV filename.
type Episode struct {
	Series  string
	Season  string // two digits, e.g. "02"
	Episode string // two digits, e.g. "04"; empty for guesses
	Title   string

	// Pattern names the matcher that produced the result. It is "guess" for
	// the trailing-number fallback and "orphan" when nothing could be
	// recovered.
	Pattern string
	Guessed bool
	Orphan  bool
}

// Matched reports whether an explicit season/episode pattern matched.
func (e Episode) Matched() bool {
	return !e.Guessed && !e.Orphan && e.Season != "" && e.Episode != ""
}

// SeasonNumber returns the numeric season, 0 if unknown.
func (e Episode) SeasonNumber() int {
	n, _ := strconv.Atoi(e.Season)
	return n
}

// EpisodeNumber returns the numeric episode, 0 if unknown.
func (e Episode) EpisodeNumber() int {
	n, _ := strconv.Atoi(e.Episode)
	return n
}

// EpisodePattern is one named step of the episode cascade.
type EpisodePattern = matcher[Episode]

// episodePatterns is evaluated in order; the first match wins.
var episodePatterns = []EpisodePattern{
	{Name: "sxxeyy", Match: regexMatcher(`(?i)^(.*?)\s+S(\d{1,2})E(\d{1,3})\b(.*)$`)},
	{Name: "sxx-sep-yy", Match: regexMatcher(`(?i)^(.*?)\s+S(\d{1,2})\s?[EX]\s?(\d{1,3})\b(.*)$`)},
	{Name: "season-episode", Match: regexMatcher(`(?i)^(.*?)\s+Season\s*(\d{1,2})\s*-?\s*Episode\s*(\d{1,3})\b(.*)$`)},
	{Name: "nxm", Match: regexMatcher(`(?i)^(.*?)\s+(\d{1,2})x(\d{1,3})\b(.*)$`)},
	{Name: "three-digit", Match: regexMatcher(`^(.*?)\s+(\d)(\d{2})\b(.*)$`)},
	{Name: "strict-sxxeyy", Match: regexMatcher(`(?i)^(.*?)\s+S(\d{1,2})E(\d{1,2})\s+(.+)$`)},
	{Name: "sxx-epyy", Match: regexMatcher(`(?i)^(.*?)\s+S(\d{1,2})\s+EP?\s?(\d{1,3})\b(.*)$`)},
}

// guessSuffixes are stripped from a cleaned title when no pattern matched.
var guessSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+Episode\s*\d+.*$`),
	regexp.MustCompile(`(?i)\s+Ep\s*\d+.*$`),
	regexp.MustCompile(`(?i)\s+E\s?\d+.*$`),
	regexp.MustCompile(`(?i)\s+Part\s*\d+.*$`),
	regexp.MustCompile(`(?i)\s+S\s?\d+.*$`),
	regexp.MustCompile(`\s+\d{1,3}$`),
}

var seriesYearSuffix = regexp.MustCompile(`\s*\(?\b(?:19|20)\d{2}\b\)?\s*$`)

// regexMatcher builds a matcher from a pattern whose groups are
// (series, season, episode, rest).
func regexMatcher(pattern string) func(string) (Episode, bool) {
	re := regexp.MustCompile(pattern)
	return func(s string) (Episode, bool) {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return Episode{}, false
		}
		series := cleanSeriesName(m[1])
		if series == "" {
			return Episode{}, false
		}
		season, _ := strconv.Atoi(m[2])
		episode, _ := strconv.Atoi(m[3])
		return Episode{
			Series:  series,
			Season:  fmt.Sprintf("%02d", season),
			Episode: fmt.Sprintf("%02d", episode),
			Title:   tidy(cutAtQuality(m[4])),
		}, true
	}
}

// ParseEpisode extracts series, season and episode from a TV filename. When
// no pattern matches it falls back to a guessed series name in season 1, and
// finally to an orphan result carrying only the cleaned name.
func ParseEpisode(filename string) Episode {
	s := normalizeSeparators(StripSitePrefix(StripExtension(strings.TrimSpace(filename))))

	if ep, name, ok := firstMatch(s, episodePatterns); ok {
		ep.Pattern = name
		return ep
	}

	cleaned := CleanTitle(filename)
	guess := cleaned
	for _, re := range guessSuffixes {
		guess = re.ReplaceAllString(guess, "")
	}
	guess = strings.TrimSpace(guess)
	if utf8.RuneCountInString(guess) > minTitleLength && guess != cleaned {
		return Episode{
			Series:  cleanSeriesName(guess),
			Season:  "01",
			Title:   cleaned,
			Pattern: "guess",
			Guessed: true,
		}
	}
	return Episode{Series: cleaned, Title: cleaned, Pattern: "orphan", Orphan: true}
}

// cleanSeriesName trims a captured series name of junk and a trailing year.
func cleanSeriesName(s string) string {
	s = scrub(s)
	s = seriesYearSuffix.ReplaceAllString(s, "")
	return tidy(s)
}
