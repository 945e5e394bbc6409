// Package release recovers clean titles, years and episode numbers from the
// noisy filenames produced by torrent sites and release groups.
package release

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// minTitleLength is the shortest cleaned title accepted before falling back
// to a conservative cleaning of the original name.
const minTitleLength = 3

var mediaExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true, ".mov": true,
	".wmv": true, ".ts": true, ".m2ts": true, ".webm": true, ".flv": true,
	".mpg": true, ".mpeg": true,
}

var (
	parenYearCapture = regexp.MustCompile(`\((\d{4})\)`)
	bareYearRegex    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

	// qualityCutRegex marks where technical tags begin. Everything from the
	// first match onwards is discarded.
	qualityCutRegex = regexp.MustCompile(`(?i)(?:^|[\s\-\[(])(?:(?:480|576|720|1080|2160)p|4k|uhd|web[\s-]?dl|web[\s-]?rip|blu[\s-]?ray|brrip|bdrip|hdrip|dvdrip|dvdscr|hdtv|hdcam|camrip|predvd|true\s+(?:web|hd)|hq\s+(?:hd|pre|web|dvd)|x26[45]|h\s?26[45]|hevc|10bit)\b`)

	groupSuffixRegex = regexp.MustCompile(`(?:\s+-\s*|-)([A-Z0-9]{2,12})$`)
	hasLetterRegex   = regexp.MustCompile(`[A-Za-z]`)

	parentheticalRegex = regexp.MustCompile(`\(([^)]*)\)`)
	fourDigitsRegex    = regexp.MustCompile(`^\s*\d{4}\s*$`)
	leadingPunctRegex  = regexp.MustCompile(`^[\s\-_.,:;)\]+&]+`)
	trailingPunctRegex = regexp.MustCompile(`[\s\-_.,:;(\[+&]+$`)
)

// junkPatterns are removed in order after the quality cut.
var junkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[[^\]]*\]`),
	regexp.MustCompile(`(?i)\b(?:x26[45]|h\s?26[45]|hevc|avc|10bit|8bit|hdr10|hdr)\b`),
	regexp.MustCompile(`(?i)\b(?:ddp?\s?\d(?:\s\d)?|dts(?:[\s-]?hd)?|aac(?:\s?\d\s\d)?|e?ac3|truehd|atmos|flac|opus)\b`),
	regexp.MustCompile(`(?i)\b\d+\s?kbps\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\s\d+)?\s?(?:gb|mb)\b`),
	regexp.MustCompile(`(?i)\b(?:esubs?|msubs?)\b`),
	regexp.MustCompile(`(?i)\b(?:amzn|nf|dsnp|hmax|atvp|jiohotstar|hotstar|zee5|sonyliv|sunnxt)\b`),
	regexp.MustCompile(`(?i)\b(?:repack|proper)\b`),
	regexp.MustCompile(`(?i)\b\d*\s?tamilmv\b`),
	regexp.MustCompile(`(?i)\bsanet\s?st\b`),
	regexp.MustCompile(`(?i)\bwww\s\S+\s(?:com|org|net|boo|io|to|xyz|mx|in)\b`),
	regexp.MustCompile(`(?i)(?:\s+(?:malayalam|hindi|tamil|telugu|kannada|english|eng|mal|hin|tam|tel|kan|dual|multi|audio|org|original|\+|&))+$`),
}

// StripExtension removes a known media file extension from name.
func StripExtension(name string) string {
	ext := filepath.Ext(name)
	if mediaExtensions[strings.ToLower(ext)] {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

// CleanTitle turns a raw filename into "Title (Year)", or just "Title" when no
// plausible year is present. Cleaning an already clean title returns it
// unchanged.
func CleanTitle(filename string) string {
	base := StripExtension(strings.TrimSpace(filename))
	normalized := normalizeSeparators(StripSitePrefix(base))

	title, year := splitYear(normalized)
	title = scrub(title)

	if utf8.RuneCountInString(title) < minTitleLength {
		title = withoutYear(normalized, year)
	}
	if year != "" && !strings.Contains(title, "("+year+")") {
		title += " (" + year + ")"
	}
	return strings.TrimSpace(title)
}

// ExtractYear returns the release year found in name, or 0.
func ExtractYear(name string) int {
	_, year := splitYear(normalizeSeparators(StripExtension(name)))
	if year == "" {
		return 0
	}
	y, _ := strconv.Atoi(year)
	return y
}

// scrub applies the cut, group and junk stages until the title stops
// changing, so that a clean title is a fixed point.
func scrub(title string) string {
	for range 4 {
		prev := title
		title = cutAtQuality(title)
		title = stripGroupSuffix(title)
		for _, re := range junkPatterns {
			title = re.ReplaceAllString(title, " ")
		}
		title = tidy(title)
		if title == prev {
			break
		}
	}
	return title
}

func normalizeSeparators(s string) string {
	s = separatorRunsReg.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// splitYear locates the release year. A parenthesised year wins; otherwise the
// last bare year before the technical tags is used, ignoring a number at the
// very start so that titles like "1917" or "2012" survive. The returned title
// is the text before the year.
func splitYear(s string) (string, string) {
	for _, m := range parenYearCapture.FindAllStringSubmatchIndex(s, -1) {
		year := s[m[2]:m[3]]
		if !plausibleYear(year) {
			continue
		}
		title := strings.TrimSpace(s[:m[0]])
		if title == "" {
			title = strings.TrimSpace(s[m[1]:])
		}
		return title, year
	}

	limit := len(s)
	if loc := qualityCutRegex.FindStringIndex(s); loc != nil && loc[0] > 0 {
		limit = loc[0]
	}
	var best []int
	for _, loc := range bareYearRegex.FindAllStringIndex(s[:limit], -1) {
		if loc[0] == 0 || !plausibleYear(s[loc[0]:loc[1]]) {
			continue
		}
		best = loc
	}
	if best == nil {
		return s, ""
	}
	return strings.TrimSpace(s[:best[0]]), s[best[0]:best[1]]
}

// withoutYear removes the year splitYear selected from s.
func withoutYear(s, year string) string {
	if year == "" {
		return s
	}
	if i := strings.Index(s, "("+year+")"); i >= 0 {
		s = s[:i] + s[i+len(year)+2:]
	} else if i := strings.LastIndex(s, year); i >= 0 {
		s = s[:i] + s[i+len(year):]
	}
	return strings.Join(strings.Fields(s), " ")
}

func plausibleYear(y string) bool {
	n, err := strconv.Atoi(y)
	if err != nil {
		return false
	}
	return n >= 1900 && n <= time.Now().Year()+1
}

func cutAtQuality(s string) string {
	loc := qualityCutRegex.FindStringIndex(s)
	if loc == nil || loc[0] == 0 {
		return s
	}
	return s[:loc[0]]
}

func stripGroupSuffix(s string) string {
	m := groupSuffixRegex.FindStringSubmatchIndex(s)
	if m == nil || m[0] < minTitleLength {
		return s
	}
	if !hasLetterRegex.MatchString(s[m[2]:m[3]]) {
		return s
	}
	return s[:m[0]]
}

// tidy drops parentheticals other than a bare year, collapses whitespace and
// trims dangling punctuation.
func tidy(s string) string {
	s = parentheticalRegex.ReplaceAllStringFunc(s, func(p string) string {
		if fourDigitsRegex.MatchString(p[1 : len(p)-1]) {
			return p
		}
		return " "
	})
	s = strings.Join(strings.Fields(s), " ")
	s = leadingPunctRegex.ReplaceAllString(s, "")
	s = trailingPunctRegex.ReplaceAllString(s, "")
	return s
}
