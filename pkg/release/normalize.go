package release

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parenYearRegex   = regexp.MustCompile(`\(\s*\d{4}\s*\)`)
	trailingYearRe   = regexp.MustCompile(`\s*[\(\[]?\b(?:19|20)\d{2}\b[\)\]]?\s*$`)
	nonWordRegex     = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	separatorRunsReg = regexp.MustCompile(`[._]+`)
)

// NormalizeSeriesName derives the lookup key for a series: parenthesised
// years are removed, accents folded, punctuation replaced by spaces, the
// result lowercased and whitespace collapsed. Two spellings of the same show
// ("Rana Naidu (2023)", "rana.naidu") share a key.
func NormalizeSeriesName(name string) string {
	s := parenYearRegex.ReplaceAllString(name, " ")
	s = removeAccents(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = nonWordRegex.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// CleanSeriesFolderName turns a raw series name into a folder name for a
// series seen for the first time: site prefixes and a trailing year are
// dropped, dots and underscores become spaces.
func CleanSeriesFolderName(name string) string {
	s := StripSitePrefix(name)
	s = separatorRunsReg.ReplaceAllString(s, " ")
	s = trailingYearRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " -")
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}
