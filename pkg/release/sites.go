package release

import (
	"regexp"
	"strings"
)

// sitePrefix is a named, start-anchored pattern for torrent-site and uploader
// tags that release groups prepend to filenames.
type sitePrefix struct {
	name string
	re   *regexp.Regexp
}

// sitePrefixes is ordered: the specific TamilMV forms run before the generic
// www forms so that "www 1TamilMV org -" is not half-consumed.
var sitePrefixes = []sitePrefix{
	{"tamilmv-www", regexp.MustCompile(`(?i)^www[\s._]*\d*\s*tamilmv[\s._]*[a-z]*\s*-\s*`)},
	{"tamilmv-bare", regexp.MustCompile(`(?i)^\d*\s*tamilmv[\s._]*[a-z]*\s*-\s*`)},
	{"tamilblasters", regexp.MustCompile(`(?i)^(?:www[\s._]*)?\d*\s*tamil(?:blasters|rockers)[\s._]*[a-z]*\s*-\s*`)},
	{"sanet", regexp.MustCompile(`(?i)^sanet[\s._]*st(?:[\s._]*-)?[\s._]*`)},
	{"www-domain", regexp.MustCompile(`(?i)^www\.[a-z0-9]+\.[a-z]{2,6}\s*-\s*`)},
	{"www-spaced", regexp.MustCompile(`(?i)^www\s+[a-z0-9]+\s+[a-z]{2,6}\s*-\s*`)},
	{"www-short", regexp.MustCompile(`(?i)^www\.[a-z0-9]+\s*-\s*`)},
	{"bracketed-site", regexp.MustCompile(`(?i)^\[\s*(?:www[\s.]*)?[a-z0-9]*(?:tamilmv|tamilblasters|tamilrockers|sanet|yts|rarbg|eztv|ettv|1337x|tgx|torrentgalaxy)[\s.]*[a-z]*\s*\]\s*-?\s*`)},
	{"bracketed-domain", regexp.MustCompile(`(?i)^\[\s*(?:www[\s.]+)?[a-z0-9-]+\.[a-z]{2,6}\s*\]\s*-?\s*`)},
}

// maxPrefixPasses bounds repeated stripping for names with stacked prefixes.
const maxPrefixPasses = 4

// StripSitePrefix removes torrent-site prefixes from the start of name.
// Every pattern is anchored so tokens inside the title are never touched.
func StripSitePrefix(name string) string {
	s := strings.TrimSpace(name)
	for range maxPrefixPasses {
		stripped := false
		for _, p := range sitePrefixes {
			if loc := p.re.FindStringIndex(s); loc != nil && loc[1] > 0 {
				s = strings.TrimSpace(s[loc[1]:])
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return s
}

// HasSitePrefix reports whether name starts with a known site prefix.
func HasSitePrefix(name string) bool {
	s := strings.TrimSpace(name)
	for _, p := range sitePrefixes {
		if p.re.MatchString(s) {
			return true
		}
	}
	return false
}
