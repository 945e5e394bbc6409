package detect

import (
	"regexp"
	"strings"

	"github.com/vmunix/mediaroute/internal/probe"
)

// LanguageRule maps filename indicators to a routing bucket. Short codes
// (three letters or fewer) must appear as whole tokens; longer words match
// anywhere in the name.
type LanguageRule struct {
	Name     string
	Language Language
	Keywords []string
}

// DefaultLanguageRules returns the routing rules in priority order. The
// first matching rule decides, so a name tagged both Hindi and English
// routes to bollywood.
func DefaultLanguageRules() []LanguageRule {
	return []LanguageRule{
		{
			Name:     "malayalam",
			Language: LangMalayalam,
			Keywords: []string{"malayalam", "mal", "ml", "kerala", "mollywood", "malayalee", "malayali"},
		},
		{
			Name:     "hindi-multi",
			Language: LangBollywood,
			Keywords: []string{"hindi", "hin", "hi", "bollywood", "multi", "multilang", "dual", "all lang"},
		},
		{
			Name:     "english",
			Language: LangEnglish,
			Keywords: []string{"english", "eng", "en", "hollywood", "usa", "uk"},
		},
		{
			Name:     "regional",
			Language: LangMalayalam,
			Keywords: []string{"telugu", "tamil", "kannada", "tollywood", "kollywood", "sandalwood"},
		},
	}
}

const shortCodeLen = 3

var tokenSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// keywordInput is a filename prepared for keyword matching.
type keywordInput struct {
	text   string // lower-cased, separators collapsed to single spaces
	tokens map[string]bool
}

func newKeywordInput(s string) keywordInput {
	in := keywordInput{tokens: make(map[string]bool)}
	parts := tokenSplit.Split(strings.ToLower(s), -1)
	var words []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		in.tokens[p] = true
		words = append(words, p)
	}
	in.text = strings.Join(words, " ")
	return in
}

func (r LanguageRule) matches(in keywordInput) bool {
	for _, kw := range r.Keywords {
		if containsKeyword(in, kw) {
			return true
		}
	}
	return false
}

func containsKeyword(in keywordInput, kw string) bool {
	if len(kw) <= shortCodeLen {
		return in.tokens[kw]
	}
	return strings.Contains(in.text, kw)
}

var (
	malayalamCodes    = map[string]bool{"mal": true, "malayalam": true, "ml": true}
	englishCodes      = map[string]bool{"eng": true, "en": true, "english": true}
	malayalamKeywords = []string{"malayalam", "mollywood", "malayali", "malayalee", "mal"}
	englishKeywords   = []string{"english", "eng"}
)

// IsMalayalamTrack reports whether an audio or subtitle track is Malayalam,
// by language code or a whole-word keyword in its language or title.
func IsMalayalamTrack(t probe.Track) bool {
	return trackMatches(t, malayalamCodes, malayalamKeywords)
}

// IsEnglishTrack reports whether a track is English.
func IsEnglishTrack(t probe.Track) bool {
	return trackMatches(t, englishCodes, englishKeywords)
}

func trackMatches(t probe.Track, codes map[string]bool, keywords []string) bool {
	if codes[strings.ToLower(strings.TrimSpace(t.Language))] {
		return true
	}
	in := newKeywordInput(t.Language + " " + t.Title)
	for _, kw := range keywords {
		if containsKeyword(in, kw) {
			return true
		}
	}
	return false
}

// languageFromAudio decides the language from embedded audio. ok is false
// when neither Malayalam nor English audio is present.
func languageFromAudio(audio []probe.Track) (lang Language, needsExtraction, ok bool) {
	var malayalam, english, other int
	for _, t := range audio {
		switch {
		case IsMalayalamTrack(t):
			malayalam++
		case IsEnglishTrack(t):
			english++
		default:
			other++
		}
	}
	switch {
	case malayalam > 0:
		return LangMalayalam, english+other > 0, true
	case english > 0:
		return LangEnglish, false, true
	}
	return "", false, false
}
