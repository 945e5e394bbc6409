package unify

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// CloseMatchThreshold is the minimum word-set Jaccard similarity for two
// normalized series names to be treated as the same show.
const CloseMatchThreshold = 0.8

// Jaccard is the Jaccard similarity of the word sets of a and b.
func Jaccard(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if wa == "" || wb == "" {
		return 0
	}
	return float64(edlib.JaccardSimilarity(wa, wb, 0))
}

// CloseMatch reports whether two normalized names refer to the same series.
func CloseMatch(a, b string) bool {
	return Jaccard(a, b) >= CloseMatchThreshold
}

// wordSet returns the distinct words of s joined by single spaces; the
// edlib word split counts duplicates otherwise.
func wordSet(s string) string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range strings.Fields(s) {
		if !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}
