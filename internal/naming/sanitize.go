package naming

import (
	"path"
	"regexp"
	"strings"
)

// reserved are characters Windows and SMB shares refuse in names.
const reserved = `<>:"/\|?*`

var dotRuns = regexp.MustCompile(`\.{2,}`)

// SanitizeFilename makes name usable as a single path component. Reserved
// characters become spaces, NULs are dropped, dot runs collapse to one dot
// and whitespace to one space. Leading and trailing dots are trimmed.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == 0:
			return -1
		case strings.ContainsRune(reserved, r):
			return ' '
		}
		return r
	}, name)
	name = dotRuns.ReplaceAllString(name, ".")
	name = strings.Join(strings.Fields(name), " ")
	return strings.Trim(name, " .")
}

// ValidatePath returns ErrPathTraversal when the slash-separated path p
// does not stay under root. An empty root only rejects absolute paths and
// paths climbing above the current directory.
func ValidatePath(p, root string) error {
	full, base := path.Clean(p), path.Clean(root)

	rest := full
	switch {
	case base == ".":
	case full == base:
		return nil
	default:
		var ok bool
		if rest, ok = strings.CutPrefix(full, strings.TrimSuffix(base, "/")+"/"); !ok {
			return ErrPathTraversal
		}
	}
	if path.IsAbs(rest) || rest == ".." || strings.HasPrefix(rest, "../") {
		return ErrPathTraversal
	}
	return nil
}
