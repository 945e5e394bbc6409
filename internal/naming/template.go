package naming

import (
	"fmt"
	"regexp"
	"strconv"
)

// placeholder matches {name} and {name:NN}; NN zero-pads numeric fields.
var placeholder = regexp.MustCompile(`\{(\w+)(?::(\d+))?\}`)

// fields are the values a naming template can reference.
type fields struct {
	title, series, tags, ext string
	season, episode          int
}

func (f fields) lookup(name string) (text string, num int, numeric, ok bool) {
	switch name {
	case "title":
		return f.title, 0, false, true
	case "series":
		return f.series, 0, false, true
	case "tags":
		return f.tags, 0, false, true
	case "ext":
		return f.ext, 0, false, true
	case "season":
		return "", f.season, true, true
	case "episode":
		return "", f.episode, true, true
	}
	return "", 0, false, false
}

// expand fills tmpl from f. Unknown placeholders are left as written.
func expand(tmpl string, f fields) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := placeholder.FindStringSubmatch(m)
		text, num, numeric, ok := f.lookup(sub[1])
		switch {
		case !ok:
			return m
		case !numeric:
			return text
		case sub[2] != "":
			width, _ := strconv.Atoi(sub[2])
			return fmt.Sprintf("%0*d", width, num)
		default:
			return strconv.Itoa(num)
		}
	})
}

// CheckTemplate rejects templates referencing fields the builder cannot
// fill, or padding non-numeric ones.
func CheckTemplate(tmpl string) error {
	for _, sub := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		_, _, numeric, ok := fields{}.lookup(sub[1])
		if !ok {
			return fmt.Errorf("%w: unknown field {%s}", ErrBadTemplate, sub[1])
		}
		if sub[2] != "" && !numeric {
			return fmt.Errorf("%w: {%s} cannot be padded", ErrBadTemplate, sub[1])
		}
	}
	return nil
}
