package release

// matcher is a pure, independently testable pattern step. It returns ok=false
// when the input does not match.
type matcher[T any] struct {
	Name  string
	Match func(string) (T, bool)
}

// firstMatch runs matchers in order and returns the first successful result
// together with the name of the matcher that produced it.
func firstMatch[T any](input string, matchers []matcher[T]) (T, string, bool) {
	for _, m := range matchers {
		if v, ok := m.Match(input); ok {
			return v, m.Name, true
		}
	}
	var zero T
	return zero, "", false
}
