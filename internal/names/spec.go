package names

import "strings"

// Spec holds a subject's known name parts. It is built once per run and
// treated as immutable afterward so per-file workers can share it.
type Spec struct {
	First  string
	Middle []string
	Last   string
}

// ParseMiddleNames splits the underscore-delimited middle-name argument
// into independent match candidates ("Paul_Angelina" -> Paul, Angelina).
// An empty argument means the subject has no middle name.
func ParseMiddleNames(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var middles []string
	for _, part := range strings.Split(raw, "_") {
		part = strings.TrimSpace(part)
		if part != "" {
			middles = append(middles, part)
		}
	}
	return middles
}

// Tokens returns every name part in order: first, middle names, last.
func (s Spec) Tokens() []string {
	tokens := make([]string, 0, len(s.Middle)+2)
	if s.First != "" {
		tokens = append(tokens, s.First)
	}
	tokens = append(tokens, s.Middle...)
	if s.Last != "" {
		tokens = append(tokens, s.Last)
	}
	return tokens
}
