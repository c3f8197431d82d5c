package names

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher recognizes occurrences of a subject's name parts and their
// exporter-typical variants in free text. It deliberately trades
// precision for recall: a missed name is a privacy leak, a spurious hit
// only costs one annotation.
type Matcher struct {
	spec      Spec
	patterns  []*regexp.Regexp
	fuzzy     []string // folded tokens for distance-1 comparison
	whitelist *Whitelist
}

// Variants recognized per name token: optional internal apostrophes and
// hyphens (O'Connor / OConnor / O-Connor), optional possessive, and
// arbitrary case. Between parts of a full name, any run of whitespace and
// light punctuation separates, including none at all (exporters emit
// "Smith,John" and "SmithJohn" alike).
const (
	possessive = `(?:['’]s)?`
	titles     = `(?:\b(?:dr|mr|mrs|ms|mx|prof)\.?[\s]*)?`
	partSep    = `[\s.,;_-]*`
)

// wordRE tokenizes candidate words for the fuzzy pass, keeping internal
// apostrophes and hyphens.
var wordRE = regexp.MustCompile(`[a-zA-Z]+(?:['’-][a-zA-Z]+)*`)

// foldTransformer strips combining marks after NFD decomposition so
// accented variants compare equal ("José" vs "Jose").
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NewMatcher compiles the match patterns for a name spec.
func NewMatcher(spec Spec) (*Matcher, error) {
	m := &Matcher{spec: spec}

	tokens := spec.Tokens()
	if len(tokens) == 0 {
		return nil, fmt.Errorf("name spec has no parts")
	}

	var exprs []string

	// Each name part alone. One-letter parts (middle initials supplied
	// bare) are skipped standalone; they still participate in the full
	// pattern below.
	for _, tok := range tokens {
		if len([]rune(tok)) < 2 {
			continue
		}
		exprs = append(exprs, `\b`+tokenPattern(tok)+possessive+`\b`)
	}

	first := Fold(spec.First)
	last := Fold(spec.Last)
	if first != "" && last != "" {
		firstPat := tokenPattern(spec.First)
		lastPat := tokenPattern(spec.Last) + `(?:['’-][a-z]+)*`

		// Title + First + up to two middle initials + Last, tolerating
		// collapsed separators ("DrJohnPSmith").
		midInitials := `(?:[\s]*[a-z]\.?[\s]*){0,2}`
		exprs = append(exprs, titles+`\b`+firstPat+partSep+midInitials+lastPat+possessive+`\b`)

		// Exporter order: "Last, First" with comma or other separators.
		exprs = append(exprs, `\b`+lastPat+partSep+firstPat+possessive+`\b`)

		// Initials followed by last name ("J. Smith", "J.P. Smith").
		exprs = append(exprs, `\b(?:[a-z]\.?[\s]*){1,3}`+lastPat+possessive+`\b`)
	}

	for _, expr := range exprs {
		re, err := regexp.Compile(`(?i)` + expr)
		if err != nil {
			return nil, fmt.Errorf("compile name pattern %q: %w", expr, err)
		}
		m.patterns = append(m.patterns, re)
	}

	for _, tok := range tokens {
		folded := Fold(tok)
		if len([]rune(folded)) >= 3 {
			m.fuzzy = append(m.fuzzy, stripPunct(folded))
		}
	}

	return m, nil
}

// SetWhitelist installs a common-word whitelist consulted by the fuzzy
// pass, so near-misses of everyday words are not flagged as name leaks.
func (m *Matcher) SetWhitelist(w *Whitelist) { m.whitelist = w }

// Match reports whether text contains the subject's name in any
// recognized variant.
func (m *Matcher) Match(text string) bool {
	folded := Fold(text)

	for _, re := range m.patterns {
		if re.MatchString(folded) {
			return true
		}
	}

	if len(m.fuzzy) == 0 {
		return false
	}
	for _, word := range wordRE.FindAllString(folded, -1) {
		word = strings.TrimSuffix(strings.TrimSuffix(word, "'s"), "’s")
		if len([]rune(word)) < 3 {
			continue
		}
		if m.whitelist != nil && m.whitelist.Contains(word) {
			continue
		}
		stripped := stripPunct(word)
		for _, target := range m.fuzzy {
			if levenshtein.ComputeDistance(stripped, target) <= 1 {
				return true
			}
		}
	}
	return false
}

// Fold lowercases and strips diacritics for comparison.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// tokenPattern turns one name token into a pattern where internal
// apostrophes and hyphens are optional, so "O'Connor" also matches
// "OConnor" and "O-Connor".
func tokenPattern(token string) string {
	var b strings.Builder
	for _, r := range Fold(token) {
		switch r {
		case '\'', '’', '-':
			b.WriteString(`['’-]?`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\'', '’', '-':
			return -1
		}
		return r
	}, s)
}
