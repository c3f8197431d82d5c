package redact

import (
	"fmt"
	"regexp"
	"strings"

	"edfanon/internal/names"
)

// nameRule flags occurrences of the subject's name via the name matcher.
type nameRule struct {
	matcher *names.Matcher
	action  Action
}

// NewNameRule wraps a compiled name matcher as a rule.
func NewNameRule(matcher *names.Matcher, action Action) Rule {
	return &nameRule{matcher: matcher, action: action}
}

func (r *nameRule) Name() string             { return "subject-name" }
func (r *nameRule) Category() string         { return "name" }
func (r *nameRule) Action() Action           { return r.action }
func (r *nameRule) Matches(text string) bool { return r.matcher.Match(text) }

// regexRule is a case-insensitive regex predicate.
type regexRule struct {
	name     string
	category string
	re       *regexp.Regexp
	action   Action
}

func (r *regexRule) Name() string             { return r.name }
func (r *regexRule) Category() string         { return r.category }
func (r *regexRule) Action() Action           { return r.action }
func (r *regexRule) Matches(text string) bool { return r.re.MatchString(text) }

// NewPronounRule builds the gendered-pronoun rule. Word boundaries keep
// "her" from hitting "other".
func NewPronounRule(pronouns []string, action Action) (Rule, error) {
	if len(pronouns) == 0 {
		return nil, fmt.Errorf("empty pronoun list")
	}
	escaped := make([]string, len(pronouns))
	for i, p := range pronouns {
		escaped[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile pronoun rule: %w", err)
	}
	return &regexRule{name: "gendered-pronoun", category: "pronoun", re: re, action: action}, nil
}

// NewPatternRule compiles one operator-supplied pattern, applied exactly
// as written apart from forced case-insensitivity.
func NewPatternRule(index int, pattern string, action Action) (Rule, error) {
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile custom pattern %q: %w", pattern, err)
	}
	return &regexRule{
		name:     fmt.Sprintf("custom-pattern-%d", index+1),
		category: "pattern",
		re:       re,
		action:   action,
	}, nil
}
