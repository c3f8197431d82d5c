package names

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Whitelist is a set of common words the fuzzy matcher must not flag.
// Built from a word-frequency corpus plus manual additions; loaded from a
// JSON array of strings.
type Whitelist struct {
	words map[string]struct{}
}

// LoadWhitelist reads a JSON word list from path.
func LoadWhitelist(path string) (*Whitelist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	var words []string
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, fmt.Errorf("parse whitelist %s: %w", path, err)
	}
	return NewWhitelist(words), nil
}

// NewWhitelist builds a whitelist from the given words.
func NewWhitelist(words []string) *Whitelist {
	w := &Whitelist{words: make(map[string]struct{}, len(words))}
	for _, word := range words {
		word = strings.TrimSpace(Fold(word))
		if word == "" {
			continue
		}
		w.words[word] = struct{}{}
	}
	return w
}

// Contains reports whether token (or its punctuation-stripped form) is
// whitelisted. Token is expected pre-folded.
func (w *Whitelist) Contains(token string) bool {
	if _, ok := w.words[token]; ok {
		return true
	}
	_, ok := w.words[stripPunct(token)]
	return ok
}

// Len returns the number of whitelisted words.
func (w *Whitelist) Len() int { return len(w.words) }
