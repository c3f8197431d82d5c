package redact

import "fmt"

// Action is the redaction outcome for a matched annotation.
type Action int

const (
	// Pass leaves the annotation untouched.
	Pass Action = iota
	// Blank clears the description but keeps onset and duration, so
	// downstream tools relying on event timing are not broken.
	Blank
	// Drop removes the entire event, timing included.
	Drop
)

func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case Blank:
		return "blank"
	case Drop:
		return "drop"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction parses a configured action name.
func ParseAction(s string) (Action, error) {
	switch s {
	case "pass":
		return Pass, nil
	case "blank":
		return Blank, nil
	case "drop":
		return Drop, nil
	}
	return Pass, fmt.Errorf("unknown redaction action %q", s)
}

// Rule is one predicate+policy pair in the rule set. Any type that can
// answer Matches can be added without touching the engine.
type Rule interface {
	Name() string
	Category() string
	Action() Action
	Matches(text string) bool
}

// Decision is the engine's verdict for one piece of text.
type Decision struct {
	Action   Action
	Rule     string
	Category string
}

// Finding summarizes matches of one rule across a file. It never carries
// the matched text.
type Finding struct {
	Rule     string `json:"rule"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Count    int    `json:"count"`
}
