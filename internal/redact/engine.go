package redact

import (
	"fmt"

	"go.uber.org/zap"

	"edfanon/internal/config"
	"edfanon/internal/edf"
	"edfanon/internal/logger"
	"edfanon/internal/names"
)

// Engine evaluates the ordered rule set against annotation text. Name
// rules run first, then the pronoun rule, then operator patterns; the
// first match wins. The engine is immutable after construction and safe
// to share across file workers.
type Engine struct {
	rules  []Rule
	logger *logger.Logger
}

// NewEngine compiles the full rule set. Any invalid input fails here,
// before the first file is opened.
func NewEngine(cfg config.RedactionConfig, spec names.Spec, log *logger.Logger) (*Engine, error) {
	engine := &Engine{logger: log.WithComponent("redact")}

	nameAction, err := ParseAction(cfg.NameAction)
	if err != nil {
		return nil, fmt.Errorf("name action: %w", err)
	}
	matcher, err := names.NewMatcher(spec)
	if err != nil {
		return nil, fmt.Errorf("compile name matcher: %w", err)
	}
	if cfg.WhitelistPath != "" {
		whitelist, err := names.LoadWhitelist(cfg.WhitelistPath)
		if err != nil {
			return nil, err
		}
		matcher.SetWhitelist(whitelist)
		engine.logger.Debug("Word whitelist loaded",
			zap.String("path", cfg.WhitelistPath),
			zap.Int("words", whitelist.Len()),
		)
	}
	engine.rules = append(engine.rules, NewNameRule(matcher, nameAction))

	if len(cfg.Pronouns) > 0 {
		pronounAction, err := ParseAction(cfg.PronounAction)
		if err != nil {
			return nil, fmt.Errorf("pronoun action: %w", err)
		}
		rule, err := NewPronounRule(cfg.Pronouns, pronounAction)
		if err != nil {
			return nil, err
		}
		engine.rules = append(engine.rules, rule)
	}

	patternAction, err := ParseAction(cfg.PatternAction)
	if err != nil {
		return nil, fmt.Errorf("pattern action: %w", err)
	}
	for i, pattern := range cfg.Patterns {
		rule, err := NewPatternRule(i, pattern, patternAction)
		if err != nil {
			return nil, err
		}
		engine.rules = append(engine.rules, rule)
	}

	engine.logger.Info("Redaction engine initialized",
		zap.Int("rules", len(engine.rules)),
		zap.String("name_action", nameAction.String()),
	)

	return engine, nil
}

// Rules returns the rule names in evaluation order.
func (e *Engine) Rules() []string {
	out := make([]string, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Name()
	}
	return out
}

// Evaluate returns the decision for one piece of text, short-circuiting
// on the first matching rule.
func (e *Engine) Evaluate(text string) Decision {
	if text == "" {
		return Decision{Action: Pass}
	}
	for _, rule := range e.rules {
		if rule.Matches(text) {
			return Decision{Action: rule.Action(), Rule: rule.Name(), Category: rule.Category()}
		}
	}
	return Decision{Action: Pass}
}

// Apply evaluates every annotation and returns the surviving set plus
// per-rule findings. Blanked annotations keep their timing with an empty
// description; dropped annotations are removed entirely.
func (e *Engine) Apply(annotations []edf.Annotation) ([]edf.Annotation, []Finding) {
	kept := make([]edf.Annotation, 0, len(annotations))
	counts := make(map[string]*Finding)

	for _, ann := range annotations {
		decision := e.Evaluate(ann.Text)
		switch decision.Action {
		case Pass:
			kept = append(kept, ann)
			continue
		case Blank:
			ann.Text = ""
			kept = append(kept, ann)
		case Drop:
		}

		f, ok := counts[decision.Rule]
		if !ok {
			f = &Finding{Rule: decision.Rule, Category: decision.Category, Action: decision.Action.String()}
			counts[decision.Rule] = f
		}
		f.Count++

		e.logger.Debug("Annotation redacted",
			zap.String("rule", decision.Rule),
			zap.String("action", decision.Action.String()),
			zap.Float64("onset", ann.Onset),
		)
	}

	findings := make([]Finding, 0, len(counts))
	for _, rule := range e.rules {
		if f, ok := counts[rule.Name()]; ok {
			findings = append(findings, *f)
		}
	}
	return kept, findings
}
