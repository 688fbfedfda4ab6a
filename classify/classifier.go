// Package classify decides whether a type name is a compiler or tooling
// artifact rather than authored code. Classification looks only at the
// simple name and is a pure function of it.
package classify

import (
	"regexp"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/errors"
)

// Matcher is what the pipeline needs from a classifier
type Matcher interface {
	IsGenerated(typeName string) bool
	Match(typeName string) (rule string, ok bool)
}

// Classifier combines an ordered rule set by logical OR
type Classifier struct {
	rules []Rule
}

// New returns a classifier over rules. Rule order only affects which rule
// Match reports, never the IsGenerated result.
func New(rules ...Rule) *Classifier {
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

// Default returns a classifier with every built-in rule and the default
// literal prefixes.
func Default() *Classifier {
	return New(BuiltinRules(am.DefaultGeneratedPrefixes)...)
}

// IsGenerated reports whether any rule matches typeName
func (c *Classifier) IsGenerated(typeName string) bool {
	_, ok := c.Match(typeName)
	return ok
}

// Match returns the name of the first rule matching typeName
func (c *Classifier) Match(typeName string) (string, bool) {
	for _, r := range c.rules {
		if r.Match(typeName) {
			return r.Name, true
		}
	}
	return "", false
}

// RuleNames returns the active rule names in evaluation order
func (c *Classifier) RuleNames() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// FromConfig builds the classifier described by the [classifier] section:
// built-in rules with the configured literal prefixes, extra named patterns,
// the optional rules file, minus disabled rules.
func FromConfig(cfg am.ClassifierConfig) (*Classifier, error) {
	prefixes := append([]string(nil), cfg.LiteralPrefixes...)
	patterns := append([]am.PatternConfig(nil), cfg.Patterns...)
	disabled := append([]string(nil), cfg.DisabledRules...)

	if cfg.RulesFile != "" {
		rf, err := LoadRulesFile(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, rf.Prefixes...)
		for _, p := range rf.Patterns {
			patterns = append(patterns, am.PatternConfig{Name: p.Name, Pattern: p.Pattern})
		}
		disabled = append(disabled, rf.Disabled...)
	}

	rules := BuiltinRules(prefixes)
	for _, p := range patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, errors.Mark(
				errors.Wrapf(err, "classifier pattern %q", p.Name), errors.ErrInvalidConfig)
		}
		rules = append(rules, RegexpRule(p.Name, re))
	}

	return New(rules...).Without(disabled...)
}

// Without returns a classifier with the named rules removed. Naming a rule
// that does not exist is an error so typos in disabled_rules surface.
func (c *Classifier) Without(names ...string) (*Classifier, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	seen := make(map[string]bool, len(names))
	kept := make([]Rule, 0, len(c.rules))
	for _, r := range c.rules {
		if drop[r.Name] {
			seen[r.Name] = true
			continue
		}
		kept = append(kept, r)
	}

	for _, n := range names {
		if !seen[n] {
			return nil, errors.WithHintf(
				errors.InvalidConfigf("unknown classifier rule %q", n),
				"known rules: %v", c.RuleNames())
		}
	}
	return &Classifier{rules: kept}, nil
}
