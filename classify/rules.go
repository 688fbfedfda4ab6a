package classify

import (
	"regexp"
	"strings"
)

// Built-in rule names. They are the values accepted by
// classifier.disabled_rules and reported by Match.
const (
	RuleLiteralPrefix     = "literal-prefix"
	RuleEmbeddedGUID      = "embedded-guid"
	RuleStateMachine      = "state-machine"
	RuleFixedBuffer       = "fixed-buffer"
	RuleAnonStorey        = "anon-storey"
	RuleLegacyIterator    = "legacy-iterator"
	RuleCompilerAttribute = "compiler-attribute"
	RuleLocalFunction     = "local-function"
)

// Rule is one named predicate over a type's simple name
type Rule struct {
	Name  string
	Match func(typeName string) bool
}

var (
	embeddedGUID   = regexp.MustCompile(`<[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}>`)
	stateMachine   = regexp.MustCompile(`<.*>d__\d+`)
	fixedBuffer    = regexp.MustCompile(`<.*>e__FixedBuffer`)
	anonStorey     = regexp.MustCompile(`<.*>c__AnonStorey\d+`)
	legacyIterator = regexp.MustCompile(`<.*>c__Iterator\d+`)
)

// compilerAttributeTerms qualify a name containing "Attribute" as compiler plumbing
var compilerAttributeTerms = []string{"CompilerGenerated", "NullableContext", "Nullable"}

// LiteralPrefixRule matches names starting with any of prefixes.
// Empty prefixes are ignored.
func LiteralPrefixRule(prefixes []string) Rule {
	kept := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return Rule{
		Name: RuleLiteralPrefix,
		Match: func(name string) bool {
			for _, p := range kept {
				if strings.HasPrefix(name, p) {
					return true
				}
			}
			return false
		},
	}
}

// RegexpRule matches names containing a match of re anywhere
func RegexpRule(name string, re *regexp.Regexp) Rule {
	return Rule{Name: name, Match: re.MatchString}
}

// EmbeddedGUIDRule matches <xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx> anywhere in the name
func EmbeddedGUIDRule() Rule { return RegexpRule(RuleEmbeddedGUID, embeddedGUID) }

// StateMachineRule matches async and iterator state machines: <Run>d__3
func StateMachineRule() Rule { return RegexpRule(RuleStateMachine, stateMachine) }

// FixedBufferRule matches fixed-size buffer backing types: <buf>e__FixedBuffer
func FixedBufferRule() Rule { return RegexpRule(RuleFixedBuffer, fixedBuffer) }

// AnonStoreyRule matches legacy (mcs) closure classes: <Start>c__AnonStorey1
func AnonStoreyRule() Rule { return RegexpRule(RuleAnonStorey, anonStorey) }

// LegacyIteratorRule matches legacy (mcs) iterator classes: <Get>c__Iterator0
func LegacyIteratorRule() Rule { return RegexpRule(RuleLegacyIterator, legacyIterator) }

// CompilerAttributeRule matches attribute types emitted by the compiler,
// such as NullableAttribute or NullableContextAttribute.
func CompilerAttributeRule() Rule {
	return Rule{
		Name: RuleCompilerAttribute,
		Match: func(name string) bool {
			if !strings.Contains(name, "Attribute") {
				return false
			}
			for _, term := range compilerAttributeTerms {
				if strings.Contains(name, term) {
					return true
				}
			}
			return false
		},
	}
}

// LocalFunctionRule matches hoisted local functions: <Main>g__Helper|0_0
func LocalFunctionRule() Rule {
	return Rule{
		Name: RuleLocalFunction,
		Match: func(name string) bool {
			return strings.HasPrefix(name, "<") && strings.Contains(name, "g__")
		},
	}
}

// BuiltinRules returns the default rule set with the given literal prefixes
func BuiltinRules(literalPrefixes []string) []Rule {
	return []Rule{
		LiteralPrefixRule(literalPrefixes),
		EmbeddedGUIDRule(),
		StateMachineRule(),
		FixedBufferRule(),
		AnonStoreyRule(),
		LegacyIteratorRule(),
		CompilerAttributeRule(),
		LocalFunctionRule(),
	}
}

// BuiltinRuleNames lists the names of BuiltinRules in evaluation order
func BuiltinRuleNames() []string {
	return []string{
		RuleLiteralPrefix,
		RuleEmbeddedGUID,
		RuleStateMachine,
		RuleFixedBuffer,
		RuleAnonStorey,
		RuleLegacyIterator,
		RuleCompilerAttribute,
		RuleLocalFunction,
	}
}
