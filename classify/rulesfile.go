package classify

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/publicrust/DotnetDllParser/errors"
)

// RulesFile is the YAML shape of classifier.rules_file:
//
//	prefixes: ["UnitySourceGenerated"]
//	patterns:
//	  - name: unity-bursted
//	    pattern: '\$BurstDirectCall$'
//	disabled: [local-function]
type RulesFile struct {
	Prefixes []string      `yaml:"prefixes"`
	Patterns []PatternRule `yaml:"patterns"`
	Disabled []string      `yaml:"disabled"`
}

// PatternRule is a named regular expression in a rules file
type PatternRule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// LoadRulesFile reads and decodes a YAML rules file. Unknown keys are rejected.
func LoadRulesFile(path string) (*RulesFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("classifier rules file %s", path)
		}
		return nil, errors.Wrapf(err, "failed to open classifier rules file %s", path)
	}
	defer f.Close()

	var rf RulesFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil {
		return nil, errors.Mark(
			errors.Wrapf(err, "failed to parse classifier rules file %s", path), errors.ErrInvalidConfig)
	}

	for i, p := range rf.Patterns {
		if p.Name == "" {
			return nil, errors.InvalidConfigf("%s: patterns[%d] has no name", path, i)
		}
	}
	for i, p := range rf.Prefixes {
		if p == "" {
			return nil, errors.InvalidConfigf("%s: prefixes[%d] is empty", path, i)
		}
	}
	return &rf, nil
}
