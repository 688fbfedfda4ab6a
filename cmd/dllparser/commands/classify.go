package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/classify"
	"github.com/publicrust/DotnetDllParser/display"
	"github.com/publicrust/DotnetDllParser/errors"
)

// ClassifyCmd explains how type names are classified
var ClassifyCmd = &cobra.Command{
	Use:   "classify [name...]",
	Short: "Show which rule marks a type name as compiler-generated",
	Long: `Classify simple type names with the configured classifier. Each name is
reported as authored or as generated together with the first rule that
matched it. With no arguments, names are read from stdin, one per line.

Examples:
  dllparser classify '<Start>d__12' 'PlayerInventory'
  dllparser classify --rules
  cat names.txt | dllparser classify --json`,
	RunE: runClassify,
}

// Classification is the result for one name
type Classification struct {
	Name      string `json:"name"`
	Generated bool   `json:"generated"`
	Rule      string `json:"rule,omitempty"`
}

var listRules bool

func init() {
	ClassifyCmd.Flags().Bool("json", false, "Output classifications as JSON")
	ClassifyCmd.Flags().BoolVar(&listRules, "rules", false, "List the active rules in evaluation order")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	c, err := classify.FromConfig(cfg.Classifier)
	if err != nil {
		return err
	}

	if listRules {
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(c.RuleNames())
		}
		for _, name := range c.RuleNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	names := args
	if len(names) == 0 {
		names, err = readNames(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	results := classifyNames(c, names)
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(results)
	}
	writeClassifications(cmd.OutOrStdout(), results)
	return nil
}

func classifyNames(m classify.Matcher, names []string) []Classification {
	results := make([]Classification, 0, len(names))
	for _, name := range names {
		rule, ok := m.Match(name)
		results = append(results, Classification{Name: name, Generated: ok, Rule: rule})
	}
	return results
}

func writeClassifications(w io.Writer, results []Classification) {
	for _, r := range results {
		if r.Generated {
			fmt.Fprintf(w, "generated  %s  [%s]\n", r.Name, r.Rule)
		} else {
			fmt.Fprintf(w, "authored   %s\n", r.Name)
		}
	}
}

// readNames reads one name per line, skipping blank lines
func readNames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read names from stdin")
	}
	return names, nil
}
