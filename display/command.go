package display

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/publicrust/DotnetDllParser/errors"
)

// OutputEnv selects JSON output when no --json flag is given
const OutputEnv = "DLLPARSER_OUTPUT"

// ShouldOutputJSON determines if a command should output JSON based on flags and environment
func ShouldOutputJSON(cmd *cobra.Command) bool {
	// Handle nil command gracefully (e.g., when called from result rendering without command context)
	if cmd == nil {
		return jsonRequestedByEnv()
	}

	// Check if --json flag was explicitly set
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	// Check global --json flag
	if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
		return true
	}

	return jsonRequestedByEnv()
}

func jsonRequestedByEnv() bool {
	return os.Getenv(OutputEnv) == "json"
}

// OutputJSON marshals and prints JSON using display.MarshalJSON
func OutputJSON(v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	fmt.Println(string(data))
	return nil
}
