package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/publicrust/DotnetDllParser/display"
	"github.com/publicrust/DotnetDllParser/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show dllparser version information",
	Long:  `Display version, build time, commit hash, and platform information for the dllparser binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(info)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, info.String())
		fmt.Fprintf(w, "Platform: %s\n", info.Platform)
		fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}
