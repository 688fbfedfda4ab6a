package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/cmd/dllparser/commands"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
)

var (
	configFile string
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "dllparser",
	Short: "dllparser - curated source text from compiled .NET modules",
	Long: `dllparser - Selective batch decompilation of .NET modules.

dllparser decompiles the important modules of a directory into one source
text file per authored type, grouped by module, leaving compiler-generated
types out.

Available commands:
  decompile - Decompile important modules into the output tree
  check     - Check that the output tree is up to date
  classify  - Show which rule marks a type name as generated
  watch     - Re-decompile modules whenever they change
  index     - Query the ledger of past runs
  publish   - Upload the output tree to an S3-compatible bucket
  am        - Manage configuration

Examples:
  dllparser am init                        # Write a starter dllparser.toml
  dllparser decompile -s ./Managed -o ./curated
  dllparser classify '<Start>d__12'
  dllparser index runs`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			am.SetConfigFile(configFile)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(logJSON, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file merged above user and project config")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON to stderr")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")

	rootCmd.AddCommand(commands.DecompileCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.ClassifyCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.IndexCmd)
	rootCmd.AddCommand(commands.PublishCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		for _, hint := range errors.GetAllHints(err) {
			pterm.Info.Println(hint)
		}
		logger.Cleanup()
		os.Exit(1)
	}
}
