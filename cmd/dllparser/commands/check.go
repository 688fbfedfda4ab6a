package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/publicrust/DotnetDllParser/display"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
	"github.com/publicrust/DotnetDllParser/output"
	"github.com/publicrust/DotnetDllParser/pipeline"
)

var checkFlags runFlags

// CheckCmd verifies the curated tree is up to date without touching it
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the curated output tree is up to date",
	Long: `Decompile into a temporary directory and compare the result with the
existing output tree. Nothing in the output tree is modified.

Exit codes:
  0 - Output is up to date
  1 - Output differs, or an error occurred

Examples:
  dllparser check                    # Check the configured output.dir
  dllparser check -o ./curated --json`,
	RunE: runCheck,
}

// CheckResult is the JSON shape of a check
type CheckResult struct {
	output.CompareResult
	Run *pipeline.RunReport `json:"run"`
}

func init() {
	checkFlags.register(CheckCmd)
	CheckCmd.Flags().Bool("json", false, "Output the comparison as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	useJSON := display.ShouldOutputJSON(cmd)
	log := logger.ComponentLogger("check")

	cfg, err := loadRunConfig(cmd, &checkFlags)
	if err != nil {
		return err
	}
	existing := cfg.Output.Dir

	tempDir, err := os.MkdirTemp("", "dllparser-check-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)
	cfg.Output.Dir = tempDir

	ctx, stop := signalContext()
	defer stop()

	modules, err := discoverModules(ctx, cfg, log)
	if err != nil {
		return err
	}
	engine, err := newEngine(ctx, cfg, checkFlags.skipProbe, log)
	if err != nil {
		return err
	}
	p, err := pipeline.FromConfig(cfg, engine,
		pipeline.WithLogger(logger.ComponentLogger("pipeline")),
		pipeline.WithPrune(false))
	if err != nil {
		return err
	}

	var spinner *pterm.SpinnerPrinter
	if !useJSON {
		spinner, _ = pterm.DefaultSpinner.Start("Decompiling into ", tempDir)
	}
	report, err := p.Run(ctx, modules)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return err
	}

	result, err := output.Compare(tempDir, existing, cfg.GetOutputExtension())
	if err != nil {
		return errors.Wrap(err, "failed to compare output trees")
	}

	if useJSON {
		if err := display.OutputJSON(CheckResult{CompareResult: *result, Run: report}); err != nil {
			return err
		}
	} else {
		fmt.Print(display.CompareSummary(result))
	}

	if t := report.Totals(); t.FailedModules > 0 || t.FailedTypes > 0 {
		log.Warnw("Check run had failures; their existing files show as stale",
			"failed_modules", t.FailedModules, "failed_types", t.FailedTypes)
	}

	if !result.UpToDate {
		return errors.WithHint(errors.Newf("output in %s is out of date", existing), "run 'dllparser decompile' to update it")
	}
	return nil
}
