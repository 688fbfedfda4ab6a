package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/db"
	"github.com/publicrust/DotnetDllParser/display"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/index"
	"github.com/publicrust/DotnetDllParser/logger"
	"github.com/publicrust/DotnetDllParser/pipeline"
)

var decompileFlags runFlags

// DecompileCmd runs the pipeline once over the source directory
var DecompileCmd = &cobra.Command{
	Use:   "decompile",
	Short: "Decompile important modules into the curated output tree",
	Long: `Decompile every important module in the source directory, one source
text file per authored type, grouped by module:

  <output>/<Module>/<Type>.cstxt

Modules whose name starts with none of filter.important_prefixes are
skipped. Compiler-generated types are never written. A module or type that
fails is reported and the run continues.

Examples:
  dllparser decompile -s ./Managed -o ./curated
  dllparser decompile --collisions fail --prune
  dllparser decompile --json > report.json`,
	RunE: runDecompile,
}

func init() {
	decompileFlags.register(DecompileCmd)
	DecompileCmd.Flags().Bool("json", false, "Output the run report as JSON")
}

func runDecompile(cmd *cobra.Command, args []string) error {
	useJSON := display.ShouldOutputJSON(cmd)
	log := logger.ComponentLogger("decompile")

	cfg, err := loadRunConfig(cmd, &decompileFlags)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	modules, err := discoverModules(ctx, cfg, log)
	if err != nil {
		return err
	}

	engine, err := newEngine(ctx, cfg, decompileFlags.skipProbe, log)
	if err != nil {
		return err
	}

	store, closeIndex, err := openIndex(cfg, log)
	if err != nil {
		return err
	}
	defer closeIndex()

	p, err := pipeline.FromConfig(cfg, engine, pipeline.WithLogger(logger.ComponentLogger("pipeline")))
	if err != nil {
		return err
	}

	if !useJSON {
		pterm.DefaultHeader.WithFullWidth().Printf("dllparser - %d modules from %s", len(modules), cfg.Source.Dir)
		pterm.Println()
	}

	report, runErr := p.Run(ctx, modules)
	if runErr != nil && !report.Interrupted {
		return runErr
	}
	// Interrupted runs are recorded too; the partial report is what happened.
	if store != nil {
		saveRun(store, report, log)
	}

	if err := renderRun(cmd, report, useJSON); err != nil {
		return err
	}
	if runErr != nil {
		return errors.Wrap(runErr, "run interrupted")
	}
	return nil
}

// saveRun records report in the index. Failures are logged, never fatal:
// the curated tree is already written.
func saveRun(store *index.Store, report *pipeline.RunReport, log *zap.SugaredLogger) {
	err := store.SaveRun(context.Background(), report)
	switch {
	case err == nil:
	case errors.Is(err, db.ErrDatabaseClosed):
		log.Debugw("Index closed before run was saved", logger.FieldRunID, report.RunID)
	default:
		log.Errorw("Failed to index run", logger.FieldRunID, report.RunID, logger.FieldError, err)
	}
}

// renderRun prints report as JSON or as a module table with details
func renderRun(cmd *cobra.Command, report *pipeline.RunReport, useJSON bool) error {
	if useJSON {
		return display.OutputJSON(report)
	}

	table, err := display.RunTable(report)
	if err != nil {
		return errors.Wrap(err, "failed to render run table")
	}
	fmt.Print(table)

	if details := display.RunDetails(report, verbosityOf(cmd)); details != "" {
		pterm.Println()
		fmt.Print(details)
	}

	t := report.Totals()
	pterm.Println()
	if t.SkippedUnaddressable > 0 {
		pterm.Warning.Printf("%d types could not be addressed by the decompiler and were skipped\n", t.SkippedUnaddressable)
	}
	switch {
	case report.Interrupted:
		pterm.Warning.Printf("Run interrupted after %d modules\n", t.Modules)
	case t.FailedModules > 0 || t.FailedTypes > 0:
		pterm.Warning.Printf("Run %s finished with %d failed modules and %d failed types\n", report.RunID, t.FailedModules, t.FailedTypes)
	default:
		pterm.Success.Printf("Run %s wrote %d types to %s\n", report.RunID, t.Processed, report.OutputDir)
	}
	return nil
}
