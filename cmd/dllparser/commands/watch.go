package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/publicrust/DotnetDllParser/display"
	"github.com/publicrust/DotnetDllParser/logger"
	"github.com/publicrust/DotnetDllParser/pipeline"
	"github.com/publicrust/DotnetDllParser/source"
	"github.com/publicrust/DotnetDllParser/watch"
)

var (
	watchFlags   runFlags
	watchInitial bool
)

// WatchCmd re-decompiles modules as they change
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-decompile modules whenever they change",
	Long: `Watch the source directory and run the pipeline on every module that is
written or created. Changes arriving within watch.debounce_ms of each other
are processed as one run. Stop with Ctrl-C.

Examples:
  dllparser watch -s ./Managed -o ./curated
  dllparser watch --initial          # Full run first, then watch`,
	RunE: runWatch,
}

func init() {
	watchFlags.register(WatchCmd)
	WatchCmd.Flags().BoolVar(&watchInitial, "initial", false, "Process every module once before watching")
	WatchCmd.Flags().Bool("json", false, "Output each run report as JSON")
}

func runWatch(cmd *cobra.Command, args []string) error {
	useJSON := display.ShouldOutputJSON(cmd)
	log := logger.ComponentLogger("watch")

	cfg, err := loadRunConfig(cmd, &watchFlags)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := newEngine(ctx, cfg, watchFlags.skipProbe, log)
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
	if err := p.Organizer().EnsureRoot(); err != nil {
		return err
	}

	handle := func(ctx context.Context, modules []source.ModuleFile) {
		report, err := p.Run(ctx, modules)
		if err != nil && !report.Interrupted {
			log.Errorw("Run failed", logger.FieldError, err)
			return
		}
		if store != nil {
			saveRun(store, report, log)
		}
		if err := renderRun(cmd, report, useJSON); err != nil {
			log.Warnw("Failed to render run", logger.FieldError, err)
		}
	}

	if watchInitial {
		modules, err := discoverModules(ctx, cfg, log)
		if err != nil {
			return err
		}
		handle(ctx, modules)
	}

	w, err := watch.New(cfg.Source.Dir, cfg.GetSourcePattern(), cfg.GetDebounce(), handle, log)
	if err != nil {
		return err
	}
	if !useJSON {
		pterm.Info.Printf("Watching %s (Ctrl-C to stop)\n", cfg.Source.Dir)
	}
	return w.Run(ctx)
}
