package commands

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/db"
	"github.com/publicrust/DotnetDllParser/decompiler/ilspy"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/index"
	"github.com/publicrust/DotnetDllParser/logger"
	"github.com/publicrust/DotnetDllParser/source"
)

// runFlags are shared by every command that drives the pipeline
type runFlags struct {
	source     string
	output     string
	collisions string
	prune      bool
	skipProbe  bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "Directory of compiled modules (overrides source.dir)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Curated output root (overrides output.dir)")
	cmd.Flags().StringVar(&f.collisions, "collisions", "", "Same-name type policy: qualify, overwrite, fail (overrides output.collisions)")
	cmd.Flags().BoolVar(&f.prune, "prune", false, "Remove stale type files after each completed module")
	cmd.Flags().BoolVar(&f.skipProbe, "skip-probe", false, "Do not check the decompiler version before running")
}

// apply copies cfg and overlays the flags the user actually set
func (f *runFlags) apply(cmd *cobra.Command, cfg *am.Config) *am.Config {
	c := *cfg
	if cmd.Flags().Changed("source") {
		c.Source.Dir = f.source
	}
	if cmd.Flags().Changed("output") {
		c.Output.Dir = f.output
	}
	if cmd.Flags().Changed("collisions") {
		c.Output.Collisions = f.collisions
	}
	if cmd.Flags().Changed("prune") {
		c.Output.Prune = f.prune
	}
	return &c
}

// loadRunConfig loads the layered configuration, applies flag overrides and validates
func loadRunConfig(cmd *cobra.Command, f *runFlags) (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	cfg = f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func verbosityOf(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newEngine builds the ilspy engine and, unless skipped, checks its version
func newEngine(ctx context.Context, cfg *am.Config, skipProbe bool, log *zap.SugaredLogger) (*ilspy.Engine, error) {
	engine, err := ilspy.New(ilspy.ConfigFrom(cfg))
	if err != nil {
		return nil, err
	}
	if skipProbe {
		return engine, nil
	}

	v, err := engine.Probe(ctx)
	if err != nil {
		return nil, err
	}
	log.Debugw("Decompiler probed", "version", v.String())
	return engine, nil
}

// discoverModules fetches source.url into source.dir when set, then lists the modules
func discoverModules(ctx context.Context, cfg *am.Config, log *zap.SugaredLogger) ([]source.ModuleFile, error) {
	if cfg.Source.URL != "" {
		if err := source.Fetch(ctx, cfg.Source.URL, cfg.Source.Dir, log); err != nil {
			return nil, err
		}
	}

	modules, err := source.Discover(cfg.Source.Dir, cfg.GetSourcePattern())
	if err != nil {
		return nil, err
	}
	log.Infow("Discovered modules", logger.FieldCount, len(modules), logger.FieldDir, cfg.Source.Dir)
	return modules, nil
}

// openIndex opens the run ledger when index.enabled is set. The returned
// close func is never nil.
func openIndex(cfg *am.Config, log *zap.SugaredLogger) (*index.Store, func(), error) {
	if !cfg.Index.Enabled {
		return nil, func() {}, nil
	}
	return openIndexAt(cfg.GetIndexPath(), log)
}

func openIndexAt(path string, log *zap.SugaredLogger) (*index.Store, func(), error) {
	database, err := db.OpenWithMigrations(path, log)
	if err != nil {
		return nil, func() {}, errors.Wrapf(err, "failed to open index %s", path)
	}
	return index.NewStore(database, log), closer(database, log), nil
}

func closer(database *sql.DB, log *zap.SugaredLogger) func() {
	return func() {
		if err := database.Close(); err != nil {
			log.Warnw("Failed to close index", logger.FieldError, err)
		}
	}
}

