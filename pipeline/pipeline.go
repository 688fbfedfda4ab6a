// Package pipeline drives selective batch decompilation: filter modules by
// importance, list their types, drop compiler-generated ones and write the
// rest through the output organizer.
//
// Failures are isolated. A type that fails is recorded and the module goes
// on; a module that fails to open is recorded and the run goes on. Only a
// missing output root stops a run before it starts.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/classify"
	"github.com/publicrust/DotnetDllParser/decompiler"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/importance"
	"github.com/publicrust/DotnetDllParser/logger"
	"github.com/publicrust/DotnetDllParser/output"
	"github.com/publicrust/DotnetDllParser/source"
)

// ProgressInterval defines how often to log progress while writing types
const ProgressInterval = 500

// Pipeline processes modules one at a time. It is not safe for concurrent use.
type Pipeline struct {
	engine         decompiler.Engine
	filter         *importance.Filter
	matcher        classify.Matcher
	organizer      *output.Organizer
	policy         string
	prune          bool
	referencePaths []string
	sourceDir      string
	logger         *zap.SugaredLogger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.logger = log
		}
	}
}

// WithCollisionPolicy sets how same-named types in one module are stored
func WithCollisionPolicy(policy string) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// WithPrune removes stale output files after each completed module
func WithPrune(prune bool) Option {
	return func(p *Pipeline) { p.prune = prune }
}

// WithReferencePaths adds directories the engine searches for dependencies
func WithReferencePaths(paths ...string) Option {
	return func(p *Pipeline) { p.referencePaths = append(p.referencePaths, paths...) }
}

// WithSourceDir records the scanned directory in run reports
func WithSourceDir(dir string) Option {
	return func(p *Pipeline) { p.sourceDir = dir }
}

// New creates a pipeline from its collaborators
func New(engine decompiler.Engine, filter *importance.Filter, matcher classify.Matcher, organizer *output.Organizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:    engine,
		filter:    filter,
		matcher:   matcher,
		organizer: organizer,
		policy:    am.CollisionQualify,
		logger:    logger.ComponentLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromConfig builds the filter, classifier and organizer described by cfg
// around engine. Options are applied after the configured ones.
func FromConfig(cfg *am.Config, engine decompiler.Engine, opts ...Option) (*Pipeline, error) {
	classifier, err := classify.FromConfig(cfg.Classifier)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build classifier")
	}
	matcher, err := classify.Build(classifier, cfg.Classifier.CacheSize)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithCollisionPolicy(cfg.GetCollisionPolicy()),
		WithPrune(cfg.Output.Prune),
		WithReferencePaths(cfg.Decompiler.ReferencePaths...),
		WithSourceDir(cfg.Source.Dir),
	}

	return New(engine,
		importance.NewFilter(cfg.Filter.ImportantPrefixes),
		matcher,
		output.New(cfg.Output.Dir, cfg.GetOutputExtension(), nil),
		append(base, opts...)...), nil
}

// Organizer returns the output organizer the pipeline writes through
func (p *Pipeline) Organizer() *output.Organizer { return p.organizer }

// Run processes modules in order and returns the run report. The context
// is checked between modules; on cancellation the partial report is
// returned, marked Interrupted, together with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, modules []source.ModuleFile) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		SourceDir: p.sourceDir,
		OutputDir: p.organizer.Root(),
		Modules:   make([]ModuleReport, 0, len(modules)),
		StartTime: time.Now(),
	}
	ctx = logger.WithRunID(ctx, report.RunID)
	log := logger.LoggerFromContext(ctx, p.logger)

	if err := p.organizer.EnsureRoot(); err != nil {
		report.EndTime = time.Now()
		return report, err
	}

	log.Infow("Run started", logger.FieldCount, len(modules), logger.FieldDir, p.organizer.Root())

	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			report.Interrupted = true
			report.EndTime = time.Now()
			log.Warnw("Run interrupted", "remaining", len(modules)-len(report.Modules))
			return report, err
		}
		report.Modules = append(report.Modules, p.processModule(ctx, log, m))
	}

	report.EndTime = time.Now()
	t := report.Totals()
	log.Infow("Run completed",
		"modules", t.Modules,
		logger.FieldProcessed, t.Processed,
		logger.FieldSkippedGenerated, t.SkippedGenerated,
		logger.FieldFailed, t.FailedTypes,
		logger.FieldDurationMS, report.EndTime.Sub(report.StartTime).Milliseconds())
	return report, nil
}

// ProcessModule runs a single module through the pipeline. The output root
// must already exist.
func (p *Pipeline) ProcessModule(ctx context.Context, m source.ModuleFile) ModuleReport {
	return p.processModule(ctx, logger.LoggerFromContext(ctx, p.logger), m)
}

func (p *Pipeline) processModule(ctx context.Context, log *zap.SugaredLogger, m source.ModuleFile) ModuleReport {
	rep := ModuleReport{
		Module:    m.BaseName,
		Path:      m.Path,
		StartTime: time.Now(),
	}
	log = logger.ChildLogger(log, logger.FieldModule, m.BaseName)

	if !p.filter.ShouldProcess(m.BaseName) {
		rep.Status = StatusSkippedUnimportant
		rep.EndTime = time.Now()
		log.Debugw("Module skipped as unimportant")
		return rep
	}

	fail := func(err error) ModuleReport {
		rep.Status = StatusFailed
		rep.Error = err.Error()
		rep.EndTime = time.Now()
		log.Errorw("Module failed", logger.FieldPath, m.Path, logger.FieldError, err)
		return rep
	}

	dir, err := p.organizer.EnsureModuleDir(m.BaseName)
	if err != nil {
		return fail(err)
	}

	binding, err := p.engine.Open(ctx, m.Path, p.resolverFor(m))
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := binding.Close(); err != nil {
			log.Warnw("Failed to close module binding", logger.FieldError, err)
		}
	}()

	types, err := binding.Types(ctx)
	if err != nil {
		return fail(errors.Wrapf(err, "failed to list types of %s", m.BaseName))
	}
	log.Debugw("Listed types", logger.FieldCount, len(types))

	claims := output.NewClaims(p.policy)
	// Prune keeps files written this run and any file a failed or
	// unaddressable type could own from an earlier run.
	keep := make(map[string]bool)
	keepStems := func(td decompiler.TypeDescriptor) {
		for _, stem := range output.Stems(td.Name, td.FullName) {
			keep[stem+p.organizer.Extension()] = true
		}
	}

	for _, td := range types {
		// Nameless types are counted but never classified or logged
		if td.Name == "" {
			rep.SkippedEmpty++
			rep.Outcomes = append(rep.Outcomes, TypeOutcome{FullName: td.FullName, Status: TypeSkippedEmpty})
			continue
		}

		if rule, generated := p.matcher.Match(td.Name); generated {
			rep.SkippedGenerated++
			rep.Outcomes = append(rep.Outcomes, TypeOutcome{
				Name: td.Name, FullName: td.FullName, Status: TypeSkippedGenerated, Rule: rule,
			})
			continue
		}

		path, err := p.writeType(ctx, binding, dir, claims, td)
		switch {
		case err == nil:
		case decompiler.IsUnaddressable(err):
			keepStems(td)
			rep.SkippedUnaddressable++
			rep.Outcomes = append(rep.Outcomes, TypeOutcome{
				Name: td.Name, FullName: td.FullName, Status: TypeSkippedUnaddressable, Error: err.Error(),
			})
			log.Warnw("Type skipped, engine cannot address it", logger.FieldFullName, td.FullName, logger.FieldError, err)
			continue
		default:
			keepStems(td)
			rep.Failed = append(rep.Failed, TypeFailure{FullName: td.FullName, Error: err.Error()})
			rep.Outcomes = append(rep.Outcomes, TypeOutcome{
				Name: td.Name, FullName: td.FullName, Status: TypeFailed, Error: err.Error(),
			})
			log.Warnw("Type failed", logger.FieldFullName, td.FullName, logger.FieldError, err)
			continue
		}

		rep.Processed++
		keep[filepath.Base(path)] = true
		rep.Outcomes = append(rep.Outcomes, TypeOutcome{
			Name: td.Name, FullName: td.FullName, Status: TypeWritten, Path: path,
		})
		if rep.Processed%ProgressInterval == 0 {
			log.Infow("Progress", logger.FieldProcessed, rep.Processed, logger.FieldCount, len(types))
		}
	}
	rep.Collisions = claims.Collisions()

	if p.prune {
		removed, err := output.Prune(dir, p.organizer.Extension(), keep)
		rep.Pruned = removed
		if err != nil {
			log.Warnw("Failed to prune stale files", logger.FieldDir, dir, logger.FieldError, err)
		} else if len(removed) > 0 {
			log.Infow("Pruned stale files", logger.FieldCount, len(removed))
		}
	}

	rep.Status = StatusCompleted
	rep.EndTime = time.Now()
	log.Infow("Module completed",
		logger.FieldProcessed, rep.Processed,
		logger.FieldSkippedGenerated, rep.SkippedGenerated,
		logger.FieldFailed, len(rep.Failed),
		"unaddressable", rep.SkippedUnaddressable,
		logger.FieldDurationMS, rep.Duration().Milliseconds())
	return rep
}

// writeType decompiles one type and stores it, returning the written path
func (p *Pipeline) writeType(ctx context.Context, binding decompiler.Module, dir string, claims *output.Claims, td decompiler.TypeDescriptor) (string, error) {
	text, err := binding.Decompile(ctx, td.Handle)
	if err != nil {
		return "", err
	}

	stem, err := claims.Claim(td.Name, td.FullName)
	if err != nil {
		return "", err
	}

	path := p.organizer.PathFor(dir, stem)
	if err := p.organizer.Write(path, text); err != nil {
		return "", err
	}
	return path, nil
}

// resolverFor scopes symbol resolution to one module: its own directory
// first, then the configured reference paths.
func (p *Pipeline) resolverFor(m source.ModuleFile) decompiler.Resolver {
	paths := make([]string, 0, 1+len(p.referencePaths))
	paths = append(paths, filepath.Dir(m.Path))
	for _, rp := range p.referencePaths {
		if rp != "" {
			paths = append(paths, rp)
		}
	}
	return decompiler.Resolver{SearchPaths: paths}
}
