// Package ilspy implements decompiler.Engine on top of the ilspycmd command
// line front-end of ICSharpCode.Decompiler.
package ilspy

import (
	"context"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/decompiler"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
)

// listKinds selects classes, interfaces, structs, delegates and enums
const listKinds = "c,i,s,d,e"

// maxStderrDetail bounds how much engine stderr is attached to an error
const maxStderrDetail = 2048

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// Config configures the engine
type Config struct {
	Command           string        // Shell-quoted command, e.g. "ilspycmd" or "dotnet tool run ilspycmd"
	ExtraArgs         string        // Shell-quoted arguments appended to every invocation
	TypeTimeout       time.Duration // Per-type decompile timeout; zero means none
	VersionConstraint string        // Checked by Probe; empty skips the check
	Runner            Runner        // Defaults to ExecRunner
	Logger            *zap.SugaredLogger
}

// ConfigFrom maps the [decompiler] section onto Config
func ConfigFrom(cfg *am.Config) Config {
	return Config{
		Command:           cfg.Decompiler.Command,
		ExtraArgs:         cfg.Decompiler.ExtraArgs,
		TypeTimeout:       cfg.GetTypeTimeout(),
		VersionConstraint: cfg.Decompiler.VersionConstraint,
	}
}

// Engine is a decompiler.Engine driving ilspycmd
type Engine struct {
	command    []string
	extra      []string
	timeout    time.Duration
	constraint string
	runner     Runner
	log        *zap.SugaredLogger
}

// New returns an engine for cfg. The command is not executed until Probe or Open.
func New(cfg Config) (*Engine, error) {
	command, err := shellquote.Split(cfg.Command)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decompiler.command %q", cfg.Command), errors.ErrInvalidConfig)
	}
	if len(command) == 0 {
		return nil, errors.InvalidConfigf("decompiler.command is empty")
	}
	extra, err := shellquote.Split(cfg.ExtraArgs)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decompiler.extra_args %q", cfg.ExtraArgs), errors.ErrInvalidConfig)
	}

	e := &Engine{
		command:    command,
		extra:      extra,
		timeout:    cfg.TypeTimeout,
		constraint: cfg.VersionConstraint,
		runner:     cfg.Runner,
		log:        cfg.Logger,
	}
	if e.runner == nil {
		e.runner = ExecRunner{}
	}
	if e.log == nil {
		e.log = logger.ComponentLogger("ilspy")
	}
	return e, nil
}

// Probe runs `<command> --version` and checks the reported version against
// the configured constraint.
func (e *Engine) Probe(ctx context.Context) (*semver.Version, error) {
	stdout, stderr, err := e.run(ctx, "--version")
	if err != nil {
		return nil, errors.WithHintf(
			errors.WithDetail(errors.Wrapf(err, "failed to run %s", e.command[0]), trimDetail(stderr)),
			"install it with: dotnet tool install --global ilspycmd")
	}

	m := versionPattern.FindString(string(stdout))
	if m == "" {
		return nil, errors.Newf("could not find a version in %s output: %q", e.command[0], trimDetail(stdout))
	}
	v, err := semver.NewVersion(m)
	if err != nil {
		return nil, errors.Wrapf(err, "parse version %q", m)
	}

	if e.constraint != "" {
		c, err := semver.NewConstraint(e.constraint)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "version constraint %q", e.constraint), errors.ErrInvalidConfig)
		}
		if !c.Check(v) {
			return v, errors.Newf("%s %s does not satisfy %s", e.command[0], v, e.constraint)
		}
	}
	return v, nil
}

// Open lists the module's types once and returns a binding scoped to path
// and resolver. Failures are marked decompiler.ErrModuleOpen.
func (e *Engine) Open(ctx context.Context, path string, resolver decompiler.Resolver) (decompiler.Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, decompiler.OpenError(err, path)
	}
	if info.IsDir() {
		return nil, decompiler.OpenError(errors.New("is a directory"), path)
	}

	m := &module{
		engine:   e,
		path:     path,
		refs:     referenceArgs(resolver),
		resolved: make(map[decompiler.Handle]string),
		claimed:  make(map[string]decompiler.Handle),
	}

	args := append([]string{path, "-l", listKinds}, m.refs...)
	stdout, stderr, err := e.run(ctx, args...)
	if err != nil {
		return nil, decompiler.OpenError(errors.WithDetail(err, trimDetail(stderr)), path)
	}
	m.types = parseListing(stdout)
	e.log.Debugw("Listed module types", logger.FieldPath, path, logger.FieldCount, len(m.types))
	return m, nil
}

// run executes the engine with args after the configured command and extra args
func (e *Engine) run(ctx context.Context, args ...string) ([]byte, []byte, error) {
	argv := make([]string, 0, len(e.command)+len(e.extra)+len(args))
	argv = append(argv, e.command...)
	argv = append(argv, args...)
	argv = append(argv, e.extra...)

	e.log.Debugw("Running decompiler", "command", shellquote.Join(argv...))
	stdout, stderr, err := e.runner.Run(ctx, argv)
	if len(stderr) > 0 {
		e.log.Debugw("Decompiler stderr", "stderr", trimDetail(stderr))
	}
	return stdout, stderr, err
}

// referenceArgs turns resolver search paths into -r flags
func referenceArgs(r decompiler.Resolver) []string {
	var args []string
	for _, p := range r.SearchPaths {
		if p == "" {
			continue
		}
		args = append(args, "-r", p)
	}
	return args
}

func trimDetail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxStderrDetail {
		s = s[:maxStderrDetail] + "..."
	}
	return s
}
