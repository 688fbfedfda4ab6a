// Package watch re-runs the pipeline on modules whose files change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
	"github.com/publicrust/DotnetDllParser/source"
)

// Handler receives the modules that changed during one debounce window,
// sorted by base name. It runs on the watcher's goroutine, so batches never
// overlap.
type Handler func(ctx context.Context, modules []source.ModuleFile)

// Watcher watches a source directory for written or created modules
type Watcher struct {
	dir      string
	pattern  string
	debounce time.Duration
	handler  Handler
	watcher  *fsnotify.Watcher
	logger   *zap.SugaredLogger
	pending  map[string]bool
}

// New starts watching dir. Changes are collected until debounce has passed
// without a new event, then handed to handler as one batch.
func New(dir, pattern string, debounce time.Duration, handler Handler, log *zap.SugaredLogger) (*Watcher, error) {
	if log == nil {
		log = logger.ComponentLogger("watch")
	}
	if pattern == "" {
		pattern = "*.dll"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "bad source pattern %q", pattern), errors.ErrInvalidConfig)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}

	return &Watcher{
		dir:      dir,
		pattern:  strings.ToLower(pattern),
		debounce: debounce,
		handler:  handler,
		watcher:  fw,
		logger:   log,
		pending:  make(map[string]bool),
	}, nil
}

// Run processes events until ctx is done, then closes the watcher.
// It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	w.logger.Infow("Watching for module changes", logger.FieldDir, w.dir, "pattern", w.pattern)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debugw("Module changed", logger.FieldPath, event.Name, "op", event.Op.String())
			w.pending[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("Watcher error", logger.FieldError, err)

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// Close stops watching without waiting for Run
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	ok, _ := filepath.Match(w.pattern, strings.ToLower(filepath.Base(event.Name)))
	return ok
}

func (w *Watcher) flush(ctx context.Context) {
	var modules []source.ModuleFile
	for path := range w.pending {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		modules = append(modules, source.NewModuleFile(path))
	}
	w.pending = make(map[string]bool)
	if len(modules) == 0 {
		return
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].BaseName < modules[j].BaseName })
	w.logger.Infow("Reprocessing changed modules", logger.FieldCount, len(modules))
	w.handler(ctx, modules)
}
