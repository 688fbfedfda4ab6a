// Package output lays decompiled types out on disk as
// root/<ModuleBaseName>/<TypeSimpleName><ext>.
package output

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/logger"
)

// Organizer owns the output root. Not safe for concurrent use; the pipeline
// drives it from a single goroutine.
type Organizer struct {
	root string
	ext  string
	log  *zap.SugaredLogger
}

// New returns an organizer writing under root with extension ext.
// An empty ext selects the default ".cstxt".
func New(root, ext string, log *zap.SugaredLogger) *Organizer {
	if ext == "" {
		ext = am.DefaultOutputExtension
	}
	if log == nil {
		log = logger.ComponentLogger("output")
	}
	return &Organizer{
		root: root,
		ext:  ext,
		log:  log,
	}
}

// Root returns the output root directory
func (o *Organizer) Root() string { return o.root }

// Extension returns the output file extension, including the dot
func (o *Organizer) Extension() string { return o.ext }

// EnsureRoot creates the output root if absent. Failure here is the one
// startup-level error of a run.
func (o *Organizer) EnsureRoot() error {
	if err := os.MkdirAll(o.root, am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create output root %s", o.root)
	}
	return nil
}

// EnsureModuleDir creates root/moduleBaseName if absent and returns it.
// Every call checks the filesystem, so a directory removed since an
// earlier call is created again.
func (o *Organizer) EnsureModuleDir(moduleBaseName string) (string, error) {
	if moduleBaseName == "" || moduleBaseName != SanitizeFileName(moduleBaseName) || moduleBaseName == "." || moduleBaseName == ".." {
		return "", errors.Newf("module name %q cannot be used as a directory name", moduleBaseName)
	}

	dir := filepath.Join(o.root, moduleBaseName)
	if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
		return "", errors.Wrapf(err, "failed to create module directory %s", dir)
	}
	o.log.Debugw("Ensured module directory", logger.FieldModule, moduleBaseName, logger.FieldDir, dir)
	return dir, nil
}

// PathFor maps a type's simple name to its output file in moduleDir
func (o *Organizer) PathFor(moduleDir, typeSimpleName string) string {
	return PathFor(moduleDir, typeSimpleName, o.ext)
}

// Write stores text verbatim at path, replacing any previous content
func (o *Organizer) Write(path, text string) error {
	if err := os.WriteFile(path, []byte(text), am.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// PathFor returns moduleDir/<sanitized name><ext>
func PathFor(moduleDir, typeSimpleName, ext string) string {
	return filepath.Join(moduleDir, SanitizeFileName(typeSimpleName)+ext)
}

// SanitizeFileName replaces characters that are illegal in file names on
// common platforms (/ \ : * ? " < > | and control characters) with '_'.
// The mapping is deterministic, so the same type always lands on the same file.
func SanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, name)
}
