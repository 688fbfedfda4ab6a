// Package source finds the compiled modules a run works on, optionally
// fetching them from a remote location first.
package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/publicrust/DotnetDllParser/errors"
)

// ModuleFile identifies one compiled module on disk
type ModuleFile struct {
	BaseName string `json:"module"` // File name without extension; the output subdirectory name
	Path     string `json:"path"`
}

// NewModuleFile derives the base name from path
func NewModuleFile(path string) ModuleFile {
	name := filepath.Base(path)
	return ModuleFile{
		BaseName: strings.TrimSuffix(name, filepath.Ext(name)),
		Path:     path,
	}
}

// Discover lists files directly inside dir whose names match the glob
// pattern, case-insensitively, sorted by base name. Subdirectories are not
// searched.
func Discover(dir, pattern string) ([]ModuleFile, error) {
	if pattern == "" {
		pattern = "*.dll"
	}
	lowered := strings.ToLower(pattern)
	if _, err := filepath.Match(lowered, ""); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "bad source pattern %q", pattern), errors.ErrInvalidConfig)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(
				errors.NewNotFoundError("source directory %s does not exist", dir),
				"set source.dir or pass --source")
		}
		return nil, errors.Wrapf(err, "failed to read source directory %s", dir)
	}

	var modules []ModuleFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, _ := filepath.Match(lowered, strings.ToLower(e.Name()))
		if !ok {
			continue
		}
		modules = append(modules, NewModuleFile(filepath.Join(dir, e.Name())))
	}

	sort.Slice(modules, func(i, j int) bool {
		if modules[i].BaseName == modules[j].BaseName {
			return modules[i].Path < modules[j].Path
		}
		return modules[i].BaseName < modules[j].BaseName
	})
	return modules, nil
}
