package output

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/publicrust/DotnetDllParser/errors"
)

// Prune removes files ending in ext directly inside moduleDir whose base
// name is not in keep. Other files and subdirectories are left alone.
// Returns the removed file names, sorted.
func Prune(moduleDir, ext string, keep map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(moduleDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to list %s", moduleDir)
	}

	var removed []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) || keep[e.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(moduleDir, e.Name())); err != nil {
			return removed, errors.Wrapf(err, "failed to remove stale %s", e.Name())
		}
		removed = append(removed, e.Name())
	}
	sort.Strings(removed)
	return removed, nil
}
