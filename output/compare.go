package output

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/publicrust/DotnetDllParser/errors"
)

// CompareResult holds the result of comparing a fresh run with an existing tree
type CompareResult struct {
	UpToDate bool     `json:"up_to_date"`
	Changed  []string `json:"changed,omitempty"` // present in both, content differs
	Missing  []string `json:"missing,omitempty"` // produced by the fresh run, absent from the existing tree
	Stale    []string `json:"stale,omitempty"`   // present in the existing tree only
}

// Compare compares the type files (ext) under generatedDir with those under
// existingDir. Paths in the result are slash-separated and relative to the
// roots, e.g. "Facepunch.Core/Foo.cstxt".
func Compare(generatedDir, existingDir, ext string) (*CompareResult, error) {
	generated, err := listTypeFiles(generatedDir, ext)
	if err != nil {
		return nil, err
	}
	existing, err := listTypeFiles(existingDir, ext)
	if err != nil {
		return nil, err
	}

	result := &CompareResult{}
	for rel := range generated {
		if !existing[rel] {
			result.Missing = append(result.Missing, rel)
			continue
		}
		different, err := filesAreDifferent(
			filepath.Join(generatedDir, filepath.FromSlash(rel)),
			filepath.Join(existingDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		if different {
			result.Changed = append(result.Changed, rel)
		}
	}
	for rel := range existing {
		if !generated[rel] {
			result.Stale = append(result.Stale, rel)
		}
	}

	sort.Strings(result.Changed)
	sort.Strings(result.Missing)
	sort.Strings(result.Stale)
	result.UpToDate = len(result.Changed) == 0 && len(result.Missing) == 0 && len(result.Stale) == 0
	return result, nil
}

// listTypeFiles returns the relative paths of files ending in ext under root.
// A missing root is an empty tree.
func listTypeFiles(root, ext string) (map[string]bool, error) {
	files := make(map[string]bool)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return files, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", root)
	}
	return files, nil
}

// filesAreDifferent compares two files byte for byte
func filesAreDifferent(file1, file2 string) (bool, error) {
	content1, err := os.ReadFile(file1)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", file1)
	}
	content2, err := os.ReadFile(file2)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", file2)
	}
	return !bytes.Equal(content1, content2), nil
}
