package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"Foo.cstxt":      "keep",
		"Stale.cstxt":    "remove",
		"Older.cstxt":    "remove",
		"README.md":      "not ours",
		"sub/Deep.cstxt": "subdirectories are left alone",
	})

	removed, err := Prune(dir, ".cstxt", map[string]bool{"Foo.cstxt": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Older.cstxt", "Stale.cstxt"}, removed)

	for _, name := range []string{"Foo.cstxt", "README.md", "sub/Deep.cstxt"} {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(dir, "Stale.cstxt"))
	assert.True(t, os.IsNotExist(err))
}

func TestPruneMissingDir(t *testing.T) {
	removed, err := Prune(filepath.Join(t.TempDir(), "absent"), ".cstxt", nil)
	assert.NoError(t, err)
	assert.Empty(t, removed)
}
