package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/publicrust/DotnetDllParser/errors"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("MZ"), 0644))
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Rust.Data.dll", "Facepunch.Core.dll", "UnityEngine.DLL", "readme.txt", "Oxide.Core.pdb")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.dll"), 0755))

	modules, err := Discover(dir, "*.dll")
	require.NoError(t, err)

	var names []string
	for _, m := range modules {
		names = append(names, m.BaseName)
		assert.Equal(t, dir, filepath.Dir(m.Path))
	}
	assert.Equal(t, []string{"Facepunch.Core", "Rust.Data", "UnityEngine"}, names)
}

func TestDiscoverDefaultPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "A.dll", "B.exe")

	modules, err := Discover(dir, "")
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, ModuleFile{BaseName: "A", Path: filepath.Join(dir, "A.dll")}, modules[0])
}

func TestDiscoverErrors(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), "*.dll")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	_, err = Discover(t.TempDir(), "[")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestNewModuleFile(t *testing.T) {
	m := NewModuleFile("/srv/Managed/Assembly-CSharp.dll")
	assert.Equal(t, "Assembly-CSharp", m.BaseName)

	m = NewModuleFile("/srv/Managed/Facepunch.Steamworks.Win64.dll")
	assert.Equal(t, "Facepunch.Steamworks.Win64", m.BaseName)
}

func TestFetchLocalDirectory(t *testing.T) {
	src := t.TempDir()
	touch(t, src, "Oxide.Core.dll")
	dst := filepath.Join(t.TempDir(), "dlls")

	require.NoError(t, Fetch(context.Background(), src, dst, zaptest.NewLogger(t).Sugar()))

	modules, err := Discover(dst, "*.dll")
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "Oxide.Core", modules[0].BaseName)
}

func TestIsRemote(t *testing.T) {
	assert.False(t, IsRemote(t.TempDir()))
	assert.True(t, IsRemote("https://example.com/managed.zip"))
	assert.True(t, IsRemote("s3::https://s3.amazonaws.com/bucket/managed"))
}
