package ilspy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/decompiler"
	"github.com/publicrust/DotnetDllParser/errors"
)

// scriptedRunner answers by the first argument after the command
type scriptedRunner struct {
	calls    [][]string
	deadline []bool
	respond  func(argv []string) (string, string, error)
}

func (r *scriptedRunner) Run(ctx context.Context, argv []string) ([]byte, []byte, error) {
	r.calls = append(r.calls, argv)
	_, hasDeadline := ctx.Deadline()
	r.deadline = append(r.deadline, hasDeadline)
	stdout, stderr, err := r.respond(argv)
	return []byte(stdout), []byte(stderr), err
}

// listing is `ilspycmd -l c,i,s,d,e` output: type-system full names, nested
// types joined with '.', no generic arity
const listing = `Class Facepunch.Core.Foo
Class Facepunch.Core.Foo.<>c
Struct Facepunch.Core.Foo.<Run>d__3
Interface Facepunch.Core.IBar
Class Facepunch.Core.Outer
Class Facepunch.Core.Outer.Inner
Class Facepunch.Core.Pool
Class Facepunch.Core.Pool
warning: could not resolve UnityEngine
Enum Facepunch.Core.Mode
`

// notFound is what ilspycmd -t prints for a name with no type definition
func notFound(name string) (string, string, error) {
	return "", "System.InvalidOperationException: Could not find type definition " + name + " in type system.", errors.New("exit status 134")
}

func newModuleFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Facepunch.Core.dll")
	require.NoError(t, os.WriteFile(path, []byte("MZ"), 0644))
	return path
}

func newTestEngine(t *testing.T, cfg Config, r *scriptedRunner) *Engine {
	t.Helper()
	cfg.Runner = r
	cfg.Logger = zaptest.NewLogger(t).Sugar()
	if cfg.Command == "" {
		cfg.Command = "ilspycmd"
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestOpenListsTypes(t *testing.T) {
	path := newModuleFile(t)
	r := &scriptedRunner{respond: func(argv []string) (string, string, error) {
		return listing, "", nil
	}}
	e := newTestEngine(t, Config{Command: "dotnet tool run ilspycmd", ExtraArgs: "--no-dead-code"}, r)

	m, err := e.Open(context.Background(), path, decompiler.Resolver{SearchPaths: []string{"/refs/managed", ""}})
	require.NoError(t, err)
	defer m.Close()

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{
		"dotnet", "tool", "run", "ilspycmd",
		path, "-l", "c,i,s,d,e", "-r", "/refs/managed",
		"--no-dead-code",
	}, r.calls[0])

	types, err := m.Types(context.Background())
	require.NoError(t, err)

	var names, fulls []string
	for _, td := range types {
		names = append(names, td.Name)
		fulls = append(fulls, td.FullName)
	}
	assert.Equal(t, []string{"Foo", "<>c", "<Run>d__3", "IBar", "Outer", "Inner", "Pool", "Pool", "Mode"}, names)
	assert.Equal(t, "Facepunch.Core.Outer.Inner", fulls[5], "full names are kept as listed")
	assert.Equal(t, "struct", types[2].Kind)
	assert.Equal(t, decompiler.Handle("Facepunch.Core.Foo"), types[0].Handle)
}

func TestParseListingHandles(t *testing.T) {
	types := parseListing([]byte(listing))
	handles := make(map[string][]decompiler.Handle)
	for _, td := range types {
		handles[td.FullName] = append(handles[td.FullName], td.Handle)
	}

	tests := []struct {
		fullName string
		want     []decompiler.Handle
	}{
		{"Facepunch.Core.Foo", []decompiler.Handle{"Facepunch.Core.Foo"}},
		{"Facepunch.Core.Foo.<>c", []decompiler.Handle{"Facepunch.Core.Foo+<>c"}},
		{"Facepunch.Core.Foo.<Run>d__3", []decompiler.Handle{"Facepunch.Core.Foo+<Run>d__3"}},
		{"Facepunch.Core.Outer", []decompiler.Handle{"Facepunch.Core.Outer"}},
		{"Facepunch.Core.Outer.Inner", []decompiler.Handle{"Facepunch.Core.Outer+Inner"}},
		{"Facepunch.Core.Pool", []decompiler.Handle{"Facepunch.Core.Pool", "Facepunch.Core.Pool#1"}},
	}
	for _, tt := range tests {
		t.Run(tt.fullName, func(t *testing.T) {
			assert.Equal(t, tt.want, handles[tt.fullName])
		})
	}
}

func TestReflectionName(t *testing.T) {
	listed := map[string]bool{
		"NS.Outer":       true,
		"NS.Outer.Inner": true,
		"NS.<Tick>d__1":  true,
	}
	tests := []struct {
		fullName string
		want     string
	}{
		{"NS.Plain", "NS.Plain"},
		{"NS.Outer.Inner", "NS.Outer+Inner"},
		{"NS.Outer.Inner.Deep", "NS.Outer+Inner+Deep"},
		{"NS.<Tick>d__1.Nested", "NS.<Tick>d__1+Nested"},
		{"NS.<Foo.Bar>d__2", "NS.<Foo.Bar>d__2"},
		{"Global", "Global"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.fullName, func(t *testing.T) {
			assert.Equal(t, tt.want, reflectionName(tt.fullName, listed))
		})
	}
}

func TestOpenFailures(t *testing.T) {
	r := &scriptedRunner{respond: func(argv []string) (string, string, error) {
		return "", "BadImageFormatException: not a PE file", errors.New("exit status 70")
	}}
	e := newTestEngine(t, Config{}, r)

	t.Run("missing file", func(t *testing.T) {
		_, err := e.Open(context.Background(), filepath.Join(t.TempDir(), "nope.dll"), decompiler.Resolver{})
		require.Error(t, err)
		assert.True(t, decompiler.IsModuleOpen(err))
	})

	t.Run("directory", func(t *testing.T) {
		_, err := e.Open(context.Background(), t.TempDir(), decompiler.Resolver{})
		require.Error(t, err)
		assert.True(t, decompiler.IsModuleOpen(err))
	})

	t.Run("engine rejects module", func(t *testing.T) {
		_, err := e.Open(context.Background(), newModuleFile(t), decompiler.Resolver{})
		require.Error(t, err)
		assert.True(t, decompiler.IsModuleOpen(err))
		assert.Contains(t, errors.FlattenDetails(err), "BadImageFormatException")
	})
}

func TestDecompile(t *testing.T) {
	path := newModuleFile(t)
	r := &scriptedRunner{respond: func(argv []string) (string, string, error) {
		if argv[2] == "-l" {
			return listing, "", nil
		}
		if argv[3] == "Facepunch.Core.IBar" {
			return "", "System.NullReferenceException", errors.New("exit status 1")
		}
		return "namespace Facepunch.Core;\n\npublic class Foo\n{\n}\n", "", nil
	}}
	e := newTestEngine(t, Config{TypeTimeout: time.Minute}, r)

	m, err := e.Open(context.Background(), path, decompiler.Resolver{SearchPaths: []string{filepath.Dir(path)}})
	require.NoError(t, err)

	text, err := m.Decompile(context.Background(), "Facepunch.Core.Foo")
	require.NoError(t, err)
	assert.Equal(t, "namespace Facepunch.Core;\n\npublic class Foo\n{\n}\n", text)
	assert.Equal(t, []string{"ilspycmd", path, "-t", "Facepunch.Core.Foo", "-r", filepath.Dir(path)}, r.calls[1])
	assert.True(t, r.deadline[1], "type timeout applies to decompile")
	assert.False(t, r.deadline[0], "listing is not bounded by the type timeout")

	_, err = m.Decompile(context.Background(), "Facepunch.Core.IBar")
	require.Error(t, err)
	assert.True(t, decompiler.IsDecompile(err))
	assert.Contains(t, err.Error(), "Facepunch.Core.IBar")

	// the binding survives a failed type
	_, err = m.Decompile(context.Background(), "Facepunch.Core.Foo")
	assert.NoError(t, err)

	require.NoError(t, m.Close())
	_, err = m.Decompile(context.Background(), "Facepunch.Core.Foo")
	assert.Error(t, err)
	_, err = m.Types(context.Background())
	assert.Error(t, err)
}

func TestDecompileResolvesReflectionNames(t *testing.T) {
	path := newModuleFile(t)
	defined := map[string]bool{
		"Facepunch.Core.Outer+Inner": true,
		"Facepunch.Core.Pool`1":      true,
		"Facepunch.Core.Pool`2":      true,
	}
	r := &scriptedRunner{respond: func(argv []string) (string, string, error) {
		if argv[2] == "-l" {
			return listing, "", nil
		}
		if !defined[argv[3]] {
			return notFound(argv[3])
		}
		return "// " + argv[3] + "\n", "", nil
	}}
	e := newTestEngine(t, Config{}, r)

	m, err := e.Open(context.Background(), path, decompiler.Resolver{})
	require.NoError(t, err)
	defer m.Close()
	types, err := m.Types(context.Background())
	require.NoError(t, err)

	byName := func(fullName string, occurrence int) decompiler.Handle {
		for _, td := range types {
			if td.FullName != fullName {
				continue
			}
			if occurrence == 0 {
				return td.Handle
			}
			occurrence--
		}
		t.Fatalf("%s not listed", fullName)
		return ""
	}

	tests := []struct {
		name  string
		h     decompiler.Handle
		want  string
		tried []string
	}{
		{
			name:  "nested type",
			h:     byName("Facepunch.Core.Outer.Inner", 0),
			want:  "// Facepunch.Core.Outer+Inner\n",
			tried: []string{"Facepunch.Core.Outer+Inner"},
		},
		{
			name:  "generic type",
			h:     byName("Facepunch.Core.Pool", 0),
			want:  "// Facepunch.Core.Pool`1\n",
			tried: []string{"Facepunch.Core.Pool", "Facepunch.Core.Pool`1"},
		},
		{
			name:  "second generic with the same listed name",
			h:     byName("Facepunch.Core.Pool", 1),
			want:  "// Facepunch.Core.Pool`2\n",
			tried: []string{"Facepunch.Core.Pool`2"},
		},
		{
			name:  "resolved handle is reused",
			h:     byName("Facepunch.Core.Pool", 0),
			want:  "// Facepunch.Core.Pool`1\n",
			tried: []string{"Facepunch.Core.Pool`1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(r.calls)
			text, err := m.Decompile(context.Background(), tt.h)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)

			var tried []string
			for _, argv := range r.calls[before:] {
				tried = append(tried, argv[3])
			}
			assert.Equal(t, tt.tried, tried)
		})
	}
}

func TestDecompileUnaddressable(t *testing.T) {
	path := newModuleFile(t)
	r := &scriptedRunner{respond: func(argv []string) (string, string, error) {
		if argv[2] == "-l" {
			return "Class Facepunch.Core.Outer\nClass Facepunch.Core.Outer.Entry\n", "", nil
		}
		return notFound(argv[3])
	}}
	e := newTestEngine(t, Config{}, r)

	m, err := e.Open(context.Background(), path, decompiler.Resolver{})
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Decompile(context.Background(), "Facepunch.Core.Outer+Entry")
	require.Error(t, err)
	assert.True(t, decompiler.IsUnaddressable(err))
	assert.False(t, decompiler.IsDecompile(err), "an unaddressable type is not a decompile failure")
	assert.Contains(t, err.Error(), "Facepunch.Core.Outer+Entry")
	assert.Len(t, r.calls, 2+MaxGenericArity, "listing, bare name, then each arity")
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name       string
		occurrence int
		want       []string
	}{
		{"NS.Pool", 0, []string{"NS.Pool", "NS.Pool`1", "NS.Pool`2", "NS.Pool`3", "NS.Pool`4"}},
		{"NS.Pool", 1, []string{"NS.Pool`1", "NS.Pool`2", "NS.Pool`3", "NS.Pool`4"}},
		{"NS.List`1", 0, []string{"NS.List`1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, candidates(tt.name, tt.occurrence))
		})
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		runErr     error
		constraint string
		wantErr    string
		wantVer    string
	}{
		{name: "satisfied", output: "ilspycmd: 8.2.0.7535\nICSharpCode.Decompiler: 8.2.0.7535\n", constraint: ">= 7.0.0", wantVer: "8.2.0"},
		{name: "too old", output: "ilspycmd: 6.1.0.5902\n", constraint: ">= 7.0.0", wantErr: "does not satisfy", wantVer: "6.1.0"},
		{name: "no constraint", output: "9.0.0", wantVer: "9.0.0"},
		{name: "no version", output: "usage: ilspycmd ...", wantErr: "could not find a version"},
		{name: "not installed", runErr: errors.New("executable file not found in $PATH"), wantErr: "failed to run ilspycmd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{respond: func(argv []string) (string, string, error) {
				assert.Equal(t, []string{"ilspycmd", "--version"}, argv)
				return tt.output, "", tt.runErr
			}}
			e := newTestEngine(t, Config{VersionConstraint: tt.constraint}, r)

			v, err := e.Probe(context.Background())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.wantVer != "" {
				require.NotNil(t, v)
				assert.Equal(t, tt.wantVer, v.String())
			}
		})
	}
}

func TestNewRejectsBadCommand(t *testing.T) {
	_, err := New(Config{Command: `ilspycmd "unterminated`})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	_, err = New(Config{Command: "   "})
	require.Error(t, err)

	_, err = New(Config{Command: "ilspycmd", ExtraArgs: `'open`})
	require.Error(t, err)
}

func TestConfigFrom(t *testing.T) {
	cfg := am.DefaultConfig()
	cfg.Decompiler.TypeTimeoutSeconds = 90
	cfg.Decompiler.ExtraArgs = "--nested-directories"

	c := ConfigFrom(cfg)
	assert.Equal(t, "ilspycmd", c.Command)
	assert.Equal(t, "--nested-directories", c.ExtraArgs)
	assert.Equal(t, 90*time.Second, c.TypeTimeout)
	assert.Equal(t, ">= 7.0.0", c.VersionConstraint)
}

func TestSimpleName(t *testing.T) {
	tests := map[string]string{
		"Facepunch.Core.Foo":        "Foo",
		"Foo":                       "Foo",
		"Outer+Inner":               "Inner",
		"A.B.Outer+Inner+Deep":      "Deep",
		"System.Collections.List`1": "List",
		"NS.Dict`2+Entry":           "Entry",
		"NS.<>c__DisplayClass0_0":   "<>c__DisplayClass0_0",
		"NS.<Run>d__3":              "<Run>d__3",
		"NS.<Foo.Bar>d__1":          "<Foo.Bar>d__1",
		"<Module>":                  "<Module>",
		"NS.":                       "",
		"":                          "",
	}
	for full, want := range tests {
		assert.Equal(t, want, SimpleName(full), full)
	}
}

func TestParseListingSkipsNoise(t *testing.T) {
	out := "\n  Class A.B\nUnhandled exception.\nDelegate A.Callback\nClass\n"
	types := parseListing([]byte(out))
	require.Len(t, types, 3)
	assert.Equal(t, "B", types[0].Name)
	assert.Equal(t, "Callback", types[1].Name)
	assert.Equal(t, "", types[2].Name, "a kind with no name is kept with an empty name")
	assert.True(t, strings.HasPrefix(string(types[1].Handle), "A."))
}
