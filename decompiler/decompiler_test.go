package decompiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/publicrust/DotnetDllParser/decompiler"
	"github.com/publicrust/DotnetDllParser/decompiler/decompilertest"
	"github.com/publicrust/DotnetDllParser/errors"
)

func TestErrorMarks(t *testing.T) {
	openErr := decompiler.OpenError(errors.New("bad header"), "/dlls/Oxide.Core.dll")
	assert.True(t, decompiler.IsModuleOpen(openErr))
	assert.False(t, decompiler.IsDecompile(openErr))
	assert.Contains(t, openErr.Error(), "/dlls/Oxide.Core.dll")

	decErr := decompiler.DecompileError(errors.New("stack overflow"), "Oxide.Core.Plugin")
	assert.True(t, decompiler.IsDecompile(decErr))
	assert.False(t, decompiler.IsModuleOpen(decErr))
	assert.Equal(t, "decompile Oxide.Core.Plugin: stack overflow", decErr.Error())

	wrapped := errors.Wrap(decErr, "module Oxide.Core")
	assert.True(t, decompiler.IsDecompile(wrapped))

	addrErr := decompiler.UnaddressableError(errors.New("no candidate matched"), "Oxide.Core.Pool")
	assert.True(t, decompiler.IsUnaddressable(addrErr))
	assert.False(t, decompiler.IsDecompile(addrErr))
	assert.Equal(t, "address Oxide.Core.Pool: no candidate matched", addrErr.Error())
}

func TestFakeEngine(t *testing.T) {
	ctx := context.Background()
	engine := decompilertest.NewEngine().
		AddModule("Facepunch.Core",
			decompilertest.Authored("Facepunch", "Foo"),
			decompilertest.Failing("Facepunch", "Broken", errors.New("boom")),
			decompilertest.Unaddressable("Facepunch", "Pool")).
		FailOpen("Corrupt", errors.New("truncated"))

	var _ decompiler.Engine = engine

	m, err := engine.Open(ctx, "/dlls/Facepunch.Core.dll", decompiler.Resolver{SearchPaths: []string{"/dlls"}})
	require.NoError(t, err)

	types, err := m.Types(ctx)
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, "Foo", types[0].Name)

	text, err := m.Decompile(ctx, types[0].Handle)
	require.NoError(t, err)
	assert.Equal(t, decompilertest.SourceFor(decompilertest.Authored("Facepunch", "Foo")), text)

	_, err = m.Decompile(ctx, types[1].Handle)
	assert.True(t, decompiler.IsDecompile(err))

	_, err = m.Decompile(ctx, types[2].Handle)
	assert.True(t, decompiler.IsUnaddressable(err))
	assert.False(t, decompiler.IsDecompile(err))

	_, err = m.Decompile(ctx, "99")
	assert.True(t, decompiler.IsDecompile(err))

	require.NoError(t, m.Close())
	binding := engine.Bindings()[0]
	assert.True(t, binding.Closed())
	assert.Equal(t, []string{"Facepunch.Foo", "Facepunch.Broken", "Facepunch.Pool"}, binding.Decompiled())

	_, err = engine.Open(ctx, "/dlls/Corrupt.dll", decompiler.Resolver{})
	assert.True(t, decompiler.IsModuleOpen(err))

	_, err = engine.Open(ctx, "/dlls/Unknown.dll", decompiler.Resolver{})
	assert.True(t, decompiler.IsModuleOpen(err))

	assert.Equal(t, []string{"/dlls/Facepunch.Core.dll", "/dlls/Corrupt.dll", "/dlls/Unknown.dll"}, engine.Opened())
	assert.Equal(t, []string{"/dlls"}, engine.Resolvers()[0].SearchPaths)
}
