package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesIdentity(t *testing.T) {
	original := New("module is not a PE image")
	wrapped := Wrapf(original, "open %s", "Facepunch.Core.dll")

	assert.Contains(t, wrapped.Error(), "open Facepunch.Core.dll")
	assert.Contains(t, wrapped.Error(), "module is not a PE image")
	assert.True(t, Is(wrapped, original))
}

func TestMarkMakesSentinelMatch(t *testing.T) {
	sentinel := New("decompile failed")
	cause := New("exit status 70")

	marked := Mark(Wrap(cause, "ilspycmd -t Foo"), sentinel)

	assert.True(t, Is(marked, sentinel))
	assert.True(t, Is(marked, cause))
	assert.Equal(t, "ilspycmd -t Foo: exit status 70", marked.Error())
}

func TestInvalidConfigf(t *testing.T) {
	err := InvalidConfigf("output.extension %q would be compiled as source", ".cs")

	assert.True(t, Is(err, ErrInvalidConfig))
	assert.False(t, IsNotFoundError(err))
	assert.Equal(t, `output.extension ".cs" would be compiled as source`, err.Error())
}

func TestNotFound(t *testing.T) {
	err := Wrap(NewNotFoundError("run %s", "abc"), "index show")

	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(New("other")))
}

func TestHintsAndDetails(t *testing.T) {
	err := New("output root not writable")
	err = WithHint(err, "set output.dir to a writable directory")
	err = WithDetail(err, "/var/empty/Decompiled")
	err = Wrap(err, "startup")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "set output.dir to a writable directory", hints[0])
	assert.Contains(t, GetAllDetails(err), "/var/empty/Decompiled")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.Nil(t, Mark(nil, ErrNotFound))
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")
	assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")
}

func ExampleWrap() {
	err := Wrap(New("access denied"), "create output directory")
	fmt.Println(err)
	// Output: create output directory: access denied
}
