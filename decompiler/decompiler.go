// Package decompiler defines the narrow interface the pipeline uses to talk
// to a decompiler engine: open a module, list its types, decompile one type.
package decompiler

import (
	"context"

	"github.com/publicrust/DotnetDllParser/errors"
)

// Sentinels for the engine failure kinds. Engines mark their errors
// with these so callers can use errors.Is.
var (
	// ErrModuleOpen: the module could not be read, parsed or resolved
	ErrModuleOpen = errors.New("module open failed")

	// ErrDecompile: one type could not be decompiled; the binding stays usable
	ErrDecompile = errors.New("decompile failed")

	// ErrUnaddressable: the engine listed the type but has no name it can
	// decompile it by. Callers skip such types rather than fail them.
	ErrUnaddressable = errors.New("type not addressable")
)

// Handle is an opaque reference to a type, meaningful only to the Module
// that produced it.
type Handle string

// TypeDescriptor is one type declared in a module
type TypeDescriptor struct {
	Name     string `json:"name"`      // Simple name; may be empty
	FullName string `json:"full_name"` // Namespace-qualified, for diagnostics
	Kind     string `json:"kind,omitempty"`
	Handle   Handle `json:"-"`
}

// Resolver carries the symbol-resolution context for one module binding
type Resolver struct {
	SearchPaths []string
}

// Engine opens modules. Implementations must return a fresh Module per
// call; bindings are never shared across modules.
type Engine interface {
	Open(ctx context.Context, path string, resolver Resolver) (Module, error)
}

// Module is a binding to one opened module
type Module interface {
	Types(ctx context.Context) ([]TypeDescriptor, error)
	Decompile(ctx context.Context, h Handle) (string, error)
	Close() error
}

// OpenError marks err as a module-open failure for path
func OpenError(err error, path string) error {
	return errors.Mark(errors.Wrapf(err, "open %s", path), ErrModuleOpen)
}

// DecompileError marks err as a decompile failure for the named type
func DecompileError(err error, fullName string) error {
	return errors.Mark(errors.Wrapf(err, "decompile %s", fullName), ErrDecompile)
}

// UnaddressableError marks err as an unaddressable type
func UnaddressableError(err error, fullName string) error {
	return errors.Mark(errors.Wrapf(err, "address %s", fullName), ErrUnaddressable)
}

// IsModuleOpen reports whether err is a module-open failure
func IsModuleOpen(err error) bool { return errors.Is(err, ErrModuleOpen) }

// IsDecompile reports whether err is a single-type decompile failure
func IsDecompile(err error) bool { return errors.Is(err, ErrDecompile) }

// IsUnaddressable reports whether err means the type could not be named
// for decompilation
func IsUnaddressable(err error) bool { return errors.Is(err, ErrUnaddressable) }
