// Package errors provides error handling for dllparser.
//
// It re-exports github.com/cockroachdb/errors so every package gets stack
// traces, hints and marker-based identity without importing the library
// directly:
//
//	if err := module.Decompile(ctx, h); err != nil {
//	    return errors.Wrapf(err, "decompile %s", fullName)
//	}
//
//	// Tag an error with a sentinel so callers can test it with Is
//	return errors.Mark(errors.Wrap(err, "open module"), decompiler.ErrModuleOpen)
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Mark           = crdb.Mark
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack returns the reportable stack trace attached to err, if any.
var GetStack = crdb.GetReportableStackTrace

// Sentinels shared across packages. Wrap them to add context; test with Is.
var (
	// ErrInvalidConfig indicates configuration that cannot drive a run
	ErrInvalidConfig = New("invalid configuration")

	// ErrNotFound indicates a requested record or file does not exist
	ErrNotFound = New("not found")
)

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// InvalidConfigf creates an ErrInvalidConfig error with a formatted message.
func InvalidConfigf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidConfig)
}

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}
