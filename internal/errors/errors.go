// Package errors provides error handling for gocxx.
//
// This package re-exports github.com/cockroachdb/errors so that every
// generation failure carries a stack trace and, where useful, a hint that
// points at the configuration entry to change.
//
// Usage:
//
//	if cls == nil {
//	    return errors.Wrapf(errors.ErrClassNotFound, "method %s", name)
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
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
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
	GetAllHints = crdb.GetAllHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for configuration failures. Generation halts on any of them.
var (
	// ErrClassNotFound indicates a declaration references a class that was never registered
	ErrClassNotFound = New("class not found")

	// ErrConstNotFound indicates a constant value references an unknown constant
	ErrConstNotFound = New("constant not found")

	// ErrInvalidConfig indicates a malformed configuration table entry
	ErrInvalidConfig = New("invalid configuration")

	// ErrInvalidDecl indicates a declaration tuple that cannot be interpreted
	ErrInvalidDecl = New("invalid declaration")
)

// IsConfigurationError reports whether err halts generation as a configuration error.
func IsConfigurationError(err error) bool {
	return IsAny(err, ErrClassNotFound, ErrConstNotFound, ErrInvalidConfig, ErrInvalidDecl)
}
