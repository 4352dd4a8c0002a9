// Package errors provides error handling for the bot.
//
// It re-exports github.com/cockroachdb/errors so call sites get stack
// traces, wrapping, and sentinel checks from a single import:
//
//	if err := store.Insert(ctx, docs); err != nil {
//	    return errors.Wrap(err, "failed to index documents")
//	}
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle missing resource
//	}
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
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
	Join   = crdb.Join
)

// Common sentinel errors. Use with errors.Is() and wrap with errors.Wrap()
// to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidInput indicates a malformed or out-of-range argument
	ErrInvalidInput = New("invalid input")

	// ErrUnauthorized indicates the request failed authentication
	ErrUnauthorized = New("unauthorized")

	// ErrUnavailable indicates a required backing service is not reachable
	ErrUnavailable = New("service unavailable")

	// ErrDimensionMismatch indicates an embedding does not match the
	// dimension the store was created with
	ErrDimensionMismatch = New("embedding dimension mismatch")
)

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidInput checks if an error is or wraps ErrInvalidInput
func IsInvalidInput(err error) bool {
	return err != nil && Is(err, ErrInvalidInput)
}

// IsUnavailable checks if an error is or wraps ErrUnavailable
func IsUnavailable(err error) bool {
	return err != nil && Is(err, ErrUnavailable)
}
