// Package codecerr defines the stable error kinds surfaced across the
// codec pipelines, frame carriers, and container muxers/demuxers.
package codecerr

import (
	"errors"
	"fmt"
)

// Kind identifies the stable error category a failure belongs to. Kinds are
// part of the public contract; callers branch on Kind, never on message text.
type Kind string

const (
	TypeError      Kind = "TypeError"
	NotSupported   Kind = "NotSupported"
	InvalidState   Kind = "InvalidState"
	EncodingError  Kind = "EncodingError"
	DecodingError  Kind = "DecodingError"
	DataError      Kind = "DataError"
	QuotaExceeded  Kind = "QuotaExceeded"
	OperationError Kind = "OperationError"
)

// Error wraps an underlying cause with a stable Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Wrap attaches kind and op to an existing error. Returns nil if err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// As extracts the Kind of err, if any *Error is in its chain.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err's Kind equals kind.
func Is(err error, kind Kind) bool {
	k, ok := As(err)
	return ok && k == kind
}
