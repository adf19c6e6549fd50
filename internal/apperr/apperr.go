// Package apperr defines the error taxonomy shared by the search pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindInvalidInput Kind = "INVALID_INPUT"
	KindParse        Kind = "PARSE_ERROR"
	KindUpstream     Kind = "UPSTREAM_ERROR"
	KindRetrieval    Kind = "RETRIEVAL_ERROR"
	KindTimeout      Kind = "TIMEOUT"
	KindInternal     Kind = "INTERNAL"
)

// Error is a classified failure. Op names the operation that failed,
// Message is safe to show to a caller.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error without a cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap returns an Error that wraps err.
func Wrap(kind Kind, op string, err error, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func InvalidInput(op, message string) *Error { return New(KindInvalidInput, op, message) }

func Parse(op string, err error, message string) *Error { return Wrap(KindParse, op, err, message) }

func Upstream(op string, err error, message string) *Error {
	return Wrap(KindUpstream, op, err, message)
}

func Retrieval(op string, err error) *Error {
	return Wrap(KindRetrieval, op, err, "listing store call failed")
}

func Timeout(op string, err error, message string) *Error {
	return Wrap(KindTimeout, op, err, message)
}

// KindOf reports the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage renders err for a response body. Only retrieval errors keep the
// cause, so the caller can see what the store reported; provider detail stays
// in the logs.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	if e.Kind == KindRetrieval && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}
