// Package failure classifies errors that cross a gateway boundary so callers
// can decide between skipping a unit of work and aborting the run.
package failure

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the coarse class of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransient covers timeouts, 5xx responses and network errors.
	KindTransient
	// KindMalformed means the remote answered but the payload was unusable.
	KindMalformed
	// KindConfig means required configuration or credentials are missing.
	KindConfig
	// KindNotFound means the requested entity does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindMalformed:
		return "malformed"
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a kind and the operation that failed.
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

// Is lets errors.Is(err, &Error{Kind: k}) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

func Transient(op string, err error) error { return &Error{Kind: KindTransient, Op: op, Err: err} }
func Malformed(op string, err error) error { return &Error{Kind: KindMalformed, Op: op, Err: err} }
func NotFound(op string, err error) error  { return &Error{Kind: KindNotFound, Op: op, Err: err} }

// Config builds a fatal configuration error.
func Config(op, format string, args ...any) error {
	return &Error{Kind: KindConfig, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err. Context deadline and cancellation count as
// transient; unclassified errors are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}
	return KindUnknown
}

// IsFatal reports whether err must stop the whole process.
func IsFatal(err error) bool { return KindOf(err) == KindConfig }

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	k := KindOf(err)
	return k == KindTransient || k == KindUnknown
}
