// Package wirerr groups the runtime's error values into the two categories the
// layout engine distinguishes: ValidationError for malformed wire data encountered
// while reading (recorded, then papered over with a safe default) and PreconditionError
// for programmer misuse encountered while building (fatal).
//
//	var verr wirerr.ValidationError
//	var perr wirerr.PreconditionError
//	switch {
//	case errors.As(err, &verr):
//		// the message was bad; a default was substituted
//	case errors.As(err, &perr):
//		// caller broke an invariant
//	}
package wirerr

import (
	"errors"
	"runtime"
)

var (
	// ErrMalformed is returned when read data cannot be a valid wire pointer or value.
	ErrMalformed = errors.New("malformed wire data")

	// ErrOutOfBounds is returned when a pointer's target falls outside its segment.
	ErrOutOfBounds = errors.New("pointer target out of bounds")

	// ErrReservedPointer is returned when a pointer's kind field is the reserved value 3.
	ErrReservedPointer = errors.New("reserved pointer kind")

	// ErrTraversalLimit is returned when a reader has dereferenced more words than its budget allows.
	ErrTraversalLimit = errors.New("traversal limit reached")

	// ErrNestingLimit is returned when a reader descends deeper than its configured nesting limit.
	ErrNestingLimit = errors.New("nesting limit reached")

	// ErrSegmentID is returned when a far pointer names a segment the arena does not have.
	ErrSegmentID = errors.New("unknown segment id")

	// ErrTooManyElements is returned when a list would exceed the 2^29 element cap.
	ErrTooManyElements = errors.New("list element count exceeds wire limit")

	// ErrWrongUnion is returned when a setter is called on a union field that isn't the active member.
	ErrWrongUnion = errors.New("wrong union member")

	// ErrNilPointer is returned if a pointer that must not be nil is nil.
	ErrNilPointer = errors.New("nil pointer")
)

// NewValidationError wraps err as a ValidationError, recording the calling function
// unless caller is given explicitly.
func NewValidationError(err error, message string, caller string) error {
	if caller == "" {
		caller = GetCaller(1)
	}
	return ValidationError{Err: err, Message: message, Caller: caller}
}

// ValidationError is returned from reader-side primitives when wire data is malformed,
// a limit is exceeded, or a pointer cannot be resolved. Readers that encounter one
// continue with a default value rather than propagating a panic; with
// arena.ReaderOptions.Strict set, segmentwire.Message.Err returns the first one.
type ValidationError struct {
	Err     error
	Message string
	Caller  string
}

func (e ValidationError) Error() string {
	str := e.Err.Error()
	if e.Message != "" {
		str += ": " + e.Message
	}
	if e.Caller != "" {
		str += " (in " + e.Caller + ")"
	}
	return str
}

func (e ValidationError) Unwrap() error { return e.Err }

// NewPreconditionError wraps err as a PreconditionError.
func NewPreconditionError(err error, message string, caller string) error {
	if caller == "" {
		caller = GetCaller(1)
	}
	return PreconditionError{Err: err, Message: message, Caller: caller}
}

// PreconditionError indicates the caller violated a builder invariant: wrong union
// member, missing size on init, or similar programmer error. Builder primitives that
// hit one of these panic with it rather than returning it, since builder data must be
// well-formed by construction.
type PreconditionError struct {
	Err     error
	Message string
	Caller  string
}

func (e PreconditionError) Error() string {
	str := e.Err.Error()
	if e.Message != "" {
		str += ": " + e.Message
	}
	if e.Caller != "" {
		str += " (in " + e.Caller + ")"
	}
	return str
}

func (e PreconditionError) Unwrap() error { return e.Err }

// Fail panics with a PreconditionError. Builder primitives call this on programmer
// misuse; it never returns.
func Fail(err error, message string) {
	panic(NewPreconditionError(err, message, GetCaller(1)))
}

// Cause returns a short, metric-label-friendly name for the sentinel error wrapped by
// a ValidationError, or "other" if err doesn't wrap one of the known sentinels.
func Cause(err error) string {
	target := err
	var ve ValidationError
	if errors.As(err, &ve) {
		target = ve.Err
	}
	switch {
	case errors.Is(target, ErrMalformed):
		return "malformed"
	case errors.Is(target, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(target, ErrReservedPointer):
		return "reserved_pointer"
	case errors.Is(target, ErrTraversalLimit):
		return "traversal_limit"
	case errors.Is(target, ErrNestingLimit):
		return "nesting_limit"
	case errors.Is(target, ErrSegmentID):
		return "segment_id"
	case errors.Is(target, ErrTooManyElements):
		return "too_many_elements"
	case errors.Is(target, ErrWrongUnion):
		return "wrong_union"
	case errors.Is(target, ErrNilPointer):
		return "nil_pointer"
	default:
		return "other"
	}
}

// GetCaller returns the name of the calling function, skipping skip additional frames.
func GetCaller(skip int) string {
	pcs := make([]uintptr, 1)
	n := runtime.Callers(2+skip, pcs)
	if n != 1 {
		return "unknown function"
	}
	frames := runtime.CallersFrames(pcs)
	frame, _ := frames.Next()
	return frame.Function
}
