// Package poolerr provides structured error handling for respool, with
// rich context, stack traces, and error categorization so callers can
// branch on failure kind instead of parsing messages.
package poolerr

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind categorizes a pool error, mapping directly onto the error
// conditions enumerated by the pool's error handling design.
type Kind string

const (
	// KindPendingLimit: the pending queue was at its configured cap when
	// acquire() tried to enqueue.
	KindPendingLimit Kind = "pending_limit"
	// KindShutdown: the pool was already disposed at enqueue time.
	KindShutdown Kind = "shutdown"
	// KindAllocation: the allocator returned an error.
	KindAllocation Kind = "allocation"
	// KindRelease: the release (reset) handler returned an error.
	KindRelease Kind = "release"
	// KindDestroy: the destroy handler returned an error (swallowed by
	// the pool itself, but still constructible for logging/recorders).
	KindDestroy Kind = "destroy"
	// KindInvalidState: an internal invariant was violated.
	KindInvalidState Kind = "invalid_state"
)

// Error is a structured pool error with a category, an optional cause,
// contextual details, and the call stack at creation time.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is one call-stack entry captured at error creation.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap enables errors.Is/errors.As chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key-value pair of debugging context and returns
// the receiver for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a pool error of the given kind, capturing the call stack.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Stack: captureStack(2)}
}

// Wrap attaches kind/message context to an existing error, preserving the
// cause. Returns nil if err is nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Kind: kind, Message: message, Cause: err, Stack: existing.Stack}
	}
	return &Error{Kind: kind, Message: message, Cause: err, Stack: captureStack(2)}
}

// IsRetryable reports whether a later acquisition might succeed. Only
// allocation failures are retryable by policy: pending-limit and
// shutdown errors reflect pool-level decisions that a retry cannot change.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindAllocation
}

// IsKind reports whether err is a pool Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)
	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		frames = append(frames, StackFrame{Function: fn.Name(), File: file, Line: line})
	}
	return frames
}
