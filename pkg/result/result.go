// Package result carries the uniform success/failure outcome returned by the
// repository and service layers. Expected failure modes (not found on a
// mutating call, validation, constraint violations, cancellation) become a
// failed Result with human-readable messages; unexpected faults keep
// propagating as errors.
package result

import (
	"context"
	"errors"
	"fmt"
)

type Result[T any] struct {
	Data      T        `json:"data,omitempty"`
	Messages  []string `json:"messages,omitempty"`
	Succeeded bool     `json:"succeeded"`
	Canceled  bool     `json:"canceled,omitempty"`
}

// Ok returns a successful result carrying data. For single-entity reads the
// payload may be a nil pointer: "no match" is a successful outcome, not a
// failure.
func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data, Succeeded: true}
}

func Fail[T any](messages ...string) Result[T] {
	return Result[T]{Messages: messages}
}

func Failf[T any](format string, args ...any) Result[T] {
	return Result[T]{Messages: []string{fmt.Sprintf(format, args...)}}
}

// Canceled marks a cooperatively cancelled operation. Distinct from a
// generic failure so callers can tell an aborted request from a rejected one.
func Canceled[T any]() Result[T] {
	return Result[T]{Messages: []string{"operation canceled"}, Canceled: true}
}

// FromError classifies err into a cancelled or failed result. err must be
// non-nil.
func FromError[T any](err error) Result[T] {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Canceled[T]()
	}
	return Fail[T](err.Error())
}

// Carry converts a failed or cancelled result to a different payload type,
// preserving its messages. The payload, if any, is dropped.
func Carry[Out, In any](r Result[In]) Result[Out] {
	return Result[Out]{Messages: r.Messages, Canceled: r.Canceled}
}

func (r Result[T]) Failed() bool {
	return !r.Succeeded
}

// Message joins nothing; it returns the first message, or "" for a success.
func (r Result[T]) Message() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0]
}
