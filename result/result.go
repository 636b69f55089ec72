// Package result provides a two-variant outcome container used instead of
// bare (value, error) pairs on every repository, cache and use-case boundary.
//
// A Result is either Ok, carrying a value, or Err, carrying an error built by
// the apperr package. The zero value is Ok with the zero value of T.
package result

import (
	"context"
	"fmt"
)

// Result holds exactly one of a success value or a failure.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a success value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err wraps a failure. A nil err is a programming error and panics.
func Err[T any](err error) Result[T] {
	if err == nil {
		panic("result: Err called with nil error")
	}
	return Result[T]{err: err}
}

// IsOk reports whether r carries a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// IsErr reports whether r carries a failure.
func (r Result[T]) IsErr() bool {
	return r.err != nil
}

// Unwrap returns the success value and panics on a failure.
// Reserved for tests and invariant checks.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic(fmt.Sprintf("result: Unwrap called on Err: %v", r.err))
	}
	return r.value
}

// UnwrapErr returns the failure and panics on a success.
func (r Result[T]) UnwrapErr() error {
	if r.err == nil {
		panic(fmt.Sprintf("result: UnwrapErr called on Ok: %v", r.value))
	}
	return r.err
}

// Get splits r into the conventional Go pair.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Map applies fn to the value of an Ok result. An Err passes through and fn is
// never invoked.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Ok(fn(r.value))
}

// FlatMap applies fn to the value of an Ok result and returns its Result.
func FlatMap[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return fn(r.value)
}

// Match dispatches on the variant. Exactly one of ok or fail is called.
func Match[T, U any](r Result[T], ok func(T) U, fail func(error) U) U {
	if r.err != nil {
		return fail(r.err)
	}
	return ok(r.value)
}

// From converts a (value, error) pair. A non-nil err is passed through mapErr.
func From[T any](v T, err error, mapErr func(error) error) Result[T] {
	if err != nil {
		return Err[T](mapErr(err))
	}
	return Ok(v)
}

// Try runs a synchronous operation and translates both a returned error and a
// panic into a typed failure through mapErr.
func Try[T any](fn func() (T, error), mapErr func(error) error) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Err[T](mapErr(panicError(p)))
		}
	}()

	v, err := fn()
	return From(v, err, mapErr)
}

// Do is Try for operations that perform I/O against an external client.
// ctx is handed to fn unchanged.
func Do[T any](ctx context.Context, fn func(context.Context) (T, error), mapErr func(error) error) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Err[T](mapErr(panicError(p)))
		}
	}()

	v, err := fn(ctx)
	return From(v, err, mapErr)
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return fmt.Errorf("recovered panic: %w", err)
	}
	return fmt.Errorf("recovered panic: %v", p)
}
