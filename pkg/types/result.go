// Package types defines the Result currency passed between chain steps
package types

import "fmt"

// Unit is the payload of an empty success
type Unit struct{}

// Result holds exactly one of a success value or an error value.
// The zero Result is not valid; build results with Ok, Err or OkUnit.
type Result[T, E any] struct {
	value T
	err   E
	isErr bool
	valid bool
	seed  bool
}

// Ok creates a successful result
func Ok[T, E any](value T) Result[T, E] {
	return Result[T, E]{value: value, valid: true}
}

// Err creates a failed result
func Err[T, E any](err E) Result[T, E] {
	return Result[T, E]{err: err, isErr: true, valid: true}
}

// OkUnit creates an empty success
func OkUnit[E any]() Result[Unit, E] {
	return Ok[Unit, E](Unit{})
}

// Seed creates the "no prior value" success that starts a chain run.
// It reports IsOk and carries the zero value of T.
func Seed[T, E any]() Result[T, E] {
	return Result[T, E]{valid: true, seed: true}
}

// IsOk reports whether the result is a success
func (r Result[T, E]) IsOk() bool {
	return r.valid && !r.isErr
}

// IsErr reports whether the result is a failure
func (r Result[T, E]) IsErr() bool {
	return r.isErr
}

// IsSeed reports whether the result is the executor seed rather than a value
// produced by a step
func (r Result[T, E]) IsSeed() bool {
	return r.seed
}

// Value returns the success value. It panics if the result is not Ok.
func (r Result[T, E]) Value() T {
	if !r.IsOk() {
		panic(fmt.Errorf("%w: %s", ErrResultNotOk, r.describe()))
	}
	return r.value
}

// Err returns the error value. It panics if the result is not Err.
func (r Result[T, E]) Err() E {
	if !r.isErr {
		panic(fmt.Errorf("%w: %s", ErrResultNotErr, r.describe()))
	}
	return r.err
}

// ValueOr returns the success value, or def when the result is not Ok
func (r Result[T, E]) ValueOr(def T) T {
	if !r.IsOk() {
		return def
	}
	return r.value
}

// Get returns the value, the error and whether the result is Ok
func (r Result[T, E]) Get() (T, E, bool) {
	return r.value, r.err, r.IsOk()
}

// String implements fmt.Stringer
func (r Result[T, E]) String() string {
	switch {
	case r.isErr:
		return fmt.Sprintf("Err(%v)", r.err)
	case r.seed:
		return "Ok(<seed>)"
	case r.valid:
		return fmt.Sprintf("Ok(%v)", r.value)
	default:
		return "Result(<invalid>)"
	}
}

func (r Result[T, E]) describe() string {
	if !r.valid {
		return "result was never constructed"
	}
	return "result is " + r.String()
}
