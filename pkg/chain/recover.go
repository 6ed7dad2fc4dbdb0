package chain

import (
	"context"

	"github.com/jzx17/asyncchain/pkg/types"
)

// Recover builds a catch step that turns every error into a value
func Recover[T, E any](fn func(err E) T) CatchStep[T, E] {
	return func(_ context.Context, next Next[T, E], failed types.Result[T, E]) {
		next(types.Ok[T, E](fn(failed.Err())))
	}
}

// RecoverIf recovers the errors accepted by match and lets the rest
// continue to fail
func RecoverIf[T, E any](match func(err E) bool, fn func(err E) T) CatchStep[T, E] {
	return func(_ context.Context, next Next[T, E], failed types.Result[T, E]) {
		if err := failed.Err(); match(err) {
			next(types.Ok[T, E](fn(err)))
			return
		}
		next(failed)
	}
}

// Fallback builds a catch step that replaces any error with value
func Fallback[T, E any](value T) CatchStep[T, E] {
	return func(_ context.Context, next Next[T, E], _ types.Result[T, E]) {
		next(types.Ok[T, E](value))
	}
}

// MapError builds a catch step that rewrites the error and keeps the chain
// failed
func MapError[T, E any](fn func(err E) E) CatchStep[T, E] {
	return func(_ context.Context, next Next[T, E], failed types.Result[T, E]) {
		next(types.Err[T, E](fn(failed.Err())))
	}
}
