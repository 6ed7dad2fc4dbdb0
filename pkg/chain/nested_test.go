package chain

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jzx17/asyncchain/internal/testutils"
	"github.com/jzx17/asyncchain/pkg/scheduler"
	"github.com/jzx17/asyncchain/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type strNext = Next[string, string]

func okStr(v string) strResult {
	return types.Ok[string, string](v)
}

func errStr(msg string) strResult {
	return types.Err[string, string](msg)
}

func constStep(res strResult) Step[string, string, string] {
	return func(_ context.Context, next strNext, _ strResult) {
		next(res)
	}
}

// nested returns a step that runs build's chain and forwards its result
func nested(build func() *Chain[string, string]) Step[string, string, string] {
	return func(ctx context.Context, next strNext, _ strResult) {
		build().Finally(ctx, func(res strResult) {
			next(res)
		})
	}
}

func TestNested_ErrorFromInnerChain(t *testing.T) {
	rec := testutils.NewRecorder[string, string]()

	Init[string, string]().
		Then(constStep(okStr("OK"))).
		Then(nested(func() *Chain[string, string] {
			return Init[string, string]().
				Then(constStep(okStr("OK from internal s1"))).
				Then(constStep(errStr("OK from internal s2")))
		})).
		Finally(context.Background(), rec.Record)

	res := rec.Last(t)
	require.True(t, res.IsErr())
	assert.Equal(t, "OK from internal s2", res.Err())
}

func TestNested_RecoveredByOuterCatcher(t *testing.T) {
	rec := testutils.NewRecorder[string, string]()

	Init[string, string]().
		Then(constStep(okStr("outer1"))).
		Then(nested(func() *Chain[string, string] {
			return Init[string, string]().Then(constStep(errStr("nested error")))
		})).
		CatchError(func(_ context.Context, next strNext, failed strResult) {
			next(okStr("recovered from " + failed.Err()))
		}).
		Finally(context.Background(), rec.Record)

	res := rec.Last(t)
	require.True(t, res.IsOk())
	assert.Equal(t, "recovered from nested error", res.Value())
}

func TestNested_DeeplyNested(t *testing.T) {
	rec := testutils.NewRecorder[string, string]()

	Init[string, string]().
		Then(nested(func() *Chain[string, string] {
			return Init[string, string]().Then(nested(func() *Chain[string, string] {
				return Init[string, string]().Then(constStep(okStr("deep value")))
			}))
		})).
		Finally(context.Background(), rec.Record)

	assert.Equal(t, "deep value", rec.Last(t).Value())
}

func TestNested_BehavesLikeSplicedChain(t *testing.T) {
	appendStep := func(suffix string) Step[string, string, string] {
		return func(_ context.Context, next strNext, cur strResult) {
			next(okStr(cur.Value() + suffix))
		}
	}
	failAt := func(s string) Step[string, string, string] {
		return func(_ context.Context, next strNext, cur strResult) {
			if strings.HasSuffix(cur.Value(), s) {
				next(errStr("failed after " + s))
				return
			}
			next(cur)
		}
	}

	tests := []struct {
		name  string
		inner []Step[string, string, string]
	}{
		{"all ok", []Step[string, string, string]{appendStep("b"), appendStep("c")}},
		{"inner fails", []Step[string, string, string]{appendStep("b"), failAt("b"), appendStep("c")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat := testutils.NewRecorder[string, string]()
			c := Start[string, string]("a")
			for _, s := range tt.inner {
				c = c.Then(s)
			}
			c.Then(appendStep("d")).Finally(context.Background(), flat.Record)

			composed := testutils.NewRecorder[string, string]()
			Start[string, string]("a").
				Then(func(ctx context.Context, next strNext, cur strResult) {
					inner := Start[string, string](cur.Value())
					for _, s := range tt.inner {
						inner = inner.Then(s)
					}
					inner.Finally(ctx, func(res strResult) { next(res) })
				}).
				Then(appendStep("d")).
				Finally(context.Background(), composed.Record)

			assert.Equal(t, flat.Last(t).String(), composed.Last(t).String())
		})
	}
}

func TestNested_InnerDelayedRetryOnTimer(t *testing.T) {
	ctx := testutils.Context(t)
	mock := testutils.NewMockClock(t)
	s := scheduler.NewTimer(scheduler.WithClock(testutils.NewClockWrapper(mock)))
	defer s.Close()

	rec := testutils.NewRecorder[string, string]()
	svc := &flakyService{failures: 1}

	Init[string, string]().
		Then(func(ctx context.Context, next strNext, _ strResult) {
			ThenWithRetryDelayed(Init[string, string](), 2, 50*time.Millisecond, svc.fetch).
				Finally(ctx, func(res strResult) { next(res) }, WithScheduler(s))
		}).
		Then(func(_ context.Context, next strNext, cur strResult) {
			next(okStr("outer saw " + cur.Value()))
		}).
		Finally(ctx, rec.Record)

	assert.Equal(t, 0, rec.Calls())
	testutils.Advance(ctx, mock, 50*time.Millisecond)
	assert.Equal(t, "outer saw 42", rec.Wait(t).Value())
}
