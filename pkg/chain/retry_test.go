package chain

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jzx17/asyncchain/internal/testutils"
	"github.com/jzx17/asyncchain/pkg/retry"
	"github.com/jzx17/asyncchain/pkg/scheduler"
	"github.com/jzx17/asyncchain/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type strResult = types.Result[string, string]

// flakyService fails a fixed number of calls before it answers
type flakyService struct {
	failures int
	calls    int
	attempts []uint
}

func (s *flakyService) fetch(_ context.Context, next Next[string, string], attempt uint) {
	s.calls++
	s.attempts = append(s.attempts, attempt)
	if s.calls <= s.failures {
		next(types.Err[string, string]("unavailable"))
		return
	}
	next(types.Ok[string, string]("42"))
}

func TestThenWithRetry_SucceedsOnThirdAttempt(t *testing.T) {
	rec := testutils.NewRecorder[string, string]()
	svc := &flakyService{failures: 2}

	c := Then(Init[string, string](), func(_ context.Context, next Next[string, string], _ strResult) {
		next(types.Ok[string, string]("start"))
	})
	c = ThenWithRetry(c, 3, svc.fetch)
	c.Finally(context.Background(), rec.Record)

	res := rec.Last(t)
	require.True(t, res.IsOk())
	assert.Equal(t, "42", res.Value())
	assert.Equal(t, []uint{0, 1, 2}, svc.attempts)
}

func TestThenWithRetry_Bound(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries uint
		failures   int
		wantCalls  int
		wantOk     bool
	}{
		{"no retries, success", 0, 0, 1, true},
		{"no retries, failure", 0, 1, 1, false},
		{"stops at first ok", 5, 1, 2, true},
		{"exhausted", 3, 10, 4, false},
		{"succeeds on last attempt", 3, 3, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutils.NewRecorder[string, string]()
			svc := &flakyService{failures: tt.failures}

			ThenWithRetry(Init[string, string](), tt.maxRetries, svc.fetch).
				Finally(context.Background(), rec.Record)

			assert.Equal(t, tt.wantCalls, svc.calls)
			res := rec.Last(t)
			assert.Equal(t, tt.wantOk, res.IsOk())
			if !tt.wantOk {
				assert.Equal(t, "unavailable", res.Err())
			}
		})
	}
}

func TestThenWithRetry_ManySyncAttempts(t *testing.T) {
	rec := testutils.NewRecorder[int, string]()
	const retries = 100000

	calls := 0
	ThenWithRetry(Init[int, string](), retries, func(_ context.Context, next intNext, attempt uint) {
		calls++
		if attempt < retries {
			next(errInt("again"))
			return
		}
		next(okInt(int(attempt)))
	}).Finally(context.Background(), rec.Record)

	assert.Equal(t, retries+1, calls)
	assert.Equal(t, retries, rec.Last(t).Value())
}

func TestThenWithRetry_AsyncAttempts(t *testing.T) {
	rec := testutils.NewRecorder[int, string]()

	var mu sync.Mutex
	var attempts []uint
	ThenWithRetry(Init[int, string](), 4, func(_ context.Context, next intNext, attempt uint) {
		mu.Lock()
		attempts = append(attempts, attempt)
		mu.Unlock()
		go func() {
			if attempt < 2 {
				next(errInt("later"))
				return
			}
			next(okInt(int(attempt)))
		}()
	}).Finally(context.Background(), rec.Record)

	assert.Equal(t, 2, rec.Wait(t).Value())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint{0, 1, 2}, attempts)
}

func TestThenWithRetryDelayed_MockClock(t *testing.T) {
	ctx := testutils.Context(t)
	mock := testutils.NewMockClock(t)
	s := scheduler.NewTimer(scheduler.WithClock(testutils.NewClockWrapper(mock)))
	defer s.Close()

	rec := testutils.NewRecorder[string, string]()
	log := newEventLog()
	svc := &flakyService{failures: 2}
	var mu sync.Mutex
	fetch := func(ctx context.Context, next Next[string, string], attempt uint) {
		mu.Lock()
		defer mu.Unlock()
		svc.fetch(ctx, next, attempt)
	}

	ThenWithRetryDelayed(Init[string, string](), 3, 100*time.Millisecond, fetch, Named("fetch")).
		Finally(ctx, rec.Record, WithScheduler(s), WithObserver(log))

	assert.Equal(t, 0, rec.Calls(), "first failure must wait for the scheduler")
	assert.Equal(t, 1, s.Pending())

	testutils.Advance(ctx, mock, 100*time.Millisecond)
	assert.Equal(t, 0, rec.Calls())

	testutils.Advance(ctx, mock, 100*time.Millisecond)
	res := rec.Wait(t)
	assert.Equal(t, "42", res.Value())

	mu.Lock()
	assert.Equal(t, []uint{0, 1, 2}, svc.attempts)
	mu.Unlock()

	assert.Equal(t, []string{
		"chain-started",
		"started:fetch", "finished:fetch", "scheduled:fetch#1",
		"started:fetch#1", "finished:fetch#1", "scheduled:fetch#2",
		"started:fetch#2", "finished:fetch#2",
		"chain-finished",
	}, log.Events())
	assert.Equal(t, 100*time.Millisecond, log.Last("scheduled").Delay)
}

func TestThenWithRetryDelayed_Exhausted(t *testing.T) {
	rec := testutils.NewRecorder[string, string]()
	svc := &flakyService{failures: 100}

	var delays []time.Duration
	record := types.SchedulerFunc(func(task func(), delay time.Duration) {
		delays = append(delays, delay)
		task()
	})

	ThenWithRetryBackoff(Init[string, string](), 3, retry.Exponential(10*time.Millisecond), svc.fetch).
		Finally(context.Background(), rec.Record, WithScheduler(record))

	assert.Equal(t, 4, svc.calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}, delays)
	assert.Equal(t, "unavailable", rec.Last(t).Err())
}

func TestThenWithRetryDelayed_MissingScheduler(t *testing.T) {
	scheduler.Reset()

	ran := false
	c := Then(Init[int, string](), func(_ context.Context, next intNext, cur intResult) {
		ran = true
		next(cur)
	})
	c = c.ThenWithRetryDelayed(1, time.Millisecond, func(_ context.Context, next intNext, _ uint) {
		ran = true
		next(okInt(1))
	}, Named("delayed"))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, types.ErrSchedulerNotConfigured)
		assert.Contains(t, err.Error(), `"delayed"`)
		assert.False(t, ran, "no step may run without a scheduler")
	}()
	c.Finally(context.Background(), func(intResult) {})
}

func TestSetScheduler(t *testing.T) {
	t.Cleanup(scheduler.Reset)

	var global, local int
	SetScheduler(func(task func(), _ time.Duration) {
		global++
		task()
	})
	runFlaky := func(opts ...RunOption) {
		svc := &flakyService{failures: 1}
		ThenWithRetryDelayed(Init[string, string](), 1, time.Second, svc.fetch).
			Finally(context.Background(), func(strResult) {}, opts...)
	}

	runFlaky()
	assert.Equal(t, 1, global)

	runFlaky(WithScheduler(types.SchedulerFunc(func(task func(), _ time.Duration) {
		local++
		task()
	})))
	assert.Equal(t, 1, global, "per-run scheduler takes precedence")
	assert.Equal(t, 1, local)

	SetScheduler(nil)
	assert.Nil(t, scheduler.Default())
}

func TestChain_MixedRetriesAndRecovery(t *testing.T) {
	rec := testutils.NewRecorder[int, string]()

	x := 23
	var step1Val, step3Val int
	var caught string
	failures := 0
	withRetry := func(_ context.Context, next intNext, _ uint) {
		if failures < 2 {
			failures++
			next(errInt("Simulated failure"))
			return
		}
		failures = 0
		next(okInt(42))
	}

	c := Init[int, string]().
		Then(func(_ context.Context, next intNext, _ intResult) {
			step1Val = x
			next(okInt(x))
		}).
		Then(func(_ context.Context, next intNext, _ intResult) {
			next(errInt("Step 2 error"))
		}).
		CatchError(func(_ context.Context, next intNext, failed intResult) {
			caught = failed.Err()
			next(okInt(0))
		}).
		Then(func(_ context.Context, next intNext, _ intResult) {
			step3Val = 314
			next(okInt(step3Val))
		}).
		ThenWithRetry(3, withRetry).
		ThenWithRetryDelayed(3, time.Second, withRetry)
	c.Finally(context.Background(), rec.Record, WithScheduler(scheduler.Immediate{}))

	assert.Equal(t, 23, step1Val)
	assert.Equal(t, "Step 2 error", caught)
	assert.Equal(t, 314, step3Val)
	res := rec.Last(t)
	require.True(t, res.IsOk())
	assert.Equal(t, "42", strconv.Itoa(res.Value()))
}

func TestThenWithRetryDelayed_PanicHandlerCountsAsFailure(t *testing.T) {
	rec := testutils.NewRecorder[int, error]()
	errPanicked := errors.New("panicked")

	calls := 0
	ThenWithRetryDelayed(Init[int, error](), 2, time.Millisecond, func(_ context.Context, next Next[int, error], attempt uint) {
		calls++
		if attempt == 0 {
			panic("first attempt explodes")
		}
		next(types.Ok[int, error](int(attempt)))
	}).Finally(context.Background(), rec.Record,
		WithScheduler(scheduler.Immediate{}),
		WithPanicHandler(func(*types.StepError) error { return errPanicked }),
	)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, rec.Last(t).Value())
}
