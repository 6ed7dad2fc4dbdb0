package observe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

// tagObserver appends its tag to a context value so ordering is visible
type tagObserver struct {
	Nop
	tag      string
	finished []string
}

func (o *tagObserver) ChainStarted(ctx context.Context, _ Event) context.Context {
	prev, _ := ctx.Value(ctxKey("tags")).(string)
	return context.WithValue(ctx, ctxKey("tags"), prev+o.tag)
}

func (o *tagObserver) ChainFinished(ctx context.Context, ev Event) {
	tags, _ := ctx.Value(ctxKey("tags")).(string)
	o.finished = append(o.finished, fmt.Sprintf("%s:%s", ev.RunID, tags))
}

func TestNewMulti(t *testing.T) {
	assert.Equal(t, Nop{}, NewMulti())
	assert.Equal(t, Nop{}, NewMulti(nil, nil))

	single := &tagObserver{tag: "a"}
	assert.Same(t, single, NewMulti(nil, single))

	multi := NewMulti(single, &tagObserver{tag: "b"})
	assert.IsType(t, Multi{}, multi)
	assert.Len(t, multi.(Multi), 2)
}

func TestMulti_ChainsContexts(t *testing.T) {
	a := &tagObserver{tag: "a"}
	b := &tagObserver{tag: "b"}
	m := NewMulti(a, b)

	ev := Event{RunID: "r1", Index: -1}
	ctx := m.ChainStarted(context.Background(), ev)
	m.StepStarted(ctx, ev)
	m.StepFinished(ctx, ev)
	m.StepSkipped(ctx, ev)
	m.RetryScheduled(ctx, ev)
	m.ChainFinished(ctx, ev)

	assert.Equal(t, []string{"r1:ab"}, a.finished)
	assert.Equal(t, []string{"r1:ab"}, b.finished)
}

func TestNop(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey("k"), "v")
	var o Observer = Nop{}
	assert.Equal(t, ctx, o.ChainStarted(ctx, Event{}))
	assert.Equal(t, ctx, o.StepStarted(ctx, Event{}))
}

// recordingLogger captures formatted messages by level
type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) add(level, format string, args ...any) {
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debugf(format string, args ...any) { l.add("DEBUG", format, args...) }
func (l *recordingLogger) Infof(format string, args ...any)  { l.add("INFO", format, args...) }
func (l *recordingLogger) Warnf(format string, args ...any)  { l.add("WARN", format, args...) }
func (l *recordingLogger) Errorf(format string, args ...any) { l.add("ERROR", format, args...) }

func TestLogObserver(t *testing.T) {
	logger := &recordingLogger{}
	o := NewLogObserver(logger)
	ctx := context.Background()

	base := Event{RunID: "r1", Chain: "orders", Steps: 2}
	step := base
	step.Index, step.Step, step.Kind = 0, "fetch", KindRetryDelayed

	o.ChainStarted(ctx, base)
	o.StepStarted(ctx, step)
	failed := step
	failed.Failed, failed.Err, failed.Duration = true, "unavailable", time.Millisecond
	o.StepFinished(ctx, failed)
	scheduled := step
	scheduled.Attempt, scheduled.Delay = 1, time.Second
	o.RetryScheduled(ctx, scheduled)
	o.StepStarted(ctx, scheduled)
	ok := scheduled
	ok.Duration = 2 * time.Millisecond
	o.StepFinished(ctx, ok)
	skipped := base
	skipped.Index, skipped.Step = 1, "notify"
	o.StepSkipped(ctx, skipped)
	done := base
	done.Duration = time.Second
	o.ChainFinished(ctx, done)

	assert.Equal(t, []string{
		"DEBUG chain orders [r1] started with 2 steps",
		"DEBUG chain orders [r1] step 0 (fetch) starting",
		"DEBUG chain orders [r1] step 0 (fetch) failed after 1ms: unavailable",
		"WARN chain orders [r1] step 0 (fetch) attempt 1 scheduled in 1s",
		"DEBUG chain orders [r1] step 0 (fetch) attempt 1 starting",
		"DEBUG chain orders [r1] step 0 (fetch) succeeded after 2ms",
		"DEBUG chain orders [r1] step 1 (notify) skipped",
		"INFO chain orders [r1] succeeded after 1s",
	}, logger.lines)

	logger.lines = nil
	unnamed := Event{RunID: "r2", Failed: true, Err: errors.New("boom"), Duration: time.Second}
	o.ChainFinished(ctx, unnamed)
	assert.Equal(t, []string{"ERROR chain [r2] failed after 1s: boom"}, logger.lines)
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := NewSlogLogger(slog.New(handler))

	logger.Debugf("hidden %d", 1)
	logger.Infof("visible %d", 2)
	logger.Warnf("careful %s", "now")
	logger.Errorf("broken: %v", errors.New("boom"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `level=INFO msg="visible 2"`)
	assert.Contains(t, lines[1], `level=WARN msg="careful now"`)
	assert.Contains(t, lines[2], `level=ERROR msg="broken: boom"`)

	assert.NotNil(t, NewSlogLogger(nil))
}
