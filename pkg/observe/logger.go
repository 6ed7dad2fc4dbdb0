package observe

import (
	"context"
	"fmt"
	"log/slog"
)

// Logger interface for logging
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// slogLogger adapts a *slog.Logger to Logger
type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts logger; a nil logger uses slog.Default()
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

func (l *slogLogger) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, fmt.Sprintf(format, args...))
}

func (l *slogLogger) Debugf(format string, args ...any) { l.log(slog.LevelDebug, format, args...) }
func (l *slogLogger) Infof(format string, args ...any)  { l.log(slog.LevelInfo, format, args...) }
func (l *slogLogger) Warnf(format string, args ...any)  { l.log(slog.LevelWarn, format, args...) }
func (l *slogLogger) Errorf(format string, args ...any) { l.log(slog.LevelError, format, args...) }

// LogObserver logs chain events: steps at debug, retries at warn, and the
// chain outcome at info or error
type LogObserver struct {
	logger Logger
}

// NewLogObserver creates a log observer
func NewLogObserver(logger Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func chainLabel(ev Event) string {
	if ev.Chain != "" {
		return fmt.Sprintf("chain %s [%s]", ev.Chain, ev.RunID)
	}
	return fmt.Sprintf("chain [%s]", ev.RunID)
}

func (o *LogObserver) ChainStarted(ctx context.Context, ev Event) context.Context {
	o.logger.Debugf("%s started with %d steps", chainLabel(ev), ev.Steps)
	return ctx
}

func (o *LogObserver) StepStarted(ctx context.Context, ev Event) context.Context {
	if ev.Attempt > 0 {
		o.logger.Debugf("%s step %d (%s) attempt %d starting", chainLabel(ev), ev.Index, ev.Step, ev.Attempt)
		return ctx
	}
	o.logger.Debugf("%s step %d (%s) starting", chainLabel(ev), ev.Index, ev.Step)
	return ctx
}

func (o *LogObserver) StepFinished(_ context.Context, ev Event) {
	if ev.Failed {
		o.logger.Debugf("%s step %d (%s) failed after %v: %v", chainLabel(ev), ev.Index, ev.Step, ev.Duration, ev.Err)
		return
	}
	o.logger.Debugf("%s step %d (%s) succeeded after %v", chainLabel(ev), ev.Index, ev.Step, ev.Duration)
}

func (o *LogObserver) StepSkipped(_ context.Context, ev Event) {
	o.logger.Debugf("%s step %d (%s) skipped", chainLabel(ev), ev.Index, ev.Step)
}

func (o *LogObserver) RetryScheduled(_ context.Context, ev Event) {
	o.logger.Warnf("%s step %d (%s) attempt %d scheduled in %v", chainLabel(ev), ev.Index, ev.Step, ev.Attempt, ev.Delay)
}

func (o *LogObserver) ChainFinished(_ context.Context, ev Event) {
	if ev.Failed {
		o.logger.Errorf("%s failed after %v: %v", chainLabel(ev), ev.Duration, ev.Err)
		return
	}
	o.logger.Infof("%s succeeded after %v", chainLabel(ev), ev.Duration)
}

var _ Observer = (*LogObserver)(nil)
