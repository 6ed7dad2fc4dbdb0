package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jzx17/asyncchain/pkg/observe"

// Tracer records a span per chain run and a child span per step attempt.
// The step span is carried by the context handed to the step, so nested
// chains started with that context become children of the step.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracing observer. A nil provider uses the global one.
func NewTracer(provider trace.TracerProvider) *Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracer{tracer: provider.Tracer(instrumentationName)}
}

// ChainSpanName returns the span name for a chain run.
// Format: chain.run.<name> or chain.run
func ChainSpanName(ev Event) string {
	if ev.Chain != "" {
		return "chain.run." + ev.Chain
	}
	return "chain.run"
}

// StepSpanName returns the span name for a step attempt.
// Format: chain.step.<step>
func StepSpanName(ev Event) string {
	return "chain.step." + ev.Step
}

func (t *Tracer) ChainStarted(ctx context.Context, ev Event) context.Context {
	attrs := []attribute.KeyValue{
		attribute.String("chain.run_id", ev.RunID),
		attribute.Int("chain.steps", ev.Steps),
	}
	if ev.Chain != "" {
		attrs = append(attrs, attribute.String("chain.name", ev.Chain))
	}

	ctx, _ = t.tracer.Start(ctx, ChainSpanName(ev),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx
}

func (t *Tracer) StepStarted(ctx context.Context, ev Event) context.Context {
	ctx, _ = t.tracer.Start(ctx, StepSpanName(ev),
		trace.WithAttributes(
			attribute.String("chain.run_id", ev.RunID),
			attribute.Int("step.index", ev.Index),
			attribute.String("step.name", ev.Step),
			attribute.String("step.kind", string(ev.Kind)),
			attribute.Int64("step.attempt", int64(ev.Attempt)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx
}

func endSpan(span trace.Span, ev Event) {
	if ev.Failed {
		msg := fmt.Sprint(ev.Err)
		span.SetStatus(codes.Error, msg)
		if err, ok := ev.Err.(error); ok {
			span.RecordError(err)
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (t *Tracer) StepFinished(ctx context.Context, ev Event) {
	endSpan(trace.SpanFromContext(ctx), ev)
}

func (t *Tracer) StepSkipped(ctx context.Context, ev Event) {
	trace.SpanFromContext(ctx).AddEvent("step.skipped", trace.WithAttributes(
		attribute.Int("step.index", ev.Index),
		attribute.String("step.name", ev.Step),
	))
}

func (t *Tracer) RetryScheduled(ctx context.Context, ev Event) {
	trace.SpanFromContext(ctx).AddEvent("retry.scheduled", trace.WithAttributes(
		attribute.String("step.name", ev.Step),
		attribute.Int64("step.attempt", int64(ev.Attempt)),
		attribute.String("retry.delay", ev.Delay.String()),
	))
}

func (t *Tracer) ChainFinished(ctx context.Context, ev Event) {
	endSpan(trace.SpanFromContext(ctx), ev)
}

var _ Observer = (*Tracer)(nil)
