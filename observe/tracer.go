package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartCheckSpan starts a span for one health check invocation.
// Span name format: health.check.<name>.
func StartCheckSpan(ctx context.Context, tracer trace.Tracer, check string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "health.check."+check,
		trace.WithAttributes(attribute.String("check", check)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartStepSpan starts a span for one workflow step execution.
// Span name format: workflow.step.<name>.
func StartStepSpan(ctx context.Context, tracer trace.Tracer, step, component string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("step", step),
	}
	if component != "" {
		attrs = append(attrs, attribute.String("component", component))
	}

	return tracer.Start(ctx, "workflow.step."+step,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span, recording the error status if present.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
