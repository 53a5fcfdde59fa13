package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for ingestion runs.
const TracerName = "meeting-sync"

// Span attribute keys
const (
	AttrAccountID  = "account_id"
	AttrExternalID = "external_id"
	AttrMeetingID  = "meeting_id"
	AttrStep       = "step"
	AttrTrigger    = "trigger"
)

// SpanSync is the root span of one ingestion run.
const SpanSync = "meeting_sync.run"

// Tracer provides distributed tracing for ingestion runs.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer bound to the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// StartRunSpan starts the root span for one ingestion run.
func (t *Tracer) StartRunSpan(ctx context.Context, accountID, externalID, trigger string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanSync,
		trace.WithAttributes(
			attribute.String(AttrAccountID, accountID),
			attribute.String(AttrExternalID, externalID),
			attribute.String(AttrTrigger, trigger),
		),
	)
}

// StartStepSpan starts a span for a pipeline step.
func (t *Tracer) StartStepSpan(ctx context.Context, step string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "meeting_sync.step."+step,
		trace.WithAttributes(attribute.String(AttrStep, step)),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
