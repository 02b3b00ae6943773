package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span for a gateway operation.
//
//	ctx, span := telemetry.StartSpan(ctx, "lavandaria/sessions", "sessions.Resolve",
//	    attribute.String(telemetry.AttrSessionBackend, "redis"),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and sets the span status to error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named event to the span with optional attributes.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Common attribute keys
const (
	AttrCorrelationID = "correlation.id"

	AttrPrincipalID   = "principal.id"
	AttrPrincipalType = "principal.type"

	AttrCredentialPartition = "credential.partition"
	AttrCredentialOutcome   = "credential.outcome"

	AttrSessionBackend   = "session.backend"
	AttrSessionOperation = "session.operation"

	AttrPolicyRoute   = "policy.route"
	AttrPolicyAllowed = "policy.allowed"
	AttrPolicyCode    = "policy.code"
)
