package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Database attribute keys.
const (
	DBSystem     = "db.system"
	DBName       = "db.name"
	DBOperation  = "db.operation"
	DBStatement  = "db.statement"
	DBCollection = "db.mongodb.collection"
	DBSource     = "db.source"
	DBRows       = "db.response.returned_rows"
)

// StartSpan starts a client span on the global tracer.
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks the span in ctx as failed. A nil err is ignored.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceIDFromContext returns the active trace ID, or "" without a trace.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// KeyValue is a span attribute.
type KeyValue = attribute.KeyValue

// String creates a string attribute.
func String(key, value string) KeyValue {
	return attribute.String(key, value)
}

// Int creates an integer attribute.
func Int(key string, value int) KeyValue {
	return attribute.Int(key, value)
}
