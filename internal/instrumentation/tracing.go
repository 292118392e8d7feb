package instrumentation

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope every permkit span is recorded
// under.
const TracerName = "github.com/Sentinel-Gate/permkit"

// Tracer returns the global otel tracer for permkit's scope. With no
// SDK configured this is a safe no-op, so an Enforcer can always call
// Tracer().Start without a nil check.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// NewStdoutTracerProvider builds a TracerProvider that writes spans as
// JSON to w, for local diagnostics; the permkit CLI does not wire it.
// Production embedders wire their own SDK and never call this.
func NewStdoutTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	), nil
}

// Shutdown flushes and stops tp, ignoring a nil provider.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
