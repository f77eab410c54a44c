package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/router"
)

const defaultTracerName = "navrouter"

type tracingConfig struct {
	tracerName string
	provider   trace.TracerProvider
}

// TracingOption configures the tracing observer.
type TracingOption func(*tracingConfig)

// WithTracerName sets the tracer name (default: "navrouter").
func WithTracerName(name string) TracingOption {
	return func(c *tracingConfig) {
		c.tracerName = name
	}
}

// WithTracerProvider sets the provider (default: the global provider).
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *tracingConfig) {
		c.provider = tp
	}
}

// Tracer is a router.Observer that reports router events to
// OpenTelemetry. Publishes, redirects and errors become events on the
// span in the context; each history change gets its own short span.
type Tracer struct {
	tracer trace.Tracer
}

// Tracing creates a tracing observer.
func Tracing(opts ...TracingOption) *Tracer {
	config := tracingConfig{tracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.provider == nil {
		config.provider = otel.GetTracerProvider()
	}
	return &Tracer{tracer: config.provider.Tracer(config.tracerName)}
}

// OnPublish implements router.Observer.
func (t *Tracer) OnPublish(ctx context.Context, v router.RouteAndState) {
	trace.SpanFromContext(ctx).AddEvent("navrouter.publish", trace.WithAttributes(
		attribute.String("navrouter.label", v.Route.Label),
		attribute.String("navrouter.selector", v.Route.Selector),
		attribute.String("navrouter.path", v.State.Path),
	))
}

// OnNavigate implements router.Observer.
func (t *Tracer) OnNavigate(ctx context.Context, kind router.NavigationKind, path string) {
	_, span := t.tracer.Start(ctx, "navrouter.navigate."+string(kind),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("navrouter.kind", string(kind)),
			attribute.String("navrouter.path", path),
		),
	)
	span.End()
}

// OnRedirect implements router.Observer.
func (t *Tracer) OnRedirect(ctx context.Context, from, to string) {
	trace.SpanFromContext(ctx).AddEvent("navrouter.redirect", trace.WithAttributes(
		attribute.String("navrouter.from", from),
		attribute.String("navrouter.to", to),
	))
}

// OnError implements router.Observer.
func (t *Tracer) OnError(ctx context.Context, op string, err error) {
	trace.SpanFromContext(ctx).RecordError(err, trace.WithAttributes(
		attribute.String("navrouter.op", op),
		attribute.String("navrouter.code", errors.CodeOf(err)),
	))
}

var _ router.Observer = (*Tracer)(nil)
