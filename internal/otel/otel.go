// Package otel exports request and operation spans over OTLP.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/bookgraph/internal/eventbus"
	events "github.com/hanpama/bookgraph/internal/events"
	reqid "github.com/hanpama/bookgraph/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "bookgraph"

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Subscribe(tp.Tracer(tracerName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Subscribe attaches span-producing handlers to the global bus. Spans are
// correlated by the request carried in the context, so requests that share a
// client-supplied id never see each other's spans. Events without a request
// are ignored.
func Subscribe(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register()
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // *reqid.Request -> trace.Span
	gqlSpans  sync.Map // *reqid.Request -> trace.Span
}

func (s *subscriber) register() func() {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) {
			req, ok := reqid.RequestFromContext(ctx)
			if !ok {
				return
			}
			_, span := s.tracer.Start(ctx, "http.request")
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				attribute.String("http.target", e.Request.URL.Path),
				attribute.String("request.id", req.ID),
			)
			s.httpSpans.Store(req, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			span, ok := s.take(ctx, &s.httpSpans)
			if !ok {
				return
			}
			span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
			span.End()
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLStart) {
			req, ok := reqid.RequestFromContext(ctx)
			if !ok {
				return
			}
			parent := ctx
			if v, ok := s.httpSpans.Load(req); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "graphql.operation")
			span.SetAttributes(
				attribute.String("graphql.operation.name", e.OperationName),
				attribute.String("graphql.operation.type", e.OperationType),
			)
			s.gqlSpans.Store(req, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			span, ok := s.take(ctx, &s.gqlSpans)
			if !ok {
				return
			}
			span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
			for _, err := range e.Errors {
				span.RecordError(err)
			}
			span.End()
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.EntityCreated) {
			req, ok := reqid.RequestFromContext(ctx)
			if !ok {
				return
			}
			v, ok := s.gqlSpans.Load(req)
			if !ok {
				return
			}
			v.(trace.Span).AddEvent("entity.created", trace.WithAttributes(
				attribute.String("entity.kind", e.Kind),
				attribute.Int("entity.id", e.ID),
				attribute.String("entity.name", e.Name),
			))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// take removes and returns the span stored for ctx's request.
func (s *subscriber) take(ctx context.Context, spans *sync.Map) (trace.Span, bool) {
	req, ok := reqid.RequestFromContext(ctx)
	if !ok {
		return nil, false
	}
	v, ok := spans.LoadAndDelete(req)
	if !ok {
		return nil, false
	}
	return v.(trace.Span), true
}
