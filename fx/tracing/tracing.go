// Package tracing reports what an fx.Runtime does as OpenTelemetry spans.
//
// Every dispatch and every fx execution gets a span. Fx run by a dispatch are
// children of its span, and subscriber computations and invalidations are
// recorded as events on the innermost open span.
//
// The tracer comes from the global provider unless one is given:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	rt := fx.New(fx.WithHooks(tracing.New()))
package tracing

import (
	"context"
	"sync"

	"github.com/delaneyj/fxgraph/fx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "fxgraph"

// Config configures the tracing hooks.
type Config struct {
	// TracerName is the name of the tracer (default: "fxgraph").
	TracerName string

	// TracerProvider provides the tracer (default: otel.GetTracerProvider()).
	TracerProvider trace.TracerProvider

	// Context is the parent of every top level span (default: context.Background()).
	Context context.Context
}

// Option configures the tracing hooks.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithContext sets the parent context of top level spans.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// Hooks implements fx.Hooks with spans. Open spans are kept on a stack, so
// spans of concurrent dispatches on one runtime may end up nested in each
// other.
type Hooks struct {
	tracer trace.Tracer
	base   context.Context

	mu     sync.Mutex
	stack  []frame
	nextID uint64
}

type frame struct {
	id   uint64
	ctx  context.Context
	span trace.Span
}

var _ fx.Hooks = (*Hooks)(nil)

func New(opts ...Option) *Hooks {
	config := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	h := &Hooks{base: config.Context}
	if h.base == nil {
		h.base = context.Background()
	}
	if config.TracerProvider != nil {
		h.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		h.tracer = otel.Tracer(config.TracerName)
	}
	return h
}

func (h *Hooks) DispatchStarted(handler fx.Identifier) func(error) {
	return h.start("fxgraph.dispatch",
		attribute.String("fxgraph.handler", handler.String()),
	)
}

func (h *Hooks) FxStarted(id fx.Identifier) func(error) {
	return h.start("fxgraph.fx",
		attribute.String("fxgraph.fx", id.String()),
		attribute.Bool("fxgraph.core", id.IsCore()),
	)
}

func (h *Hooks) SubscriberComputed(id fx.Identifier, root bool) {
	h.event("subscriber computed",
		attribute.String("fxgraph.subscriber", id.String()),
		attribute.Bool("fxgraph.root", root),
	)
}

func (h *Hooks) SubscriberInvalidated(id fx.Identifier) {
	h.event("subscriber invalidated",
		attribute.String("fxgraph.subscriber", id.String()),
	)
}

func (h *Hooks) start(name string, attrs ...attribute.KeyValue) func(error) {
	h.mu.Lock()
	parent := h.base
	if n := len(h.stack); n > 0 {
		parent = h.stack[n-1].ctx
	}
	ctx, span := h.tracer.Start(parent, name, trace.WithAttributes(attrs...))
	h.nextID++
	id := h.nextID
	h.stack = append(h.stack, frame{id: id, ctx: ctx, span: span})
	h.mu.Unlock()

	return func(err error) {
		if err != nil {
			span.RecordError(err)
			if code := fx.Code(err); code != "" {
				span.SetAttributes(attribute.String("fxgraph.error_code", string(code)))
			}
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		h.pop(id)
	}
}

func (h *Hooks) pop(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.stack) - 1; i >= 0; i-- {
		if h.stack[i].id == id {
			h.stack = append(h.stack[:i], h.stack[i+1:]...)
			return
		}
	}
}

// Events outside any dispatch or fx are dropped.
func (h *Hooks) event(name string, attrs ...attribute.KeyValue) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.stack); n > 0 {
		h.stack[n-1].span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
