package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/Marusmurong/mall-sub000/event"

type BusOption func(*InMemoryEventBus)

// WithAsyncDispatch runs each subscriber on its own goroutine, detached from
// the publishing request. Stop drains in-flight subscribers.
func WithAsyncDispatch() BusOption {
	return func(b *InMemoryEventBus) { b.async = true }
}

// WithHandlerTimeout bounds a detached subscriber. Ignored in sync mode.
func WithHandlerTimeout(d time.Duration) BusOption {
	return func(b *InMemoryEventBus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) BusOption {
	return func(b *InMemoryEventBus) { b.tracer = tp.Tracer(tracerName) }
}

// InMemoryEventBus fans domain events out to in-process subscribers: stock
// restoration, Telegram notifications and store metrics.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	tracer   trace.Tracer
	async    bool
	timeout  time.Duration
	accept   atomic.Bool
	inflight sync.WaitGroup
}

func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.accept.Store(true)
	return b
}

// Publish never returns a subscriber's error: the aggregate that raised the
// events is already saved, so failures are logged and traced only.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, evt := range events {
		for _, h := range b.registry.GetHandlers(evt.EventType()) {
			if !b.async || !b.accept.Load() {
				b.deliver(ctx, h, evt)
				continue
			}
			b.inflight.Add(1)
			go func() {
				defer b.inflight.Done()
				hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
				defer cancel()
				b.deliver(hctx, h, evt)
			}()
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, falling back to the types the
// handler declares itself.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

func (b *InMemoryEventBus) Start(context.Context) error {
	b.accept.Store(true)
	b.logger.Info("Event bus started", zap.Bool("async", b.async))
	return nil
}

// Stop waits for detached subscribers until ctx expires. Anything published
// afterwards is delivered synchronously.
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.accept.Store(false)
	drained := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus stopped with subscribers still running")
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) deliver(ctx context.Context, h shared.EventHandler, evt shared.DomainEvent) {
	ctx, span := b.tracer.Start(ctx, "event "+evt.EventType(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("event.id", evt.EventID().String()),
			attribute.String("event.aggregate_type", evt.AggregateType()),
			attribute.String("site_id", evt.SiteID().String()),
			attribute.String("event.handler", fmt.Sprintf("%T", h)),
		))
	defer span.End()

	fields := []zap.Field{
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.String("site_id", evt.SiteID().String()),
	}
	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "panic")
			b.logger.Error("Event handler panicked", append(fields, zap.Any("panic", r))...)
		}
	}()

	if err := h.Handle(ctx, evt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Error("Event handler failed", append(fields, zap.Error(err))...)
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
