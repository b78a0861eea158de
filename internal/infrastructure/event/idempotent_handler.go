package event

import (
	"context"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const DefaultIdempotencyTTL = 24 * time.Hour

// Outcomes recorded on the mall.events.handled counter.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// IdempotentHandler lets a subscriber see each event id once per key prefix.
// Stock restoration and Telegram fan-out are wrapped so a re-published
// OrderCancelled does not restock twice or message the same chat again.
type IdempotentHandler struct {
	next    shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	prefix  string
	logger  *zap.Logger
	meter   metric.Meter
	handled metric.Int64Counter
}

type IdempotentHandlerOption func(*IdempotentHandler)

func WithIdempotencyTTL(ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces keys so two wrapped subscribers can both handle
// one event. The prefix also labels the handler in metrics.
func WithKeyPrefix(prefix string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.prefix = prefix }
}

func WithMeter(meter metric.Meter) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if meter != nil {
			h.meter = meter
		}
	}
}

func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		next:   next,
		store:  store,
		ttl:    DefaultIdempotencyTTL,
		prefix: "event",
		logger: logger,
		meter:  noop.NewMeterProvider().Meter("mall"),
	}
	for _, opt := range opts {
		opt(h)
	}
	counter, err := h.meter.Int64Counter("mall.events.handled",
		metric.WithDescription("Domain events seen by idempotent subscribers"),
		metric.WithUnit("{event}"))
	if err != nil {
		logger.Warn("Event counter unavailable", zap.Error(err))
		counter, _ = noop.NewMeterProvider().Meter("mall").Int64Counter("mall.events.handled")
	}
	h.handled = counter
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle runs the wrapped subscriber unless the key was already claimed.
// When the store is unreachable the event is handled anyway; when the
// subscriber fails the key is released so a redelivery can try again.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := h.prefix + ":" + event.EventID().String()
	log := h.logger.With(zap.String("key", key), zap.String("event_type", event.EventType()))

	fresh, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		log.Warn("Idempotency check failed, handling anyway", zap.Error(err))
	case !fresh:
		h.record(ctx, event, OutcomeDuplicate)
		log.Debug("Duplicate event skipped")
		return nil
	}

	if err := h.next.Handle(ctx, event); err != nil {
		h.record(ctx, event, OutcomeFailed)
		if ferr := h.store.Forget(ctx, key); ferr != nil {
			log.Warn("Failed to release idempotency key", zap.Error(ferr))
		}
		return err
	}
	h.record(ctx, event, OutcomeProcessed)
	return nil
}

func (h *IdempotentHandler) record(ctx context.Context, event shared.DomainEvent, outcome string) {
	h.handled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("handler", h.prefix),
		attribute.String("event_type", event.EventType()),
		attribute.String("outcome", outcome),
	))
}

// Unwrap returns the wrapped subscriber.
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.next
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
