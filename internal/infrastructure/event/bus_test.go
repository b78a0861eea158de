package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Order", uuid.New(), uuid.New()),
		Data:            "payload",
	}
}

type recordingHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panicMsg   string
	block      chan struct{}
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newRecordingHandler("OrderCreated")
	bus.Subscribe(handler)

	evt := newTestEvent("OrderCreated")
	require.NoError(t, bus.Publish(context.Background(), evt, newTestEvent("OrderPaid")))

	require.Equal(t, 1, handler.count())
	assert.Equal(t, evt, handler.handled[0])
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newRecordingHandler("OrderCreated")
	bus.Subscribe(handler, "PaymentFailed")

	_ = bus.Publish(context.Background(), newTestEvent("OrderCreated"), newTestEvent("PaymentFailed"))

	assert.Equal(t, 1, handler.count())
	assert.Equal(t, "PaymentFailed", handler.handled[0].EventType())
}

func TestInMemoryEventBus_HandlerErrorIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newRecordingHandler("OrderPaid")
	failing.err = errors.New("telegram down")
	healthy := newRecordingHandler("OrderPaid")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))

	assert.Equal(t, 1, healthy.count())
	entries := logs.FilterMessage("Event handler failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "OrderPaid", entries[0].ContextMap()["event_type"])
}

func TestInMemoryEventBus_PanicRecovered(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	panicking := newRecordingHandler("OrderCancelled")
	panicking.panicMsg = "boom"
	after := newRecordingHandler("OrderCancelled")
	bus.Subscribe(panicking)
	bus.Subscribe(after)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent("OrderCancelled"))
	})
	assert.Equal(t, 1, after.count())
	assert.Equal(t, 1, logs.FilterMessage("Event handler panicked").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newRecordingHandler("OrderShipped")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("OrderShipped"))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("OrderShipped"))

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_AsyncDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch(), WithHandlerTimeout(time.Second))
	handler := newRecordingHandler("PaymentCompleted")
	handler.block = make(chan struct{})
	bus.Subscribe(handler)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, newTestEvent("PaymentCompleted")))
	cancel() // a finished request must not abort the handler

	assert.Equal(t, 0, handler.count(), "publish returns before the handler runs")
	close(handler.block)

	stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_StopTimesOut(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	handler := newRecordingHandler("OrderCreated")
	handler.block = make(chan struct{})
	defer close(handler.block)
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("OrderCreated"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)
}

func TestInMemoryEventBus_SyncAfterStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	require.NoError(t, bus.Stop(context.Background()))

	handler := newRecordingHandler("OrderCreated")
	bus.Subscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("OrderCreated"))

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_SpanPerDelivery(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	bus := NewInMemoryEventBus(zap.NewNop(), WithTracerProvider(tp))

	ok := newRecordingHandler("PaymentCompleted")
	failing := newRecordingHandler("PaymentCompleted")
	failing.err = errors.New("chat not found")
	bus.Subscribe(ok)
	bus.Subscribe(failing)

	evt := newTestEvent("PaymentCompleted")
	require.NoError(t, bus.Publish(context.Background(), evt))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "event PaymentCompleted", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "chat not found", spans[1].Status().Description)
}
