package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studymesh/studymesh-backend/internal/platform/logger"
	"github.com/studymesh/studymesh-backend/internal/realtime"
	"github.com/studymesh/studymesh-backend/internal/realtime/bus"
)

// Hooks captures aggregate-level observability and lifecycle events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
	EmitTransition(entity string, entityID uuid.UUID, from, to string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration)  {}
func (noopHooks) IncConflict(string)                              {}
func (noopHooks) IncRetry(string)                                 {}
func (noopHooks) EmitTransition(string, uuid.UUID, string, string) {}

type loggerHooks struct {
	log *logger.Logger
}

// NewLoggerHooks creates aggregate hooks that record operations on the
// structured log.
func NewLoggerHooks(log *logger.Logger) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return &loggerHooks{log: log.With("component", "aggregates")}
}

func (h *loggerHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.log.Debug("aggregate operation",
		"op", strings.TrimSpace(name),
		"status", strings.TrimSpace(status),
		"duration_ms", dur.Milliseconds(),
	)
}

func (h *loggerHooks) IncConflict(name string) {
	h.log.Warn("aggregate conflict", "op", strings.TrimSpace(name))
}

func (h *loggerHooks) IncRetry(name string) {
	h.log.Warn("aggregate retryable failure", "op", strings.TrimSpace(name))
}

func (h *loggerHooks) EmitTransition(entity string, entityID uuid.UUID, from, to string) {
	h.log.Info("lifecycle transition",
		"entity", entity,
		"entity_id", entityID,
		"from", from,
		"to", to,
	)
}

type busHooks struct {
	inner Hooks
	bus   bus.Bus
	log   *logger.Logger
}

// NewBusHooks layers lifecycle-event publication over logging hooks.
// Publish failures are logged and swallowed; the write already committed.
func NewBusHooks(b bus.Bus, log *logger.Logger) Hooks {
	if b == nil {
		return NewLoggerHooks(log)
	}
	return &busHooks{
		inner: NewLoggerHooks(log),
		bus:   b,
		log:   log.With("component", "aggregate_bus_hooks"),
	}
}

func (h *busHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.inner.ObserveOperation(name, status, dur)
}

func (h *busHooks) IncConflict(name string) { h.inner.IncConflict(name) }
func (h *busHooks) IncRetry(name string)    { h.inner.IncRetry(name) }

func (h *busHooks) EmitTransition(entity string, entityID uuid.UUID, from, to string) {
	h.inner.EmitTransition(entity, entityID, from, to)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev := realtime.NewTransition(entity, entityID, from, to)
	if err := h.bus.Publish(ctx, ev); err != nil {
		h.log.Warn("lifecycle publish failed", "entity", entity, "error", err)
	}
}
