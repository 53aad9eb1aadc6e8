// Package local dispatches domain events to in-process subscribers
package local

import (
	"context"
	"fmt"
	"sync"

	"knowspark/application/ports"
	"knowspark/domain/events"

	"go.uber.org/zap"
)

// EventBus forwards events to an optional downstream publisher and then
// hands them to subscribed handlers. Handler failures are logged and never
// fail the publish.
type EventBus struct {
	mu         sync.RWMutex
	handlers   map[string][]ports.EventHandler
	downstream ports.EventPublisher
	logger     *zap.Logger
}

var _ ports.EventBus = (*EventBus)(nil)

// NewEventBus creates a bus. downstream may be nil.
func NewEventBus(downstream ports.EventPublisher, logger *zap.Logger) *EventBus {
	return &EventBus{
		handlers:   make(map[string][]ports.EventHandler),
		downstream: downstream,
		logger:     logger,
	}
}

// Subscribe registers handler for eventType
func (b *EventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	if !handler.CanHandle(eventType) {
		return fmt.Errorf("handler cannot handle %s events", eventType)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Publish sends one event
func (b *EventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	return b.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events downstream, then dispatches them locally.
// The downstream error is returned after local dispatch.
func (b *EventBus) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	var downstreamErr error
	if b.downstream != nil {
		downstreamErr = b.downstream.PublishBatch(ctx, domainEvents)
	}

	for _, event := range domainEvents {
		b.dispatch(ctx, event)
	}
	return downstreamErr
}

func (b *EventBus) dispatch(ctx context.Context, event events.DomainEvent) {
	b.mu.RLock()
	handlers := append([]ports.EventHandler(nil), b.handlers[event.GetEventType()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			b.logger.Warn("Event handler failed",
				zap.String("eventType", event.GetEventType()),
				zap.String("aggregateID", event.GetAggregateID()),
				zap.Error(err),
			)
		}
	}
}
