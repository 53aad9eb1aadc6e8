package ports

import (
	"context"
	"time"

	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	"knowspark/domain/events"
)

// ProjectRepository defines the interface for project persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type ProjectRepository interface {
	// Save persists a project with all of its questions (create or replace)
	Save(ctx context.Context, project *entities.Project) error

	// SaveBatch persists several projects of one user
	SaveBatch(ctx context.Context, projects []*entities.Project) error

	// GetByID retrieves a project by its ID. Missing projects are NotFound
	// AppErrors wrapping entities.ErrProjectNotFound.
	GetByID(ctx context.Context, id valueobjects.ProjectID) (*entities.Project, error)

	// ListByUser retrieves a user's projects, most recently updated first
	ListByUser(ctx context.Context, userID string) ([]*entities.Project, error)

	// Delete removes a project. Deleting a missing project is not an error.
	Delete(ctx context.Context, id valueobjects.ProjectID) error
}

// ConnectionRepository tracks open websocket connections per user
type ConnectionRepository interface {
	// Save stores a connection until expiresAt
	Save(ctx context.Context, userID, connectionID string, expiresAt time.Time) error

	// Delete removes a connection by ID
	Delete(ctx context.Context, connectionID string) error

	// ListByUser returns the user's live connection IDs
	ListByUser(ctx context.Context, userID string) ([]string, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus publishes events and dispatches them to in-process subscribers
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
