package ports

import "context"

// CompletionService turns a prompt into raw model text
type CompletionService interface {
	// Complete sends prompt to the model and returns its text unchanged
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider in logs and metrics
	Name() string
}

// Notifier pushes small JSON messages to a user's open clients
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, payload interface{}) error
}
