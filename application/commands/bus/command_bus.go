// Package bus routes state-changing commands to their handlers.
package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrHandlerNotFound is returned for commands with no registered handler
var ErrHandlerNotFound = errors.New("command handler not found")

// Command changes state. Commands carry every ID they need, so handlers
// return only an error.
type Command interface {
	Validate() error
}

// CommandHandler handles one command type
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc adapts a function to CommandHandler
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// Middleware decorates a command handler
type Middleware func(next CommandHandler) CommandHandler

// CommandBus dispatches commands by their concrete type. Middleware given
// to NewCommandBus wraps every registered handler, first one outermost.
type CommandBus struct {
	mu          sync.RWMutex
	handlers    map[reflect.Type]CommandHandler
	middlewares []Middleware
}

// NewCommandBus creates a command bus
func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{
		handlers:    make(map[reflect.Type]CommandHandler),
		middlewares: middlewares,
	}
}

// Register binds handler to the type of cmd
func (b *CommandBus) Register(cmd Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmd)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for command type %s", commandName(cmd))
	}

	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Send validates cmd and runs its handler
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %T", ErrHandlerNotFound, cmd)
	}

	if err := handler.Handle(ctx, cmd); err != nil {
		return fmt.Errorf("command %s failed: %w", commandName(cmd), err)
	}
	return nil
}

// Logged logs each command's outcome and duration
func Logged(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			name := commandName(cmd)
			start := time.Now()
			err := next.Handle(ctx, cmd)

			fields := []zap.Field{
				zap.String("command", name),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Warn("Command failed", append(fields, zap.Error(err))...)
				return err
			}
			logger.Debug("Command handled", fields...)
			return nil
		})
	}
}

// Metrics receives one record per executed command
type Metrics interface {
	RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error)
}

// Measured reports each command's latency and outcome
func Measured(metrics Metrics) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			start := time.Now()
			err := next.Handle(ctx, cmd)
			metrics.RecordCommandExecution(ctx, commandName(cmd), time.Since(start), err)
			return err
		})
	}
}

// Tracer runs fn inside a named trace span
type Tracer interface {
	TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error
}

// Traced runs each command inside a "command.<Name>" span
func Traced(tracer Tracer) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			return tracer.TraceFunction(ctx, "command."+commandName(cmd), func(ctx context.Context) error {
				return next.Handle(ctx, cmd)
			})
		})
	}
}

func commandName(cmd Command) string {
	t := reflect.TypeOf(cmd)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
