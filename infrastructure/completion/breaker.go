package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"knowspark/application/ports"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for the completion circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Trip once FailureRatio of at least MinRequests calls failed
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns the default breaker configuration
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  5,
		Interval:     30 * time.Second,
		Timeout:      60 * time.Second,
		FailureRatio: 0.8,
		MinRequests:  5,
	}
}

// BreakerStateObserver receives breaker state changes. States are
// 0 closed, 1 half-open, 2 open.
type BreakerStateObserver interface {
	SetBreakerState(name string, state int)
}

// ErrUnavailable is returned while the breaker rejects calls
var ErrUnavailable = errors.New("completion service temporarily unavailable")

// BreakerProvider wraps a provider with a circuit breaker
type BreakerProvider struct {
	next ports.CompletionService
	cb   *gobreaker.CircuitBreaker
}

var _ ports.CompletionService = (*BreakerProvider)(nil)

// NewBreakerProvider wraps next. observer may be nil.
func NewBreakerProvider(next ports.CompletionService, config BreakerConfig, observer BreakerStateObserver, logger *zap.Logger) *BreakerProvider {
	if config.Name == "" {
		config.Name = next.Name()
	}
	if observer != nil {
		observer.SetBreakerState(config.Name, int(gobreaker.StateClosed))
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if observer != nil {
				observer.SetBreakerState(name, int(to))
			}
		},
		// A caller giving up says nothing about the provider's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerProvider{next: next, cb: cb}
}

// Name reports the wrapped provider's name
func (b *BreakerProvider) Name() string {
	return b.next.Name()
}

// State returns the current breaker state
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

// Complete calls the wrapped provider unless the breaker is open
func (b *BreakerProvider) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", err
	}
	return out.(string), nil
}

// Close releases the wrapped provider when it holds resources
func (b *BreakerProvider) Close() error {
	if c, ok := b.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
