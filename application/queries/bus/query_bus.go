// Package bus routes read-side queries to their handlers.
package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// ErrHandlerNotFound is returned for queries with no registered handler
var ErrHandlerNotFound = errors.New("query handler not found")

// Query outcomes passed to Metrics
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeCached  = "cached"
)

// Query is a read-only request
type Query interface {
	Validate() error
}

// CacheableQuery is a query whose result may be served from cache.
// Equal keys for the same query type must produce equal results.
type CacheableQuery interface {
	Query
	CacheKey() string
}

// QueryHandler answers one query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc adapts a function to QueryHandler
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// Middleware decorates a query handler
type Middleware func(next QueryHandler) QueryHandler

// QueryBus dispatches queries by their concrete type. Middleware given to
// NewQueryBus wraps every registered handler, first one outermost.
type QueryBus struct {
	mu          sync.RWMutex
	handlers    map[reflect.Type]QueryHandler
	middlewares []Middleware
}

// NewQueryBus creates a query bus
func NewQueryBus(middlewares ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:    make(map[reflect.Type]QueryHandler),
		middlewares: middlewares,
	}
}

// Register binds handler to the type of query
func (b *QueryBus) Register(query Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(query)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", queryName(query))
	}

	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask validates query and returns its handler's result
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, query)
	}

	result, err := handler.Handle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", queryName(query), err)
	}
	return result, nil
}

// Cache stores query results for a number of seconds
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl int) error
}

type cacheHitKey struct{}

// Cached serves CacheableQuery results from cache for ttl seconds. Other
// queries and failed results pass straight through.
func Cached(cache Cache, ttl int) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			cq, ok := query.(CacheableQuery)
			if !ok || ttl <= 0 {
				return next.Handle(ctx, query)
			}

			key := queryName(query) + ":" + cq.CacheKey()
			if cached, found := cache.Get(ctx, key); found {
				if hit, ok := ctx.Value(cacheHitKey{}).(*bool); ok {
					*hit = true
				}
				return cached, nil
			}

			result, err := next.Handle(ctx, query)
			if err != nil {
				return nil, err
			}
			_ = cache.Set(ctx, key, result, ttl)
			return result, nil
		})
	}
}

// Metrics receives one observation per answered query
type Metrics interface {
	ObserveQuery(query, outcome string, duration time.Duration)
}

// Measured reports each query's latency and outcome. Place it before
// Cached so cache hits are reported as such.
func Measured(metrics Metrics) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			hit := false
			start := time.Now()
			result, err := next.Handle(context.WithValue(ctx, cacheHitKey{}, &hit), query)

			outcome := OutcomeSuccess
			switch {
			case err != nil:
				outcome = OutcomeError
			case hit:
				outcome = OutcomeCached
			}
			metrics.ObserveQuery(queryName(query), outcome, time.Since(start))
			return result, err
		})
	}
}

func queryName(query Query) string {
	t := reflect.TypeOf(query)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
