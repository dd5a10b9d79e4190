// Package messaging implements the in-process event bus of the academy
// engine.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cyber-academy/academy-engine/internal/domain/shared"
	"github.com/cyber-academy/academy-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher routes events to registered handlers with middleware,
// per-handler timeouts, and retries for transient failures. It sits on
// top of an EventBus and is the place where application-level event
// wiring happens (achievement evaluation, cache invalidation).
type Dispatcher struct {
	bus         EventBus
	mu          sync.RWMutex
	middlewares []Middleware
	retrier     *retry.Retrier
	timeout     time.Duration
	logger      *slog.Logger
	started     bool
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	// Bus is the event bus to attach handlers to.
	Bus EventBus

	// HandlerTimeout bounds each handler execution (0 = no timeout).
	HandlerTimeout time.Duration

	// Retrier retries handlers that fail with a retryable error.
	// When nil, handlers run exactly once.
	Retrier *retry.Retrier

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig(bus EventBus) DispatcherConfig {
	return DispatcherConfig{
		Bus:            bus,
		HandlerTimeout: 30 * time.Second,
		Retrier:        retry.HandlerRetrier(),
	}
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Dispatcher{
		bus:     config.Bus,
		retrier: config.Retrier,
		timeout: config.HandlerTimeout,
		logger:  config.Logger,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// Use adds middleware to the dispatcher. Middleware added first runs
// outermost. Must be called before Register.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// RecoveryMiddleware recovers from panics in handlers.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return shared.EventHandlerFunc{
			HandlerName: next.Name(),
			Fn: func(ctx context.Context, event shared.Event) (err error) {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("handler panicked",
							"handler", next.Name(),
							"event_type", event.EventType(),
							"panic", r,
						)
						err = fmt.Errorf("handler %s panicked: %v", next.Name(), r)
					}
				}()
				return next.Handle(ctx, event)
			},
		}
	}
}

// LoggingMiddleware logs handler execution.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return shared.EventHandlerFunc{
			HandlerName: next.Name(),
			Fn: func(ctx context.Context, event shared.Event) error {
				start := time.Now()
				err := next.Handle(ctx, event)
				duration := time.Since(start)

				if err != nil {
					logger.Error("handler failed",
						"handler", next.Name(),
						"event_type", event.EventType(),
						"aggregate_id", event.AggregateID(),
						"duration", duration,
						"error", err,
					)
				} else {
					logger.Debug("handler completed",
						"handler", next.Name(),
						"event_type", event.EventType(),
						"duration", duration,
					)
				}

				return err
			},
		}
	}
}

// TimeoutMiddleware bounds handler execution time.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return shared.EventHandlerFunc{
			HandlerName: next.Name(),
			Fn: func(ctx context.Context, event shared.Event) error {
				if timeout <= 0 {
					return next.Handle(ctx, event)
				}

				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				done := make(chan error, 1)
				go func() {
					done <- next.Handle(ctx, event)
				}()

				select {
				case err := <-done:
					return err
				case <-ctx.Done():
					return fmt.Errorf("handler %s timed out after %s", next.Name(), timeout)
				}
			},
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Registration
// ─────────────────────────────────────────────────────────────────────────────

// Register subscribes a handler for an event type, wrapped with the
// dispatcher's middleware chain, timeout and retry policy.
func (d *Dispatcher) Register(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	return d.bus.Subscribe(eventType, d.wrap(handler))
}

// RegisterAll subscribes a handler for every event.
func (d *Dispatcher) RegisterAll(handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	return d.bus.SubscribeAll(d.wrap(handler))
}

func (d *Dispatcher) wrap(handler shared.EventHandler) shared.EventHandler {
	d.mu.RLock()
	middlewares := make([]Middleware, len(d.middlewares))
	copy(middlewares, d.middlewares)
	d.mu.RUnlock()

	wrapped := handler

	// Retry sits closest to the handler so each attempt is timed and
	// logged individually by the outer middleware.
	if d.retrier != nil {
		wrapped = d.withRetry(wrapped)
	}

	if d.timeout > 0 {
		wrapped = TimeoutMiddleware(d.timeout)(wrapped)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (d *Dispatcher) withRetry(next shared.EventHandler) shared.EventHandler {
	return shared.EventHandlerFunc{
		HandlerName: next.Name(),
		Fn: func(ctx context.Context, event shared.Event) error {
			return d.retrier.Do(ctx, func(ctx context.Context) error {
				err := next.Handle(ctx, event)
				if err == nil {
					return nil
				}
				if shared.IsRetryable(err) {
					return retry.Retryable(err)
				}
				return retry.Permanent(err)
			})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// Start marks the dispatcher as running. Registration stays allowed;
// the flag exists for health reporting.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.started = true
	d.logger.Info("event dispatcher started")
	return nil
}

// Stop closes the underlying bus.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	d.started = false
	d.mu.Unlock()

	return d.bus.Close()
}

// IsRunning reports whether Start was called.
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.started
}
