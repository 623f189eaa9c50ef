package outcome

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Observer is notified with the record of every test phase.
type Observer interface {
	Observe(ctx context.Context, rec Record) error
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(ctx context.Context, rec Record) error

func (f ObserverFunc) Observe(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// Dispatcher delivers records synchronously to observers in registration order.
// An observer error is logged and collected but never stops delivery.
type Dispatcher struct {
	logger *slog.Logger

	mu        sync.RWMutex
	observers []Observer
	errs      []error
}

// NewDispatcher creates a Dispatcher. A nil logger uses slog.Default().
func NewDispatcher(logger *slog.Logger, observers ...Observer) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger:    logger,
		observers: observers,
	}
}

// Register adds an observer.
func (d *Dispatcher) Register(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

// Dispatch hands rec to every observer.
func (d *Dispatcher) Dispatch(ctx context.Context, rec Record) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, o := range observers {
		if err := o.Observe(ctx, rec); err != nil {
			d.logger.Warn("Observer failed",
				slog.String("test", rec.TestID),
				slog.String("phase", string(rec.Phase)),
				slog.Any("err", err),
			)
			d.mu.Lock()
			d.errs = append(d.errs, fmt.Errorf("%s/%s: %w", rec.TestID, rec.Phase, err))
			d.mu.Unlock()
		}
	}
}

// Err returns all observer errors so far joined into one, or nil.
func (d *Dispatcher) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return errors.Join(d.errs...)
}
