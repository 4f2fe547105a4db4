package link

import (
	"context"
	"log/slog"
	"sync"
)

// Observer receives link events. Each method is called from the dispatcher
// goroutine and must return quickly.
type Observer interface {
	OnLinkStarted()
	OnLinkConnected(addr Address)
	OnLinkDisconnected(ev Disconnected)
}

// Dispatcher delivers events from one source to its observers in order.
type Dispatcher struct {
	mu        sync.RWMutex
	observers []Observer
	delivered uint64

	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. logger may be nil.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Subscribe registers an observer. Observers are called in subscription order.
func (d *Dispatcher) Subscribe(o Observer) {
	if o == nil {
		panic("link: nil observer")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

// Delivered returns the number of events dispatched so far.
func (d *Dispatcher) Delivered() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.delivered
}

// Run delivers events until ctx is cancelled or events is closed.
func (d *Dispatcher) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.Dispatch(ev)
		}
	}
}

// Dispatch delivers a single event synchronously.
func (d *Dispatcher) Dispatch(ev Event) {
	d.mu.Lock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.delivered++
	d.mu.Unlock()

	d.debugLog("link event", "type", ev.Type.String())

	for _, o := range observers {
		switch ev.Type {
		case EventStarted:
			o.OnLinkStarted()
		case EventConnected:
			o.OnLinkConnected(ev.Address)
		case EventDisconnected:
			o.OnLinkDisconnected(ev.Disconnected)
		}
	}
}

func (d *Dispatcher) debugLog(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
