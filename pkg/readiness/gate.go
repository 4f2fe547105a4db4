package readiness

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/link"
	wlog "github.com/wifiprov/wifiprov-go/pkg/log"
)

// ErrTimeout is returned when a bounded wait expires before the gate is set.
var ErrTimeout = errors.New("readiness: timed out waiting for network")

// Gate is a single-permit readiness signal.
type Gate struct {
	mu       sync.Mutex
	ready    chan struct{}
	set      bool
	addr     link.Address
	setAt    time.Time
	signals  uint64
	logger   *slog.Logger
	eventLog wlog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// WithEventLogger sets the event logger.
func WithEventLogger(l wlog.Logger) Option {
	return func(g *Gate) { g.eventLog = l }
}

// NewGate creates an unset gate.
func NewGate(opts ...Option) *Gate {
	g := &Gate{ready: make(chan struct{})}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SignalReady records addr and releases all waiters. Only the first call has
// an effect; later calls are counted and otherwise ignored.
func (g *Gate) SignalReady(addr link.Address) {
	g.mu.Lock()
	g.signals++
	if g.set {
		g.mu.Unlock()
		g.debugLog("readiness already signaled", "addr", addr.String())
		return
	}
	g.set = true
	g.addr = addr
	g.setAt = time.Now()
	close(g.ready)
	g.mu.Unlock()

	if g.logger != nil {
		g.logger.Info("network ready", "addr", addr.String())
	}
	if g.eventLog != nil {
		g.eventLog.Log(wlog.Event{
			Layer:       wlog.LayerReadiness,
			Category:    wlog.CategoryState,
			StateChange: &wlog.StateChangeEvent{OldState: "WAITING", NewState: "READY"},
		})
	}
}

// Wait blocks until the gate is set or ctx is done. When ctx ends first it
// returns ErrTimeout.
func (g *Gate) Wait(ctx context.Context) (link.Address, error) {
	select {
	case <-g.ready:
		return g.address(), nil
	default:
	}

	select {
	case <-g.ready:
		return g.address(), nil
	case <-ctx.Done():
		return link.Address{}, ErrTimeout
	}
}

// WaitTimeout waits up to d. A negative d waits forever; zero polls.
func (g *Gate) WaitTimeout(d time.Duration) (link.Address, error) {
	if d < 0 {
		return g.Wait(context.Background())
	}
	if d == 0 {
		if addr, ok := g.Address(); ok {
			return addr, nil
		}
		return link.Address{}, ErrTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return g.Wait(ctx)
}

// Done returns a channel closed when the gate is set.
func (g *Gate) Done() <-chan struct{} {
	return g.ready
}

// Ready reports whether the gate has been set.
func (g *Gate) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.set
}

// Address returns the address captured by the first SignalReady.
func (g *Gate) Address() (link.Address, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr, g.set
}

// ReadyAt returns when the gate was set, or the zero time.
func (g *Gate) ReadyAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setAt
}

// Signals returns how many times SignalReady was called.
func (g *Gate) Signals() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.signals
}

func (g *Gate) address() link.Address {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr
}

func (g *Gate) debugLog(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
