package association

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
	wlog "github.com/wifiprov/wifiprov-go/pkg/log"
	"github.com/wifiprov/wifiprov-go/pkg/stability"
)

// Controller errors.
var (
	// ErrConnectIssue is fatal: the driver refused a connect request.
	ErrConnectIssue = errors.New("association: connect request failed")

	// ErrProvisioningUnavailable is fatal: the radio could not be switched
	// into provisioning mode, so no new credential can ever arrive.
	ErrProvisioningUnavailable = errors.New("association: provisioning mode unavailable")
)

// ReadySink receives the address once the link is up.
// readiness.Gate implements it.
type ReadySink interface {
	SignalReady(addr link.Address)
}

// Activator starts and stops the provisioning transport.
// provisioning.Listener implements it.
type Activator interface {
	Activate() error
	Deactivate() error
}

// Controller is the association state machine. It implements link.Observer.
// All handlers return quickly: decisions are made under the controller
// mutex and driver calls are issued after it is released.
type Controller struct {
	mu sync.Mutex

	driver    link.Driver
	store     *credential.Store
	ready     ReadySink
	activator Activator
	cfg       Config

	state  State
	budget int

	// connectPending is set from a connect request until its outcome.
	connectPending bool
	pendingCred    credential.Credential

	connects    uint64
	activations uint64

	// provisioningUp tracks whether the activator is running.
	provisioningUp bool

	failed error
	fatal  chan error

	stable *stability.Timer

	onStateChange func(oldState, newState State)

	logger   *slog.Logger
	eventLog wlog.Logger
}

// NewController creates a controller. ready may be nil.
func NewController(driver link.Driver, store *credential.Store, ready ReadySink, cfg Config) (*Controller, error) {
	if driver == nil || store == nil {
		return nil, fmt.Errorf("%w: driver and store are required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		driver:   driver,
		store:    store,
		ready:    ready,
		cfg:      cfg,
		state:    StateIdle,
		budget:   cfg.budget(),
		fatal:    make(chan error, 1),
		logger:   cfg.Logger,
		eventLog: cfg.EventLogger,
	}

	if cfg.StableResetAfter > 0 {
		timer, err := stability.NewTimer(cfg.StableResetAfter)
		if err != nil {
			return nil, err
		}
		timer.OnStable(func() { c.rearm("stable link") })
		c.stable = timer
	}

	return c, nil
}

// SetActivator sets the provisioning transport hook. Must be called before
// the link starts.
func (c *Controller) SetActivator(a Activator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activator = a
}

// OnStateChange sets a callback for state changes. The callback runs on the
// dispatcher goroutine and must not call back into the controller's handlers.
func (c *Controller) OnStateChange(fn func(oldState, newState State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange = fn
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Budget returns the remaining retry budget.
func (c *Controller) Budget() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget
}

// ConnectPending reports whether a connect request awaits its outcome.
func (c *Controller) ConnectPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectPending
}

// Pending reports whether a connect request for cred awaits its outcome.
func (c *Controller) Pending(cred credential.Credential) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectPending && c.pendingCred.Equal(cred)
}

// Connects returns the number of connect requests issued.
func (c *Controller) Connects() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

// ProvisioningActivations returns how many times provisioning was entered.
func (c *Controller) ProvisioningActivations() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activations
}

// Fatal returns a channel that receives the first fatal error.
func (c *Controller) Fatal() <-chan error {
	return c.fatal
}

// Err returns the fatal error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// OnLinkStarted issues the first connect request with the stored credential.
func (c *Controller) OnLinkStarted() {
	c.mu.Lock()
	if c.failed != nil || c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		c.debugLog("link started ignored", "state", state.String())
		return
	}
	cred := c.store.Get()
	tr := c.setStateLocked(StateConnecting)
	c.markPendingLocked(cred)
	c.mu.Unlock()

	c.notify(tr, "link started")
	c.infoLog("connecting", "ssid", cred.SSID)
	c.connect(cred)
}

// OnLinkConnected records the acquired address and releases the readiness
// sink.
func (c *Controller) OnLinkConnected(addr link.Address) {
	c.mu.Lock()
	if c.failed != nil {
		c.mu.Unlock()
		return
	}
	c.connectPending = false
	tr := c.setStateLocked(StateConnected)
	deactivate := c.provisioningUp
	c.provisioningUp = false
	activator := c.activator
	ready := c.ready
	c.mu.Unlock()

	c.notify(tr, "address acquired")
	c.infoLog("connected", "addr", addr.String())
	c.logEvent(wlog.Event{
		Layer:    wlog.LayerLink,
		Category: wlog.CategoryState,
		Address:  addressEvent(addr),
	})

	if deactivate && activator != nil {
		if err := activator.Deactivate(); err != nil {
			c.warnLog("stopping provisioning transport failed", "error", err)
		}
	}
	if ready != nil {
		ready.SignalReady(addr)
	}
	if c.stable != nil {
		c.stable.Start()
	}
}

// OnLinkDisconnected spends one unit of budget and either reconnects or,
// when the budget is exhausted, switches to provisioning.
func (c *Controller) OnLinkDisconnected(ev link.Disconnected) {
	if c.stable != nil {
		c.stable.Stop()
	}
	if ev.Reason.IsLocal() {
		c.debugLog("local disconnect ignored", "ssid", ev.SSID)
		return
	}

	c.mu.Lock()
	if c.failed != nil {
		c.mu.Unlock()
		return
	}
	switch c.state {
	case StateIdle:
		c.mu.Unlock()
		c.debugLog("disconnect before link start ignored", "reason", ev.Reason.String())
		return
	case StateProvisioningActive:
		c.mu.Unlock()
		c.infoLog("disconnect ignored while provisioning", "reason", ev.Reason.String(), "ssid", ev.SSID)
		return
	}

	c.connectPending = false
	if c.budget > 0 {
		c.budget--
	}
	remaining := c.budget

	if remaining > 0 {
		cred := c.store.Get()
		tr := c.setStateLocked(StateConnecting)
		c.markPendingLocked(cred)
		c.mu.Unlock()

		c.notify(tr, ev.Reason.String())
		c.infoLog("association failed, retrying",
			"reason", ev.Reason.String(), "ssid", ev.SSID, "remaining", remaining)
		c.logRetry(ev, remaining, false)
		c.connect(cred)
		return
	}

	tr := c.setStateLocked(StateProvisioningActive)
	c.activations++
	c.provisioningUp = true
	activator := c.activator
	c.mu.Unlock()

	c.notify(tr, "retry budget exhausted")
	c.infoLog("retry budget exhausted, entering provisioning",
		"reason", ev.Reason.String(), "ssid", ev.SSID, "scheme", c.cfg.Provisioning.Scheme)
	c.logRetry(ev, 0, true)

	if err := c.driver.EnterProvisioningMode(c.cfg.Provisioning); err != nil {
		c.fail(fmt.Errorf("%w: %w", ErrProvisioningUnavailable, err))
		return
	}
	if activator != nil {
		if err := activator.Activate(); err != nil {
			c.fail(fmt.Errorf("%w: transport: %w", ErrProvisioningUnavailable, err))
		}
	}
}

// OnCredentialsWritten connects with cred. The budget is re-armed only when
// fresh is set, that is when cred changed the store; a redelivery keeps the
// remaining budget. It returns false without acting when a connect for the
// same credential is already pending.
func (c *Controller) OnCredentialsWritten(cred credential.Credential, fresh bool) bool {
	c.mu.Lock()
	if c.failed != nil {
		c.mu.Unlock()
		return false
	}
	if c.connectPending && c.pendingCred.Equal(cred) {
		c.mu.Unlock()
		c.debugLog("connect already pending", "ssid", cred.SSID)
		return false
	}
	old := c.budget
	if fresh {
		c.budget = c.cfg.budget()
	}
	budget := c.budget
	tr := c.setStateLocked(StateConnecting)
	c.markPendingLocked(cred)
	c.mu.Unlock()

	c.notify(tr, "credentials written")
	c.infoLog("credentials received, connecting", "ssid", cred.SSID, "fresh", fresh, "budget", budget, "previous_budget", old)
	c.connect(cred)
	return true
}

// rearm restores the full budget without touching the state. The link must
// still be up: a drop handled after the hold elapsed keeps its cost.
func (c *Controller) rearm(why string) {
	c.mu.Lock()
	if c.failed != nil || c.state != StateConnected {
		state := c.state
		c.mu.Unlock()
		c.debugLog("budget re-arm skipped", "why", why, "state", state.String())
		return
	}
	old := c.budget
	c.budget = c.cfg.budget()
	c.mu.Unlock()

	if old != c.cfg.budget() {
		c.infoLog("retry budget re-armed", "why", why, "budget", c.cfg.budget())
	}
}

func (c *Controller) markPendingLocked(cred credential.Credential) {
	c.connectPending = true
	c.pendingCred = cred
	c.connects++
}

func (c *Controller) connect(cred credential.Credential) {
	if err := c.driver.Connect(cred); err != nil {
		c.fail(fmt.Errorf("%w: ssid %q: %w", ErrConnectIssue, cred.SSID, err))
	}
}

// fail records the first fatal error and stops the controller.
func (c *Controller) fail(err error) {
	c.mu.Lock()
	if c.failed != nil {
		c.mu.Unlock()
		return
	}
	c.failed = err
	c.connectPending = false
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Error("association stopped", "error", err)
	}
	c.logEvent(wlog.Event{
		Layer:    wlog.LayerAssociation,
		Category: wlog.CategoryError,
		Error:    &wlog.ErrorEventData{Layer: wlog.LayerLink, Message: err.Error(), Fatal: true},
	})

	select {
	case c.fatal <- err:
	default:
	}
}

type transition struct {
	from, to State
	fn       func(oldState, newState State)
}

func (c *Controller) setStateLocked(s State) transition {
	tr := transition{from: c.state, to: s, fn: c.onStateChange}
	c.state = s
	return tr
}

func (c *Controller) notify(tr transition, reason string) {
	if tr.from == tr.to {
		return
	}
	c.logEvent(wlog.Event{
		Layer:    wlog.LayerAssociation,
		Category: wlog.CategoryState,
		StateChange: &wlog.StateChangeEvent{
			OldState: tr.from.String(),
			NewState: tr.to.String(),
			Reason:   reason,
		},
	})
	if tr.fn != nil {
		tr.fn(tr.from, tr.to)
	}
}

func (c *Controller) logRetry(ev link.Disconnected, remaining int, exhausted bool) {
	c.logEvent(wlog.Event{
		Layer:    wlog.LayerAssociation,
		Category: wlog.CategoryRetry,
		Retry: &wlog.RetryEvent{
			Reason:     ev.Reason.String(),
			ReasonCode: uint16(ev.Reason),
			SSID:       ev.SSID,
			Remaining:  remaining,
			Exhausted:  exhausted,
		},
	})
}

func addressEvent(addr link.Address) *wlog.AddressEvent {
	ev := &wlog.AddressEvent{IP: addr.IP.String(), PrefixLen: addr.PrefixLen}
	if addr.Gateway.IsValid() {
		ev.Gateway = addr.Gateway.String()
	}
	return ev
}

func (c *Controller) logEvent(ev wlog.Event) {
	if c.eventLog != nil {
		c.eventLog.Log(ev)
	}
}

func (c *Controller) infoLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) warnLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Controller) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

// Compile-time interface satisfaction check.
var _ link.Observer = (*Controller)(nil)
