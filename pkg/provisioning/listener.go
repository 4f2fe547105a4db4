package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
	wlog "github.com/wifiprov/wifiprov-go/pkg/log"
)

// ErrNoTransport is returned by Activate when no transport is configured.
var ErrNoTransport = errors.New("provisioning: no transport configured")

// Controller is the association side of the listener.
// association.Controller implements it.
type Controller interface {
	// Pending reports whether a connect for cred awaits its outcome.
	Pending(cred credential.Credential) bool

	// OnCredentialsWritten connects with cred, re-arming the retry budget
	// when fresh is set.
	OnCredentialsWritten(cred credential.Credential, fresh bool) bool
}

// Persister saves accepted credentials.
type Persister interface {
	SaveCredential(cred credential.Credential) error
}

// Config configures a Listener.
type Config struct {
	// Transport is started when the radio enters provisioning mode.
	// Nil means credentials are only injected directly.
	Transport Transport

	// Persister, if set, saves every effectively written credential.
	Persister Persister

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// EventLogger receives credential events. Nil disables event logging.
	EventLogger wlog.Logger
}

// Stats counts credential deliveries.
type Stats struct {
	// Received counts valid deliveries.
	Received uint64

	// Rejected counts deliveries that failed validation.
	Rejected uint64

	// Duplicates counts valid deliveries that did not change the store.
	Duplicates uint64

	// Triggers counts connect requests issued by the listener.
	Triggers uint64
}

// Listener applies discovered credentials. It implements Observer and
// association.Activator.
type Listener struct {
	mu sync.Mutex

	driver    link.Driver
	store     *credential.Store
	ctrl      Controller
	transport Transport
	persister Persister

	ctx    context.Context
	cancel context.CancelFunc
	active bool

	stats Stats

	logger   *slog.Logger
	eventLog wlog.Logger
}

// NewListener creates a listener.
func NewListener(driver link.Driver, store *credential.Store, ctrl Controller, cfg Config) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		driver:    driver,
		store:     store,
		ctrl:      ctrl,
		transport: cfg.Transport,
		persister: cfg.Persister,
		ctx:       ctx,
		cancel:    cancel,
		logger:    cfg.Logger,
		eventLog:  cfg.EventLogger,
	}
}

// OnCredentialsDiscovered validates ev and, unless a connect for the same
// credential is already pending, drops the current attempt, writes the
// store and triggers a connect. Invalid credentials are discarded with an
// error wrapping credential.ErrInvalidFormat; provisioning stays active.
func (l *Listener) OnCredentialsDiscovered(ev CredentialsDiscovered) error {
	cred, err := credential.New(ev.SSID, ev.Secret)
	if err != nil {
		l.mu.Lock()
		l.stats.Rejected++
		l.mu.Unlock()

		l.warnLog("discarding provisioned credential", "source", ev.Source, "error", err)
		l.logCredential(ev, false, true)
		return fmt.Errorf("provisioning: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.Received++

	if l.ctrl.Pending(cred) {
		l.stats.Duplicates++
		l.debugLog("connect already pending for credential", "ssid", cred.SSID, "source", ev.Source)
		l.logCredential(ev, true, false)
		return nil
	}

	if err := l.driver.Disconnect(); err != nil {
		l.debugLog("disconnect before reconnect failed", "error", err)
	}

	changed, err := l.store.Set(cred)
	if err != nil {
		return fmt.Errorf("provisioning: %w", err)
	}
	if !changed {
		l.stats.Duplicates++
	}
	if changed && l.persister != nil {
		if err := l.persister.SaveCredential(cred); err != nil {
			l.warnLog("saving credential failed", "error", err)
		}
	}
	l.infoLog("credential received", "ssid", cred.SSID, "source", ev.Source, "changed", changed)
	l.logCredential(ev, !changed, false)

	if l.ctrl.OnCredentialsWritten(cred, changed) {
		l.stats.Triggers++
	}
	return nil
}

// Activate starts the transport. Calling Activate on an active listener
// has no effect.
func (l *Listener) Activate() error {
	l.mu.Lock()
	if l.transport == nil {
		l.mu.Unlock()
		return ErrNoTransport
	}
	if l.active {
		l.mu.Unlock()
		return nil
	}
	l.active = true
	ctx := l.ctx
	transport := l.transport
	l.mu.Unlock()

	if err := transport.Start(ctx, l); err != nil {
		l.mu.Lock()
		l.active = false
		l.mu.Unlock()
		return err
	}
	l.infoLog("provisioning transport started")
	return nil
}

// Deactivate stops the transport if it is running.
func (l *Listener) Deactivate() error {
	l.mu.Lock()
	if !l.active {
		l.mu.Unlock()
		return nil
	}
	l.active = false
	transport := l.transport
	l.mu.Unlock()

	l.infoLog("provisioning transport stopped")
	return transport.Stop()
}

// Active reports whether the transport is running.
func (l *Listener) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Stats returns delivery counters.
func (l *Listener) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Close stops the transport and releases the listener.
func (l *Listener) Close() error {
	l.cancel()
	return l.Deactivate()
}

func (l *Listener) logCredential(ev CredentialsDiscovered, duplicate, rejected bool) {
	if l.eventLog == nil {
		return
	}
	cat := wlog.CategoryCredential
	if rejected {
		cat = wlog.CategoryError
	}
	l.eventLog.Log(wlog.Event{
		Layer:    wlog.LayerProvisioning,
		Category: cat,
		Credential: &wlog.CredentialEvent{
			SSID:      ev.SSID,
			Source:    ev.Source,
			Duplicate: duplicate,
			Rejected:  rejected,
		},
	})
}

func (l *Listener) infoLog(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}

func (l *Listener) warnLog(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}

func (l *Listener) debugLog(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

// Compile-time interface satisfaction check.
var _ Observer = (*Listener)(nil)
