package bringup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/association"
	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
	wlog "github.com/wifiprov/wifiprov-go/pkg/log"
	"github.com/wifiprov/wifiprov-go/pkg/persistence"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning"
	"github.com/wifiprov/wifiprov-go/pkg/readiness"
	"github.com/wifiprov/wifiprov-go/pkg/timesync"
)

// Startup errors.
var (
	// ErrDriverInit is fatal: the radio could not be initialized.
	ErrDriverInit = errors.New("bringup: driver init failed")

	// ErrDriverStart is fatal: the link layer could not be started.
	ErrDriverStart = errors.New("bringup: driver start failed")

	// ErrAlreadyRun is returned when Run is called twice.
	ErrAlreadyRun = errors.New("bringup: sequencer already run")
)

// Config configures a Sequencer.
type Config struct {
	// Link is passed to Driver.Init.
	Link link.Config

	// Credential seeds the credential store. A credential found in State
	// takes precedence.
	Credential credential.Credential

	// Association configures the retry budget and provisioning scheme.
	// Logger fields left nil inherit the Sequencer's.
	Association association.Config

	// Transport delivers provisioned credentials. Nil means credentials can
	// only be injected through Listener().
	Transport provisioning.Transport

	// State, if set, seeds the store and persists provisioned credentials.
	State *persistence.StateStore

	// ReadyTimeout bounds the wait for an address. Zero waits forever.
	ReadyTimeout time.Duration

	// TimeSync, if set, is started with the address once the network is up.
	TimeSync *timesync.Syncer

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// EventLogger receives events from all layers. Nil disables event logging.
	EventLogger wlog.Logger
}

// Sequencer runs the startup sequence once and owns the components it wires.
type Sequencer struct {
	driver link.Driver
	cfg    Config

	mu         sync.Mutex
	ran        bool
	store      *credential.Store
	gate       *readiness.Gate
	controller *association.Controller
	listener   *provisioning.Listener
	dispatcher *link.Dispatcher

	lifetime context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	synced  chan struct{}
	syncErr error

	logger   *slog.Logger
	eventLog wlog.Logger
}

// New creates a sequencer for driver.
func New(driver link.Driver, cfg Config) (*Sequencer, error) {
	if driver == nil {
		return nil, errors.New("bringup: driver is required")
	}
	if cfg.ReadyTimeout < 0 {
		return nil, fmt.Errorf("bringup: ready timeout must not be negative: %v", cfg.ReadyTimeout)
	}
	if err := cfg.Association.Validate(); err != nil {
		return nil, err
	}
	if cfg.Association.Provisioning.Scheme == "" {
		cfg.Association.Provisioning = association.DefaultConfig().Provisioning
	}
	if cfg.Association.Logger == nil {
		cfg.Association.Logger = cfg.Logger
	}
	if cfg.Association.EventLogger == nil {
		cfg.Association.EventLogger = cfg.EventLogger
	}

	lifetime, cancel := context.WithCancel(context.Background())
	return &Sequencer{
		driver:   driver,
		cfg:      cfg,
		lifetime: lifetime,
		cancel:   cancel,
		synced:   make(chan struct{}),
		logger:   cfg.Logger,
		eventLog: cfg.EventLogger,
	}, nil
}

// Run initializes and starts the link, then blocks until the device has an
// address, a fatal error occurs, ctx is done or ReadyTimeout expires.
// Run may be called once.
func (s *Sequencer) Run(ctx context.Context) (link.Address, error) {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return link.Address{}, ErrAlreadyRun
	}
	s.ran = true
	s.mu.Unlock()

	s.infoLog("initializing radio", "hostname", s.cfg.Link.Hostname)
	if err := s.driver.Init(ctx, s.cfg.Link); err != nil {
		return link.Address{}, s.abort(fmt.Errorf("%w: %w", ErrDriverInit, err))
	}

	if err := s.wire(); err != nil {
		return link.Address{}, s.abort(err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.dispatcher.Run(s.lifetime, s.driver.Events()); err != nil && s.lifetime.Err() == nil {
			s.warnLog("link event dispatch stopped", "error", err)
		}
	}()

	if err := s.driver.Start(); err != nil {
		return link.Address{}, s.abort(fmt.Errorf("%w: %w", ErrDriverStart, err))
	}

	addr, err := s.waitReady(ctx)
	if err != nil {
		return link.Address{}, s.abort(err)
	}

	s.infoLog("network ready", "addr", addr.String())
	s.startTimeSync(addr)
	return addr, nil
}

// wire builds the store, gate, controller and listener and connects them.
func (s *Sequencer) wire() error {
	seed := s.cfg.Credential
	var persister provisioning.Persister
	if s.cfg.State != nil {
		stored, ok, err := s.cfg.State.LoadCredential()
		switch {
		case err != nil:
			s.warnLog("ignoring stored credential", "path", s.cfg.State.Path(), "error", err)
		case ok:
			s.infoLog("using stored credential", "ssid", stored.SSID)
			seed = stored
		}
		persister = s.cfg.State
	}

	store := credential.NewStore(seed)
	gate := readiness.NewGate(readiness.WithLogger(s.logger), readiness.WithEventLogger(s.eventLog))

	ctrl, err := association.NewController(s.driver, store, gate, s.cfg.Association)
	if err != nil {
		return err
	}

	listener := provisioning.NewListener(s.driver, store, ctrl, provisioning.Config{
		Transport:   s.cfg.Transport,
		Persister:   persister,
		Logger:      s.logger,
		EventLogger: s.eventLog,
	})
	if s.cfg.Transport != nil {
		ctrl.SetActivator(listener)
	}

	dispatcher := link.NewDispatcher(s.logger)
	dispatcher.Subscribe(ctrl)

	s.mu.Lock()
	s.store = store
	s.gate = gate
	s.controller = ctrl
	s.listener = listener
	s.dispatcher = dispatcher
	s.mu.Unlock()
	return nil
}

func (s *Sequencer) waitReady(ctx context.Context) (link.Address, error) {
	if s.cfg.ReadyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ReadyTimeout)
		defer cancel()
	}

	select {
	case <-s.gate.Done():
		addr, _ := s.gate.Address()
		return addr, nil
	case err := <-s.controller.Fatal():
		return link.Address{}, err
	case <-ctx.Done():
		// The gate may have opened concurrently with the deadline.
		if addr, ok := s.gate.Address(); ok {
			return addr, nil
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return link.Address{}, fmt.Errorf("%w after %v", readiness.ErrTimeout, s.cfg.ReadyTimeout)
		}
		return link.Address{}, ctx.Err()
	}
}

func (s *Sequencer) startTimeSync(addr link.Address) {
	if s.cfg.TimeSync == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, err := s.cfg.TimeSync.Sync(s.lifetime, addr)
		if err != nil && s.lifetime.Err() == nil {
			s.warnLog("time sync failed", "error", err)
		}
		s.mu.Lock()
		s.syncErr = err
		s.mu.Unlock()
		close(s.synced)
	}()
}

// abort logs a fatal startup error and releases background work.
func (s *Sequencer) abort(err error) error {
	if s.logger != nil {
		s.logger.Error("bring-up failed", "error", err)
	}
	if s.eventLog != nil {
		s.eventLog.Log(wlog.Event{
			Layer:    wlog.LayerReadiness,
			Category: wlog.CategoryError,
			Error: &wlog.ErrorEventData{
				Layer:   wlog.LayerReadiness,
				Message: err.Error(),
				Fatal:   true,
				Context: "bring-up",
			},
		})
	}
	s.Close()
	return err
}

// Close stops background dispatch, time sync and the provisioning transport.
// The driver itself is not stopped.
func (s *Sequencer) Close() error {
	s.cancel()

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}
	s.wg.Wait()
	return err
}

// Synced is closed once time sync has finished, successfully or not. It
// never closes if no Syncer is configured.
func (s *Sequencer) Synced() <-chan struct{} {
	return s.synced
}

// SyncErr returns the time-sync result once Synced is closed.
func (s *Sequencer) SyncErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncErr
}

// Fatal returns a channel that receives the fatal association error raised
// once the network is up, such as a refused reconnect. Run itself reports
// fatal errors seen before readiness. Nil before Run.
func (s *Sequencer) Fatal() <-chan error {
	if c := s.Controller(); c != nil {
		return c.Fatal()
	}
	return nil
}

// Err returns the fatal association error, if any.
func (s *Sequencer) Err() error {
	if c := s.Controller(); c != nil {
		return c.Err()
	}
	return nil
}

// Controller returns the association controller. Nil before Run.
func (s *Sequencer) Controller() *association.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller
}

// Listener returns the provisioning listener. Nil before Run.
func (s *Sequencer) Listener() *provisioning.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

// Store returns the credential store. Nil before Run.
func (s *Sequencer) Store() *credential.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// Gate returns the readiness gate. Nil before Run.
func (s *Sequencer) Gate() *readiness.Gate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate
}

func (s *Sequencer) infoLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Sequencer) warnLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
