package sim

import (
	"context"
	"net/netip"
	"sync"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
)

// Radio states.
const (
	stateOff = iota
	stateIdle
	stateAssociating
	stateConnected
	stateProvisioning
)

// AccessPoint is a simulated network.
type AccessPoint struct {
	SSID    string
	Secret  string
	Address link.Address
}

// Option configures a Driver.
type Option func(*Driver)

// WithAccessPoint adds an access point. An invalid address is replaced by
// the default lease.
func WithAccessPoint(ap AccessPoint) Option {
	return func(d *Driver) { d.addAP(ap) }
}

// WithFailures scripts the outcome of the next connect requests.
func WithFailures(reasons ...link.Reason) Option {
	return func(d *Driver) { d.script = append(d.script, reasons...) }
}

// DefaultAddress is leased when an access point has no address configured.
var DefaultAddress = link.Address{
	IP:        netip.MustParseAddr("192.168.4.2"),
	PrefixLen: 24,
	Gateway:   netip.MustParseAddr("192.168.4.1"),
}

// Driver is a simulated radio. It implements link.Driver.
type Driver struct {
	mu sync.Mutex

	q     *link.Queue
	state int
	cfg   link.Config

	aps    map[string]AccessPoint
	script []link.Reason
	ssid   string

	scheme string

	// Injected errors returned by the next call of the matching method.
	initErr      error
	startErr     error
	connectErr   error
	provisionErr error

	connects     []credential.Credential
	provisioning int
}

// New creates a simulated radio.
func New(opts ...Option) *Driver {
	d := &Driver{
		q:   link.NewQueue(),
		aps: make(map[string]AccessPoint),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init implements link.Driver.
func (d *Driver) Init(ctx context.Context, cfg link.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeErr(&d.initErr); err != nil {
		return err
	}
	d.cfg = cfg
	if d.state == stateOff {
		d.state = stateIdle
	}
	return nil
}

// Start implements link.Driver.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateOff {
		return link.ErrNotInitialized
	}
	if err := d.takeErr(&d.startErr); err != nil {
		return err
	}
	d.q.Push(link.StartedEvent())
	return nil
}

// Connect implements link.Driver. The outcome is queued before Connect
// returns.
func (d *Driver) Connect(cred credential.Credential) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateOff {
		return link.ErrNotInitialized
	}
	if err := d.takeErr(&d.connectErr); err != nil {
		return err
	}
	d.leaveLocked()

	d.connects = append(d.connects, cred)
	d.ssid = cred.SSID
	d.state = stateAssociating

	if len(d.script) > 0 {
		reason := d.script[0]
		d.script = d.script[1:]
		d.failLocked(reason)
		return nil
	}

	ap, ok := d.aps[cred.SSID]
	switch {
	case !ok:
		d.failLocked(link.ReasonNoAPFound)
	case ap.Secret != cred.Secret:
		d.failLocked(link.ReasonAuthFail)
	default:
		d.state = stateConnected
		d.q.Push(link.ConnectedEvent(ap.Address))
	}
	return nil
}

// Disconnect implements link.Driver.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateOff {
		return link.ErrNotInitialized
	}
	d.leaveLocked()
	return nil
}

// EnterProvisioningMode implements link.Driver.
func (d *Driver) EnterProvisioningMode(cfg link.ProvisioningConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateOff {
		return link.ErrNotInitialized
	}
	if err := d.takeErr(&d.provisionErr); err != nil {
		return err
	}
	d.state = stateProvisioning
	d.scheme = cfg.Scheme
	d.provisioning++
	return nil
}

// Events implements link.Driver.
func (d *Driver) Events() <-chan link.Event {
	return d.q.C()
}

// Close closes the event channel.
func (d *Driver) Close() {
	d.q.Close()
}

// AddAccessPoint adds or replaces an access point.
func (d *Driver) AddAccessPoint(ap AccessPoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addAP(ap)
}

// RemoveAccessPoint removes an access point. A link to it is dropped with
// ReasonBeaconTimeout.
func (d *Driver) RemoveAccessPoint(ssid string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.aps, ssid)
	if d.state == stateConnected && d.ssid == ssid {
		d.failLocked(link.ReasonBeaconTimeout)
	}
}

// FailNext scripts the outcome of the next connect requests.
func (d *Driver) FailNext(reasons ...link.Reason) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = append(d.script, reasons...)
}

// Drop ends the current link or attempt with reason. It reports false if
// there was nothing to drop.
func (d *Driver) Drop(reason link.Reason) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateConnected && d.state != stateAssociating {
		return false
	}
	d.failLocked(reason)
	return true
}

// FailInit makes the next Init fail with err.
func (d *Driver) FailInit(err error) { d.set(&d.initErr, err) }

// FailStart makes the next Start fail with err.
func (d *Driver) FailStart(err error) { d.set(&d.startErr, err) }

// FailConnect makes the next Connect fail with err.
func (d *Driver) FailConnect(err error) { d.set(&d.connectErr, err) }

// FailProvisioning makes the next EnterProvisioningMode fail with err.
func (d *Driver) FailProvisioning(err error) { d.set(&d.provisionErr, err) }

// Connects returns the credentials of all connect requests so far.
func (d *Driver) Connects() []credential.Credential {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]credential.Credential(nil), d.connects...)
}

// Provisioning reports whether the radio is in provisioning mode, the
// scheme it was entered with, and how many times it was entered.
func (d *Driver) Provisioning() (active bool, scheme string, entries int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == stateProvisioning, d.scheme, d.provisioning
}

// Connected reports whether a link is up and to which SSID.
func (d *Driver) Connected() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateConnected {
		return "", false
	}
	return d.ssid, true
}

// Hostname returns the hostname passed to Init.
func (d *Driver) Hostname() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.Hostname
}

func (d *Driver) addAP(ap AccessPoint) {
	if !ap.Address.IsValid() {
		ap.Address = DefaultAddress
	}
	d.aps[ap.SSID] = ap
}

// leaveLocked reports a local leave for an attempt or link in progress.
func (d *Driver) leaveLocked() {
	if d.state == stateConnected || d.state == stateAssociating {
		d.q.Push(link.DisconnectedEvent(link.ReasonLeave, d.ssid))
		d.state = stateIdle
	}
}

func (d *Driver) failLocked(reason link.Reason) {
	d.q.Push(link.DisconnectedEvent(reason, d.ssid))
	d.state = stateIdle
}

func (d *Driver) set(slot *error, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	*slot = err
}

func (d *Driver) takeErr(slot *error) error {
	err := *slot
	*slot = nil
	return err
}

var _ link.Driver = (*Driver)(nil)
