package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	osexec "os/exec"
	"strings"
	"sync"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
)

// Default command templates for NetworkManager hosts.
const (
	DefaultConnect    = "nmcli --wait 30 device wifi connect {ssid} password {secret} ifname {iface}"
	DefaultDisconnect = "nmcli device disconnect {iface}"
)

// DefaultAddressTimeout bounds the wait for an address after a connect
// command succeeded.
const DefaultAddressTimeout = 15 * time.Second

// DefaultLinkPollInterval is how often a connected link's address is
// checked.
const DefaultLinkPollInterval = 2 * time.Second

// lostPolls consecutive failed checks report the link as lost.
const lostPolls = 2

// Config holds the command templates.
type Config struct {
	// Connect joins a network. Required.
	Connect string

	// Disconnect leaves the current network. Optional.
	Disconnect string

	// Provision prepares the radio for provisioning. Optional; when empty
	// EnterProvisioningMode only runs Disconnect.
	Provision string

	// CommandTimeout bounds each command. Zero means one minute.
	CommandTimeout time.Duration

	// AddressTimeout bounds the wait for an IPv4 address after connecting.
	AddressTimeout time.Duration

	// LinkPollInterval is how often the address of a connected link is
	// checked. Zero means DefaultLinkPollInterval.
	LinkPollInterval time.Duration

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns templates for NetworkManager.
func DefaultConfig() Config {
	return Config{
		Connect:    DefaultConnect,
		Disconnect: DefaultDisconnect,
	}
}

// runFunc runs argv and returns its combined output.
type runFunc func(ctx context.Context, argv []string) ([]byte, error)

// addrFunc returns the IPv4 address of an interface.
type addrFunc func(iface string) (link.Address, error)

// Driver runs commands to manage the link. It implements link.Driver.
type Driver struct {
	connect    Template
	disconnect Template
	provision  Template

	cmdTimeout   time.Duration
	addrTimeout  time.Duration
	pollInterval time.Duration

	run    runFunc
	lookup addrFunc

	mu          sync.Mutex
	q           *link.Queue
	cfg         link.Config
	initialized bool
	// gen invalidates outcomes of connect attempts that were superseded.
	gen    uint64
	active bool
	ssid   string
	wg     sync.WaitGroup
	done   chan struct{}
	closed bool

	logger *slog.Logger
}

// New parses the templates and creates a driver.
func New(cfg Config) (*Driver, error) {
	d := &Driver{
		cmdTimeout:   cfg.CommandTimeout,
		addrTimeout:  cfg.AddressTimeout,
		pollInterval: cfg.LinkPollInterval,
		run:          runCommand,
		lookup:       interfaceAddress,
		q:            link.NewQueue(),
		done:         make(chan struct{}),
		logger:       cfg.Logger,
	}
	if d.cmdTimeout <= 0 {
		d.cmdTimeout = time.Minute
	}
	if d.addrTimeout <= 0 {
		d.addrTimeout = DefaultAddressTimeout
	}
	if d.pollInterval <= 0 {
		d.pollInterval = DefaultLinkPollInterval
	}

	var err error
	if d.connect, err = ParseTemplate(cfg.Connect); err != nil {
		d.q.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	for _, opt := range []struct {
		src string
		dst *Template
	}{
		{cfg.Disconnect, &d.disconnect},
		{cfg.Provision, &d.provision},
	} {
		if strings.TrimSpace(opt.src) == "" {
			continue
		}
		if *opt.dst, err = ParseTemplate(opt.src); err != nil {
			d.q.Close()
			return nil, err
		}
	}
	return d, nil
}

// Init implements link.Driver. It checks that the interface exists when
// one is named.
func (d *Driver) Init(ctx context.Context, cfg link.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.Interface != "" {
		if _, err := net.InterfaceByName(cfg.Interface); err != nil {
			return fmt.Errorf("exec: interface %s: %w", cfg.Interface, err)
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	d.initialized = true
	return nil
}

// Start implements link.Driver.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return link.ErrNotInitialized
	}
	d.q.Push(link.StartedEvent())
	return nil
}

// Connect implements link.Driver. The connect command runs in the
// background; its outcome is reported as an event.
func (d *Driver) Connect(cred credential.Credential) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return link.ErrNotInitialized
	}
	d.leaveLocked()

	d.gen++
	d.active = true
	d.ssid = cred.SSID
	argv := d.connect.Expand(d.varsLocked(cred, ""))
	gen, iface := d.gen, d.cfg.Interface

	d.wg.Add(1)
	go d.associate(gen, argv, iface, cred.SSID)
	return nil
}

// Disconnect implements link.Driver.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return link.ErrNotInitialized
	}
	d.leaveLocked()
	argv := d.expandLocked(d.disconnect, "")
	d.mu.Unlock()

	if argv == nil {
		return nil
	}
	// A failing disconnect usually means there was nothing to leave.
	if out, err := d.exec(argv); err != nil {
		d.debugLog("disconnect command failed", "error", err, "output", string(out))
	}
	return nil
}

// EnterProvisioningMode implements link.Driver.
func (d *Driver) EnterProvisioningMode(cfg link.ProvisioningConfig) error {
	if err := d.Disconnect(); err != nil {
		return err
	}

	d.mu.Lock()
	argv := d.expandLocked(d.provision, cfg.Scheme)
	d.mu.Unlock()
	if argv == nil {
		return nil
	}
	if out, err := d.exec(argv); err != nil {
		return fmt.Errorf("exec: provisioning mode: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Events implements link.Driver.
func (d *Driver) Events() <-chan link.Event {
	return d.q.C()
}

// Close waits for running commands and closes the event channel.
func (d *Driver) Close() {
	d.mu.Lock()
	d.gen++
	if !d.closed {
		d.closed = true
		close(d.done)
	}
	d.mu.Unlock()
	d.wg.Wait()
	d.q.Close()
}

func (d *Driver) associate(gen uint64, argv []string, iface, ssid string) {
	defer d.wg.Done()

	out, err := d.exec(argv)
	if err != nil {
		d.debugLog("connect command failed", "ssid", ssid, "error", err, "output", string(out))
		d.finish(gen, link.DisconnectedEvent(classify(out), ssid))
		return
	}

	addr, err := d.waitAddress(gen, iface)
	if err != nil {
		d.debugLog("no address after connect", "ssid", ssid, "error", err)
		d.finish(gen, link.DisconnectedEvent(link.ReasonConnectionFail, ssid))
		return
	}
	if !d.finish(gen, link.ConnectedEvent(addr)) {
		return
	}
	d.watch(gen, iface, ssid)
}

// watch polls the address of a connected link and reports a drop once it
// is gone for lostPolls checks in a row.
func (d *Driver) watch(gen uint64, iface, ssid string) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	misses := 0
	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
		}
		if !d.current(gen) {
			return
		}
		addr, err := d.lookup(iface)
		if err == nil && addr.IsValid() {
			misses = 0
			continue
		}
		if misses++; misses < lostPolls {
			continue
		}
		d.debugLog("link lost", "ssid", ssid, "error", err)
		d.finish(gen, link.DisconnectedEvent(link.ReasonBeaconTimeout, ssid))
		return
	}
}

func (d *Driver) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.gen
}

// finish reports ev unless the attempt was superseded.
func (d *Driver) finish(gen uint64, ev link.Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		return false
	}
	if ev.Type == link.EventDisconnected {
		d.active = false
	}
	d.q.Push(ev)
	return true
}

func (d *Driver) waitAddress(gen uint64, iface string) (link.Address, error) {
	deadline := time.Now().Add(d.addrTimeout)
	for {
		addr, err := d.lookup(iface)
		if err == nil && addr.IsValid() {
			return addr, nil
		}
		if time.Now().After(deadline) {
			if err == nil {
				err = errors.New("no IPv4 address")
			}
			return link.Address{}, err
		}
		if !d.current(gen) {
			return link.Address{}, errors.New("superseded")
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// leaveLocked reports a local leave for an attempt or link in progress.
func (d *Driver) leaveLocked() {
	if !d.active {
		return
	}
	d.gen++
	d.active = false
	d.q.Push(link.DisconnectedEvent(link.ReasonLeave, d.ssid))
}

func (d *Driver) expandLocked(t Template, scheme string) []string {
	if t.IsZero() {
		return nil
	}
	return t.Expand(d.varsLocked(credential.Credential{}, scheme))
}

func (d *Driver) varsLocked(cred credential.Credential, scheme string) map[string]string {
	return map[string]string{
		PlaceholderSSID:      cred.SSID,
		PlaceholderSecret:    cred.Secret,
		PlaceholderInterface: d.cfg.Interface,
		PlaceholderHostname:  d.cfg.Hostname,
		PlaceholderScheme:    scheme,
	}
}

func (d *Driver) exec(argv []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cmdTimeout)
	defer cancel()
	return d.run(ctx, argv)
}

func (d *Driver) debugLog(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

// classify maps command output to a disconnect reason.
func classify(out []byte) link.Reason {
	s := strings.ToLower(string(out))
	switch {
	case strings.Contains(s, "secrets were required"),
		strings.Contains(s, "password"),
		strings.Contains(s, "auth"):
		return link.ReasonAuthFail
	case strings.Contains(s, "no network with ssid"),
		strings.Contains(s, "not found"):
		return link.ReasonNoAPFound
	case strings.Contains(s, "timeout"), strings.Contains(s, "timed out"):
		return link.ReasonHandshakeTimeout
	default:
		return link.ReasonConnectionFail
	}
}

func runCommand(ctx context.Context, argv []string) ([]byte, error) {
	return osexec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
}

// ErrNoInterface is returned by the address lookup when no interface is
// configured.
var ErrNoInterface = errors.New("exec: no interface configured")

// interfaceAddress returns the first IPv4 address of iface.
func interfaceAddress(iface string) (link.Address, error) {
	if iface == "" {
		return link.Address{}, ErrNoInterface
	}
	i, err := net.InterfaceByName(iface)
	if err != nil {
		return link.Address{}, err
	}
	addrs, err := i.Addrs()
	if err != nil {
		return link.Address{}, err
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipnet.IP.To4())
		if !ok || !ip.Is4() {
			continue
		}
		ones, _ := ipnet.Mask.Size()
		return link.Address{IP: ip, PrefixLen: ones}, nil
	}
	return link.Address{}, fmt.Errorf("exec: %s has no IPv4 address", iface)
}

var _ link.Driver = (*Driver)(nil)
