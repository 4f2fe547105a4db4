package mdns

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/wifiprov/wifiprov-go/pkg/provisioning"
)

// BrowserConfig configures the device-side browser.
type BrowserConfig struct {
	// Discriminator selects announcements addressed to this device.
	Discriminator uint16

	// PoP is the device's proof-of-possession code.
	PoP string

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger
}

// browseFunc matches zeroconf.Browse bound to the provisioning service.
type browseFunc func(ctx context.Context, entries, removed chan *zeroconf.ServiceEntry) error

// Browser watches for provisioning announcements. It implements
// provisioning.Transport.
type Browser struct {
	config BrowserConfig
	sealer *Sealer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	browse  browseFunc
	opened  uint64
	dropped uint64

	logger *slog.Logger
}

// NewBrowser creates a browser for the device described by config.
func NewBrowser(config BrowserConfig) (*Browser, error) {
	sealer, err := NewSealer(config.PoP, config.Discriminator)
	if err != nil {
		return nil, err
	}
	b := &Browser{
		config: config,
		sealer: sealer,
		logger: config.Logger,
	}
	b.browse = func(ctx context.Context, entries, removed chan *zeroconf.ServiceEntry) error {
		return zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, b.browserOptions()...)
	}
	return b, nil
}

// Start begins browsing. Announcements addressed to this device are
// reported to obs until ctx is done or Stop is called.
func (b *Browser) Start(ctx context.Context, obs provisioning.Observer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		if err := b.browse(ctx, entries, removed); err != nil && ctx.Err() == nil {
			b.warnLog("mdns browse stopped", "error", err)
		}
	}()
	go b.run(ctx, entries, removed, obs, b.done)

	b.debugLog("browsing for provisioning announcements",
		"service", ServiceType, "discriminator", b.config.Discriminator)
	return nil
}

// Stop ends browsing and waits for the delivery goroutine to exit.
func (b *Browser) Stop() error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return nil
}

// Stats returns the number of announcements opened and dropped.
func (b *Browser) Stats() (opened, dropped uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened, b.dropped
}

func (b *Browser) run(ctx context.Context, entries, removed chan *zeroconf.ServiceEntry, obs provisioning.Observer, done chan struct{}) {
	defer close(done)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if entry != nil {
				b.handleTXT(entry.Text, obs)
			}
		case _, ok := <-removed:
			if !ok {
				removed = nil
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleTXT decodes, filters and opens one announcement.
func (b *Browser) handleTXT(text []string, obs provisioning.Observer) {
	ann, err := DecodeAnnouncementTXT(StringsToTXTRecords(text))
	if err != nil {
		b.drop("malformed announcement", err)
		return
	}
	if ann.Discriminator != b.config.Discriminator {
		return
	}
	cred, err := b.sealer.Open(ann)
	if err != nil {
		b.drop("announcement rejected", err)
		return
	}

	b.mu.Lock()
	b.opened++
	b.mu.Unlock()

	err = obs.OnCredentialsDiscovered(provisioning.CredentialsDiscovered{
		SSID:   cred.SSID,
		Secret: cred.Secret,
		Source: Source,
		Time:   time.Now(),
	})
	if err != nil {
		b.debugLog("credential not applied", "ssid", cred.SSID, "error", err)
	}
}

func (b *Browser) drop(msg string, err error) {
	b.mu.Lock()
	b.dropped++
	b.mu.Unlock()
	b.debugLog(msg, "error", err)
}

// browserOptions returns zeroconf client options based on config.
func (b *Browser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

func (b *Browser) warnLog(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

func (b *Browser) debugLog(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

// Ensure Browser implements provisioning.Transport.
var _ provisioning.Transport = (*Browser)(nil)
