package mdns

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
)

// AdvertiserConfig configures the provisioning-side advertiser.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: 120 * time.Second}
}

// Advertiser announces sealed credentials to one device.
type Advertiser struct {
	config AdvertiserConfig
	sealer *Sealer

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an advertiser for the device identified by code.
func NewAdvertiser(config AdvertiserConfig, code *OnboardingCode) (*Advertiser, error) {
	sealer, err := NewSealer(code.PoP, code.Discriminator)
	if err != nil {
		return nil, err
	}
	return &Advertiser{config: config, sealer: sealer}, nil
}

// InstanceName returns the service instance name for a discriminator.
func InstanceName(discriminator uint16) string {
	return fmt.Sprintf("wifiprov-%04d", discriminator)
}

// Announce seals cred and registers the provisioning service. An active
// announcement is replaced in place.
func (a *Advertiser) Announce(cred credential.Credential) error {
	ann, err := a.sealer.Seal(cred)
	if err != nil {
		return err
	}
	txt := TXTRecordsToStrings(EncodeAnnouncementTXT(ann))

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.SetText(txt)
		return nil
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		InstanceName(ann.Discriminator),
		ServiceType,
		Domain,
		DefaultPort,
		txt,
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register provisioning service: %w", err)
	}
	a.server = server
	return nil
}

// Stop withdraws the announcement.
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	return nil
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *Advertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
