package link

import (
	"context"
	"errors"
	"net/netip"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
)

// Driver errors.
var (
	ErrNotInitialized = errors.New("link driver not initialized")
	ErrNotStarted     = errors.New("link driver not started")
	ErrClosed         = errors.New("link driver closed")
)

// Driver is the radio driver boundary.
type Driver interface {
	// Init prepares the hardware. Must be called once before Start.
	Init(ctx context.Context, cfg Config) error

	// Start brings the link layer up. The driver emits Started when it can
	// accept a connect request.
	Start() error

	// Connect issues an association request. The outcome is reported as a
	// Connected or Disconnected event.
	Connect(cred credential.Credential) error

	// Disconnect drops the current association or aborts an attempt in
	// progress. Drivers report a locally requested leave with ReasonLeave.
	Disconnect() error

	// EnterProvisioningMode switches the radio into the mode required by
	// the out-of-band provisioning transport.
	EnterProvisioningMode(cfg ProvisioningConfig) error

	// Events returns the driver's event channel.
	Events() <-chan Event
}

// Config holds driver initialization settings.
type Config struct {
	// Hostname is announced during address acquisition.
	Hostname string

	// Interface names the network interface on hosts with more than one.
	Interface string

	// RequestedIP is requested from DHCP. Drivers that support it fall back
	// to it as a static address when no DHCP server answers.
	RequestedIP netip.Addr
}

// ProvisioningConfig selects how the radio is prepared for provisioning.
type ProvisioningConfig struct {
	// Scheme names the provisioning transport, e.g. "mdns" or "serial".
	Scheme string
}

// Address is the network address captured when the link comes up.
type Address struct {
	// IP is the assigned address.
	IP netip.Addr

	// PrefixLen is the subnet prefix length (0 if unknown).
	PrefixLen int

	// Gateway is the default router (invalid if unknown).
	Gateway netip.Addr
}

// IsValid reports whether an IP has been assigned.
func (a Address) IsValid() bool {
	return a.IP.IsValid()
}

// String returns the address in CIDR form when the prefix is known.
func (a Address) String() string {
	if !a.IP.IsValid() {
		return "<none>"
	}
	if a.PrefixLen > 0 {
		return netip.PrefixFrom(a.IP, a.PrefixLen).String()
	}
	return a.IP.String()
}
