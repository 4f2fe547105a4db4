package mdns

import "errors"

// Service constants.
const (
	// ServiceType is the DNS-SD service type of provisioning announcements.
	ServiceType = "_wifiprov._udp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is announced in the SRV record. Nothing listens on it.
	DefaultPort = 18266

	// ProtocolVersion is the announcement format version.
	ProtocolVersion = 1

	// MaxDiscriminator is the largest valid discriminator (12 bits).
	MaxDiscriminator = 4095

	// PoPLength is the number of digits in a proof-of-possession code.
	PoPLength = 8

	// Source is reported in provisioning.CredentialsDiscovered.
	Source = "mdns"
)

// TXT record keys.
const (
	TXTKeyVersion       = "v"
	TXTKeyDiscriminator = "D"
	TXTKeySSID          = "S"
	TXTKeySealed        = "P"
	TXTKeyNonce         = "N"
)

// Errors.
var (
	ErrMissingRequired      = errors.New("mdns: missing required TXT record")
	ErrInvalidTXTRecord     = errors.New("mdns: invalid TXT record")
	ErrUnsupportedVersion   = errors.New("mdns: unsupported announcement version")
	ErrInvalidDiscriminator = errors.New("mdns: invalid discriminator")
	ErrInvalidPoP           = errors.New("mdns: proof-of-possession must be 8 digits")
	ErrOpenFailed           = errors.New("mdns: sealed secret failed authentication")
	ErrInvalidPrefix        = errors.New("mdns: onboarding code must start with WIFIPROV:")
	ErrInvalidFieldCount    = errors.New("mdns: onboarding code must have 4 fields")
	ErrInvalidVersion       = errors.New("mdns: invalid onboarding code version")
)

// Announcement is the decoded content of a provisioning service's TXT records.
type Announcement struct {
	Version       uint8
	Discriminator uint16
	SSID          string
	Sealed        []byte
	Nonce         []byte
}
