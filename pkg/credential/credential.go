package credential

import (
	"errors"
	"fmt"
)

// Length bounds imposed by the link layer.
const (
	// MaxSSIDLen is the maximum SSID length in bytes.
	MaxSSIDLen = 32

	// MaxSecretLen is the maximum passphrase length in bytes.
	MaxSecretLen = 64
)

// Credential errors.
var (
	// ErrInvalidFormat is returned when a credential is empty or exceeds the
	// link layer's length bounds.
	ErrInvalidFormat = errors.New("invalid credential format")
)

// Credential is a wireless network identity.
type Credential struct {
	// SSID is the network name.
	SSID string

	// Secret is the network passphrase.
	Secret string
}

// New validates and returns a credential.
func New(ssid, secret string) (Credential, error) {
	c := Credential{SSID: ssid, Secret: secret}
	if err := c.Validate(); err != nil {
		return Credential{}, err
	}
	return c, nil
}

// Validate checks that both fields are non-empty and within bounds.
func (c Credential) Validate() error {
	switch {
	case c.SSID == "":
		return fmt.Errorf("%w: empty ssid", ErrInvalidFormat)
	case len(c.SSID) > MaxSSIDLen:
		return fmt.Errorf("%w: ssid is %d bytes, max %d", ErrInvalidFormat, len(c.SSID), MaxSSIDLen)
	case c.Secret == "":
		return fmt.Errorf("%w: empty secret", ErrInvalidFormat)
	case len(c.Secret) > MaxSecretLen:
		return fmt.Errorf("%w: secret is %d bytes, max %d", ErrInvalidFormat, len(c.Secret), MaxSecretLen)
	}
	return nil
}

// IsZero reports whether no credential has been configured.
func (c Credential) IsZero() bool {
	return c.SSID == "" && c.Secret == ""
}

// Equal reports whether two credentials are byte-for-byte identical.
func (c Credential) Equal(other Credential) bool {
	return c.SSID == other.SSID && c.Secret == other.Secret
}

// String returns the SSID with the secret redacted.
func (c Credential) String() string {
	if c.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s (secret: %d bytes)", c.SSID, len(c.Secret))
}
