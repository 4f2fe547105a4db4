package mdns

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// OnboardingPrefix starts every onboarding code.
const OnboardingPrefix = "WIFIPROV:"

// OnboardingCode identifies a device and carries its proof-of-possession.
// It is printed on the device, usually as a QR code.
type OnboardingCode struct {
	Version       uint8
	Discriminator uint16
	PoP           string
}

// ParseOnboardingCode parses an onboarding code string.
//
// Format: WIFIPROV:<version>:<discriminator>:<pop>
//
// Example: WIFIPROV:1:1234:12345678
func ParseOnboardingCode(content string) (*OnboardingCode, error) {
	if !strings.HasPrefix(content, OnboardingPrefix) {
		return nil, ErrInvalidPrefix
	}

	parts := strings.Split(content, ":")
	if len(parts) != 4 {
		return nil, ErrInvalidFieldCount
	}

	version, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || version < 1 {
		return nil, ErrInvalidVersion
	}

	discriminator, err := strconv.ParseUint(parts[2], 10, 16)
	if err != nil || discriminator > MaxDiscriminator {
		return nil, ErrInvalidDiscriminator
	}

	if err := ValidatePoP(parts[3]); err != nil {
		return nil, err
	}

	return &OnboardingCode{
		Version:       uint8(version),
		Discriminator: uint16(discriminator),
		PoP:           parts[3],
	}, nil
}

// NewOnboardingCode creates an onboarding code for the current version.
func NewOnboardingCode(discriminator uint16, pop string) (*OnboardingCode, error) {
	if discriminator > MaxDiscriminator {
		return nil, ErrInvalidDiscriminator
	}
	if err := ValidatePoP(pop); err != nil {
		return nil, err
	}
	return &OnboardingCode{Version: ProtocolVersion, Discriminator: discriminator, PoP: pop}, nil
}

// String returns the code in its printable form.
func (c *OnboardingCode) String() string {
	return fmt.Sprintf("WIFIPROV:%d:%d:%s", c.Version, c.Discriminator, c.PoP)
}

// FormatPoP formats a numeric code with leading zeros.
func FormatPoP(n uint32) string {
	return fmt.Sprintf("%08d", n%100000000)
}

// GeneratePoP returns a random proof-of-possession code.
func GeneratePoP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		return "", err
	}
	return FormatPoP(uint32(n.Int64())), nil
}

// GenerateDiscriminator returns a random discriminator.
func GenerateDiscriminator() (uint16, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(MaxDiscriminator+1))
	if err != nil {
		return 0, err
	}
	return uint16(n.Int64()), nil
}
