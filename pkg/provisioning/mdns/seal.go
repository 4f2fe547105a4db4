package mdns

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
)

const sealInfo = "wifiprov-v1 seal"

// DeriveKey derives the sealing key from a proof-of-possession code.
// The discriminator salts the derivation so one code printed on two
// devices yields two keys.
func DeriveKey(pop string, discriminator uint16) ([]byte, error) {
	if err := ValidatePoP(pop); err != nil {
		return nil, err
	}
	if discriminator > MaxDiscriminator {
		return nil, ErrInvalidDiscriminator
	}

	salt := make([]byte, 2)
	binary.BigEndian.PutUint16(salt, discriminator)

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(pop), salt, []byte(sealInfo)), key); err != nil {
		return nil, fmt.Errorf("mdns: derive key: %w", err)
	}
	return key, nil
}

// ValidatePoP checks that pop is exactly PoPLength decimal digits.
func ValidatePoP(pop string) error {
	if len(pop) != PoPLength {
		return ErrInvalidPoP
	}
	for _, c := range pop {
		if c < '0' || c > '9' {
			return ErrInvalidPoP
		}
	}
	return nil
}

// Sealer seals and opens credentials for one device.
type Sealer struct {
	aead          cipher.AEAD
	discriminator uint16
	rand          io.Reader
}

// NewSealer creates a sealer for the device identified by discriminator.
func NewSealer(pop string, discriminator uint16) (*Sealer, error) {
	key, err := DeriveKey(pop, discriminator)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("mdns: %w", err)
	}
	return &Sealer{aead: aead, discriminator: discriminator, rand: rand.Reader}, nil
}

// Seal produces an announcement for cred. The SSID travels in clear and is
// bound to the ciphertext as associated data.
func (s *Sealer) Seal(cred credential.Credential) (*Announcement, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return nil, fmt.Errorf("mdns: nonce: %w", err)
	}
	return &Announcement{
		Version:       ProtocolVersion,
		Discriminator: s.discriminator,
		SSID:          cred.SSID,
		Nonce:         nonce,
		Sealed:        s.aead.Seal(nil, nonce, []byte(cred.Secret), s.additionalData(cred.SSID)),
	}, nil
}

// Open authenticates and decrypts an announcement.
func (s *Sealer) Open(a *Announcement) (credential.Credential, error) {
	if a.Discriminator != s.discriminator {
		return credential.Credential{}, fmt.Errorf("%w: discriminator %d", ErrOpenFailed, a.Discriminator)
	}
	if len(a.Nonce) != chacha20poly1305.NonceSize {
		return credential.Credential{}, fmt.Errorf("%w: bad nonce", ErrOpenFailed)
	}
	secret, err := s.aead.Open(nil, a.Nonce, a.Sealed, s.additionalData(a.SSID))
	if err != nil {
		return credential.Credential{}, ErrOpenFailed
	}
	return credential.Credential{SSID: a.SSID, Secret: string(secret)}, nil
}

func (s *Sealer) additionalData(ssid string) []byte {
	return []byte("wifiprov:" + strconv.Itoa(ProtocolVersion) + ":" +
		strconv.FormatUint(uint64(s.discriminator), 10) + ":" + ssid)
}
