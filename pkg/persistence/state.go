package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ErrUnsupportedVersion is returned when the state file was written by a
// newer format.
var ErrUnsupportedVersion = errors.New("persistence: unsupported state version")

// DeviceState contains the persisted state of a device.
type DeviceState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Credential is the last credential written by provisioning.
	Credential *CredentialRecord `json:"credential,omitempty"`

	// Onboarding is the device identity used by the mDNS transport.
	Onboarding *OnboardingRecord `json:"onboarding,omitempty"`
}

// CredentialRecord is a stored network credential.
type CredentialRecord struct {
	SSID    string    `json:"ssid"`
	Secret  string    `json:"secret"`
	SavedAt time.Time `json:"saved_at"`
}

// OnboardingRecord holds the discriminator and proof-of-possession code.
type OnboardingRecord struct {
	Discriminator uint16 `json:"discriminator"`
	PoP           string `json:"pop"`
}

// StateStore manages persistence of device state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a state store backed by path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the state file path.
func (s *StateStore) Path() string {
	return s.path
}

// Save persists the device state to disk.
func (s *StateStore) Save(state *DeviceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(state)
}

// Load reads the device state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// SaveCredential replaces the stored credential, keeping the rest of the
// state. It implements provisioning.Persister.
func (s *StateStore) SaveCredential(cred credential.Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	if state == nil {
		state = &DeviceState{}
	}
	now := time.Now()
	state.Credential = &CredentialRecord{SSID: cred.SSID, Secret: cred.Secret, SavedAt: now}
	state.SavedAt = now
	return s.save(state)
}

// LoadCredential returns the stored credential. ok is false if none is stored.
func (s *StateStore) LoadCredential() (cred credential.Credential, ok bool, err error) {
	state, err := s.Load()
	if err != nil || state == nil || state.Credential == nil {
		return credential.Credential{}, false, err
	}
	cred, err = credential.New(state.Credential.SSID, state.Credential.Secret)
	if err != nil {
		return credential.Credential{}, false, fmt.Errorf("persistence: stored credential: %w", err)
	}
	return cred, true, nil
}

// LoadOrCreateOnboarding returns the stored onboarding identity, creating
// and saving one with generate if none exists.
func (s *StateStore) LoadOrCreateOnboarding(generate func() (OnboardingRecord, error)) (OnboardingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return OnboardingRecord{}, err
	}
	if state != nil && state.Onboarding != nil {
		return *state.Onboarding, nil
	}
	if state == nil {
		state = &DeviceState{}
	}

	rec, err := generate()
	if err != nil {
		return OnboardingRecord{}, err
	}
	state.Onboarding = &rec
	state.SavedAt = time.Now()
	if err := s.save(state); err != nil {
		return OnboardingRecord{}, err
	}
	return rec, nil
}

func (s *StateStore) save(state *DeviceState) error {
	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Write to a sibling file and rename so a crash never leaves a torn file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *StateStore) load() (*DeviceState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &DeviceState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("persistence: %s: %w", s.path, err)
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, state.Version)
	}

	return state, nil
}
