package credential

import (
	"sync"
	"time"
)

// Store holds the currently configured credential.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	current Credential

	// writes counts effective (content-changing) writes.
	writes    uint64
	updatedAt time.Time

	onChange func(Credential)
}

// NewStore creates a store seeded with an initial credential.
// A zero credential is allowed: the first association attempt then fails and
// the device falls back to provisioning.
func NewStore(initial Credential) *Store {
	return &Store{current: initial}
}

// Get returns the current credential.
func (s *Store) Get() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set validates and writes a credential, overwriting the previous value.
// Returns changed=false when the stored credential is already content-equal,
// in which case nothing is written.
func (s *Store) Set(c Credential) (changed bool, err error) {
	if err := c.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.current.Equal(c) {
		s.mu.Unlock()
		return false, nil
	}
	s.current = c
	s.writes++
	s.updatedAt = time.Now()
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(c)
	}
	return true, nil
}

// Writes returns the number of effective writes since creation.
func (s *Store) Writes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// UpdatedAt returns the time of the last effective write.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// OnChange sets a callback invoked after every effective write.
func (s *Store) OnChange(fn func(Credential)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}
