package credential

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialValidate(t *testing.T) {
	tests := []struct {
		name    string
		cred    Credential
		wantErr bool
	}{
		{"Valid", Credential{"HomeNet", "secret123"}, false},
		{"EmptySSID", Credential{"", "secret"}, true},
		{"EmptySecret", Credential{"HomeNet", ""}, true},
		{"MaxSSID", Credential{strings.Repeat("s", MaxSSIDLen), "secret"}, false},
		{"SSIDTooLong", Credential{strings.Repeat("s", MaxSSIDLen+1), "secret"}, true},
		{"MaxSecret", Credential{"HomeNet", strings.Repeat("p", MaxSecretLen)}, false},
		{"SecretTooLong", Credential{"HomeNet", strings.Repeat("p", MaxSecretLen+1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cred.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredentialString(t *testing.T) {
	c := Credential{SSID: "HomeNet", Secret: "secret123"}
	assert.NotContains(t, c.String(), "secret123")
	assert.Contains(t, c.String(), "HomeNet")
	assert.Equal(t, "<none>", Credential{}.String())
}

func TestStoreSet(t *testing.T) {
	t.Run("Overwrite", func(t *testing.T) {
		s := NewStore(Credential{SSID: "Old", Secret: "oldpass"})

		changed, err := s.Set(Credential{SSID: "HomeNet", Secret: "secret123"})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, Credential{SSID: "HomeNet", Secret: "secret123"}, s.Get())
		assert.Equal(t, uint64(1), s.Writes())
		assert.False(t, s.UpdatedAt().IsZero())
	})

	t.Run("DuplicateSuppressed", func(t *testing.T) {
		s := NewStore(Credential{})
		var notified int
		s.OnChange(func(Credential) { notified++ })

		c := Credential{SSID: "HomeNet", Secret: "secret123"}
		changed, err := s.Set(c)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = s.Set(c)
		require.NoError(t, err)
		assert.False(t, changed)

		assert.Equal(t, uint64(1), s.Writes())
		assert.Equal(t, 1, notified)
	})

	t.Run("InvalidLeavesStoreUnchanged", func(t *testing.T) {
		initial := Credential{SSID: "HomeNet", Secret: "secret123"}
		s := NewStore(initial)

		changed, err := s.Set(Credential{SSID: "", Secret: "secret"})
		assert.True(t, errors.Is(err, ErrInvalidFormat))
		assert.False(t, changed)
		assert.Equal(t, initial, s.Get())
		assert.Zero(t, s.Writes())
	})

	t.Run("RoundTripBytes", func(t *testing.T) {
		s := NewStore(Credential{})
		in := Credential{SSID: "Café ☕", Secret: "päss wörd!"}
		_, err := s.Set(in)
		require.NoError(t, err)

		out := s.Get()
		assert.Equal(t, []byte(in.SSID), []byte(out.SSID))
		assert.Equal(t, []byte(in.Secret), []byte(out.Secret))
	})
}

func TestStoreConcurrent(t *testing.T) {
	s := NewStore(Credential{})
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Set(Credential{SSID: "HomeNet", Secret: "secret123"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Get()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1), s.Writes())
}
