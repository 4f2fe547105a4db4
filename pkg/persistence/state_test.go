package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
)

func TestStateStore(t *testing.T) {
	t.Run("SaveAndLoadEmpty", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

		if err := store.Save(&DeviceState{SavedAt: time.Now()}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.Credential != nil {
			t.Errorf("Credential = %+v, want nil", got.Credential)
		}
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("CreatesParentDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
		store := NewStateStore(path)
		if err := store.Save(&DeviceState{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("state file missing: %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))
		_ = store.SaveCredential(credential.Credential{SSID: "HomeNet", Secret: "secret123"})

		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() after Clear() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() after Clear() = %v, want nil", got)
		}
		if err := store.Clear(); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
	})

	t.Run("FutureVersion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte(`{"version": 99}`), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := NewStateStore(path).Load()
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("Load() error = %v, want ErrUnsupportedVersion", err)
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte("{"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStateStore(path).Load(); err == nil {
			t.Error("Load() of corrupt file should fail")
		}
	})
}

func TestCredentialRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStateStore(path)

	if _, ok, err := store.LoadCredential(); ok || err != nil {
		t.Fatalf("LoadCredential() on empty store = ok %v, err %v", ok, err)
	}

	want := credential.Credential{SSID: "Café ☕ 5G", Secret: "  pass phrase\t"}
	if err := store.SaveCredential(want); err != nil {
		t.Fatalf("SaveCredential() error = %v", err)
	}

	got, ok, err := store.LoadCredential()
	if err != nil || !ok {
		t.Fatalf("LoadCredential() = ok %v, err %v", ok, err)
	}
	if !got.Equal(want) {
		t.Errorf("LoadCredential() = %v, want %v", got, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("state file mode = %o, want 600", perm)
	}
}

func TestSaveCredentialRejectsInvalid(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))
	err := store.SaveCredential(credential.Credential{Secret: "secret"})
	if !errors.Is(err, credential.ErrInvalidFormat) {
		t.Errorf("SaveCredential() error = %v, want ErrInvalidFormat", err)
	}
}

func TestSaveCredentialKeepsOnboarding(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "state.json"))

	calls := 0
	gen := func() (OnboardingRecord, error) {
		calls++
		return OnboardingRecord{Discriminator: 1234, PoP: "20231115"}, nil
	}

	first, err := store.LoadOrCreateOnboarding(gen)
	if err != nil {
		t.Fatalf("LoadOrCreateOnboarding() error = %v", err)
	}
	if err := store.SaveCredential(credential.Credential{SSID: "HomeNet", Secret: "secret123"}); err != nil {
		t.Fatal(err)
	}
	second, err := store.LoadOrCreateOnboarding(gen)
	if err != nil {
		t.Fatal(err)
	}

	if calls != 1 {
		t.Errorf("generate called %d times, want 1", calls)
	}
	if first != second {
		t.Errorf("onboarding changed: %+v -> %+v", first, second)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if state.Credential == nil || state.Credential.SSID != "HomeNet" {
		t.Errorf("Credential = %+v", state.Credential)
	}
}
