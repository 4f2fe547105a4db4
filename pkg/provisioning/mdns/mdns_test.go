package mdns

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning"
)

const (
	testPoP           = "20231115"
	testDiscriminator = 1234
)

var homeNet = credential.Credential{SSID: "HomeNet", Secret: "secret123"}

type collector struct {
	mu  sync.Mutex
	got []provisioning.CredentialsDiscovered
}

func (c *collector) OnCredentialsDiscovered(ev provisioning.CredentialsDiscovered) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, ev)
	return nil
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func sealedTXT(t *testing.T, pop string, discriminator uint16, cred credential.Credential) []string {
	t.Helper()
	s, err := NewSealer(pop, discriminator)
	require.NoError(t, err)
	ann, err := s.Seal(cred)
	require.NoError(t, err)
	return TXTRecordsToStrings(EncodeAnnouncementTXT(ann))
}

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewSealer(testPoP, testDiscriminator)
	require.NoError(t, err)

	ann, err := s.Seal(homeNet)
	require.NoError(t, err)
	assert.Equal(t, "HomeNet", ann.SSID)
	assert.False(t, bytes.Contains(ann.Sealed, []byte("secret123")))

	got, err := s.Open(ann)
	require.NoError(t, err)
	assert.Equal(t, homeNet, got)
}

func TestSealUsesFreshNonces(t *testing.T) {
	s, err := NewSealer(testPoP, testDiscriminator)
	require.NoError(t, err)

	a, err := s.Seal(homeNet)
	require.NoError(t, err)
	b, err := s.Seal(homeNet)
	require.NoError(t, err)
	assert.NotEqual(t, a.Nonce, b.Nonce)
	assert.NotEqual(t, a.Sealed, b.Sealed)
}

func TestOpenRejectsWrongKeyOrTampering(t *testing.T) {
	s, err := NewSealer(testPoP, testDiscriminator)
	require.NoError(t, err)
	ann, err := s.Seal(homeNet)
	require.NoError(t, err)

	t.Run("wrong pop", func(t *testing.T) {
		other, err := NewSealer("87654321", testDiscriminator)
		require.NoError(t, err)
		_, err = other.Open(ann)
		assert.ErrorIs(t, err, ErrOpenFailed)
	})

	t.Run("wrong discriminator", func(t *testing.T) {
		other, err := NewSealer(testPoP, testDiscriminator+1)
		require.NoError(t, err)
		_, err = other.Open(ann)
		assert.ErrorIs(t, err, ErrOpenFailed)
	})

	t.Run("ssid swapped", func(t *testing.T) {
		forged := *ann
		forged.SSID = "EvilTwin"
		_, err := s.Open(&forged)
		assert.ErrorIs(t, err, ErrOpenFailed)
	})

	t.Run("ciphertext flipped", func(t *testing.T) {
		forged := *ann
		forged.Sealed = append([]byte(nil), ann.Sealed...)
		forged.Sealed[0] ^= 0xff
		_, err := s.Open(&forged)
		assert.ErrorIs(t, err, ErrOpenFailed)
	})
}

func TestDeriveKeyValidation(t *testing.T) {
	tests := []struct {
		name    string
		pop     string
		disc    uint16
		wantErr error
	}{
		{"valid", "00000001", 0, nil},
		{"short", "1234567", 0, ErrInvalidPoP},
		{"letters", "1234567a", 0, ErrInvalidPoP},
		{"discriminator too large", "12345678", MaxDiscriminator + 1, ErrInvalidDiscriminator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey(tt.pop, tt.disc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, 32)
		})
	}

	k1, _ := DeriveKey(testPoP, 1)
	k2, _ := DeriveKey(testPoP, 2)
	assert.NotEqual(t, k1, k2)
}

func TestAnnouncementTXTRoundTrip(t *testing.T) {
	txt := sealedTXT(t, testPoP, testDiscriminator, homeNet)

	ann, err := DecodeAnnouncementTXT(StringsToTXTRecords(txt))
	require.NoError(t, err)
	assert.Equal(t, uint8(ProtocolVersion), ann.Version)
	assert.Equal(t, uint16(testDiscriminator), ann.Discriminator)
	assert.Equal(t, "HomeNet", ann.SSID)
	assert.Len(t, ann.Nonce, 12)
}

func TestDecodeAnnouncementTXTErrors(t *testing.T) {
	valid := StringsToTXTRecords(sealedTXT(t, testPoP, testDiscriminator, homeNet))

	with := func(key, value string) TXTRecordMap {
		m := TXTRecordMap{}
		for k, v := range valid {
			m[k] = v
		}
		if value == "<delete>" {
			delete(m, key)
		} else {
			m[key] = value
		}
		return m
	}

	tests := []struct {
		name    string
		txt     TXTRecordMap
		wantErr error
	}{
		{"missing version", with(TXTKeyVersion, "<delete>"), ErrMissingRequired},
		{"future version", with(TXTKeyVersion, "2"), ErrUnsupportedVersion},
		{"bad discriminator", with(TXTKeyDiscriminator, "5000"), ErrInvalidDiscriminator},
		{"missing ssid", with(TXTKeySSID, "<delete>"), ErrMissingRequired},
		{"bad base64", with(TXTKeySealed, "!!!"), ErrInvalidTXTRecord},
		{"short nonce", with(TXTKeyNonce, "AAAA"), ErrInvalidTXTRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAnnouncementTXT(tt.txt)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStringsToTXTRecordsKeepsPadding(t *testing.T) {
	txt := StringsToTXTRecords([]string{"P=abc==", "flag", ""})
	assert.Equal(t, "abc==", txt["P"])
	assert.Contains(t, txt, "flag")
	assert.Len(t, txt, 2)
}

func TestOnboardingCode(t *testing.T) {
	code, err := ParseOnboardingCode("WIFIPROV:1:1234:00012345")
	require.NoError(t, err)
	assert.Equal(t, uint16(1234), code.Discriminator)
	assert.Equal(t, "00012345", code.PoP)
	assert.Equal(t, "WIFIPROV:1:1234:00012345", code.String())

	for _, bad := range []string{
		"WIFI:1:1234:00012345",
		"WIFIPROV:1:1234",
		"WIFIPROV:0:1234:00012345",
		"WIFIPROV:1:4096:00012345",
		"WIFIPROV:1:1234:0001234x",
	} {
		_, err := ParseOnboardingCode(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, "00000042", FormatPoP(42))
	pop, err := GeneratePoP()
	require.NoError(t, err)
	assert.NoError(t, ValidatePoP(pop))
}

func TestBrowserDeliversOwnAnnouncements(t *testing.T) {
	b, err := NewBrowser(BrowserConfig{Discriminator: testDiscriminator, PoP: testPoP})
	require.NoError(t, err)
	obs := &collector{}

	b.handleTXT(sealedTXT(t, testPoP, testDiscriminator, homeNet), obs)
	b.handleTXT(sealedTXT(t, testPoP, testDiscriminator+1, homeNet), obs)
	b.handleTXT(sealedTXT(t, "11111111", testDiscriminator, homeNet), obs)
	b.handleTXT([]string{"v=1"}, obs)

	require.Equal(t, 1, obs.len())
	assert.Equal(t, "HomeNet", obs.got[0].SSID)
	assert.Equal(t, "secret123", obs.got[0].Secret)
	assert.Equal(t, Source, obs.got[0].Source)

	opened, dropped := b.Stats()
	assert.Equal(t, uint64(1), opened)
	assert.Equal(t, uint64(2), dropped)
}

func TestBrowserStartStop(t *testing.T) {
	b, err := NewBrowser(BrowserConfig{Discriminator: testDiscriminator, PoP: testPoP})
	require.NoError(t, err)

	started := make(chan struct{})
	b.browse = func(ctx context.Context, entries, removed chan *zeroconf.ServiceEntry) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}

	require.NoError(t, b.Start(context.Background(), &collector{}))
	require.NoError(t, b.Start(context.Background(), &collector{}))

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("browse not started")
	}

	assert.NoError(t, b.Stop())
	assert.NoError(t, b.Stop())
}

func TestNewBrowserRejectsBadPoP(t *testing.T) {
	_, err := NewBrowser(BrowserConfig{Discriminator: 1, PoP: "123"})
	assert.ErrorIs(t, err, ErrInvalidPoP)
}
