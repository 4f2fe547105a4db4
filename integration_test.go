package wifiprov_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wifiprov/wifiprov-go/pkg/association"
	"github.com/wifiprov/wifiprov-go/pkg/bringup"
	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
	"github.com/wifiprov/wifiprov-go/pkg/link/sim"
	wlog "github.com/wifiprov/wifiprov-go/pkg/log"
	"github.com/wifiprov/wifiprov-go/pkg/persistence"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning/mdns"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning/serial"
)

var (
	homeNet = credential.Credential{SSID: "HomeNet", Secret: "secret123"}
	stale   = credential.Credential{SSID: "OldNet", Secret: "oldpass1"}
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type runResult struct {
	addr link.Address
	err  error
}

func startBringup(t *testing.T, radio *sim.Driver, scheme string, transport provisioning.Transport, cfg bringup.Config) (*bringup.Sequencer, <-chan runResult) {
	t.Helper()
	assoc := association.DefaultConfig()
	assoc.Provisioning = link.ProvisioningConfig{Scheme: scheme}
	cfg.Link = link.Config{Hostname: "kitchen"}
	cfg.Credential = stale
	cfg.Association = assoc
	cfg.Transport = transport
	cfg.ReadyTimeout = 10 * time.Second

	seq, err := bringup.New(radio, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { seq.Close() })

	done := make(chan runResult, 1)
	go func() {
		addr, err := seq.Run(context.Background())
		done <- runResult{addr, err}
	}()
	return seq, done
}

func waitProvisioning(t *testing.T, radio *sim.Driver) {
	t.Helper()
	require.Eventually(t, func() bool {
		active, _, _ := radio.Provisioning()
		return active
	}, 5*time.Second, 10*time.Millisecond)
}

// TestE2E_SerialProvisioning runs a device with a stale credential through
// budget exhaustion, serial provisioning and readiness, then checks the
// persisted state and the event log.
func TestE2E_SerialProvisioning(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "boot.wlog")
	fileLog, err := wlog.NewFileLogger(logPath)
	require.NoError(t, err)
	stamper := wlog.NewStamper(fileLog, "kitchen")
	state := persistence.NewStateStore(filepath.Join(dir, "state.json"))

	radio := sim.New(sim.WithAccessPoint(sim.AccessPoint{SSID: homeNet.SSID, Secret: homeNet.Secret}))
	t.Cleanup(radio.Close)

	inR, inW := io.Pipe()
	t.Cleanup(func() { inW.Close() })
	out := &syncBuffer{}

	_, done := startBringup(t, radio, serial.Source, serial.New(inR, out, nil), bringup.Config{
		State:       state,
		EventLogger: stamper,
	})

	waitProvisioning(t, radio)
	_, err = io.WriteString(inW, "wifi HomeNet secret123\n")
	require.NoError(t, err)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, sim.DefaultAddress, res.addr)
	assert.Len(t, radio.Connects(), 4)
	assert.Contains(t, out.String(), "provisioning active")
	assert.Contains(t, out.String(), "ok")

	saved, ok, err := state.LoadCredential()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, homeNet, saved)

	require.NoError(t, fileLog.Close())

	reader, err := wlog.NewReader(logPath)
	require.NoError(t, err)
	defer reader.Close()

	var retries []*wlog.RetryEvent
	var creds []*wlog.CredentialEvent
	var addrs []*wlog.AddressEvent
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, stamper.BootID(), ev.BootID)
		assert.Equal(t, "kitchen", ev.Device)
		switch {
		case ev.Retry != nil:
			retries = append(retries, ev.Retry)
		case ev.Credential != nil:
			creds = append(creds, ev.Credential)
		case ev.Address != nil:
			addrs = append(addrs, ev.Address)
		}
	}

	require.Len(t, retries, 3)
	assert.Equal(t, stale.SSID, retries[0].SSID)
	assert.Equal(t, 0, retries[2].Remaining)
	assert.True(t, retries[2].Exhausted)

	require.Len(t, creds, 1)
	assert.Equal(t, homeNet.SSID, creds[0].SSID)
	assert.Equal(t, serial.Source, creds[0].Source)

	require.NotEmpty(t, addrs)
	assert.Equal(t, "192.168.4.2", addrs[0].IP)
}

// TestE2E_MDNSProvisioning delivers the credential with a real mDNS
// announcement.
func TestE2E_MDNSProvisioning(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	code, err := mdns.NewOnboardingCode(1234, "20231127")
	require.NoError(t, err)

	browser, err := mdns.NewBrowser(mdns.BrowserConfig{Discriminator: code.Discriminator, PoP: code.PoP})
	require.NoError(t, err)

	radio := sim.New(sim.WithAccessPoint(sim.AccessPoint{SSID: homeNet.SSID, Secret: homeNet.Secret}))
	t.Cleanup(radio.Close)

	seq, done := startBringup(t, radio, "mdns", browser, bringup.Config{})
	waitProvisioning(t, radio)

	adv, err := mdns.NewAdvertiser(mdns.DefaultAdvertiserConfig(), code)
	require.NoError(t, err)
	require.NoError(t, adv.Announce(homeNet))
	defer adv.Stop()

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, sim.DefaultAddress, res.addr)
	assert.Equal(t, homeNet, seq.Store().Get())

	opened, _ := browser.Stats()
	assert.GreaterOrEqual(t, opened, uint64(1))
}
