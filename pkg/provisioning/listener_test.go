package provisioning

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wifiprov/wifiprov-go/pkg/association"
	"github.com/wifiprov/wifiprov-go/pkg/credential"
	"github.com/wifiprov/wifiprov-go/pkg/link"
	linkmocks "github.com/wifiprov/wifiprov-go/pkg/link/mocks"
)

var stale = credential.Credential{SSID: "OldNet", Secret: "oldpass1"}

type fakeTransport struct {
	mu     sync.Mutex
	starts int
	stops  int
	obs    Observer
	err    error
}

func (f *fakeTransport) Start(_ context.Context, obs Observer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.starts++
	f.obs = obs
	return nil
}

func (f *fakeTransport) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeTransport) deliver(ssid, secret string) error {
	f.mu.Lock()
	obs := f.obs
	f.mu.Unlock()
	return obs.OnCredentialsDiscovered(CredentialsDiscovered{SSID: ssid, Secret: secret, Source: "fake"})
}

type memPersister struct {
	saved []credential.Credential
}

func (p *memPersister) SaveCredential(c credential.Credential) error {
	p.saved = append(p.saved, c)
	return nil
}

type fixture struct {
	driver    *linkmocks.MockDriver
	store     *credential.Store
	ctrl      *association.Controller
	listener  *Listener
	transport *fakeTransport
	persister *memPersister
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		driver:    linkmocks.NewMockDriver(t),
		store:     credential.NewStore(stale),
		transport: &fakeTransport{},
		persister: &memPersister{},
	}
	ctrl, err := association.NewController(f.driver, f.store, nil, association.DefaultConfig())
	require.NoError(t, err)
	f.ctrl = ctrl
	f.listener = NewListener(f.driver, f.store, ctrl, Config{
		Transport: f.transport,
		Persister: f.persister,
	})
	ctrl.SetActivator(f.listener)
	t.Cleanup(func() { f.listener.Close() })
	return f
}

// exhaust drives the controller into provisioning with three failures.
func (f *fixture) exhaust(t *testing.T) {
	t.Helper()
	f.driver.EXPECT().Connect(stale).Return(nil).Times(3)
	f.driver.EXPECT().EnterProvisioningMode(mock.Anything).Return(nil).Once()

	f.ctrl.OnLinkStarted()
	for i := 0; i < 3; i++ {
		f.ctrl.OnLinkDisconnected(link.Disconnected{Reason: link.ReasonAuthFail, SSID: stale.SSID})
	}
	require.Equal(t, association.StateProvisioningActive, f.ctrl.State())
	require.True(t, f.listener.Active())
}

func TestDuplicateDeliveryWritesOnceAndConnectsOnce(t *testing.T) {
	f := newFixture(t)
	f.exhaust(t)

	want := credential.Credential{SSID: "HomeNet", Secret: "secret123"}
	f.driver.EXPECT().Disconnect().Return(nil).Once()
	f.driver.EXPECT().Connect(want).Return(nil).Once()

	require.NoError(t, f.transport.deliver("HomeNet", "secret123"))
	require.NoError(t, f.transport.deliver("HomeNet", "secret123"))

	assert.Equal(t, want, f.store.Get())
	assert.Equal(t, uint64(1), f.store.Writes())
	assert.Equal(t, association.StateConnecting, f.ctrl.State())
	assert.Equal(t, association.DefaultRetryBudget, f.ctrl.Budget())

	stats := f.listener.Stats()
	assert.Equal(t, uint64(2), stats.Received)
	assert.Equal(t, uint64(1), stats.Duplicates)
	assert.Equal(t, uint64(1), stats.Triggers)
	assert.Equal(t, []credential.Credential{want}, f.persister.saved)
}

func TestRedeliveryAfterOutcomeTriggersNewConnect(t *testing.T) {
	f := newFixture(t)
	f.exhaust(t)

	want := credential.Credential{SSID: "HomeNet", Secret: "secret123"}
	f.driver.EXPECT().Disconnect().Return(nil).Twice()
	f.driver.EXPECT().Connect(want).Return(nil).Twice()

	require.NoError(t, f.transport.deliver("HomeNet", "secret123"))
	f.ctrl.OnLinkConnected(link.Address{IP: netip.MustParseAddr("10.0.0.42")})
	require.NoError(t, f.transport.deliver("HomeNet", "secret123"))

	// Store write suppressed, trigger not.
	assert.Equal(t, uint64(1), f.store.Writes())
	assert.Equal(t, uint64(2), f.listener.Stats().Triggers)
}

func TestRedeliveryKeepsRemainingBudget(t *testing.T) {
	f := newFixture(t)
	f.exhaust(t)

	want := credential.Credential{SSID: "HomeNet", Secret: "secret123"}
	f.driver.EXPECT().Disconnect().Return(nil).Twice()
	f.driver.EXPECT().Connect(want).Return(nil).Times(3)

	require.NoError(t, f.transport.deliver("HomeNet", "secret123"))
	f.ctrl.OnLinkDisconnected(link.Disconnected{Reason: link.ReasonBeaconTimeout, SSID: want.SSID})
	f.ctrl.OnLinkConnected(link.Address{IP: netip.MustParseAddr("10.0.0.42")})
	require.Equal(t, association.DefaultRetryBudget-1, f.ctrl.Budget())

	require.NoError(t, f.transport.deliver("HomeNet", "secret123"))
	assert.Equal(t, association.DefaultRetryBudget-1, f.ctrl.Budget())
	assert.Equal(t, uint64(2), f.listener.Stats().Triggers)
}

func TestConcurrentDuplicateDeliveries(t *testing.T) {
	f := newFixture(t)
	f.exhaust(t)

	want := credential.Credential{SSID: "HomeNet", Secret: "secret123"}
	f.driver.EXPECT().Disconnect().Return(nil).Once()
	f.driver.EXPECT().Connect(want).Return(nil).Once()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.transport.deliver("HomeNet", "secret123"))
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1), f.store.Writes())
	assert.Equal(t, uint64(1), f.listener.Stats().Triggers)
}

func TestInvalidCredentialRejected(t *testing.T) {
	f := newFixture(t)
	f.exhaust(t)

	err := f.transport.deliver("", "secret")
	require.ErrorIs(t, err, credential.ErrInvalidFormat)

	assert.Equal(t, stale, f.store.Get())
	assert.Equal(t, uint64(0), f.store.Writes())
	assert.Equal(t, association.StateProvisioningActive, f.ctrl.State())
	assert.True(t, f.listener.Active())
	assert.Equal(t, uint64(1), f.listener.Stats().Rejected)
}

func TestCredentialRoundTripsIntoNextConnect(t *testing.T) {
	f := newFixture(t)
	f.exhaust(t)

	ssid := "Café ☕ 5G"
	secret := "  pass phrase with spaces\t"
	var got credential.Credential
	f.driver.EXPECT().Disconnect().Return(nil).Once()
	f.driver.EXPECT().Connect(mock.Anything).Run(func(c credential.Credential) {
		got = c
	}).Return(nil).Once()

	require.NoError(t, f.transport.deliver(ssid, secret))

	assert.Equal(t, []byte(ssid), []byte(got.SSID))
	assert.Equal(t, []byte(secret), []byte(got.Secret))
}

func TestConnectedStopsTransport(t *testing.T) {
	f := newFixture(t)
	f.exhaust(t)

	f.driver.EXPECT().Disconnect().Return(nil).Once()
	f.driver.EXPECT().Connect(mock.Anything).Return(nil).Once()

	require.NoError(t, f.transport.deliver("HomeNet", "secret123"))
	f.ctrl.OnLinkConnected(link.Address{IP: netip.MustParseAddr("10.0.0.42")})

	assert.False(t, f.listener.Active())
	assert.Equal(t, 1, f.transport.starts)
	assert.Equal(t, 1, f.transport.stops)
}

func TestActivateWithoutTransport(t *testing.T) {
	l := NewListener(linkmocks.NewMockDriver(t), credential.NewStore(stale), nil, Config{})
	assert.ErrorIs(t, l.Activate(), ErrNoTransport)
	assert.NoError(t, l.Deactivate())
}

func TestActivateIsIdempotent(t *testing.T) {
	tr := &fakeTransport{}
	l := NewListener(linkmocks.NewMockDriver(t), credential.NewStore(stale), nil, Config{Transport: tr})

	require.NoError(t, l.Activate())
	require.NoError(t, l.Activate())
	assert.Equal(t, 1, tr.starts)

	require.NoError(t, l.Close())
	assert.Equal(t, 1, tr.stops)
	assert.NoError(t, l.Close())
}

func TestActivateFailureLeavesListenerInactive(t *testing.T) {
	tr := &fakeTransport{err: errors.New("no multicast")}
	l := NewListener(linkmocks.NewMockDriver(t), credential.NewStore(stale), nil, Config{Transport: tr})

	assert.Error(t, l.Activate())
	assert.False(t, l.Active())
}
