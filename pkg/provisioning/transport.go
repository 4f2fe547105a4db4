package provisioning

import (
	"context"
	"time"
)

// CredentialsDiscovered is reported by a transport for every received
// credential, including replays.
type CredentialsDiscovered struct {
	SSID   string
	Secret string

	// Source names the transport, e.g. "mdns" or "serial".
	Source string

	// Time is when the transport received the credential.
	Time time.Time
}

// Observer receives discovered credentials.
type Observer interface {
	OnCredentialsDiscovered(ev CredentialsDiscovered) error
}

// Transport delivers credentials from an out-of-band channel.
type Transport interface {
	// Start begins discovery and returns once discovery is running.
	// Discovered credentials are reported to obs until ctx is done or Stop
	// is called.
	Start(ctx context.Context, obs Observer) error

	// Stop ends discovery. It is safe to call Stop on a stopped transport.
	Stop() error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev CredentialsDiscovered) error

// OnCredentialsDiscovered calls f(ev).
func (f ObserverFunc) OnCredentialsDiscovered(ev CredentialsDiscovered) error {
	return f(ev)
}
