package log

import "time"

// Event is one entry in the device event log.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// BootID identifies the process run that produced the event.
	BootID string `cbor:"2,keyasint,omitempty"`

	// Layer that produced the event.
	Layer Layer `cbor:"3,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"4,keyasint"`

	// Device is the configured device name (hostname).
	Device string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Retry       *RetryEvent       `cbor:"11,keyasint,omitempty"`
	Credential  *CredentialEvent  `cbor:"12,keyasint,omitempty"`
	Address     *AddressEvent     `cbor:"13,keyasint,omitempty"`
	TimeSync    *TimeSyncEvent    `cbor:"14,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"15,keyasint,omitempty"`
}

// Layer indicates which component produced the event.
type Layer uint8

const (
	// LayerLink is the radio driver.
	LayerLink Layer = 0
	// LayerAssociation is the association controller.
	LayerAssociation Layer = 1
	// LayerProvisioning is the provisioning listener and its transport.
	LayerProvisioning Layer = 2
	// LayerReadiness is the readiness gate and startup sequencer.
	LayerReadiness Layer = 3
	// LayerTimeSync is network time synchronization.
	LayerTimeSync Layer = 4
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerLink:
		return "LINK"
	case LayerAssociation:
		return "ASSOCIATION"
	case LayerProvisioning:
		return "PROVISIONING"
	case LayerReadiness:
		return "READINESS"
	case LayerTimeSync:
		return "TIMESYNC"
	default:
		return "UNKNOWN"
	}
}

// ParseLayer parses a layer name as returned by Layer.String.
func ParseLayer(s string) (Layer, bool) {
	for l := LayerLink; l <= LayerTimeSync; l++ {
		if l.String() == s {
			return l, true
		}
	}
	return 0, false
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a state change.
	CategoryState Category = 0
	// CategoryRetry indicates a failed attempt consuming retry budget.
	CategoryRetry Category = 1
	// CategoryCredential indicates credentials were received or rejected.
	CategoryCredential Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryRetry:
		return "RETRY"
	case CategoryCredential:
		return "CREDENTIAL"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name as returned by Category.String.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryState; c <= CategoryError; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// StateChangeEvent captures a state machine transition.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// RetryEvent captures a failed association attempt.
type RetryEvent struct {
	// Reason is the disconnect reason name.
	Reason string `cbor:"1,keyasint"`

	// ReasonCode is the numeric disconnect reason.
	ReasonCode uint16 `cbor:"2,keyasint"`

	// SSID is the network the attempt targeted.
	SSID string `cbor:"3,keyasint,omitempty"`

	// Remaining is the retry budget left after this failure.
	Remaining int `cbor:"4,keyasint"`

	// Exhausted is set when the failure switched the device to provisioning.
	Exhausted bool `cbor:"5,keyasint,omitempty"`
}

// CredentialEvent captures credentials received from provisioning.
// The secret is never recorded.
type CredentialEvent struct {
	// SSID is the received network name.
	SSID string `cbor:"1,keyasint"`

	// Source names the provisioning transport.
	Source string `cbor:"2,keyasint,omitempty"`

	// Duplicate is set when the credential matched the stored one.
	Duplicate bool `cbor:"3,keyasint,omitempty"`

	// Rejected is set when validation failed.
	Rejected bool `cbor:"4,keyasint,omitempty"`
}

// AddressEvent captures the address acquired when the link came up.
type AddressEvent struct {
	IP        string `cbor:"1,keyasint"`
	PrefixLen int    `cbor:"2,keyasint,omitempty"`
	Gateway   string `cbor:"3,keyasint,omitempty"`
}

// TimeSyncEvent captures a time synchronization result.
type TimeSyncEvent struct {
	// Server is the queried time server.
	Server string `cbor:"1,keyasint"`

	// Offset is the measured clock offset. Stored as nanoseconds.
	Offset time.Duration `cbor:"2,keyasint"`

	// RTT is the round-trip delay of the query.
	RTT time.Duration `cbor:"3,keyasint,omitempty"`

	// Attempt is the 1-based attempt number that succeeded.
	Attempt int `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Fatal is set when the error aborted bring-up.
	Fatal bool `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
