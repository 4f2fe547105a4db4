package link

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventType identifies a link event.
type EventType uint8

const (
	// EventStarted indicates the link layer is ready for a connect request.
	EventStarted EventType = iota

	// EventConnected indicates an address has been acquired.
	EventConnected

	// EventDisconnected indicates a failed attempt or a dropped link.
	EventDisconnected
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "STARTED"
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Event is a link layer notification.
type Event struct {
	Type EventType
	Time time.Time

	// Address is set for EventConnected.
	Address Address

	// Disconnected is set for EventDisconnected.
	Disconnected Disconnected
}

// Disconnected describes why an association failed or dropped.
type Disconnected struct {
	// Reason is the disconnect reason.
	Reason Reason

	// SSID is the network the driver was associated with or trying to join.
	SSID string
}

// StartedEvent returns a Started event stamped with the current time.
func StartedEvent() Event {
	return Event{Type: EventStarted, Time: time.Now()}
}

// ConnectedEvent returns a Connected event for addr.
func ConnectedEvent(addr Address) Event {
	return Event{Type: EventConnected, Time: time.Now(), Address: addr}
}

// DisconnectedEvent returns a Disconnected event.
func DisconnectedEvent(reason Reason, ssid string) Event {
	return Event{
		Type:         EventDisconnected,
		Time:         time.Now(),
		Disconnected: Disconnected{Reason: reason, SSID: ssid},
	}
}

// Reason is a disconnect reason code.
type Reason uint16

// Reason codes. Values match the 802.11 reason numbering used by common
// embedded stacks.
const (
	ReasonUnspecified      Reason = 1
	ReasonAuthExpire       Reason = 2
	ReasonLeave            Reason = 8
	ReasonHandshakeTimeout Reason = 15
	ReasonBeaconTimeout    Reason = 200
	ReasonNoAPFound        Reason = 201
	ReasonAuthFail         Reason = 202
	ReasonAssocFail        Reason = 203
	ReasonConnectionFail   Reason = 205
)

var reasonNames = map[Reason]string{
	ReasonUnspecified:      "unspecified",
	ReasonAuthExpire:       "auth-expire",
	ReasonLeave:            "assoc-leave",
	ReasonHandshakeTimeout: "handshake-timeout",
	ReasonBeaconTimeout:    "beacon-timeout",
	ReasonNoAPFound:        "no-ap-found",
	ReasonAuthFail:         "auth-fail",
	ReasonAssocFail:        "assoc-fail",
	ReasonConnectionFail:   "connection-fail",
}

// String returns the reason name, or the numeric code if unknown.
func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "reason-" + strconv.Itoa(int(r))
}

// ParseReason parses a reason name ("auth-fail") or numeric code ("202").
func ParseReason(s string) (Reason, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range reasonNames {
		if name == s {
			return r, nil
		}
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "reason-"), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("unknown disconnect reason %q", s)
	}
	return Reason(n), nil
}

// IsLocal reports whether the disconnect was requested by this device.
func (r Reason) IsLocal() bool {
	return r == ReasonLeave
}
