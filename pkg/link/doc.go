// Package link defines the boundary between the association logic and the
// radio driver that actually talks to the wireless chip.
//
// A Driver exposes four primitives (initialize, connect, disconnect, enter
// provisioning mode) and reports everything that happens on the air as
// typed events on a single channel:
//
//   - Started: the link layer is up and can accept a connect request
//   - Connected: an address has been assigned (carries the Address)
//   - Disconnected: an attempt failed or an established link dropped
//     (carries the Reason and the SSID it was trying to join)
//
// Driver calls must return quickly. Slow work (scanning, the 4-way
// handshake, DHCP) happens inside the driver and its outcome is reported as
// an event.
//
// # Dispatch
//
// Dispatcher delivers the events of one source to its observers in emission
// order, on its own goroutine. Observers implement one method per event type;
// there is no wildcard subscription.
//
// # Reason Codes
//
// Reason values follow the numbering used by common 802.11 stacks so that
// drivers can pass through the code they get from the chip.
package link
