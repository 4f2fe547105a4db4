// Package bringup runs the device's network startup sequence.
//
// The Sequencer initializes the radio driver, wires the association
// controller, the provisioning listener and the readiness gate to the
// driver's event stream, starts the link and blocks until the device has an
// address. Association retries and provisioning happen underneath without
// the caller's involvement; only driver failures abort startup.
//
// Once ready, the Sequencer optionally hands the address to a time-sync
// client that runs in the background for the Sequencer's lifetime.
package bringup
