// Package provisioning bridges credentials delivered out of band into the
// credential store and back into the association controller.
//
// A Transport discovers credentials (for example from an mDNS announcement
// or a serial console) and reports them to an Observer. The Listener is that
// observer: it validates the credential, drops the current attempt, writes
// the store and asks the controller to connect.
//
// Transports commonly replay the same announcement many times. The Listener
// is idempotent under replay: an identical credential produces no second
// store write, and no second connect while the first is still pending.
package provisioning
