// Package readiness provides the one-shot gate that releases startup once
// the device holds a usable network address.
//
// The association controller calls SignalReady when the link reports an
// address. The startup sequencer blocks in Wait. The gate is single-permit:
// it is set at most once and never reset, and the first signaled address is
// the one every waiter observes.
package readiness
