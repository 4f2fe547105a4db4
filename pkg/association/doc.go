// Package association implements the Wi-Fi association state machine.
//
// The Controller consumes link events, owns the retry budget and decides,
// for every failed or dropped association, whether to reconnect or to fall
// back to out-of-band provisioning.
//
// # State Machine
//
//	IDLE --link started--> CONNECTING --address--> CONNECTED
//	                        |   ^  ^                  |
//	          budget spent  |   |  +----disconnect----+
//	                        v   |
//	                   PROVISIONING --credentials written--+
//
// # Retry Budget
//
// The budget starts at DefaultRetryBudget (3) and is decremented once per
// failed attempt. While it stays above zero the controller reconnects with
// the stored credential. The disconnect that spends the last unit switches
// the radio into provisioning mode instead; no further connect is issued
// until new credentials are written.
//
// The budget is re-armed whenever provisioning writes a fresh credential
// and, when Config.StableResetAfter is set, after the link has been held up
// for that long. A successful connection alone does not re-arm it.
//
// Disconnects with link.ReasonLeave were requested locally and are ignored.
//
// # Errors
//
// A failed connect request means the driver is misconfigured. It is not
// retried: the controller stops and reports ErrConnectIssue on Fatal().
package association
