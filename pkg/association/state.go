package association

// State represents the association state.
type State uint8

const (
	// StateIdle indicates the link has not started yet.
	StateIdle State = iota

	// StateConnecting indicates an association attempt is in progress.
	StateConnecting

	// StateConnected indicates an address has been acquired.
	StateConnected

	// StateProvisioningActive indicates the retry budget is spent and the
	// device is waiting for credentials from provisioning.
	StateProvisioningActive
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateProvisioningActive:
		return "PROVISIONING"
	default:
		return "UNKNOWN"
	}
}
