// Package stability tracks how long the link has been held up.
//
// A Timer is started when the link comes up and stopped when it drops. Once
// the link has been up for the configured hold duration the timer enters
// StateStable and fires its OnStable callback exactly once per hold. The
// association controller uses this to re-arm its retry budget after a
// stable connection, so a device that has been online for hours does not
// fall into provisioning after a handful of unrelated drops.
//
// State machine:
//
//	IDLE --Start--> HOLDING --hold elapsed--> STABLE
//	  ^                |                         |
//	  +------Stop------+-----------Stop----------+
package stability
