// Package serial provides a line-oriented provisioning transport.
//
// Credentials are typed on a console, usually the device's USB serial port:
//
//	wifi "Home Net" "pass phrase"
//
// Words are split with shell quoting rules, so SSIDs and secrets may
// contain spaces. Each line is answered with "ok" or "error: <reason>".
package serial
