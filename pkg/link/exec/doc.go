// Package exec drives a host's Wi-Fi through external commands.
//
// Each operation is a command template such as
//
//	nmcli device wifi connect {ssid} password {secret} ifname {iface}
//
// Templates are split into words with shell quoting rules before the
// placeholders are substituted, so an SSID containing spaces or quotes is
// always passed as a single argument and never reaches a shell.
package exec
