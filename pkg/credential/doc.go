// Package credential holds the wireless network identity a device uses when
// it associates with an access point.
//
// A Credential is the pair of network name (SSID) and secret (passphrase).
// Both fields are length-bounded by the link layer: at most 32 bytes for the
// SSID and 64 bytes for the secret. An empty SSID is never valid; an empty
// secret is rejected as well because the provisioning channels this module
// supports do not carry open-network credentials.
//
// # Store
//
// Store is the single in-memory slot the association path reads before every
// connect request. It is written only by the provisioning listener and is
// safe for concurrent use. Writes overwrite the previous value; a write of a
// content-equal credential is suppressed and reported as unchanged so
// replayed provisioning broadcasts do not cause redundant work.
package credential
