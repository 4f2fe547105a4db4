// Package persistence keeps device state across restarts.
//
// The state file is JSON and holds the last credential written by
// provisioning plus the device's onboarding identity, so the printed
// onboarding code stays valid after a reboot. The file contains the
// network secret and is written with mode 0600.
package persistence
