// Package timesync synchronizes the device clock once the network is ready.
//
// A Syncer queries an SNTP server until it gets a valid answer, retrying
// with exponential backoff, and records the measured offset in a Clock.
// A Reporter then periodically logs the corrected UTC time.
package timesync
