// Package cyw43 drives the CYW43439 radio of the Raspberry Pi Pico W and
// Pico 2 W. It is only built by TinyGo for those targets.
//
// Joining and DHCP run on a background goroutine; their outcome is reported
// as link events. The radio cannot host mDNS while unassociated, so the
// only provisioning scheme supported is "serial".
package cyw43
