// Package main (cmd/wifiprov-provision) implements the provisioner side of
// mDNS credential delivery.
//
// A device waiting in provisioning mode browses for announcements carrying
// its discriminator. The provisioner seals the network credential with the
// key derived from the device's onboarding code and announces it on the
// local network until interrupted or the announcement duration expires.
//
// Commands:
//
//	announce  - Seal a credential for one device and announce it
//	code      - Generate a fresh onboarding code
//	inspect   - Decode an onboarding code
//
// Example:
//
//	wifiprov-provision announce --code WIFIPROV:1:1234:12345678 --ssid HomeNet --secret secret123
package main
