// Package mdns implements an over-the-air provisioning transport on top of
// mDNS/DNS-SD.
//
// A provisioning tool on the same link announces a _wifiprov._udp service
// whose TXT records carry the target network:
//
//	v=1                  protocol version
//	D=<discriminator>    selects the device (0-4095)
//	S=<ssid>             network name, in clear
//	P=<sealed secret>    base64 ChaCha20-Poly1305 ciphertext
//	N=<nonce>            base64 12-byte nonce
//
// The sealing key is derived with HKDF-SHA256 from the device's 8-digit
// proof-of-possession code, salted with the discriminator. Both values are
// printed on the device as an onboarding code:
//
//	WIFIPROV:1:<discriminator>:<pop>
//
// The device runs a Browser as its provisioning.Transport. Announcements
// for other discriminators, or that fail to open, are dropped. mDNS
// responders repeat answers, so the same credential is reported many times;
// provisioning.Listener absorbs the replays.
package mdns
