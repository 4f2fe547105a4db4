// Package sim provides an in-memory radio driver.
//
// The simulated radio knows a table of access points. A connect request
// succeeds when the SSID is in the table and the secret matches; otherwise
// it fails with the reason a real radio would report. Failures can also be
// scripted, and a connected link can be dropped on demand, which makes the
// driver suitable for tests and for the device command's interactive mode.
package sim
