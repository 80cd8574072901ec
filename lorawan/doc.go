// Package lorawan implements the LoRaWAN 1.0.2 wire format: the physical
// payload envelope, frame headers, MAC-command encoding, and the
// cryptographic transforms (MIC and FRMPayload/FOpts encryption) needed to
// build and parse uplink and downlink frames.
//
// This package intentionally covers only 1.0.2 semantics (a single
// NwkSKey / AppSKey pair, a 16-bit on-the-wire frame counter). LoRaWAN 1.1
// session semantics are a documented non-goal.
package lorawan
