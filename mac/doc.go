// Package mac implements the LoRaWAN 1.0.2 Class A MAC layer: framing and
// cryptographic assembly of uplink/downlink frames, MAC-command handling
// (including the sticky-answer set and ADR backoff), and the join/
// data-transfer state machine that drives a radio.Driver through a
// band.Region's channel plan.
//
// mac knows nothing about application port validation, buffering, or the
// deferred work queue that serializes callbacks — those live in node,
// which owns an Engine and drives it synchronously from its own queue.
package mac
