// Package session holds the activation and frame-counter state of a
// LoRaWAN device: whether it is OTAA- or ABP-provisioned, its session
// keys, and its uplink/downlink counters.
//
// Counters reset on every OTAA join-accept. ABP sessions reuse whatever
// counters are already in Session when the device starts — by default
// that means zero on every process restart, since this package persists
// nothing on its own. That is a deliberate, documented limitation rather
// than an oversight: the original design treats frame-counter persistence
// as optional infrastructure, not a requirement of the MAC itself. An
// application that needs counters to survive a restart opts in via a
// Store implementation (Load at startup, Persist after each update); see
// RedisStore for one such implementation. Without a Store, ABP counters
// are in-memory only and a restarted device risks replay rejection on the
// network server until the next successful uplink re-synchronizes it.
package session
