// Package band implements the ten LoRaWAN 1.0.2 regional PHY parameter
// sets (EU868, EU433, US915, US915 Hybrid, AU915, AS923, CN470, CN779,
// IN865, KR920) behind a single Region interface. It is ported from the
// teacher's network-server-oriented band package and extended with the
// device-side operations (rx_config, tx_config, next_channel, ADR,
// duty-cycle/backoff accounting, LBT) a Class A end device needs but a
// server never does.
package band
