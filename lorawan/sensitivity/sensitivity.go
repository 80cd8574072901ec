// Package sensitivity estimates LoRa receiver sensitivity and link
// budget, used for field-diagnostic reporting rather than any part of
// the MAC state machine itself.
package sensitivity

import "math"

// CalculateSensitivity returns the theoretical receiver sensitivity, in
// dBm, for the given bandwidth (Hz), receiver noise figure, and required
// SNR (dB). See http://www.techplayon.com/lora-link-budget-sensitivity-calculations-example-explained/
func CalculateSensitivity(bandwidth int, noiseFigure, snr float32) float32 {
	logBW := 10 * math.Log10(float64(bandwidth))
	return float32(-174 + logBW + float64(noiseFigure+snr))
}

// CalculateLinkBudget returns the link budget, in dB, available between
// txPower and the receiver sensitivity at the given bandwidth/noise
// figure/SNR.
func CalculateLinkBudget(bandwidth int, noiseFigure, snr, txPower float32) float32 {
	return txPower - CalculateSensitivity(bandwidth, noiseFigure, snr)
}
