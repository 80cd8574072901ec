// Package airtime calculates LoRa/FSK time-on-air, the formula from
// https://www.semtech.com/uploads/documents/LoraDesignGuide_STD.pdf,
// used by the band package to fill in TXConfig.TimeOnAir for the duty
// cycle and CAD/LBT accountants.
package airtime

import (
	"errors"
	"math"
	"time"
)

// CodingRate is the LoRa forward-error-correction rate.
type CodingRate int

// Available coding rates; LoRaWAN uplinks always use 4/5.
const (
	CodingRate45 CodingRate = 1
	CodingRate46 CodingRate = 2
	CodingRate47 CodingRate = 3
	CodingRate48 CodingRate = 4
)

// CalculateLoRaAirtime returns the on-air duration of a LoRa-modulated
// frame of payloadSize bytes at spreading factor sf and bandwidth (kHz).
func CalculateLoRaAirtime(payloadSize, sf, bandwidth, preambleSymbols int, codingRate CodingRate, headerEnabled, lowDataRateOptimization bool) (time.Duration, error) {
	symbolDuration := symbolDuration(sf, bandwidth)
	preambleDuration := preambleDuration(symbolDuration, preambleSymbols)

	payloadSymbols, err := payloadSymbolCount(payloadSize, sf, codingRate, headerEnabled, lowDataRateOptimization)
	if err != nil {
		return 0, err
	}

	return preambleDuration + time.Duration(payloadSymbols)*symbolDuration, nil
}

// CalculateFSKAirtime returns the on-air duration of an FSK frame of
// payloadSize bytes at the given bit rate, including the fixed 3-byte
// preamble/2-byte sync word LoRaWAN's FSK datarate uses.
func CalculateFSKAirtime(payloadSize, bitRate int) time.Duration {
	if bitRate <= 0 {
		bitRate = 50000
	}
	bits := (payloadSize + 5) * 8
	return time.Duration(float64(bits) / float64(bitRate) * float64(time.Second))
}

func symbolDuration(sf, bandwidth int) time.Duration {
	return time.Duration((1 << uint(sf)) * 1000000 / bandwidth)
}

func preambleDuration(symbolDuration time.Duration, preambleSymbols int) time.Duration {
	return time.Duration((100*preambleSymbols)+425) * symbolDuration / 100
}

// payloadSymbolCount returns the number of symbols making up the frame's
// payload and header.
func payloadSymbolCount(payloadSize, sf int, codingRate CodingRate, headerEnabled, lowDataRateOptimization bool) (int, error) {
	if codingRate < CodingRate45 || codingRate > CodingRate48 {
		return 0, errors.New("airtime: codingRate must be between 1 and 4")
	}

	var de, h float64
	if lowDataRateOptimization {
		de = 1
	}
	if !headerEnabled {
		h = 1
	}

	pl := float64(payloadSize)
	spreadFactor := float64(sf)
	cr := float64(codingRate)

	a := 8*pl - 4*spreadFactor + 28 + 16 - 20*h
	b := 4 * (spreadFactor - 2*de)
	c := cr + 4

	return int(8 + math.Max(math.Ceil(a/b)*c, 0)), nil
}
