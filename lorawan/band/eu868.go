package band

import "time"

// euDataRates is shared by EU868, EU433, CN779 and IN865: all four are
// single-band 125 kHz (+ one FSK) plans using the same DR table shape.
func euDataRates() map[int]DataRate {
	return map[int]DataRate{
		0: {true, true, LoRaModulation, 12, 125, 0},
		1: {true, true, LoRaModulation, 11, 125, 0},
		2: {true, true, LoRaModulation, 10, 125, 0},
		3: {true, true, LoRaModulation, 9, 125, 0},
		4: {true, true, LoRaModulation, 8, 125, 0},
		5: {true, true, LoRaModulation, 7, 125, 0},
		6: {true, true, LoRaModulation, 7, 250, 0},
		7: {true, true, FSKModulation, 0, 0, 50000},
	}
}

var eu868RX1DROffsetTable = [][]int{
	{0, 0, 0, 0, 0, 0},
	{1, 0, 0, 0, 0, 0},
	{2, 1, 0, 0, 0, 0},
	{3, 2, 1, 0, 0, 0},
	{4, 3, 2, 1, 0, 0},
	{5, 4, 3, 2, 1, 0},
	{6, 5, 4, 3, 2, 1},
}

type eu868 struct{ base }

// NewEU868 returns the EU868 regional PHY policy: 3 default 125 kHz
// channels at 868.1/868.3/868.5 MHz, DR0-5, duty cycle on, RX2 at
// 869.525 MHz/DR0.
func NewEU868() Region {
	r := &eu868{base{
		name:      EU868,
		dataRates: euDataRates(),
		maxPayloadSizes: map[int]MaxPayloadSize{
			0: {59, 51}, 1: {59, 51}, 2: {59, 51}, 3: {123, 115},
			4: {230, 222}, 5: {230, 222}, 6: {230, 222}, 7: {230, 222},
		},
		defaults: Defaults{
			RX2Frequency: 869525000, RX2DataRate: 0,
			MaxFCntGap: 16384,
			DefaultTXDataRate: 0,
			ReceiveDelay1: time.Second, ReceiveDelay2: 2 * time.Second,
			JoinAcceptDelay1: 5 * time.Second, JoinAcceptDelay2: 6 * time.Second,
			ADRAckLimit: 64, ADRAckDelay: 32,
			AckTimeout: 2 * time.Second, AckTimeoutRnd: time.Second,
			MaxEIRP: 16, AntennaGain: 0,
			WakeUpTime: 3 * time.Millisecond, RXErrorMargin: 20 * time.Millisecond,
		},
		channels: []Channel{
			{Frequency: 868100000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 868300000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 868500000, MinDR: 0, MaxDR: 5, Enabled: true},
		},
		bands: []Band{
			{DutyCycleInverse: 100, MaxTXPowerDBm: 16, LowerFrequency: 863000000, UpperFrequency: 870000000},
		},
		txPowerOffsets:   []int{0, 2, 4, 6, 8, 10, 12, 14},
		rx1DROffsetTable: eu868RX1DROffsetTable,
		minDR:            0, maxDR: 5,
	}}
	return r
}
