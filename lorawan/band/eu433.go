package band

import "time"

type eu433 struct{ base }

// NewEU433 returns the EU433 regional PHY policy: same DR table shape as
// EU868, shifted to the 433 MHz ISM band, 3 default channels, no duty
// cycle (per the 433 MHz band plan's lower channel occupancy requirement
// is not enforced at the MAC layer in 1.0.2; left to the radio's
// regulatory certification instead, matching the upstream policy).
func NewEU433() Region {
	return &eu433{base{
		name:      EU433,
		dataRates: euDataRates(),
		maxPayloadSizes: map[int]MaxPayloadSize{
			0: {59, 51}, 1: {59, 51}, 2: {59, 51}, 3: {123, 115},
			4: {230, 222}, 5: {230, 222}, 6: {230, 222}, 7: {230, 222},
		},
		defaults: Defaults{
			RX2Frequency: 434665000, RX2DataRate: 0,
			MaxFCntGap: 16384,
			DefaultTXDataRate: 0,
			ReceiveDelay1: time.Second, ReceiveDelay2: 2 * time.Second,
			JoinAcceptDelay1: 5 * time.Second, JoinAcceptDelay2: 6 * time.Second,
			ADRAckLimit: 64, ADRAckDelay: 32,
			AckTimeout: 2 * time.Second, AckTimeoutRnd: time.Second,
			MaxEIRP: 12, AntennaGain: 0,
			WakeUpTime: 3 * time.Millisecond, RXErrorMargin: 20 * time.Millisecond,
		},
		channels: []Channel{
			{Frequency: 433175000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 433375000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 433575000, MinDR: 0, MaxDR: 5, Enabled: true},
		},
		bands: []Band{
			{DutyCycleInverse: 0, MaxTXPowerDBm: 12, LowerFrequency: 433000000, UpperFrequency: 434800000},
		},
		txPowerOffsets:   []int{0, 2, 4, 6, 8, 10},
		rx1DROffsetTable: eu868RX1DROffsetTable,
		minDR:            0, maxDR: 5,
	}}
}
