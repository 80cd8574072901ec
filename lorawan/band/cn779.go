package band

import "time"

type cn779 struct{ base }

// NewCN779 returns the CN779 regional PHY policy (779-787 MHz band),
// mirroring EU868's DR table and duty-cycle shape at a lower max EIRP.
func NewCN779() Region {
	return &cn779{base{
		name:      CN779,
		dataRates: euDataRates(),
		maxPayloadSizes: map[int]MaxPayloadSize{
			0: {59, 51}, 1: {59, 51}, 2: {59, 51}, 3: {123, 115},
			4: {230, 222}, 5: {230, 222}, 6: {230, 222}, 7: {230, 222},
		},
		defaults: Defaults{
			RX2Frequency: 786000000, RX2DataRate: 0,
			MaxFCntGap: 16384,
			DefaultTXDataRate: 0,
			ReceiveDelay1: time.Second, ReceiveDelay2: 2 * time.Second,
			JoinAcceptDelay1: 5 * time.Second, JoinAcceptDelay2: 6 * time.Second,
			ADRAckLimit: 64, ADRAckDelay: 32,
			AckTimeout: 2 * time.Second, AckTimeoutRnd: time.Second,
			MaxEIRP: 10, AntennaGain: 0,
			WakeUpTime: 3 * time.Millisecond, RXErrorMargin: 20 * time.Millisecond,
		},
		channels: []Channel{
			{Frequency: 779500000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 779700000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 779900000, MinDR: 0, MaxDR: 5, Enabled: true},
		},
		bands: []Band{
			{DutyCycleInverse: 100, MaxTXPowerDBm: 10, LowerFrequency: 779000000, UpperFrequency: 787000000},
		},
		txPowerOffsets:   []int{0, 2, 4, 6, 8, 10},
		rx1DROffsetTable: eu868RX1DROffsetTable,
		minDR:            0, maxDR: 5,
	}}
}
