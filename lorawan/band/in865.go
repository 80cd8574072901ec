package band

import "time"

type in865 struct{ base }

// NewIN865 returns the IN865 regional PHY policy: no duty-cycle
// restriction (unlike EU868/CN779), higher max EIRP, RX2 at 866.550 MHz.
func NewIN865() Region {
	return &in865{base{
		name:      IN865,
		dataRates: euDataRates(),
		maxPayloadSizes: map[int]MaxPayloadSize{
			0: {59, 51}, 1: {59, 51}, 2: {59, 51}, 3: {123, 115},
			4: {230, 222}, 5: {230, 222}, 6: {230, 222}, 7: {230, 222},
		},
		defaults: Defaults{
			RX2Frequency: 866550000, RX2DataRate: 2,
			MaxFCntGap: 16384,
			DefaultTXDataRate: 0,
			ReceiveDelay1: time.Second, ReceiveDelay2: 2 * time.Second,
			JoinAcceptDelay1: 5 * time.Second, JoinAcceptDelay2: 6 * time.Second,
			ADRAckLimit: 64, ADRAckDelay: 32,
			AckTimeout: 2 * time.Second, AckTimeoutRnd: time.Second,
			MaxEIRP: 30, AntennaGain: 0,
			WakeUpTime: 3 * time.Millisecond, RXErrorMargin: 20 * time.Millisecond,
		},
		channels: []Channel{
			{Frequency: 865062500, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 865402500, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 865985000, MinDR: 0, MaxDR: 5, Enabled: true},
		},
		bands: []Band{
			{DutyCycleInverse: 0, MaxTXPowerDBm: 30, LowerFrequency: 865000000, UpperFrequency: 867000000},
		},
		txPowerOffsets:   []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20},
		rx1DROffsetTable: eu868RX1DROffsetTable,
		minDR:            0, maxDR: 5,
	}}
}
