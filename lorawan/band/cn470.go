package band

import "time"

type cn470 struct{ base }

func buildCN470Channels() []Channel {
	channels := make([]Channel, 0, 96)
	for k := 0; k < 96; k++ {
		channels = append(channels, Channel{
			Frequency: 470300000 + k*200000,
			MinDR:     0, MaxDR: 5,
			BandIndex: 0, Enabled: true,
		})
	}
	return channels
}

// NewCN470 returns the CN470 regional PHY policy: 96 uplink channels at
// 470.3 + k*200kHz, RX2 at 505.3 MHz/DR0, no duty cycle, no CFList support
// (the region uses a fixed 96-channel plan with NewChannelReq/LinkADRReq
// only, like the US/AU grids, but without their 500 kHz downlink split).
func NewCN470() Region {
	return &cn470{base{
		name:      CN470,
		dataRates: euDataRates(),
		maxPayloadSizes: map[int]MaxPayloadSize{
			0: {59, 51}, 1: {59, 51}, 2: {59, 51}, 3: {123, 115},
			4: {230, 222}, 5: {230, 222},
		},
		defaults: Defaults{
			RX2Frequency: 505300000, RX2DataRate: 0,
			MaxFCntGap: 16384,
			DefaultTXDataRate: 0,
			ReceiveDelay1: time.Second, ReceiveDelay2: 2 * time.Second,
			JoinAcceptDelay1: 5 * time.Second, JoinAcceptDelay2: 6 * time.Second,
			ADRAckLimit: 64, ADRAckDelay: 32,
			AckTimeout: 2 * time.Second, AckTimeoutRnd: time.Second,
			MaxEIRP: 19, AntennaGain: 0,
			WakeUpTime: 3 * time.Millisecond, RXErrorMargin: 20 * time.Millisecond,
		},
		channels:         buildCN470Channels(),
		bands:            []Band{{DutyCycleInverse: 0, MaxTXPowerDBm: 19, LowerFrequency: 470000000, UpperFrequency: 510000000}},
		txPowerOffsets:   []int{0, 2, 4, 6, 8, 10, 12, 14},
		rx1DROffsetTable: eu868RX1DROffsetTable,
		minDR:            0, maxDR: 5,
	}}
}

// ApplyCFList is a no-op for CN470: the region's fixed 96-channel plan has
// no CFList channel-insertion form (channel selection is by index via
// NewChannelReq/LinkADRReq only).
func (r *cn470) ApplyCFList(freqs [5]int) error { return nil }
