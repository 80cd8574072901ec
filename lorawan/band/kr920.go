package band

import "time"

type kr920 struct{ base }

// NewKR920 returns the KR920 regional PHY policy: 8 default channels
// 921.9-923.3 MHz at 200 kHz spacing, LBT required on every channel
// (-65 dBm threshold, 6 ms carrier-sense window), and the region's
// max-EIRP split (10 dBm below 922.1 MHz, 14 dBm at/above) applied
// per-channel in TXConfig.
func NewKR920() Region {
	return &kr920{base{
		name:      KR920,
		dataRates: euDataRates(),
		maxPayloadSizes: map[int]MaxPayloadSize{
			0: {59, 51}, 1: {59, 51}, 2: {59, 51}, 3: {123, 115},
			4: {230, 222}, 5: {230, 222},
		},
		defaults: Defaults{
			RX2Frequency: 921900000, RX2DataRate: 0,
			MaxFCntGap: 16384,
			DefaultTXDataRate: 0,
			ReceiveDelay1: time.Second, ReceiveDelay2: 2 * time.Second,
			JoinAcceptDelay1: 5 * time.Second, JoinAcceptDelay2: 6 * time.Second,
			ADRAckLimit: 64, ADRAckDelay: 32,
			AckTimeout: 2 * time.Second, AckTimeoutRnd: time.Second,
			MaxEIRP: 14, AntennaGain: 0,
			WakeUpTime: 3 * time.Millisecond, RXErrorMargin: 20 * time.Millisecond,
		},
		channels: []Channel{
			{Frequency: 921900000, MinDR: 0, MaxDR: 5, Enabled: true, RX1Frequency: 921900000},
			{Frequency: 922100000, MinDR: 0, MaxDR: 5, Enabled: true, RX1Frequency: 922100000},
			{Frequency: 922300000, MinDR: 0, MaxDR: 5, Enabled: true, RX1Frequency: 922300000},
			{Frequency: 922500000, MinDR: 0, MaxDR: 5, Enabled: true, RX1Frequency: 922500000},
			{Frequency: 922700000, MinDR: 0, MaxDR: 5, Enabled: true, RX1Frequency: 922700000},
			{Frequency: 922900000, MinDR: 0, MaxDR: 5, Enabled: true, RX1Frequency: 922900000},
			{Frequency: 923100000, MinDR: 0, MaxDR: 5, Enabled: true, RX1Frequency: 923100000},
			{Frequency: 923300000, MinDR: 0, MaxDR: 5, Enabled: true, RX1Frequency: 923300000},
		},
		bands:            []Band{{DutyCycleInverse: 0, MaxTXPowerDBm: 14, LowerFrequency: 920900000, UpperFrequency: 923300000}},
		txPowerOffsets:   []int{0, 2, 4, 6, 8, 10, 12, 14},
		rx1DROffsetTable: eu868RX1DROffsetTable,
		minDR:            0, maxDR: 5,
	}}
}

// TXConfig overrides the base implementation to apply KR920's frequency-
// dependent max-EIRP split: channels below 922.1 MHz are capped at
// 10 dBm, channels at or above it at 14 dBm.
func (r *kr920) TXConfig(channel int, dataRate int, txPowerIndex int, pktLen int) (TXConfig, error) {
	cfg, err := r.base.TXConfig(channel, dataRate, txPowerIndex, pktLen)
	if err != nil {
		return cfg, err
	}
	eirpCap := 14
	if cfg.Frequency < 922100000 {
		eirpCap = 10
	}
	if cfg.EffectiveDBm > eirpCap {
		cfg.EffectiveDBm = eirpCap
	}
	return cfg, nil
}

// CarrierSenseRequired reports KR920's mandatory LBT parameters: every
// channel requires a 6 ms carrier-sense below -65 dBm before transmit.
func (r *kr920) CarrierSenseRequired(channel int) (int, time.Duration, bool) {
	return -65, 6 * time.Millisecond, true
}
