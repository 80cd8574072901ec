package band

import "time"

func auDataRates() map[int]DataRate {
	return map[int]DataRate{
		0: {true, false, LoRaModulation, 12, 125, 0},
		1: {true, false, LoRaModulation, 11, 125, 0},
		2: {true, false, LoRaModulation, 10, 125, 0},
		3: {true, false, LoRaModulation, 9, 125, 0},
		4: {true, false, LoRaModulation, 8, 125, 0},
		5: {true, false, LoRaModulation, 7, 125, 0},
		6: {true, false, LoRaModulation, 8, 500, 0},
		8: {false, true, LoRaModulation, 12, 500, 0},
		9: {false, true, LoRaModulation, 11, 500, 0},
		10: {false, true, LoRaModulation, 10, 500, 0},
		11: {false, true, LoRaModulation, 9, 500, 0},
		12: {false, true, LoRaModulation, 8, 500, 0},
		13: {false, true, LoRaModulation, 7, 500, 0},
	}
}

func auMaxPayloadSizes() map[int]MaxPayloadSize {
	return map[int]MaxPayloadSize{
		0: {19, 11}, 1: {61, 53}, 2: {133, 125}, 3: {250, 242}, 4: {250, 242}, 5: {250, 242}, 6: {250, 242},
		8: {41, 33}, 9: {117, 109}, 10: {230, 222}, 11: {230, 222}, 12: {230, 222}, 13: {230, 222},
	}
}

func buildAUGridChannels() []Channel {
	channels := make([]Channel, 0, 72)
	for k := 0; k < 64; k++ {
		channels = append(channels, Channel{
			Frequency: 915200000 + k*200000,
			MinDR:     0, MaxDR: 5,
			BandIndex: 0, Enabled: true,
		})
	}
	for k := 0; k < 8; k++ {
		channels = append(channels, Channel{
			Frequency: 915900000 + k*1600000,
			MinDR:     6, MaxDR: 6,
			BandIndex: 0, Enabled: true,
		})
	}
	return channels
}

// NewAU915 returns the AU915 regional PHY policy: the same 64x125kHz +
// 8x500kHz grid shape as US915, shifted to the 915.2-928 MHz plan, with an
// uplink DR ceiling of DR6 (SF8BW500) instead of US915's DR4, and a
// distinct RX1-DR-offset matrix.
func NewAU915() Region {
	r := &usGrid{base: base{
		name:            AU915,
		dataRates:       auDataRates(),
		maxPayloadSizes: auMaxPayloadSizes(),
		defaults: Defaults{
			RX2Frequency: 923300000, RX2DataRate: 8,
			MaxFCntGap: 16384,
			DefaultTXDataRate: 0,
			ReceiveDelay1: time.Second, ReceiveDelay2: 2 * time.Second,
			JoinAcceptDelay1: 5 * time.Second, JoinAcceptDelay2: 6 * time.Second,
			ADRAckLimit: 64, ADRAckDelay: 32,
			AckTimeout: 2 * time.Second, AckTimeoutRnd: time.Second,
			MaxEIRP: 30, AntennaGain: 0,
			WakeUpTime: 3 * time.Millisecond, RXErrorMargin: 20 * time.Millisecond,
		},
		channels: buildAUGridChannels(),
		bands:    []Band{{DutyCycleInverse: 0, MaxTXPowerDBm: 30, LowerFrequency: 915000000, UpperFrequency: 928000000}},
		txPowerOffsets: []int{
			0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24, 26, 28,
		},
		rx1DROffsetTable: [][]int{
			{8, 8, 8, 8, 8, 8, 8},
			{9, 8, 8, 8, 8, 8, 8},
			{10, 9, 8, 8, 8, 8, 8},
			{11, 10, 9, 8, 8, 8, 8},
			{12, 11, 10, 9, 8, 8, 8},
			{13, 12, 11, 10, 9, 8, 8},
			{13, 13, 12, 11, 10, 9, 8},
		},
		minDR: 0, maxDR: 6,
	}}
	return r
}
