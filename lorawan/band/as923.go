package band

import "time"

type as923 struct {
	base
	dwellTimeLimited bool
}

func as923DataRates() map[int]DataRate {
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

// NewAS923 returns the AS923 regional PHY policy: 2 default 125 kHz
// channels, LBT required (-85 dBm threshold, 6 ms carrier-sense window),
// and an optional dwell-time limit (set via TXParamSetupReq) that caps
// uplink payload size at the lower data-rates, matching the region's
// Japan/most-of-ASEAN profile. dwellTimeLimited selects the 400 ms
// dwell-time-constrained max-payload table.
func NewAS923(dwellTimeLimited bool) Region {
	maxPayload := map[int]MaxPayloadSize{
		0: {59, 51}, 1: {59, 51}, 2: {59, 51}, 3: {123, 115},
		4: {230, 222}, 5: {230, 222}, 6: {230, 222}, 7: {230, 222},
	}
	if dwellTimeLimited {
		// dwell-time-limited devices cannot use DR0/DR1 uplink payloads
		// larger than the 400 ms airtime budget allows.
		maxPayload[0] = MaxPayloadSize{0, 0}
		maxPayload[1] = MaxPayloadSize{0, 0}
		maxPayload[2] = MaxPayloadSize{19, 11}
		maxPayload[3] = MaxPayloadSize{61, 53}
	}

	return &as923{
		base: base{
			name:      AS923,
			dataRates: as923DataRates(),
			maxPayloadSizes: maxPayload,
			defaults: Defaults{
				RX2Frequency: 923200000, RX2DataRate: 2,
				MaxFCntGap: 16384,
				DefaultTXDataRate: 0,
				ReceiveDelay1: time.Second, ReceiveDelay2: 2 * time.Second,
				JoinAcceptDelay1: 5 * time.Second, JoinAcceptDelay2: 6 * time.Second,
				ADRAckLimit: 64, ADRAckDelay: 32,
				AckTimeout: 2 * time.Second, AckTimeoutRnd: time.Second,
				MaxEIRP: 16, AntennaGain: 0,
				WakeUpTime: 3 * time.Millisecond, RXErrorMargin: 20 * time.Millisecond,
				ImplicitDwellTime: dwellTimeLimited,
			},
			channels: []Channel{
				{Frequency: 923200000, MinDR: 0, MaxDR: 5, Enabled: true},
				{Frequency: 923400000, MinDR: 0, MaxDR: 5, Enabled: true},
			},
			bands:            []Band{{DutyCycleInverse: 0, MaxTXPowerDBm: 16, LowerFrequency: 915000000, UpperFrequency: 928000000}},
			txPowerOffsets:   []int{0, 2, 4, 6, 8, 10, 12, 14},
			rx1DROffsetTable: eu868RX1DROffsetTable,
			minDR:            0, maxDR: 5,
		},
		dwellTimeLimited: dwellTimeLimited,
	}
}

// CarrierSenseRequired reports AS923's mandatory LBT parameters: every
// channel requires a 6 ms carrier-sense below -85 dBm before transmit.
func (r *as923) CarrierSenseRequired(channel int) (int, time.Duration, bool) {
	return -85, 6 * time.Millisecond, true
}
