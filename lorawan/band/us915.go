package band

import (
	"math/rand"
	"time"
)

// usDataRates is the US915 DR table (uplink DR0-4, downlink DR8-13); AU915
// has its own table through DR6 (auDataRates).
func usDataRates() map[int]DataRate {
	return map[int]DataRate{
		0: {true, false, LoRaModulation, 10, 125, 0},
		1: {true, false, LoRaModulation, 9, 125, 0},
		2: {true, false, LoRaModulation, 8, 125, 0},
		3: {true, false, LoRaModulation, 7, 125, 0},
		4: {true, false, LoRaModulation, 8, 500, 0},
		8: {false, true, LoRaModulation, 12, 500, 0},
		9: {false, true, LoRaModulation, 11, 500, 0},
		10: {false, true, LoRaModulation, 10, 500, 0},
		11: {false, true, LoRaModulation, 9, 500, 0},
		12: {false, true, LoRaModulation, 8, 500, 0},
		13: {false, true, LoRaModulation, 7, 500, 0},
	}
}

// usMaxPayloadSizes covers US915's DR0-4/8-13 range; AU915 uses
// auMaxPayloadSizes.
func usMaxPayloadSizes() map[int]MaxPayloadSize {
	return map[int]MaxPayloadSize{
		0: {19, 11}, 1: {61, 53}, 2: {133, 125}, 3: {250, 242}, 4: {250, 242},
		8: {41, 33}, 9: {117, 109}, 10: {230, 222}, 11: {230, 222}, 12: {230, 222}, 13: {230, 222},
	}
}

// buildUSGridChannels lays out US915's fixed 64x125kHz + 8x500kHz uplink
// grid: 902.3 + k*200kHz (k 0..63), 903.0 + k*1.6MHz (k 0..7). AU915 builds
// its own grid in buildAUGridChannels.
func buildUSGridChannels() []Channel {
	channels := make([]Channel, 0, 72)
	for k := 0; k < 64; k++ {
		channels = append(channels, Channel{
			Frequency: 902300000 + k*200000,
			MinDR:     0, MaxDR: 3,
			BandIndex: 0, Enabled: true,
		})
	}
	for k := 0; k < 8; k++ {
		channels = append(channels, Channel{
			Frequency: 903000000 + k*1600000,
			MinDR:     4, MaxDR: 4,
			BandIndex: 0, Enabled: true,
		})
	}
	return channels
}

type usGrid struct {
	base

	// used tracks, per channel, whether it has been transmitted on since
	// the working mask was last refreshed — the US/AU915 current-mask
	// hopping rule (spec.md §3 invariant). Indices 0-63 are the 125 kHz
	// sub-band, 64-71 the 500 kHz sub-band; each refreshes independently,
	// mirroring original_source's separate current_channel_mask[0..3] vs
	// current_channel_mask[4] groups.
	used [72]bool
}

// rx1DownlinkFrequency implements the fixed US/AU915 RX1-channel mapping:
// downlink channel index = uplink channel index modulo 8.
func (r *usGrid) rx1DownlinkFrequency(uplinkChannel int) int {
	return 923300000 + (uplinkChannel%8)*600000
}

func (r *usGrid) RXConfig(channel int, uplinkDR int, window RXWindow, rx1DROffset int, minRXSymbols int, rxErrorMargin, wakeUpTime time.Duration) (RXConfig, error) {
	if window == RX2 {
		dr := r.defaults.RX2DataRate
		timeout, offset := computeRXWindowParams(dr, &r.base, minRXSymbols, rxErrorMargin, wakeUpTime)
		return RXConfig{Frequency: r.defaults.RX2Frequency, DataRate: dr, WindowTimeout: timeout, WindowOffset: offset}, nil
	}
	if _, err := r.GetUplinkChannel(channel); err != nil {
		return RXConfig{}, err
	}
	dr, err := r.ApplyDROffset(uplinkDR, rx1DROffset)
	if err != nil {
		return RXConfig{}, err
	}
	timeout, offset := computeRXWindowParams(dr, &r.base, minRXSymbols, rxErrorMargin, wakeUpTime)
	return RXConfig{Frequency: r.rx1DownlinkFrequency(channel), DataRate: dr, WindowTimeout: timeout, WindowOffset: offset}, nil
}

// NextChannel implements the US/AU915 current-mask hopping rule: the 64
// 125 kHz channels (indices 0-63) and the 8 500 kHz channels (64-71) form
// two independent sub-bands, whichever one the requested DR falls in
// (spec.md §4.1). A channel, once used, is disabled in the working mask
// until all channels in the active sub-band have been exhausted, at which
// point the mask refreshes to the full enabled set (original_source's
// set_next_channel/disable_channel).
func (r *usGrid) NextChannel(p NextChannelParams) (int, error) {
	lower, upper := 0, 64
	if !r.subBandCoversDR(lower, upper, p.DataRate) {
		lower, upper = 64, 72
	}

	if !r.hasUnusedEnabled(lower, upper, p.DataRate) {
		for i := lower; i < upper; i++ {
			r.used[i] = false
		}
	}

	var eligible, candidates []int
	for i := lower; i < upper; i++ {
		c := r.channels[i]
		if !c.Enabled || c.Frequency == 0 || r.used[i] {
			continue
		}
		if p.DataRate < c.MinDR || p.DataRate > c.MaxDR {
			continue
		}
		eligible = append(eligible, i)
		if c.BandIndex < len(r.bands) {
			band := r.bands[c.BandIndex]
			if p.DutyCycleOn && band.TimeOff > 0 && p.Now.Sub(band.LastTXDoneAt) < band.TimeOff {
				continue
			}
		}
		candidates = append(candidates, i)
	}
	if len(eligible) == 0 {
		return 0, ErrNoChannelFound
	}
	if len(candidates) == 0 {
		return 0, DutyCycleRestrictedError{Delay: r.minRemainingTimeOff(eligible, p.Now)}
	}

	ch := candidates[rand.Intn(len(candidates))]
	r.used[ch] = true
	return ch, nil
}

// subBandCoversDR reports whether any channel in [lower,upper) accepts
// dataRate, regardless of Enabled/used state — it identifies which
// sub-band a DR belongs to (US915: DR0-3 is 125 kHz, DR4 is 500 kHz;
// AU915: DR0-5 is 125 kHz, DR6 is 500 kHz).
func (r *usGrid) subBandCoversDR(lower, upper, dataRate int) bool {
	for i := lower; i < upper; i++ {
		c := r.channels[i]
		if dataRate >= c.MinDR && dataRate <= c.MaxDR {
			return true
		}
	}
	return false
}

// hasUnusedEnabled reports whether the [lower,upper) sub-band still has an
// enabled, DR-eligible channel that has not been used since the working
// mask was last refreshed.
func (r *usGrid) hasUnusedEnabled(lower, upper, dataRate int) bool {
	for i := lower; i < upper; i++ {
		c := r.channels[i]
		if c.Enabled && c.Frequency != 0 && !r.used[i] && dataRate >= c.MinDR && dataRate <= c.MaxDR {
			return true
		}
	}
	return false
}

// ApplyCFList is a no-op for the grid regions: CFList carries ChMask data
// in this band plan, applied via LinkADRRequest/NewChannelReq instead of
// frequency injection.
func (r *usGrid) ApplyCFList(freqs [5]int) error { return nil }

// LinkADRRequest overrides the base fold to support ChMaskCntl 6 (enable
// all 125 kHz channels, disable all 500 kHz) and 7 (disable all 125 kHz
// channels), and enforces the FCC two-channel-minimum rule below DR_4.
func (r *usGrid) LinkADRRequest(reqs []LinkADRReq) (LinkADRResult, error) {
	res := LinkADRResult{ChannelMaskACK: true, DataRateACK: true, PowerACK: true, EnabledMask: map[int]bool{}}
	if len(reqs) == 0 {
		return res, nil
	}

	for i, c := range r.channels {
		if c.Frequency != 0 {
			res.EnabledMask[i] = c.Enabled
		}
	}

	for _, req := range reqs {
		switch req.ChMaskCntl {
		case 0, 1, 2, 3:
			base := req.ChMaskCntl * 16
			for i := 0; i < 16; i++ {
				idx := base + i
				if idx < 64 {
					res.EnabledMask[idx] = req.ChMask[i]
				}
			}
		case 4:
			for i := 0; i < 8; i++ {
				res.EnabledMask[64+i] = req.ChMask[i]
			}
		case 6:
			for i := 0; i < 64; i++ {
				res.EnabledMask[i] = true
			}
			for i := 64; i < 72; i++ {
				res.EnabledMask[i] = false
			}
		case 7:
			for i := 0; i < 64; i++ {
				res.EnabledMask[i] = false
			}
		default:
			res.ChannelMaskACK = false
		}
	}

	if _, err := r.GetDataRate(reqs[len(reqs)-1].DataRate); err != nil {
		res.DataRateACK = false
	}
	if reqs[len(reqs)-1].TXPower >= len(r.txPowerOffsets) {
		res.PowerACK = false
	}
	res.DataRate = reqs[len(reqs)-1].DataRate
	res.TXPower = reqs[len(reqs)-1].TXPower
	res.NbRep = reqs[len(reqs)-1].NbRep

	if !res.ChannelMaskACK || !res.DataRateACK || !res.PowerACK {
		return res, nil
	}

	if res.DataRate < 4 {
		enabled125 := 0
		for i := 0; i < 64; i++ {
			if res.EnabledMask[i] {
				enabled125++
			}
		}
		if enabled125 < 2 {
			res.ChannelMaskACK = false
		}
	}

	return res, nil
}

// GetAlternateDR implements the US/AU915 join-retry alternation between
// DR0 and DR4 (on US915 the 125 kHz and 500 kHz join pools; on AU915 both
// are 125 kHz rates), per spec.md §4.1.
func (r *usGrid) GetAlternateDR(trial int) (int, error) {
	if trial%2 == 0 {
		return 0, nil
	}
	return 4, nil
}

// NewUS915 returns the US915 regional PHY policy: 64x125kHz + 8x500kHz
// uplink, 8x500kHz downlink, DR0-4 up / DR8-13 down.
func NewUS915() Region {
	r := &usGrid{base: base{
		name:            US915,
		dataRates:       usDataRates(),
		maxPayloadSizes: usMaxPayloadSizes(),
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
		channels:         buildUSGridChannels(),
		bands:            []Band{{DutyCycleInverse: 0, MaxTXPowerDBm: 30, LowerFrequency: 902000000, UpperFrequency: 928000000}},
		txPowerOffsets:   []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24, 26, 28},
		rx1DROffsetTable: [][]int{{10, 9, 8, 8}, {11, 10, 9, 8}, {12, 11, 10, 9}, {13, 12, 11, 10}},
		minDR:            0, maxDR: 4,
	}}
	return r
}

// NewUS915Hybrid returns the US915 Hybrid regional PHY policy: identical
// tables to US915, but only a configurable 8-channel sub-band of the 64
// 125 kHz channels (plus its paired 500 kHz channel) starts enabled — the
// scheme many US915 network operators use to stay within gateway channel
// counts. subBand selects which of the eight 8-channel blocks (0..7)
// starts active; all other 125 kHz channels start disabled.
func NewUS915Hybrid(subBand int) Region {
	r := NewUS915().(*usGrid)
	r.name = US915Hybrid
	if subBand < 0 || subBand > 7 {
		subBand = 0
	}
	for i := 0; i < 64; i++ {
		r.channels[i].Enabled = i/8 == subBand
	}
	for i := 64; i < 72; i++ {
		r.channels[i].Enabled = i-64 == subBand
	}
	return r
}
