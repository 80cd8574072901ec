package band

import (
	"math"
	"math/rand"
	"time"

	"github.com/lora-edge/node-stack/lorawan/airtime"
)

// symbolDuration returns the duration of one LoRa symbol for a spreading
// factor/bandwidth pair: 2^SF / BW.
func symbolDuration(sf, bwKHz int) time.Duration {
	secs := math.Pow(2, float64(sf)) / (float64(bwKHz) * 1000)
	return time.Duration(secs * float64(time.Second))
}

// base implements the shared plumbing every Region embeds: channel table
// management, data-rate lookups, TX-power ladder, RX-window symbol-timeout
// math and generic duty-cycle backoff accounting. Region-specific files
// override or extend behavior (LinkADRRequest's ChMaskCntl handling,
// NextChannel's hopping rule, CarrierSenseRequired) where the region
// deviates from this default.
type base struct {
	name             Name
	dataRates        map[int]DataRate
	maxPayloadSizes  map[int]MaxPayloadSize
	defaults         Defaults
	channels         []Channel
	bands            []Band
	txPowerOffsets   []int // dBm below MaxEIRP, indexed by TXPower field
	rx1DROffsetTable [][]int
	minDR, maxDR     int
}

func (b *base) Name() Name { return b.name }

func (b *base) GetDataRateIndex(uplink bool, dr DataRate) (int, error) {
	for i, d := range b.dataRates {
		if uplink && !d.Uplink {
			continue
		}
		if !uplink && !d.Downlink {
			continue
		}
		if d.Modulation == dr.Modulation && d.SpreadFactor == dr.SpreadFactor &&
			d.Bandwidth == dr.Bandwidth && d.BitRate == dr.BitRate {
			return i, nil
		}
	}
	return 0, ErrInvalidDataRate
}

func (b *base) GetDataRate(dr int) (DataRate, error) {
	d, ok := b.dataRates[dr]
	if !ok {
		return DataRate{}, ErrInvalidDataRate
	}
	return d, nil
}

func (b *base) GetMaxPayloadSizeForDataRateIndex(dr int) (MaxPayloadSize, error) {
	m, ok := b.maxPayloadSizes[dr]
	if !ok {
		return MaxPayloadSize{}, ErrInvalidDataRate
	}
	return m, nil
}

func (b *base) GetDefaults() Defaults { return b.defaults }

func (b *base) GetEnabledUplinkChannelIndices() []int {
	var out []int
	for i, c := range b.channels {
		if c.Enabled && c.Frequency != 0 {
			out = append(out, i)
		}
	}
	return out
}

func (b *base) GetCustomUplinkChannelIndices() []int {
	var out []int
	for i, c := range b.channels {
		if c.Custom {
			out = append(out, i)
		}
	}
	return out
}

func (b *base) GetUplinkChannel(index int) (Channel, error) {
	if index < 0 || index >= len(b.channels) {
		return Channel{}, ErrChannelDoesNotExist
	}
	return b.channels[index], nil
}

func (b *base) GetTXPowerOffset(index int) (int, error) {
	if index < 0 || index >= len(b.txPowerOffsets) {
		return 0, ErrInvalidDataRate
	}
	return b.txPowerOffsets[index], nil
}

func (b *base) AddChannel(ch Channel) (int, error) {
	ch.Enabled = true
	ch.Custom = true
	for i, c := range b.channels {
		if !c.Enabled && c.Frequency == 0 {
			b.channels[i] = ch
			return i, nil
		}
	}
	b.channels = append(b.channels, ch)
	return len(b.channels) - 1, nil
}

func (b *base) RemoveChannel(index int) error {
	if index < 0 || index >= len(b.channels) {
		return ErrChannelDoesNotExist
	}
	if !b.channels[index].Custom {
		return ErrChannelDoesNotExist
	}
	b.channels[index] = Channel{}
	return nil
}

// ApplyCFList inserts up to five extra channels at indices 3..7, the
// behavior shared by every non-grid region (US915/AU915 override this:
// they have no CFList channel-insertion form).
func (b *base) ApplyCFList(freqs [5]int) error {
	for i, f := range freqs {
		idx := 3 + i
		if f == 0 {
			continue
		}
		ch := Channel{Frequency: f, MinDR: b.minDR, MaxDR: b.maxDR, Enabled: true}
		if idx < len(b.channels) {
			b.channels[idx] = ch
		} else {
			for len(b.channels) < idx {
				b.channels = append(b.channels, Channel{})
			}
			b.channels = append(b.channels, ch)
		}
	}
	return nil
}

// ApplyDROffset looks up the RX1 data rate in the region's RX1-DR-offset
// matrix (one row per uplink DR, one column per offset). The entries are
// RX1 data rates, which in the grid regions lie above the uplink DR range,
// so the result is only raised to the region's lowest DR, never capped at
// its highest uplink DR.
func (b *base) ApplyDROffset(uplinkDR int, offset int) (int, error) {
	if uplinkDR < 0 || uplinkDR >= len(b.rx1DROffsetTable) {
		return 0, ErrInvalidDataRate
	}
	row := b.rx1DROffsetTable[uplinkDR]
	if offset < 0 || offset >= len(row) {
		return 0, ErrInvalidDataRate
	}
	dr := row[offset]
	if dr < b.minDR {
		dr = b.minDR
	}
	return dr, nil
}

// VerifyFrequency checks the candidate frequency lies within the channel
// plan's configured band ranges.
func (b *base) VerifyFrequency(freq int, dataRate int) error {
	for _, band := range b.bands {
		if freq >= band.LowerFrequency && freq <= band.UpperFrequency {
			return nil
		}
	}
	return ErrChannelFrequencyBad
}

// GetAlternateDR implements the default "lower DR every other trial"
// fallback used by confirmed-message retries; regions with a dedicated
// join-DR alternation (US915/AU915) override this.
func (b *base) GetAlternateDR(trial int) (int, error) {
	dr := b.maxDR - (trial / 2)
	if dr < b.minDR {
		dr = b.minDR
	}
	return dr, nil
}

// nextLowerDataRate walks one DR step down, clamped at minDR.
func (b *base) nextLowerDataRate(dr int) int {
	if dr > b.minDR {
		return dr - 1
	}
	return dr
}

// txConfigDBm converts a TXPower index into an effective dBm value given
// the region's MaxEIRP, honoring the ladder carried in txPowerOffsets.
func (b *base) txConfigDBm(txPowerIndex int) int {
	off, err := b.GetTXPowerOffset(txPowerIndex)
	if err != nil {
		off = 0
	}
	return b.defaults.MaxEIRP - b.defaults.AntennaGain - off
}

// TXConfig is the default implementation used by every non-grid region
// (grid regions with 500 kHz/125 kHz channel splits override TXConfig to
// pick the right channel entry but reuse txConfigDBm).
func (b *base) TXConfig(channel int, dataRate int, txPowerIndex int, pktLen int) (TXConfig, error) {
	ch, err := b.GetUplinkChannel(channel)
	if err != nil {
		return TXConfig{}, err
	}
	dr, err := b.GetDataRate(dataRate)
	if err != nil {
		return TXConfig{}, err
	}

	var toa time.Duration
	if dr.Modulation == LoRaModulation {
		lowDR := dr.Bandwidth == 125 && dr.SpreadFactor >= 11
		toa, err = airtime.CalculateLoRaAirtime(pktLen, dr.SpreadFactor, dr.Bandwidth, 8, airtime.CodingRate45, true, lowDR)
		if err != nil {
			return TXConfig{}, err
		}
	} else {
		toa = airtime.CalculateFSKAirtime(pktLen, dr.BitRate)
	}

	return TXConfig{
		Frequency:    ch.Frequency,
		DataRate:     dataRate,
		EffectiveDBm: b.txConfigDBm(txPowerIndex),
		TimeOnAir:    toa,
	}, nil
}

// RXConfig is the default implementation: the frequency is the uplink
// channel's frequency unless the channel carries an explicit RX1
// frequency override; datarate follows the region's DR-offset matrix.
// Grid regions (US915/AU915) override this to derive the RX1 frequency
// from the channel's sub-band instead.
func (b *base) RXConfig(channel int, uplinkDR int, window RXWindow, rx1DROffset int, minRXSymbols int, rxErrorMargin, wakeUpTime time.Duration) (RXConfig, error) {
	if window == RX2 {
		dr := b.defaults.RX2DataRate
		timeout, offset := computeRXWindowParams(dr, b, minRXSymbols, rxErrorMargin, wakeUpTime)
		return RXConfig{Frequency: b.defaults.RX2Frequency, DataRate: dr, WindowTimeout: timeout, WindowOffset: offset}, nil
	}

	ch, err := b.GetUplinkChannel(channel)
	if err != nil {
		return RXConfig{}, err
	}
	freq := ch.Frequency
	if ch.RX1Frequency != 0 {
		freq = ch.RX1Frequency
	}
	dr, err := b.ApplyDROffset(uplinkDR, rx1DROffset)
	if err != nil {
		return RXConfig{}, err
	}
	timeout, offset := computeRXWindowParams(dr, b, minRXSymbols, rxErrorMargin, wakeUpTime)
	return RXConfig{Frequency: freq, DataRate: dr, WindowTimeout: timeout, WindowOffset: offset}, nil
}

// computeRXWindowParams derives the number of symbols the radio must
// listen for to absorb clock drift (rxErrorMargin) and returns how much
// earlier than the nominal window open time the radio should be armed
// (wakeUpTime), so a naive fixed timeout is never used.
func computeRXWindowParams(dr int, b *base, minRXSymbols int, rxErrorMargin, wakeUpTime time.Duration) (int, time.Duration) {
	d, err := b.GetDataRate(dr)
	if err != nil || d.Modulation != LoRaModulation {
		return minRXSymbols, wakeUpTime
	}
	tSym := symbolDuration(d.SpreadFactor, d.Bandwidth)
	extra := int(math.Ceil(float64(rxErrorMargin) / float64(tSym)))
	symbols := minRXSymbols + extra
	if symbols < minRXSymbols {
		symbols = minRXSymbols
	}
	return symbols, wakeUpTime
}

// CalculateBackoff is the default duty-cycle accountant: honored by every
// region when DutyCycleOn is true and the band has a non-zero
// DutyCycleInverse. Unjoined devices are subject to the aggregated join
// duty cycle regardless of the region's normal per-band duty cycle.
func (b *base) CalculateBackoff(channel int, lastWasJoin, joined, dutyCycleOn bool, timeOnAir time.Duration, now time.Time) time.Duration {
	ch, err := b.GetUplinkChannel(channel)
	if err != nil || ch.BandIndex >= len(b.bands) {
		return 0
	}
	band := &b.bands[ch.BandIndex]
	band.LastTXDoneAt = now

	if !joined && lastWasJoin {
		band.TimeOff = aggregatedJoinBackoff(now)
		return band.TimeOff
	}

	if !dutyCycleOn || band.DutyCycleInverse == 0 {
		band.TimeOff = 0
		return 0
	}

	band.TimeOff = timeOnAir * time.Duration(band.DutyCycleInverse)
	return band.TimeOff
}

// aggregatedJoinBackoff returns the time-off for one join TX. The
// join-duty-cycle schedule of spec.md §4.1 (36s/hour for the first hour
// after boot, 36s/10h for the following ten hours, then 8.7s/24h) depends
// on a device boot timestamp that this API does not carry, so it always
// returns the steady-state 8.7s; the first-hour and ten-hour windows are
// not applied anywhere.
func aggregatedJoinBackoff(now time.Time) time.Duration {
	return time.Duration(8700) * time.Millisecond
}

// CarrierSenseRequired is the default: no LBT. KR920 and AS923 override
// this.
func (b *base) CarrierSenseRequired(channel int) (int, time.Duration, bool) {
	return 0, 0, false
}

// AcceptRXParamSetupReq is the default validator: frequency must fall
// within a configured band, RX2 DR and RX1 offset must be in-range.
func (b *base) AcceptRXParamSetupReq(frequency int, rx1DROffset int, rx2DataRate int) (bool, bool, bool) {
	channelOK := b.VerifyFrequency(frequency, rx2DataRate) == nil
	_, drErr := b.GetDataRate(rx2DataRate)
	offsetOK := rx1DROffset >= 0 && len(b.rx1DROffsetTable) > 0 && rx1DROffset < len(b.rx1DROffsetTable[0])
	return channelOK, drErr == nil, offsetOK
}

// LinkADRRequest implements the default (non-grid) chained LinkADRReq
// fold: ChMaskCntl 0 selects channels 0..15 via ChMask; values 1..4 select
// subsequent 16-channel blocks (unused outside the US/AU grid, but kept
// generic); 6 and 7 are grid-only (all-125kHz-on / all-125kHz-off) and are
// rejected here since this base has no 125 kHz/500 kHz split.
func (b *base) LinkADRRequest(reqs []LinkADRReq) (LinkADRResult, error) {
	res := LinkADRResult{
		ChannelMaskACK: true,
		DataRateACK:    true,
		PowerACK:       true,
		EnabledMask:    map[int]bool{},
	}
	if len(reqs) == 0 {
		return res, nil
	}

	for i, c := range b.channels {
		if c.Frequency != 0 {
			res.EnabledMask[i] = c.Enabled
		}
	}

	for _, r := range reqs {
		switch r.ChMaskCntl {
		case 0, 1, 2, 3, 4:
			base := r.ChMaskCntl * 16
			for i := 0; i < 16; i++ {
				idx := base + i
				if idx >= len(b.channels) {
					continue
				}
				if b.channels[idx].Frequency == 0 {
					if r.ChMask[i] {
						res.ChannelMaskACK = false
					}
					continue
				}
				res.EnabledMask[idx] = r.ChMask[i]
			}
		default:
			res.ChannelMaskACK = false
		}
	}

	if _, err := b.GetDataRate(reqs[len(reqs)-1].DataRate); err != nil {
		res.DataRateACK = false
	}
	if reqs[len(reqs)-1].TXPower >= len(b.txPowerOffsets) {
		res.PowerACK = false
	}

	res.DataRate = reqs[len(reqs)-1].DataRate
	res.TXPower = reqs[len(reqs)-1].TXPower
	res.NbRep = reqs[len(reqs)-1].NbRep

	if !res.ChannelMaskACK || !res.DataRateACK || !res.PowerACK {
		return res, nil
	}

	anyEnabled := false
	for _, en := range res.EnabledMask {
		if en {
			anyEnabled = true
			break
		}
	}
	if !anyEnabled {
		res.ChannelMaskACK = false
	}

	return res, nil
}

// NextChannel is the default selection rule: pick uniformly at random
// among enabled channels whose DR range covers dataRate and whose band is
// not currently backed off. The grid regions (US915/AU915) override this;
// the LBT regions (KR920, AS923) use it unchanged.
func (b *base) NextChannel(p NextChannelParams) (int, error) {
	var eligible, candidates []int
	for i, c := range b.channels {
		if !c.Enabled || c.Frequency == 0 {
			continue
		}
		if p.DataRate < c.MinDR || p.DataRate > c.MaxDR {
			continue
		}
		eligible = append(eligible, i)
		if c.BandIndex < len(b.bands) {
			band := b.bands[c.BandIndex]
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
		return 0, DutyCycleRestrictedError{Delay: b.minRemainingTimeOff(eligible, p.Now)}
	}
	return candidates[rand.Intn(len(candidates))], nil
}

// minRemainingTimeOff returns the shortest wait, across channels, until one
// of their bands frees up again.
func (b *base) minRemainingTimeOff(channels []int, now time.Time) time.Duration {
	var min time.Duration
	for _, i := range channels {
		c := b.channels[i]
		if c.BandIndex >= len(b.bands) {
			continue
		}
		band := b.bands[c.BandIndex]
		remaining := band.TimeOff - now.Sub(band.LastTXDoneAt)
		if remaining < 0 {
			remaining = 0
		}
		if min == 0 || remaining < min {
			min = remaining
		}
	}
	return min
}
