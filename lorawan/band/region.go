package band

import (
	"errors"
	"time"
)

// Name identifies a regional parameter set.
type Name string

// Supported regions.
const (
	EU868       Name = "EU868"
	EU433       Name = "EU433"
	US915       Name = "US915"
	US915Hybrid Name = "US915Hybrid"
	AU915       Name = "AU915"
	AS923       Name = "AS923"
	CN470       Name = "CN470"
	CN779       Name = "CN779"
	IN865       Name = "IN865"
	KR920       Name = "KR920"
)

// Sentinel errors returned by Region operations.
var (
	ErrChannelDoesNotExist  = errors.New("band: channel does not exist")
	ErrInvalidDataRate      = errors.New("band: invalid data-rate index")
	ErrNoChannelFound       = errors.New("band: no channel found for the given data-rate")
	ErrNoFreeChannelFound   = errors.New("band: no free channel found")
	ErrDutyCycleRestricted  = errors.New("band: duty-cycle restricted")
	ErrChannelFrequencyBad  = errors.New("band: channel frequency out of range for this band")
)

// DutyCycleRestrictedError carries the delay until a band is free again.
type DutyCycleRestrictedError struct {
	Delay time.Duration
}

func (e DutyCycleRestrictedError) Error() string { return ErrDutyCycleRestricted.Error() }

// Unwrap lets errors.Is(err, ErrDutyCycleRestricted) succeed.
func (e DutyCycleRestrictedError) Unwrap() error { return ErrDutyCycleRestricted }

// Modulation identifies the PHY modulation of a data-rate.
type Modulation string

// Supported modulations.
const (
	LoRaModulation Modulation = "LORA"
	FSKModulation  Modulation = "FSK"
)

// DataRate describes one entry of a region's DR table.
type DataRate struct {
	Uplink       bool
	Downlink     bool
	Modulation   Modulation
	SpreadFactor int
	Bandwidth    int // kHz, LoRa only
	BitRate      int // bit/s, FSK only
}

// MaxPayloadSize is the M/N payload cap pair for one data-rate.
type MaxPayloadSize struct {
	M int // max MACPayload size
	N int // max application payload size (FOpts-free)
}

// Channel is one entry of a region's channel plan.
type Channel struct {
	Frequency     int // Hz
	RX1Frequency  int // Hz, 0 = derive from uplink frequency
	MinDR         int
	MaxDR         int
	BandIndex     int
	Enabled       bool
	Custom        bool // added via NewChannelReq/CFList rather than a region default
}

// Band tracks a region's duty-cycle band: its cap and the accounting state
// the backoff accountant mutates after each TX.
type Band struct {
	DutyCycleInverse int // 1/x, 0 = unrestricted
	MaxTXPowerDBm    int
	LowerFrequency   int
	UpperFrequency   int
	LastTXDoneAt     time.Time
	TimeOff          time.Duration
}

// Defaults carries the region's fixed default parameters.
type Defaults struct {
	RX2Frequency     int // Hz
	RX2DataRate      int
	MaxFCntGap       uint32
	ReceiveDelay1    time.Duration
	ReceiveDelay2    time.Duration
	JoinAcceptDelay1 time.Duration
	JoinAcceptDelay2 time.Duration
	ADRAckLimit      int
	ADRAckDelay      int
	AckTimeout       time.Duration
	AckTimeoutRnd    time.Duration
	MaxEIRP          int // dBm
	AntennaGain      int // dBi
	WakeUpTime       time.Duration
	RXErrorMargin    time.Duration
	ImplicitDwellTime bool
	DefaultTXDataRate int // DR a device falls back to for its first data uplink after joining
}

// RXWindow selects between the two Class A receive windows.
type RXWindow int

// The two Class A receive windows.
const (
	RX1 RXWindow = 1
	RX2 RXWindow = 2
)

// NextChannelParams is the input to Region.NextChannel.
type NextChannelParams struct {
	DataRate     int
	Joined       bool
	LastWasJoin  bool
	DutyCycleOn  bool
	Now          time.Time
}

// RXConfig is the result of arming a receive window.
type RXConfig struct {
	Frequency      int
	DataRate       int
	WindowTimeout  int // symbols
	WindowOffset   time.Duration
}

// TXConfig is the result of programming a transmission.
type TXConfig struct {
	Frequency      int
	DataRate       int
	EffectiveDBm   int
	TimeOnAir      time.Duration
}

// Region is the contract every regional PHY policy implements. It unions
// the teacher's read-side Band operations (needed here for ADR, compliance
// testing, diagnostics) with the device-oriented operations a Class A
// end-device MAC drives directly.
type Region interface {
	// -- read-side, ported from the teacher's Band interface --

	Name() Name
	GetDataRateIndex(uplink bool, dr DataRate) (int, error)
	GetDataRate(dr int) (DataRate, error)
	GetMaxPayloadSizeForDataRateIndex(dr int) (MaxPayloadSize, error)
	GetDefaults() Defaults
	GetEnabledUplinkChannelIndices() []int
	GetCustomUplinkChannelIndices() []int
	GetUplinkChannel(index int) (Channel, error)
	GetTXPowerOffset(index int) (int, error)

	// -- device-oriented operations --

	// RXConfig computes the frequency/datarate/timeout to arm a receive
	// window with.
	RXConfig(channel int, uplinkDR int, window RXWindow, rx1DROffset int, minRXSymbols int, rxErrorMargin, wakeUpTime time.Duration) (RXConfig, error)

	// TXConfig computes the effective TX power and returns the channel's
	// TX frequency/datarate ready to program onto the radio.
	TXConfig(channel int, dataRate int, txPowerIndex int, pktLen int) (TXConfig, error)

	// NextChannel selects a channel to transmit on, honoring duty-cycle,
	// current-mask hopping, and LBT where the region requires it.
	NextChannel(p NextChannelParams) (int, error)

	// LinkADRRequest folds a chained sequence of LinkADRReq payloads into
	// one validated (status, dr, power, nbRep) result.
	LinkADRRequest(reqs []LinkADRReq) (LinkADRResult, error)

	// AcceptRXParamSetupReq validates a network-proposed RX2
	// frequency/DR-offset/DR combination against this region's grid.
	AcceptRXParamSetupReq(frequency int, rx1DROffset int, rx2DataRate int) (channelOK, rx2DROK, offsetOK bool)

	AddChannel(ch Channel) (int, error)
	RemoveChannel(index int) error
	ApplyCFList(freqs [5]int) error
	GetAlternateDR(trial int) (int, error)
	VerifyFrequency(freq int, dataRate int) error
	ApplyDROffset(uplinkDR int, offset int) (int, error)

	// CalculateBackoff updates the band accounting for the channel just
	// used, given the elapsed airtime, and reports when the band will next
	// be free.
	CalculateBackoff(channel int, lastWasJoin, joined, dutyCycleOn bool, timeOnAir time.Duration, now time.Time) time.Duration

	// CarrierSenseRequired reports whether LBT applies to this channel
	// before transmitting (KR920, AS923).
	CarrierSenseRequired(channel int) (rssiThresholdDBm int, window time.Duration, required bool)
}

// LinkADRReq is the decoded parameter set of one LinkADRReq MAC command in
// a chained sequence.
type LinkADRReq struct {
	DataRate     int
	TXPower      int
	ChMaskCntl   int
	ChMask       [16]bool
	NbRep        int
}

// LinkADRResult is the folded outcome of a chained LinkADRReq sequence.
type LinkADRResult struct {
	ChannelMaskACK bool
	DataRateACK    bool
	PowerACK       bool
	DataRate       int
	TXPower        int
	NbRep          int
	EnabledMask    map[int]bool
}
