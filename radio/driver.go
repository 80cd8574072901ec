// Package radio defines the interface the MAC engine consumes to drive a
// LoRa transceiver. The engine owns no radio implementation of its own: it
// is handed a Driver at construction and talks to it exclusively through
// this contract, posting the driver's callbacks onto its own deferred work
// queue rather than acting on them inline (see the node package's Queue).
package radio

import "time"

// Modem selects the radio's modulation scheme.
type Modem int

const (
	ModemLoRa Modem = iota
	ModemFSK
)

// TxConfig carries the physical-layer parameters for one transmission,
// matching the fields a real transceiver's TX config register set exposes.
type TxConfig struct {
	Modem        Modem
	FreqHz       uint32
	PowerDBm     int
	FreqDevHz    uint32 // FSK only
	Bandwidth    int    // kHz, LoRa only
	SpreadFactor int    // LoRa only
	CodingRate   int    // 4/5..4/8, LoRa only
	PreambleLen  int
	FixLen       bool
	CRCOn        bool
	FreqHopOn    bool
	HopPeriod    int
	IQInverted   bool
	Timeout      time.Duration
}

// RxConfig carries the physical-layer parameters for arming a receive
// window.
type RxConfig struct {
	Modem        Modem
	FreqHz       uint32
	Bandwidth    int
	SpreadFactor int
	CodingRate   int
	BandwidthAFC int // FSK only
	PreambleLen  int
	SymbolTimeout int
	FixLen       bool
	PayloadLen   int
	CRCOn        bool
	FreqHopOn    bool
	HopPeriod    int
	IQInverted   bool
	Continuous   bool
}

// EventKind enumerates the asynchronous events a Driver reports back to its
// EventSink. Every event crosses from the driver's interrupt context onto
// the caller's deferred work queue — handlers must not mutate MAC state
// directly from the callback that delivers these.
type EventKind int

const (
	EventTxDone EventKind = iota
	EventRxDone
	EventRxError
	EventRxTimeout
	EventTxTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventTxDone:
		return "TxDone"
	case EventRxDone:
		return "RxDone"
	case EventRxError:
		return "RxError"
	case EventRxTimeout:
		return "RxTimeout"
	case EventTxTimeout:
		return "TxTimeout"
	default:
		return "Unknown"
	}
}

// Event is the payload delivered with an EventKind. RxDone is the only kind
// that populates Data/RSSI/SNR; the rest carry only the kind and Timestamp.
type Event struct {
	Kind      EventKind
	Data      []byte
	RSSI      int
	SNR       float64
	Timestamp time.Time
}

// EventSink receives radio events. A Driver is handed one EventSink at
// Init and must deliver every event to it; it never calls back into the
// caller any other way.
type EventSink interface {
	HandleRadioEvent(Event)
}

// Driver is the narrow interface the MAC engine requires of a LoRa
// transceiver. Implementations translate these calls into whatever chip
// register writes / SPI transactions the hardware requires; none of that
// detail is visible here.
type Driver interface {
	// Init wires the driver to its event sink. It must be called before
	// any other method.
	Init(sink EventSink) error
	Reset() error
	Sleep() error
	Standby() error

	SetChannel(freqHz uint32) error
	SetTxConfig(cfg TxConfig) error
	SetRxConfig(cfg RxConfig) error

	// Send transmits buf and returns immediately; completion is reported
	// via EventTxDone/EventTxTimeout on the sink.
	Send(buf []byte) error
	// Receive arms the radio for reception under the last SetRxConfig.
	// Completion is reported via EventRxDone/EventRxError/EventRxTimeout.
	Receive() error

	SetMaxPayloadLength(modem Modem, length int) error
	SetPublicNetwork(public bool) error

	// TimeOnAir returns the transmission duration for a packet of pktLen
	// bytes under the modem's currently configured parameters.
	TimeOnAir(modem Modem, pktLen int) (time.Duration, error)
	// Random returns a 32-bit value sourced from the radio's RSSI-based
	// entropy (the engine draws each join DevNonce from it).
	Random() (uint32, error)

	// PerformCarrierSense reports whether freqHz is free of energy above
	// rssiThresholdDBm, sensing for at most maxSense before giving up.
	PerformCarrierSense(modem Modem, freqHz uint32, rssiThresholdDBm int, maxSense time.Duration) (free bool, err error)
	// CheckRFFrequency reports whether the hardware supports freqHz at all.
	CheckRFFrequency(freqHz uint32) (supported bool, err error)

	// Lock/Unlock serialize configuration calls across the single radio
	// resource; the MAC holds the lock for the duration of each
	// configuration + send/receive sequence. No reentrant use is
	// permitted.
	Lock()
	Unlock()
}
