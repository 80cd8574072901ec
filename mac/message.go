package mac

import "time"

// MessageType classifies an application TX message, mirroring the
// LoRaWAN MType space the application is allowed to choose from.
type MessageType int

const (
	Unconfirmed MessageType = iota
	Confirmed
	Proprietary
)

// TxMessage is a single outgoing application message waiting to be (or
// currently being) scheduled. The MAC owns this buffer from the moment
// the controller hands it over until a terminal TX event fires.
type TxMessage struct {
	Ongoing          bool
	Type             MessageType
	Port             uint8
	Buffer           []byte
	RetriesRemaining uint8
	PendingBytes     []byte // bytes beyond the cap node.Device.Send applies (DR0 cap or Config.MaxTXPayload); not transmitted
}

// RxMessage is the single inbound application buffer. The application
// owns it for reading only after ReceiveReady is set; the MAC will not
// overwrite it with a downlink on a different port until the application
// drains it.
type RxMessage struct {
	ReceiveReady   bool
	Type           MessageType
	Port           uint8
	Buffer         []byte
	PreviouslyRead int
}

// RXSlot identifies which of the two receive windows a downlink arrived
// in.
type RXSlot int

const (
	RXSlotNone RXSlot = iota
	RXSlot1
	RXSlot2
)

// Indication carries the metadata the spec requires on every downlink
// indication delivered to the controller.
type Indication struct {
	RSSI      int
	SNR       float64
	Slot      RXSlot
	FPending  bool
	Multicast bool
}

// LinkCheckResult is the MLME-Indication payload for a received
// LinkCheckAns.
type LinkCheckResult struct {
	Margin int
	GwCnt  int
}

// JoinResult is the MLME-Confirm payload for a join attempt.
type JoinResult struct {
	Success bool
	Err     error
}

// DevStatus is supplied by the application (via a callback) to answer a
// DevStatusReq; Battery follows the LoRaWAN encoding (0 = external power,
// 1-254 = level, 255 = unknown).
type DevStatus struct {
	Battery uint8
	Margin  int8
}

// SchedulingOutcome classifies how a TX scheduling attempt resolved.
type SchedulingOutcome int

const (
	Scheduled SchedulingOutcome = iota
	BackedOff
	SchedulingFailed
)

// ScheduleResult describes one TX scheduling attempt; no Engine method
// returns it.
type ScheduleResult struct {
	Outcome SchedulingOutcome
	Delay   time.Duration
	Channel int
	DataRate int
}
