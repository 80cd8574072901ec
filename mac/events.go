package mac

import "time"

// EventKind enumerates the application-facing events the engine delivers
// through a Sink, per spec.md §4.4.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventTxDone
	EventTxTimeout
	EventTxError
	EventTxCryptoError
	EventTxSchedulingError
	EventRxDone
	EventRxTimeout
	EventRxError
	EventJoinFailure
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "Connected"
	case EventDisconnected:
		return "Disconnected"
	case EventTxDone:
		return "TxDone"
	case EventTxTimeout:
		return "TxTimeout"
	case EventTxError:
		return "TxError"
	case EventTxCryptoError:
		return "TxCryptoError"
	case EventTxSchedulingError:
		return "TxSchedulingError"
	case EventRxDone:
		return "RxDone"
	case EventRxTimeout:
		return "RxTimeout"
	case EventRxError:
		return "RxError"
	case EventJoinFailure:
		return "JoinFailure"
	default:
		return "Unknown"
	}
}

// Event is delivered to a Sink. Err is set for the TxCryptoError and
// TxSchedulingError kinds; RxPort/RxPayload/Indication are set for RxDone.
type Event struct {
	Kind       EventKind
	Err        error
	RxPort     uint8
	RxPayload  []byte
	Indication Indication
}

// Sink receives engine events and MAC-layer indications. node.Device
// implements this to translate them into its own application-facing
// events.
type Sink interface {
	HandleEvent(Event)
	HandleLinkCheck(LinkCheckResult)
}

// Scheduler abstracts timer scheduling so the engine never touches
// time.Timer directly; node supplies an implementation backed by its
// single-threaded deferred work queue (spec.md §5).
type Scheduler interface {
	// After arranges for fn to run (on the queue, not inline) after d.
	// The returned cancel func disarms the timer if it has not yet fired.
	After(d time.Duration, fn func()) (cancel func())
}
