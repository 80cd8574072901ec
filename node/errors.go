package node

import (
	"time"

	"github.com/pkg/errors"
)

// Kind classifies a node.Error per the taxonomy every application-facing
// call draws from.
type Kind int

const (
	InvalidArgument Kind = iota
	NotInitialized
	NoActiveSession
	NoNetworkJoined
	WouldBlock
	LengthError
	DutyCycleRestricted
	NoChannelFound
	NoFreeChannelFound
	CryptoError
	Timeout
	Fatal
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case NotInitialized:
		return "NotInitialized"
	case NoActiveSession:
		return "NoActiveSession"
	case NoNetworkJoined:
		return "NoNetworkJoined"
	case WouldBlock:
		return "WouldBlock"
	case LengthError:
		return "LengthError"
	case DutyCycleRestricted:
		return "DutyCycleRestricted"
	case NoChannelFound:
		return "NoChannelFound"
	case NoFreeChannelFound:
		return "NoFreeChannelFound"
	case CryptoError:
		return "CryptoError"
	case Timeout:
		return "Timeout"
	case Fatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// Error is the typed error every node-facing call returns, letting callers
// branch on Kind rather than string-matching. MaxAcceptable is only
// meaningful for LengthError; Delay is only meaningful for
// DutyCycleRestricted.
type Error struct {
	kind          Kind
	cause         error
	MaxAcceptable int
	Delay         time.Duration
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, cause: errors.New(msg)}
}

func wrapError(kind Kind, err error, msg string) *Error {
	return &Error{kind: kind, cause: errors.Wrap(err, msg)}
}

func (e *Error) Error() string { return e.cause.Error() }

// Kind reports the error's taxonomy classification.
func (e *Error) Kind() Kind { return e.kind }

// Cause unwraps to the underlying error, compatible with
// github.com/pkg/errors.Cause.
func (e *Error) Cause() error { return e.cause }

// Unwrap supports errors.Is/As against the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }
