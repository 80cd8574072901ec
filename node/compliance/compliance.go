// Package compliance implements the LoRaWAN certification test protocol
// on port 224 as an optional add-on wrapped around a node.Device's public
// API. It shares no private MAC state with mac/node — it is constructed
// explicitly by the application and talks to the device purely through
// Send/Receive/Events/SetComplianceMode, per the isolation the Open
// Question in SPEC_FULL.md §9 calls for.
package compliance

import (
	"context"

	"github.com/lora-edge/node-stack/node"
	"github.com/sirupsen/logrus"
)

// Test-protocol command bytes, first byte of every downlink on port 224.
const (
	cmdActivate        = 0x01
	cmdDeactivate      = 0x02
	cmdConfirmedEcho   = 0x04
	cmdTriggerJoin     = 0x05
	cmdTriggerReset    = 0x06
	cmdUnconfirmedEcho = 0x07
	cmdLinkCheckReq    = 0x08
)

const port = 224

// Runner drives the compliance-test state machine for one node.Device. It
// is inert until Run is called and does nothing unless/until the network
// sends an Activate command on port 224.
type Runner struct {
	dev    *node.Device
	log    *logrus.Entry
	active bool
}

// New wraps dev for compliance testing. The caller must not also drive
// dev's port-224 traffic directly.
func New(dev *node.Device, log *logrus.Entry) *Runner {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Runner{dev: dev, log: log}
}

// Run consumes dev.Events() until ctx is cancelled, reacting to any
// RxDone on port 224 per the certification protocol. It must run
// concurrently with (not instead of) the application's own event loop
// only if the application itself never drains port 224 — the two must
// not race over the same events channel.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if r.active {
				r.dev.SetComplianceMode(false)
			}
			return
		case ev, ok := <-r.dev.Events():
			if !ok {
				return
			}
			if ev.Kind != node.RxDone || ev.RxPort != port || len(ev.RxPayload) == 0 {
				continue
			}
			r.handle(ev.RxPayload)
		}
	}
}

func (r *Runner) handle(payload []byte) {
	switch payload[0] {
	case cmdActivate:
		r.active = true
		r.dev.SetComplianceMode(true)
		r.log.Debug("compliance: activated")
		if _, err := r.dev.Send(port, []byte{cmdActivate}, false); err != nil {
			r.log.WithError(err).Warn("compliance: activate ack failed")
		}

	case cmdDeactivate:
		r.log.Debug("compliance: deactivated")
		r.active = false
		r.dev.SetComplianceMode(false)

	case cmdConfirmedEcho:
		if !r.active {
			return
		}
		echo := incrementEcho(payload)
		if _, err := r.dev.Send(port, echo, true); err != nil {
			r.log.WithError(err).Warn("compliance: confirmed echo failed")
		}

	case cmdUnconfirmedEcho:
		if !r.active {
			return
		}
		echo := incrementEcho(payload)
		if _, err := r.dev.Send(port, echo, false); err != nil {
			r.log.WithError(err).Warn("compliance: unconfirmed echo failed")
		}

	case cmdLinkCheckReq:
		if !r.active {
			return
		}
		r.dev.SetLinkCheckRequest()

	case cmdTriggerJoin:
		if !r.active {
			return
		}
		if err := r.dev.Connect(); err != nil {
			r.log.WithError(err).Warn("compliance: triggered rejoin failed")
		}

	case cmdTriggerReset:
		r.active = false
		r.dev.SetComplianceMode(false)
		if err := r.dev.Disconnect(); err != nil {
			r.log.WithError(err).Warn("compliance: triggered reset failed")
		}
	}
}

// incrementEcho returns a copy of payload with the command byte replaced
// by its own command byte and every remaining byte advanced by one,
// per the certification test's echo requirement.
func incrementEcho(payload []byte) []byte {
	out := make([]byte, len(payload))
	out[0] = payload[0]
	for i := 1; i < len(payload); i++ {
		out[i] = payload[i] + 1
	}
	return out
}
