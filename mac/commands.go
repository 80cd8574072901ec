package mac

import (
	"github.com/lora-edge/node-stack/lorawan"
	"github.com/lora-edge/node-stack/lorawan/band"
)

// stickyAnswers holds the fixed-capacity set of MAC-command answers that
// must be retransmitted in every uplink until a downlink is received,
// ordered by CID for deterministic emission (spec.md §4.2, "sticky until
// answered"; §9 design note on sticky MAC answers as a small tagged set).
type stickyAnswers struct {
	byCID map[lorawan.CID]lorawan.MACCommand
}

func newStickyAnswers() *stickyAnswers {
	return &stickyAnswers{byCID: map[lorawan.CID]lorawan.MACCommand{}}
}

func (s *stickyAnswers) set(cid lorawan.CID, payload lorawan.MACCommandPayload) {
	s.byCID[cid] = lorawan.MACCommand{CID: cid, Payload: payload}
}

// clearOnDownlink drops every sticky answer once a downlink has been
// received — the network's receipt of the answer is implied by the fact
// that it could talk back to us at all.
func (s *stickyAnswers) clearOnDownlink() {
	s.byCID = map[lorawan.CID]lorawan.MACCommand{}
}

// pending returns the sticky answers plus any one-shot cmds, ordered by
// CID.
func (s *stickyAnswers) pending(oneShot []lorawan.MACCommand) []lorawan.MACCommand {
	out := make([]lorawan.MACCommand, 0, len(s.byCID)+len(oneShot))
	for cid := lorawan.CID(0); cid <= 0xff; cid++ {
		if cmd, ok := s.byCID[cid]; ok {
			out = append(out, cmd)
		}
		if cid == 0xff {
			break
		}
	}
	out = append(out, oneShot...)
	return out
}

// CommandHandler applies downlink MAC commands to the region/session
// state and produces the answers the next uplink must carry. Sticky
// answers (RXParamSetupAns, RXTimingSetupAns, DLChannelAns,
// TXParamSetupAns) persist across uplinks until a downlink arrives;
// LinkADRAns is emitted once per chained request, in the order it
// arrived, since LinkADRReq is never sticky.
type CommandHandler struct {
	region  band.Region
	sticky  *stickyAnswers
	pending []lorawan.MACCommand // one-shot answers for the very next uplink

	LinkCheck    *LinkCheckResult
	DevStatusReq bool

	rxParamSetupDROffset int
	rxParamSetupDR       int
}

func NewCommandHandler(region band.Region) *CommandHandler {
	return &CommandHandler{region: region, sticky: newStickyAnswers()}
}

// HandleDownlinkReceived clears the sticky set: the network has proven it
// can hear us, so stickies have served their purpose.
func (h *CommandHandler) HandleDownlinkReceived() {
	h.sticky.clearOnDownlink()
}

// PendingUplinkCommands returns everything the next uplink should carry:
// the sticky set followed by this cycle's one-shot answers, then clears
// the one-shot queue.
func (h *CommandHandler) PendingUplinkCommands() []lorawan.MACCommand {
	out := h.sticky.pending(h.pending)
	h.pending = nil
	return out
}

// QueueLinkCheckReq arranges for a LinkCheckReq to ride on the next
// uplink; LinkCheckReq carries no payload.
func (h *CommandHandler) QueueLinkCheckReq() {
	h.pending = append(h.pending, lorawan.MACCommand{CID: lorawan.LinkCheckReq})
}

// Apply processes one downlink MAC command, mutating region/session state
// as needed and queuing the appropriate answer.
func (h *CommandHandler) Apply(cmd lorawan.MACCommand, devStatus func() DevStatus) error {
	switch cmd.CID {
	case lorawan.LinkCheckAns:
		p := cmd.Payload.(*lorawan.LinkCheckAnsPayload)
		h.LinkCheck = &LinkCheckResult{Margin: int(p.Margin), GwCnt: int(p.GwCnt)}

	case lorawan.LinkADRReq:
		p := cmd.Payload.(*lorawan.LinkADRReqPayload)
		res, err := h.region.LinkADRRequest([]band.LinkADRReq{{
			DataRate:   int(p.DataRate),
			TXPower:    int(p.TXPower),
			ChMaskCntl: int(p.Redundancy.ChMaskCntl),
			ChMask:     p.ChMask,
			NbRep:      int(p.Redundancy.NbRep),
		}})
		if err != nil {
			return err
		}
		h.pending = append(h.pending, lorawan.MACCommand{
			CID: lorawan.LinkADRAns,
			Payload: &lorawan.LinkADRAnsPayload{
				ChannelMaskACK: res.ChannelMaskACK,
				DataRateACK:    res.DataRateACK,
				PowerACK:       res.PowerACK,
			},
		})

	case lorawan.DutyCycleReq:
		// MaxDCycle is not applied, and no DutyCycleAns is queued.

	case lorawan.RXParamSetupReq:
		p := cmd.Payload.(*lorawan.RXParamSetupReqPayload)
		chACK, drACK, offsetACK := h.region.AcceptRXParamSetupReq(int(p.Frequency), int(p.DLSettings.RX1DROffset), int(p.DLSettings.RX2DataRate))
		if chACK && drACK && offsetACK {
			h.rxParamSetupDROffset = int(p.DLSettings.RX1DROffset)
			h.rxParamSetupDR = int(p.DLSettings.RX2DataRate)
		}
		h.sticky.set(lorawan.RXParamSetupAns, &lorawan.RXParamSetupAnsPayload{
			ChannelACK:     chACK,
			RX2DataRateACK: drACK,
			RX1DROffsetACK: offsetACK,
		})

	case lorawan.DevStatusReq:
		st := DevStatus{Battery: 255, Margin: 0}
		if devStatus != nil {
			st = devStatus()
		}
		h.pending = append(h.pending, lorawan.MACCommand{
			CID:     lorawan.DevStatusAns,
			Payload: &lorawan.DevStatusAnsPayload{Battery: st.Battery, Margin: st.Margin},
		})

	case lorawan.NewChannelReq:
		p := cmd.Payload.(*lorawan.NewChannelReqPayload)
		freqOK := h.region.VerifyFrequency(int(p.Freq), int(p.MinDR)) == nil
		drOK := p.MinDR <= p.MaxDR
		if freqOK && drOK {
			_, _ = h.region.AddChannel(band.Channel{
				Frequency: int(p.Freq), MinDR: int(p.MinDR), MaxDR: int(p.MaxDR), Enabled: true, Custom: true,
			})
		}
		h.pending = append(h.pending, lorawan.MACCommand{
			CID:     lorawan.NewChannelAns,
			Payload: &lorawan.NewChannelAnsPayload{ChannelFrequencyOK: freqOK, DataRateRangeOK: drOK},
		})

	case lorawan.RXTimingSetupReq:
		// The requested delay is not applied: the engine keeps the
		// region's ReceiveDelay1. Only the sticky RXTimingSetupAns (it
		// carries no fields) is queued.
		h.sticky.set(lorawan.RXTimingSetupAns, nil)

	case lorawan.TXParamSetupReq:
		h.sticky.set(lorawan.TXParamSetupAns, nil)

	case lorawan.DLChannelReq:
		p := cmd.Payload.(*lorawan.DLChannelReqPayload)
		freqOK := h.region.VerifyFrequency(int(p.Freq), 0) == nil
		h.sticky.set(lorawan.DLChannelAns, &lorawan.DLChannelAnsPayload{
			UplinkFrequencyExists: true,
			ChannelFrequencyOK:    freqOK,
		})
	}
	return nil
}
