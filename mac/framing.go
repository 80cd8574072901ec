package mac

import (
	"github.com/lora-edge/node-stack/lorawan"
	"github.com/lora-edge/node-stack/session"
	"github.com/pkg/errors"
)

// defaultMaxFCntGap bounds how far ahead of the stored downlink counter we will
// search when reconstructing the full 32-bit FCnt from the wire's 16-bit
// value.
const defaultMaxFCntGap = 16384

// BuildUplinkFrame assembles, encrypts and signs a complete uplink
// lorawan.PHYPayload for one TxMessage plus a set of piggy-backed MAC
// commands. It does not mutate sess.Counters.UplinkCounter; the caller
// advances that only after the radio accepts the frame for transmission.
func BuildUplinkFrame(sess *session.Session, msg TxMessage, cmds []lorawan.MACCommand, adr, adrACKReq bool) (lorawan.PHYPayload, error) {
	if !sess.Active {
		return lorawan.PHYPayload{}, errors.New("mac: no active session")
	}

	fCnt32 := sess.Counters.UplinkCounter

	fhdr := lorawan.FHDR{
		DevAddr: sess.DevAddr,
		FCnt:    uint16(fCnt32),
	}

	var macOnFPort0 []byte
	if len(cmds) > 0 {
		if err := lorawan.EncodeMACCommandsToFOpts(&fhdr, cmds); err != nil {
			// Too many commands for FOpts: carry them on FPort 0 instead
			// (spec.md §4.2, "else on FPort 0").
			b, encErr := lorawan.EncodeMACCommands(cmds)
			if encErr != nil {
				return lorawan.PHYPayload{}, errors.Wrap(encErr, "mac: encode MAC commands")
			}
			macOnFPort0 = b
		}
	}

	fc, err := lorawan.NewFCtrl(adr, adrACKReq, false, false, fhdr.FCtrl.FOptsLen())
	if err != nil {
		return lorawan.PHYPayload{}, errors.Wrap(err, "mac: build FCtrl")
	}
	fhdr.FCtrl = fc

	mtype := lorawan.UnconfirmedDataUp
	if msg.Type == Confirmed {
		mtype = lorawan.ConfirmedDataUp
	}

	mp := lorawan.MACPayload{FHDR: fhdr}

	if macOnFPort0 != nil {
		port := uint8(0)
		enc, err := lorawan.EncryptFOpts(sess.NwkSKey, true, sess.DevAddr, fCnt32, macOnFPort0)
		if err != nil {
			return lorawan.PHYPayload{}, errors.Wrap(err, "mac: encrypt FPort0 MAC commands")
		}
		mp.FPort = &port
		mp.FRMPayload = []lorawan.Payload{&lorawan.DataPayload{Bytes: enc}}
	} else if len(msg.Buffer) > 0 {
		port := msg.Port
		enc, err := lorawan.EncryptFRMPayload(sess.AppSKey, true, sess.DevAddr, fCnt32, msg.Buffer)
		if err != nil {
			return lorawan.PHYPayload{}, errors.Wrap(err, "mac: encrypt FRMPayload")
		}
		mp.FPort = &port
		mp.FRMPayload = []lorawan.Payload{&lorawan.DataPayload{Bytes: enc}}
	}

	phy := lorawan.PHYPayload{
		MHDR:       lorawan.MHDR{MType: mtype, Major: lorawan.LoRaWANR1},
		MACPayload: mp,
	}
	if err := phy.SetUplinkDataMIC(sess.NwkSKey, sess.DevAddr, fCnt32); err != nil {
		return lorawan.PHYPayload{}, errors.Wrap(err, "mac: compute uplink MIC")
	}
	return phy, nil
}

// ParsedDownlink is the outcome of successfully validating and decrypting
// a downlink frame.
type ParsedDownlink struct {
	Confirmed bool
	FCnt      uint32
	FPort     *uint8
	Payload   []byte
	MACCmds   []lorawan.MACCommand
	ACK       bool
	FPending  bool
}

// ParseDownlinkFrame validates the MIC (guessing the high 16 bits of the
// 32-bit frame counter within maxFCntGap of the stored counter), decrypts
// FRMPayload/FOpts, and decodes any carried MAC commands. A MIC mismatch,
// or an FCnt older than the stored counter or more than maxFCntGap ahead
// of it, returns an error (an FCnt equal to the stored counter is
// accepted) — per spec.md §7,
// the caller must silently drop such frames rather than surface them.
func ParseDownlinkFrame(sess *session.Session, phy *lorawan.PHYPayload, maxFCntGap uint32) (*ParsedDownlink, error) {
	mp, ok := phy.MACPayload.(*lorawan.MACPayload)
	if !ok {
		return nil, errors.New("mac: not a data MACPayload")
	}
	if mp.FHDR.DevAddr != sess.DevAddr {
		return nil, errors.New("mac: DevAddr mismatch")
	}

	if maxFCntGap == 0 {
		maxFCntGap = defaultMaxFCntGap
	}

	fCnt32, ok := guessFCnt32(sess.Counters.DownlinkCounter, mp.FHDR.FCnt, maxFCntGap)
	if !ok {
		return nil, errors.New("mac: FCnt outside allowed gap")
	}

	valid, err := phy.ValidateDownlinkDataMIC(sess.NwkSKey, sess.DevAddr, fCnt32)
	if err != nil {
		return nil, errors.Wrap(err, "mac: validate MIC")
	}
	if !valid {
		return nil, errors.New("mac: MIC mismatch")
	}

	out := &ParsedDownlink{
		FCnt:      fCnt32,
		Confirmed: phy.MHDR.MType == lorawan.ConfirmedDataDown,
		ACK:       mp.FHDR.FCtrl.ACK(),
		FPending:  mp.FHDR.FCtrl.FPending(),
	}

	if fOptsLen := mp.FHDR.FCtrl.FOptsLen(); fOptsLen > 0 && len(mp.FHDR.FOpts) == 1 {
		dp, ok := mp.FHDR.FOpts[0].(*lorawan.DataPayload)
		if !ok {
			return nil, errors.New("mac: unexpected FOpts encoding")
		}
		cmds, err := lorawan.DecodeMACCommands(false, dp.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "mac: decode FOpts")
		}
		out.MACCmds = append(out.MACCmds, cmds...)
	}

	if mp.FPort != nil && len(mp.FRMPayload) == 1 {
		dp, ok := mp.FRMPayload[0].(*lorawan.DataPayload)
		if !ok {
			return nil, errors.New("mac: unexpected FRMPayload encoding")
		}
		if *mp.FPort == 0 {
			dec, err := lorawan.EncryptFOpts(sess.NwkSKey, false, sess.DevAddr, fCnt32, dp.Bytes)
			if err != nil {
				return nil, errors.Wrap(err, "mac: decrypt FPort0 payload")
			}
			cmds, err := lorawan.DecodeMACCommands(false, dec)
			if err != nil {
				return nil, errors.Wrap(err, "mac: decode FPort0 MAC commands")
			}
			out.MACCmds = append(out.MACCmds, cmds...)
		} else {
			dec, err := lorawan.EncryptFRMPayload(sess.AppSKey, false, sess.DevAddr, fCnt32, dp.Bytes)
			if err != nil {
				return nil, errors.Wrap(err, "mac: decrypt FRMPayload")
			}
			out.FPort = mp.FPort
			out.Payload = dec
		}
	}

	return out, nil
}

// guessFCnt32 reconstructs the 32-bit frame counter from its 16-bit wire
// value, searching forward from stored within maxFCntGap (spec.md §4.2).
func guessFCnt32(stored uint32, wire uint16, maxFCntGap uint32) (uint32, bool) {
	storedHigh := stored &^ 0xffff
	candidate := storedHigh | uint32(wire)
	if candidate < stored {
		candidate += 1 << 16
	}
	if candidate-stored > maxFCntGap {
		return 0, false
	}
	return candidate, true
}
