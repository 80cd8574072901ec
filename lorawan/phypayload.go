package lorawan

import (
	"errors"
	"fmt"
)

// MACPayloadContainer is implemented by the payload types PHYPayload can
// wrap: MACPayload (data frames), JoinRequestPayload and JoinAcceptPayload.
// Unlike Payload, decoding these requires knowing the frame direction, so
// UnmarshalBinary is not part of this interface; PHYPayload.UnmarshalBinary
// dispatches to each concrete type's own uplink-aware method instead.
type MACPayloadContainer interface {
	MarshalBinary() ([]byte, error)
}

// PHYPayload represents the complete over-the-air frame:
// MHDR ‖ MACPayload ‖ MIC.
type PHYPayload struct {
	MHDR       MHDR
	MACPayload MACPayloadContainer
	MIC        MIC
}

// NewPHYPayload returns a PHYPayload with its MACPayload left nil; the
// caller fills in MHDR and MACPayload before marshaling.
func NewPHYPayload(uplink bool) PHYPayload {
	return PHYPayload{}
}

// MarshalBinary marshals the object in binary form.
func (p PHYPayload) MarshalBinary() ([]byte, error) {
	if p.MACPayload == nil {
		return nil, errors.New("lorawan: MACPayload should not be nil")
	}

	h, err := p.MHDR.MarshalBinary()
	if err != nil {
		return nil, err
	}

	m, err := p.MACPayload.MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := append(h, m...)
	out = append(out, p.MIC[:]...)
	return out, nil
}

// UnmarshalBinary decodes the object from binary form, choosing the
// concrete MACPayload type from MHDR.MType.
func (p *PHYPayload) UnmarshalBinary(data []byte) error {
	if len(data) < 5 {
		return errors.New("lorawan: at least 5 bytes are expected")
	}

	if err := p.MHDR.UnmarshalBinary(data[0:1]); err != nil {
		return err
	}

	macBytes := data[1 : len(data)-4]
	copy(p.MIC[:], data[len(data)-4:])

	uplink := p.MHDR.MType.IsUplink()

	switch p.MHDR.MType {
	case JoinRequest:
		jr := &JoinRequestPayload{}
		if err := jr.UnmarshalBinary(uplink, macBytes); err != nil {
			return err
		}
		p.MACPayload = jr
	case JoinAccept:
		ja := &JoinAcceptPayload{}
		if err := ja.UnmarshalBinary(uplink, macBytes); err != nil {
			return err
		}
		p.MACPayload = ja
	case UnconfirmedDataUp, UnconfirmedDataDown, ConfirmedDataUp, ConfirmedDataDown:
		mp := &MACPayload{}
		if err := mp.UnmarshalBinary(uplink, macBytes); err != nil {
			return err
		}
		p.MACPayload = mp
	default:
		return fmt.Errorf("lorawan: unsupported MType %s", p.MHDR.MType)
	}

	return nil
}

// SetUplinkJoinMIC computes and sets the MIC for a join-request frame.
func (p *PHYPayload) SetUplinkJoinMIC(appKey AES128Key) error {
	h, err := p.MHDR.MarshalBinary()
	if err != nil {
		return err
	}
	m, err := p.MACPayload.MarshalBinary()
	if err != nil {
		return err
	}
	mic, err := ComputeJoinRequestMIC(appKey, append(h, m...))
	if err != nil {
		return err
	}
	p.MIC = mic
	return nil
}

// ValidateUplinkJoinMIC reports whether the frame's MIC matches a
// recomputation with appKey.
func (p PHYPayload) ValidateUplinkJoinMIC(appKey AES128Key) (bool, error) {
	h, err := p.MHDR.MarshalBinary()
	if err != nil {
		return false, err
	}
	m, err := p.MACPayload.MarshalBinary()
	if err != nil {
		return false, err
	}
	mic, err := ComputeJoinRequestMIC(appKey, append(h, m...))
	if err != nil {
		return false, err
	}
	return mic == p.MIC, nil
}

// SetDownlinkJoinAcceptMIC computes and sets the MIC for a join-accept
// frame (the MACPayload must still be the cleartext JoinAcceptPayload).
func (p *PHYPayload) SetDownlinkJoinAcceptMIC(appKey AES128Key) error {
	h, err := p.MHDR.MarshalBinary()
	if err != nil {
		return err
	}
	m, err := p.MACPayload.MarshalBinary()
	if err != nil {
		return err
	}
	mic, err := ComputeJoinAcceptMIC(appKey, append(h, m...))
	if err != nil {
		return err
	}
	p.MIC = mic
	return nil
}

// ValidateDownlinkJoinAcceptMIC reports whether a (decrypted) join-accept
// frame's MIC matches a recomputation with appKey.
func (p PHYPayload) ValidateDownlinkJoinAcceptMIC(appKey AES128Key) (bool, error) {
	h, err := p.MHDR.MarshalBinary()
	if err != nil {
		return false, err
	}
	m, err := p.MACPayload.MarshalBinary()
	if err != nil {
		return false, err
	}
	mic, err := ComputeJoinAcceptMIC(appKey, append(h, m...))
	if err != nil {
		return false, err
	}
	return mic == p.MIC, nil
}

// SetUplinkDataMIC computes and sets the MIC for a data-frame PHYPayload
// whose MACPayload is a *MACPayload.
func (p *PHYPayload) SetUplinkDataMIC(nwkSKey AES128Key, devAddr DevAddr, fCntUp uint32) error {
	h, err := p.MHDR.MarshalBinary()
	if err != nil {
		return err
	}
	m, err := p.MACPayload.MarshalBinary()
	if err != nil {
		return err
	}
	mic, err := ComputeUplinkDataMIC(nwkSKey, devAddr, fCntUp, append(h, m...))
	if err != nil {
		return err
	}
	p.MIC = mic
	return nil
}

// ValidateDownlinkDataMIC reports whether a downlink data frame's MIC
// matches a recomputation with nwkSKey.
func (p PHYPayload) ValidateDownlinkDataMIC(nwkSKey AES128Key, devAddr DevAddr, fCntDown uint32) (bool, error) {
	h, err := p.MHDR.MarshalBinary()
	if err != nil {
		return false, err
	}
	m, err := p.MACPayload.MarshalBinary()
	if err != nil {
		return false, err
	}
	mic, err := ComputeDownlinkDataMIC(nwkSKey, devAddr, fCntDown, append(h, m...))
	if err != nil {
		return false, err
	}
	return mic == p.MIC, nil
}

// DecodeFOptsToMACCommands decrypts (if needed) and decodes the FHDR's
// FOpts field into a slice of MACCommand, replacing the opaque DataPayload
// left by FHDR.UnmarshalBinary. 1.0.2 carries FOpts in cleartext, so no
// decryption is applied here; the hook exists so callers that choose to
// protect FOpts can pre-decrypt before calling this.
func DecodeFOptsToMACCommands(fhdr *FHDR, uplink bool) error {
	if len(fhdr.FOpts) != 1 {
		return nil
	}
	dp, ok := fhdr.FOpts[0].(*DataPayload)
	if !ok {
		return nil
	}
	cmds, err := decodeMACCommands(uplink, dp.Bytes)
	if err != nil {
		return err
	}
	out := make([]Payload, len(cmds))
	for i, c := range cmds {
		c := c
		out[i] = macCommandPayloadWrapper{c}
	}
	fhdr.FOpts = out
	return nil
}

// macCommandPayloadWrapper adapts a MACCommand to the Payload interface so
// it can be stored in FHDR.FOpts alongside a raw DataPayload.
type macCommandPayloadWrapper struct {
	MACCommand
}

func (w macCommandPayloadWrapper) MarshalBinary() ([]byte, error) {
	return w.MACCommand.MarshalBinary()
}

func (w macCommandPayloadWrapper) UnmarshalBinary(data []byte) error {
	return errors.New("lorawan: macCommandPayloadWrapper cannot be unmarshaled directly, use decodeMACCommands")
}

// EncodeMACCommandsToFOpts replaces fhdr.FOpts (a slice of MACCommand
// wrapped via macCommandPayloadWrapper, or supplied directly) with a single
// opaque DataPayload ready for marshaling, and updates FCtrl's FOptsLen.
func EncodeMACCommandsToFOpts(fhdr *FHDR, cmds []MACCommand) error {
	b, err := encodeMACCommands(cmds)
	if err != nil {
		return err
	}
	if len(b) > 15 {
		return errors.New("lorawan: encoded MAC commands exceed 15 FOpts bytes")
	}
	fc, err := NewFCtrl(fhdr.FCtrl.ADR(), fhdr.FCtrl.ADRACKReq(), fhdr.FCtrl.ACK(), fhdr.FCtrl.FPending(), uint8(len(b)))
	if err != nil {
		return err
	}
	fhdr.FCtrl = fc
	if len(b) == 0 {
		fhdr.FOpts = nil
	} else {
		fhdr.FOpts = []Payload{&DataPayload{Bytes: b}}
	}
	return nil
}
