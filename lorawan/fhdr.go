package lorawan

import (
	"encoding/binary"
	"errors"
)

// FCtrl represents the frame control field.
type FCtrl byte

// NewFCtrl returns a new FCtrl. Only the first four bits of fOptsLen are
// used (max. allowed value is 15).
func NewFCtrl(adr, adrACKReq, ack, fPending bool, fOptsLen uint8) (FCtrl, error) {
	var fc FCtrl
	if fOptsLen > 15 {
		return fc, errors.New("lorawan: the max. fOptsLen is 15")
	}
	if adr {
		fc |= 1 << 7
	}
	if adrACKReq {
		fc |= 1 << 6
	}
	if ack {
		fc |= 1 << 5
	}
	if fPending {
		fc |= 1 << 4
	}
	return fc | FCtrl(fOptsLen), nil
}

// ADR returns whether the adaptive data-rate control bit is set.
func (c FCtrl) ADR() bool { return c&(1<<7) > 0 }

// ADRACKReq returns whether the ADR-ACK-request bit is set.
func (c FCtrl) ADRACKReq() bool { return c&(1<<6) > 0 }

// ACK returns whether the acknowledgment bit is set.
func (c FCtrl) ACK() bool { return c&(1<<5) > 0 }

// FPending returns whether the gateway/network has more data pending
// (downlink FHDR only).
func (c FCtrl) FPending() bool { return c&(1<<4) > 0 }

// FOptsLen returns the number of FOpts bytes carried in this FHDR.
func (c FCtrl) FOptsLen() uint8 {
	return uint8(c) & 0x0f
}

// FHDR represents the frame header: DevAddr, FCtrl, FCnt and the piggy-backed
// FOpts MAC commands.
type FHDR struct {
	DevAddr DevAddr
	FCtrl   FCtrl
	FCnt    uint16
	FOpts   []Payload // decoded MAC commands, or a single DataPayload if still encrypted
}

// MarshalBinary marshals the object in binary form.
func (h FHDR) MarshalBinary() ([]byte, error) {
	if h.FCtrl.FOptsLen() > 15 {
		return nil, errors.New("lorawan: max. number of FOpts bytes is 15")
	}

	out := make([]byte, 7)
	b, err := h.DevAddr.MarshalBinary()
	if err != nil {
		return nil, err
	}
	copy(out[0:4], b)
	out[4] = byte(h.FCtrl)
	binary.LittleEndian.PutUint16(out[5:7], h.FCnt)

	for _, o := range h.FOpts {
		b, err := o.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// UnmarshalBinary decodes the object from binary form. FOpts is left as a
// single opaque DataPayload; the MAC layer decrypts and decodes it into MAC
// commands with DecodeFOptsToMACCommands once the session key is available.
func (h *FHDR) UnmarshalBinary(uplink bool, data []byte) error {
	if len(data) < 7 {
		return errors.New("lorawan: at least 7 bytes are expected")
	}

	if err := h.DevAddr.UnmarshalBinary(data[0:4]); err != nil {
		return err
	}
	h.FCtrl = FCtrl(data[4])
	h.FCnt = binary.LittleEndian.Uint16(data[5:7])

	fOptsLen := int(h.FCtrl.FOptsLen())
	if len(data) < 7+fOptsLen {
		return errors.New("lorawan: FOpts declares more bytes than available")
	}

	h.FOpts = nil
	if fOptsLen > 0 {
		h.FOpts = []Payload{&DataPayload{Bytes: append([]byte{}, data[7:7+fOptsLen]...)}}
	}

	return nil
}
