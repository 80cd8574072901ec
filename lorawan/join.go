package lorawan

import "errors"

// JoinRequestPayload represents the join-request MACPayload:
// AppEUI ‖ DevEUI ‖ DevNonce.
type JoinRequestPayload struct {
	AppEUI   EUI64
	DevEUI   EUI64
	DevNonce DevNonce
}

// MarshalBinary marshals the object in binary form.
func (p JoinRequestPayload) MarshalBinary() ([]byte, error) {
	var out []byte

	b, err := p.AppEUI.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out = append(out, b...)

	b, err = p.DevEUI.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out = append(out, b...)

	b, err = p.DevNonce.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out = append(out, b...)

	return out, nil
}

// UnmarshalBinary decodes the object from binary form.
func (p *JoinRequestPayload) UnmarshalBinary(uplink bool, data []byte) error {
	if len(data) != 18 {
		return errors.New("lorawan: 18 bytes of data are expected")
	}
	if err := p.AppEUI.UnmarshalBinary(data[0:8]); err != nil {
		return err
	}
	if err := p.DevEUI.UnmarshalBinary(data[8:16]); err != nil {
		return err
	}
	p.DevNonce = DevNonce(uint16(data[16]) | uint16(data[17])<<8)
	return nil
}

// DLSettings carries the RX1 DR offset and RX2 data-rate chosen by the
// network for this device, delivered in the join-accept.
type DLSettings struct {
	RX1DROffset uint8 // 3 bits
	RX2DataRate uint8 // 4 bits
}

// MarshalBinary marshals the object in binary form.
func (d DLSettings) MarshalBinary() ([]byte, error) {
	if d.RX1DROffset > 7 {
		return nil, errors.New("lorawan: max RX1DROffset is 7")
	}
	if d.RX2DataRate > 15 {
		return nil, errors.New("lorawan: max RX2DataRate is 15")
	}
	return []byte{(d.RX1DROffset << 4) | d.RX2DataRate}, nil
}

// UnmarshalBinary decodes the object from binary form.
func (d *DLSettings) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return errors.New("lorawan: 1 byte of data is expected")
	}
	d.RX1DROffset = (data[0] & 0x70) >> 4
	d.RX2DataRate = data[0] & 0x0f
	return nil
}

// JoinAcceptPayload represents the (decrypted) join-accept MACPayload:
// AppNonce ‖ NetID ‖ DevAddr ‖ DLSettings ‖ RxDelay ‖ [CFList].
type JoinAcceptPayload struct {
	AppNonce   AppNonce
	NetID      NetID
	DevAddr    DevAddr
	DLSettings DLSettings
	RXDelay    uint8 // seconds, as sent by the network; the engine does not read it
	CFList     *CFList
}

// MarshalBinary marshals the object in binary form.
func (p JoinAcceptPayload) MarshalBinary() ([]byte, error) {
	out := make([]byte, 12)
	copy(out[0:3], p.AppNonce[:])
	copy(out[3:6], p.NetID[:])

	b, err := p.DevAddr.MarshalBinary()
	if err != nil {
		return nil, err
	}
	copy(out[6:10], b)

	b, err = p.DLSettings.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out[10] = b[0]
	out[11] = p.RXDelay

	if p.CFList != nil {
		b, err = p.CFList.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}

	return out, nil
}

// UnmarshalBinary decodes the object from binary form.
func (p *JoinAcceptPayload) UnmarshalBinary(uplink bool, data []byte) error {
	if len(data) != 12 && len(data) != 28 {
		return errors.New("lorawan: 12 or 28 bytes of data are expected")
	}

	copy(p.AppNonce[:], data[0:3])
	copy(p.NetID[:], data[3:6])
	if err := p.DevAddr.UnmarshalBinary(data[6:10]); err != nil {
		return err
	}
	if err := p.DLSettings.UnmarshalBinary(data[10:11]); err != nil {
		return err
	}
	p.RXDelay = data[11]

	p.CFList = nil
	if len(data) == 28 {
		var cf CFList
		if err := cf.UnmarshalBinary(data[12:28]); err != nil {
			return err
		}
		p.CFList = &cf
	}

	return nil
}
