package lorawan

import "errors"

// MACPayload represents the payload of a data (non-join) frame:
// FHDR ‖ [FPort] ‖ FRMPayload.
type MACPayload struct {
	FHDR       FHDR
	FPort      *uint8
	FRMPayload []Payload // application payload, or MAC commands when FPort == 0
}

// MarshalBinary marshals the object in binary form.
func (p MACPayload) MarshalBinary() ([]byte, error) {
	out, err := p.FHDR.MarshalBinary()
	if err != nil {
		return nil, err
	}

	if p.FPort != nil {
		out = append(out, *p.FPort)
	}

	for _, pl := range p.FRMPayload {
		b, err := pl.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}

	return out, nil
}

// UnmarshalBinary decodes the object from binary form. FRMPayload is left
// as a single opaque DataPayload; decryption and, for FPort 0, MAC-command
// decoding happen once the session key is available.
func (p *MACPayload) UnmarshalBinary(uplink bool, data []byte) error {
	if len(data) < 7 {
		return errors.New("lorawan: at least 7 bytes are expected")
	}

	if err := p.FHDR.UnmarshalBinary(uplink, data); err != nil {
		return err
	}

	fOptsLen := int(p.FHDR.FCtrl.FOptsLen())
	rest := data[7+fOptsLen:]

	p.FPort = nil
	p.FRMPayload = nil

	if len(rest) == 0 {
		return nil
	}

	port := rest[0]
	p.FPort = &port
	if len(rest) > 1 {
		p.FRMPayload = []Payload{&DataPayload{Bytes: append([]byte{}, rest[1:]...)}}
	}

	return nil
}
