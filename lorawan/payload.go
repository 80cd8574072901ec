package lorawan

import "encoding"

// Payload is the interface that every payload (MACPayload, JoinRequestPayload,
// a MAC command payload, ...) implements.
type Payload interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// DataPayload represents a plain, opaque slice of bytes (an encrypted
// FRMPayload or FOpts block before it has been decoded into MAC commands).
type DataPayload struct {
	Bytes []byte
}

// MarshalBinary marshals the object in binary form.
func (p DataPayload) MarshalBinary() ([]byte, error) {
	return p.Bytes, nil
}

// UnmarshalBinary decodes the object from binary form.
func (p *DataPayload) UnmarshalBinary(data []byte) error {
	p.Bytes = make([]byte, len(data))
	copy(p.Bytes, data)
	return nil
}
