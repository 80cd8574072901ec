package lorawan

import (
	"encoding/binary"
	"errors"
)

// CFList represents the optional channel-frequency-list appended to a
// join-accept payload. It carries up to five extra 100 Hz-quantized
// frequencies for channels 3..7 (EU868-style regions; the US/AU grid
// regions don't use this form and ignore an incoming CFList of this type).
type CFList struct {
	Frequencies [5]uint32 // Hz
}

// MarshalBinary marshals the object in binary form (16 bytes: 5 * 24-bit
// little-endian frequency in units of 100 Hz, plus a trailing CFListType
// byte fixed at 0).
func (c CFList) MarshalBinary() ([]byte, error) {
	out := make([]byte, 16)
	for i, f := range c.Frequencies {
		if f%100 != 0 {
			return nil, errors.New("lorawan: CFList frequency must be a multiple of 100 Hz")
		}
		v := f / 100
		if v > 0xffffff {
			return nil, errors.New("lorawan: CFList frequency out of range")
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		copy(out[i*3:i*3+3], b[0:3])
	}
	return out, nil
}

// UnmarshalBinary decodes the object from binary form.
func (c *CFList) UnmarshalBinary(data []byte) error {
	if len(data) != 16 {
		return errors.New("lorawan: 16 bytes of data are expected")
	}
	for i := 0; i < 5; i++ {
		b := make([]byte, 4)
		copy(b[0:3], data[i*3:i*3+3])
		c.Frequencies[i] = binary.LittleEndian.Uint32(b) * 100
	}
	return nil
}
