package lorawan

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// EUI64 represents an 8-byte IEEE EUI-64 identifier (DevEUI or AppEUI).
type EUI64 [8]byte

// String implements fmt.Stringer.
func (e EUI64) String() string {
	return hex.EncodeToString(e[:])
}

// MarshalBinary encodes the EUI in little-endian wire order.
func (e EUI64) MarshalBinary() ([]byte, error) {
	b := make([]byte, len(e))
	for i, v := range e {
		b[len(e)-i-1] = v
	}
	return b, nil
}

// UnmarshalBinary decodes the EUI from little-endian wire order.
func (e *EUI64) UnmarshalBinary(data []byte) error {
	if len(data) != len(e) {
		return fmt.Errorf("lorawan: %d bytes of data are expected", len(e))
	}
	for i, v := range data {
		e[len(e)-i-1] = v
	}
	return nil
}

// AES128Key represents a 128 bit AES key (AppKey, NwkSKey or AppSKey).
type AES128Key [16]byte

// String implements fmt.Stringer.
func (k AES128Key) String() string {
	return hex.EncodeToString(k[:])
}

// MIC represents the 4-byte message integrity code.
type MIC [4]byte

// String implements fmt.Stringer.
func (m MIC) String() string {
	return hex.EncodeToString(m[:])
}

// DevNonce is the 2-byte random value a device picks for each join attempt.
type DevNonce uint16

// MarshalBinary encodes the DevNonce in little-endian wire order.
func (d DevNonce) MarshalBinary() ([]byte, error) {
	return []byte{byte(d), byte(d >> 8)}, nil
}

// AppNonce is the 3-byte join-server nonce returned in a join-accept.
type AppNonce [3]byte

// NetID is the 3-byte network identifier returned in a join-accept.
type NetID [3]byte

// Type returns the NetID type (the 3 most-significant bits of byte 0).
func (n NetID) Type() int {
	return int(n[0] >> 5)
}

// ID returns the NetID's NwkID: the low bits of the NetID after its type
// prefix.
func (n NetID) ID() int {
	return int(n[0]) & 0x1f
}

// String implements fmt.Stringer.
func (n NetID) String() string {
	return hex.EncodeToString(n[:])
}

// DevAddr represents the 4-byte device address assigned at activation.
type DevAddr [4]byte

// MarshalBinary encodes the DevAddr in little-endian wire order.
func (a DevAddr) MarshalBinary() ([]byte, error) {
	return []byte{a[3], a[2], a[1], a[0]}, nil
}

// UnmarshalBinary decodes the DevAddr from little-endian wire order.
func (a *DevAddr) UnmarshalBinary(data []byte) error {
	if len(data) != 4 {
		return errors.New("lorawan: 4 bytes of data are expected")
	}
	a[0], a[1], a[2], a[3] = data[3], data[2], data[1], data[0]
	return nil
}

// String implements fmt.Stringer.
func (a DevAddr) String() string {
	return hex.EncodeToString(a[:])
}
