package lorawan

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"
	"errors"

	"github.com/jacobsa/crypto/cmac"
)

// computeMIC calculates a 4-byte MIC over b0||msg using AES-CMAC, keeping
// only the first four bytes of the 16-byte tag as required by 1.0.2 §4.4.
func computeMIC(key AES128Key, b0, msg []byte) (MIC, error) {
	var mic MIC
	hash, err := cmac.New(key[:])
	if err != nil {
		return mic, err
	}
	if _, err := hash.Write(append(append([]byte{}, b0...), msg...)); err != nil {
		return mic, err
	}
	sum := hash.Sum(nil)
	copy(mic[:], sum[0:4])
	return mic, nil
}

// dataMICBlockB0 builds the B0 block used for data-frame MIC calculation
// (1.0.2 §4.4): 0x49 ‖ 0x00*4 ‖ dir ‖ DevAddr ‖ FCntUp/Dn (as 32-bit) ‖ 0x00 ‖ len(msg).
func dataMICBlockB0(dir uint8, devAddr DevAddr, fCnt32 uint32, msgLen int) ([]byte, error) {
	b0 := make([]byte, 16)
	b0[0] = 0x49
	b0[5] = dir
	addr, err := devAddr.MarshalBinary()
	if err != nil {
		return nil, err
	}
	copy(b0[6:10], addr)
	binary.LittleEndian.PutUint32(b0[10:14], fCnt32)
	b0[15] = byte(msgLen)
	return b0, nil
}

// ComputeUplinkDataMIC returns the MIC for an uplink data frame.
//
// msg is MHDR ‖ FHDR ‖ FPort ‖ FRMPayload (with FRMPayload already
// encrypted), and fCntUp is the full 32-bit uplink frame counter.
func ComputeUplinkDataMIC(nwkSKey AES128Key, devAddr DevAddr, fCntUp uint32, msg []byte) (MIC, error) {
	b0, err := dataMICBlockB0(0x00, devAddr, fCntUp, len(msg))
	if err != nil {
		return MIC{}, err
	}
	return computeMIC(nwkSKey, b0, msg)
}

// ComputeDownlinkDataMIC returns the MIC for a downlink data frame.
func ComputeDownlinkDataMIC(nwkSKey AES128Key, devAddr DevAddr, fCntDown uint32, msg []byte) (MIC, error) {
	b0, err := dataMICBlockB0(0x01, devAddr, fCntDown, len(msg))
	if err != nil {
		return MIC{}, err
	}
	return computeMIC(nwkSKey, b0, msg)
}

// ComputeJoinRequestMIC returns the MIC for a join-request: computed over
// MHDR ‖ AppEUI ‖ DevEUI ‖ DevNonce, keyed with AppKey, no B0 block.
func ComputeJoinRequestMIC(appKey AES128Key, msg []byte) (MIC, error) {
	return computeMIC(appKey, nil, msg)
}

// ComputeJoinAcceptMIC returns the MIC for a join-accept: computed over
// MHDR ‖ AppNonce ‖ NetID ‖ DevAddr ‖ DLSettings ‖ RxDelay ‖ [CFList], keyed
// with AppKey, no B0 block.
func ComputeJoinAcceptMIC(appKey AES128Key, msg []byte) (MIC, error) {
	return computeMIC(appKey, nil, msg)
}

// cryptoBlockAi builds the A_i keystream-generator block used for
// FRMPayload/FOpts encryption (1.0.2 §4.3.3): 0x01 ‖ 0x00*4 ‖ dir ‖ DevAddr ‖
// FCnt32 ‖ 0x00 ‖ i.
func cryptoBlockAi(dir uint8, devAddr DevAddr, fCnt32 uint32, i uint8) ([]byte, error) {
	a := make([]byte, 16)
	a[0] = 0x01
	a[5] = dir
	addr, err := devAddr.MarshalBinary()
	if err != nil {
		return nil, err
	}
	copy(a[6:10], addr)
	binary.LittleEndian.PutUint32(a[10:14], fCnt32)
	a[15] = i
	return a, nil
}

// encryptPayload implements the LoRaWAN FRMPayload/FOpts cipher: AES-ECB
// encrypt each A_i block to build a keystream, XOR it into the (zero
// padded) plaintext. The operation is its own inverse.
func encryptPayload(key AES128Key, dir uint8, devAddr DevAddr, fCnt32 uint32, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	pad := len(data) % 16
	if pad != 0 {
		pad = 16 - pad
	}
	padded := append(append([]byte{}, data...), bytes.Repeat([]byte{0}, pad)...)

	out := make([]byte, len(padded))
	blocks := len(padded) / 16
	for i := 0; i < blocks; i++ {
		ai, err := cryptoBlockAi(dir, devAddr, fCnt32, uint8(i+1))
		if err != nil {
			return nil, err
		}
		s := make([]byte, 16)
		block.Encrypt(s, ai)
		for j := 0; j < 16; j++ {
			out[i*16+j] = padded[i*16+j] ^ s[j]
		}
	}

	return out[0:len(data)], nil
}

// EncryptFRMPayload encrypts (or decrypts, the operation being symmetric)
// the application FRMPayload bytes with AppSKey.
func EncryptFRMPayload(appSKey AES128Key, uplink bool, devAddr DevAddr, fCnt32 uint32, data []byte) ([]byte, error) {
	dir := uint8(0x01)
	if uplink {
		dir = 0x00
	}
	return encryptPayload(appSKey, dir, devAddr, fCnt32, data)
}

// EncryptFOpts encrypts (or decrypts) the piggy-backed FOpts bytes with
// NwkSKey. 1.0.2 does not require this when the FOpts are carried
// cleartext within FHDR; it is exposed for callers that have chosen to
// protect FOpts (1.1-compatible devices negotiating down) or for symmetry
// with EncryptFRMPayload.
func EncryptFOpts(nwkSKey AES128Key, uplink bool, devAddr DevAddr, fCnt32 uint32, data []byte) ([]byte, error) {
	dir := uint8(0x01)
	if uplink {
		dir = 0x00
	}
	return encryptPayload(nwkSKey, dir, devAddr, fCnt32, data)
}

// joinCipher runs AES in "decrypt" mode as the encryption step for
// join-accept, per 1.0.2 §6.2.3: the network "encrypts" with the AES
// decrypt operation so that the device can recover the plaintext using the
// (cheaper, on some HW) encrypt operation.
func joinCipher(key AES128Key, data []byte, encryptOnDevice bool) ([]byte, error) {
	if len(data)%16 != 0 {
		return nil, errors.New("lorawan: join-accept payload must be a multiple of 16 bytes")
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += 16 {
		if encryptOnDevice {
			block.Encrypt(out[i:i+16], data[i:i+16])
		} else {
			block.Decrypt(out[i:i+16], data[i:i+16])
		}
	}
	return out, nil
}

// EncryptJoinAcceptPayload encrypts a join-accept MACPayload on the
// network side, ahead of transmission (uses the AES decrypt primitive).
func EncryptJoinAcceptPayload(appKey AES128Key, data []byte) ([]byte, error) {
	return joinCipher(appKey, data, false)
}

// DecryptJoinAcceptPayload decrypts a received join-accept MACPayload on
// the device side (uses the AES encrypt primitive, the inverse of
// EncryptJoinAcceptPayload).
func DecryptJoinAcceptPayload(appKey AES128Key, data []byte) ([]byte, error) {
	return joinCipher(appKey, data, true)
}

// deriveSessionKey implements the NwkSKey/AppSKey derivation of 1.0.2
// §6.2.5: AES-ECB-encrypt(AppKey, pad16(typeByte ‖ AppNonce ‖ NetID ‖
// DevNonce)).
func deriveSessionKey(appKey AES128Key, typeByte byte, appNonce AppNonce, netID NetID, devNonce DevNonce) (AES128Key, error) {
	var key AES128Key

	buf := make([]byte, 16)
	buf[0] = typeByte
	copy(buf[1:4], appNonce[:])
	copy(buf[4:7], netID[:])
	dn, err := devNonce.MarshalBinary()
	if err != nil {
		return key, err
	}
	copy(buf[7:9], dn)

	block, err := aes.NewCipher(appKey[:])
	if err != nil {
		return key, err
	}
	out := make([]byte, 16)
	block.Encrypt(out, buf)
	copy(key[:], out)
	return key, nil
}

// DeriveNwkSKey derives the network session key from the join exchange.
func DeriveNwkSKey(appKey AES128Key, appNonce AppNonce, netID NetID, devNonce DevNonce) (AES128Key, error) {
	return deriveSessionKey(appKey, 0x01, appNonce, netID, devNonce)
}

// DeriveAppSKey derives the application session key from the join
// exchange.
func DeriveAppSKey(appKey AES128Key, appNonce AppNonce, netID NetID, devNonce DevNonce) (AES128Key, error) {
	return deriveSessionKey(appKey, 0x02, appNonce, netID, devNonce)
}
