package node

import (
	"crypto/aes"

	keywrap "github.com/NickBall/go-aes-key-wrap"
)

// WrappedKeys is the RFC 3394 key-wrap envelope for a device's session
// keys, suitable for out-of-band backup/escrow during provisioning.
type WrappedKeys struct {
	NwkSKey []byte
	AppSKey []byte
}

// ExportWrappedKeys wraps the session's current NwkSKey/AppSKey under kek,
// the same RFC 3394 construction the teacher's join-server package uses to
// hand session keys to a join server — repurposed here for device-side
// key escrow rather than join-accept delivery.
func (d *Device) ExportWrappedKeys(kek []byte) (*WrappedKeys, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, wrapError(Fatal, err, "node: new cipher")
	}

	nwkSKey, err := keywrap.Wrap(block, d.sess.NwkSKey[:])
	if err != nil {
		return nil, wrapError(CryptoError, err, "node: wrap NwkSKey")
	}
	appSKey, err := keywrap.Wrap(block, d.sess.AppSKey[:])
	if err != nil {
		return nil, wrapError(CryptoError, err, "node: wrap AppSKey")
	}

	return &WrappedKeys{NwkSKey: nwkSKey, AppSKey: appSKey}, nil
}
