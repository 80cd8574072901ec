package session

import "github.com/lora-edge/node-stack/lorawan"

// ActivationMethod distinguishes an over-the-air activated session from
// an activation-by-personalization one.
type ActivationMethod int

const (
	ActivationNone ActivationMethod = iota
	ActivationOTAA
	ActivationABP
)

// OTAAParams holds the identifiers and root key needed to run the join
// procedure. NbTrials is carried with the parameters, but the MAC does not
// read it: each StartJoin makes one attempt, and an RX2 timeout ends it
// with a join failure.
type OTAAParams struct {
	DevEUI   lorawan.EUI64
	AppEUI   lorawan.EUI64
	AppKey   lorawan.AES128Key
	NbTrials int
}

// ABPParams holds the pre-provisioned session the device is personalized
// with; no join procedure ever runs for an ABP session.
type ABPParams struct {
	DevAddr lorawan.DevAddr
	NwkSKey lorawan.AES128Key
	AppSKey lorawan.AES128Key
}

// Counters is the pair of monotonic frame counters tracked per session.
// UplinkCounter increments once per logical uplink (a confirmed message's
// retransmissions reuse it); DownlinkCounter holds the FCnt of the last
// downlink accepted from the network, used to reject downlinks with an
// older FCnt.
type Counters struct {
	UplinkCounter   uint32
	DownlinkCounter uint32
}

// Session is the full activation state of a device: whether it is active,
// how it was (or will be) activated, its session keys, and its counters.
// Method says whether it is OTAA or ABP; OTAA holds the join parameters
// and stays zero for an ABP session.
type Session struct {
	Active  bool
	Method  ActivationMethod
	DevAddr lorawan.DevAddr
	NwkSKey lorawan.AES128Key
	AppSKey lorawan.AES128Key

	OTAA OTAAParams

	Counters Counters
}

// NewOTAASession returns an inactive session configured to join using
// params; Active becomes true only after a successful join-accept, at
// which point ApplyJoinAccept populates DevAddr/NwkSKey/AppSKey and resets
// the counters.
func NewOTAASession(params OTAAParams) *Session {
	return &Session{Method: ActivationOTAA, OTAA: params}
}

// NewABPSession returns an already-active session personalized with
// params. Counters start at zero unless the caller loads them from a
// Store first.
func NewABPSession(params ABPParams) *Session {
	return &Session{
		Active:  true,
		Method:  ActivationABP,
		DevAddr: params.DevAddr,
		NwkSKey: params.NwkSKey,
		AppSKey: params.AppSKey,
	}
}

// ApplyJoinAccept activates the session from a completed OTAA join
// exchange, deriving NwkSKey/AppSKey and resetting both counters to zero.
func (s *Session) ApplyJoinAccept(devAddr lorawan.DevAddr, appNonce lorawan.AppNonce, netID lorawan.NetID, devNonce lorawan.DevNonce) error {
	nwkSKey, err := lorawan.DeriveNwkSKey(s.OTAA.AppKey, appNonce, netID, devNonce)
	if err != nil {
		return err
	}
	appSKey, err := lorawan.DeriveAppSKey(s.OTAA.AppKey, appNonce, netID, devNonce)
	if err != nil {
		return err
	}

	s.DevAddr = devAddr
	s.NwkSKey = nwkSKey
	s.AppSKey = appSKey
	s.Counters = Counters{}
	s.Active = true
	return nil
}

// Reset clears activation state; an OTAA session must rejoin, an ABP
// session reverts to its provisioned keys with counters held as-is (the
// caller decides separately whether to zero them).
func (s *Session) Reset() {
	s.Active = false
	if s.Method == ActivationABP {
		s.Active = true
	}
}

// Store persists and restores a session's Counters across process
// restarts. It is optional; a Session used without a Store simply keeps
// its counters in memory for the life of the process.
type Store interface {
	Load(devAddr lorawan.DevAddr) (Counters, error)
	Persist(devAddr lorawan.DevAddr, c Counters) error
}

// Load restores s.Counters from store, leaving s unchanged on error.
func (s *Session) Load(store Store) error {
	c, err := store.Load(s.DevAddr)
	if err != nil {
		return err
	}
	s.Counters = c
	return nil
}

// Persist writes s.Counters to store.
func (s *Session) Persist(store Store) error {
	return store.Persist(s.DevAddr, s.Counters)
}
