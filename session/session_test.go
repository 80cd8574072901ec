package session

import (
	"testing"

	"github.com/lora-edge/node-stack/lorawan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewABPSessionIsActiveWithZeroCounters(t *testing.T) {
	params := ABPParams{
		DevAddr: lorawan.DevAddr{1, 2, 3, 4},
		NwkSKey: lorawan.AES128Key{},
		AppSKey: lorawan.AES128Key{},
	}
	s := NewABPSession(params)

	assert.True(t, s.Active)
	assert.Equal(t, ActivationABP, s.Method)
	assert.Equal(t, uint32(0), s.Counters.UplinkCounter)
}

func TestNewOTAASessionStartsInactive(t *testing.T) {
	s := NewOTAASession(OTAAParams{NbTrials: 3})
	assert.False(t, s.Active)
	assert.Equal(t, ActivationOTAA, s.Method)
}

func TestApplyJoinAcceptActivatesAndResetsCounters(t *testing.T) {
	s := NewOTAASession(OTAAParams{
		DevEUI:   lorawan.EUI64{1, 1, 1, 1, 1, 1, 1, 1},
		AppEUI:   lorawan.EUI64{2, 2, 2, 2, 2, 2, 2, 2},
		AppKey:   lorawan.AES128Key{0x01},
		NbTrials: 3,
	})
	s.Counters.UplinkCounter = 42

	err := s.ApplyJoinAccept(lorawan.DevAddr{9, 9, 9, 9}, lorawan.AppNonce{1, 2, 3}, lorawan.NetID{0, 0, 1}, lorawan.DevNonce(7))
	require.NoError(t, err)

	assert.True(t, s.Active)
	assert.Equal(t, uint32(0), s.Counters.UplinkCounter)
	assert.NotEqual(t, lorawan.AES128Key{}, s.NwkSKey)
	assert.NotEqual(t, lorawan.AES128Key{}, s.AppSKey)
	assert.NotEqual(t, s.NwkSKey, s.AppSKey)
}

type memStore struct {
	byDevAddr map[lorawan.DevAddr]Counters
}

func newMemStore() *memStore {
	return &memStore{byDevAddr: map[lorawan.DevAddr]Counters{}}
}

func (m *memStore) Load(devAddr lorawan.DevAddr) (Counters, error) {
	return m.byDevAddr[devAddr], nil
}

func (m *memStore) Persist(devAddr lorawan.DevAddr, c Counters) error {
	m.byDevAddr[devAddr] = c
	return nil
}

func TestSessionPersistAndLoadRoundTrip(t *testing.T) {
	store := newMemStore()
	s := NewABPSession(ABPParams{DevAddr: lorawan.DevAddr{1, 2, 3, 4}})
	s.Counters = Counters{UplinkCounter: 10, DownlinkCounter: 3}

	require.NoError(t, s.Persist(store))

	restored := NewABPSession(ABPParams{DevAddr: lorawan.DevAddr{1, 2, 3, 4}})
	require.NoError(t, restored.Load(store))

	assert.Equal(t, s.Counters, restored.Counters)
}
