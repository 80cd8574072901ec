package mac

import (
	"testing"
	"time"

	"github.com/lora-edge/node-stack/lorawan"
	"github.com/lora-edge/node-stack/lorawan/band"
	"github.com/lora-edge/node-stack/radio"
	"github.com/lora-edge/node-stack/session"
	"github.com/stretchr/testify/require"
)

// fakeScheduler replaces node.Queue in engine tests: After records the
// callback instead of arming a real timer, so the test decides exactly
// when RX1/RX2/retry callbacks fire.
type fakeScheduler struct {
	calls []func()
}

func (s *fakeScheduler) After(d time.Duration, fn func()) func() {
	idx := len(s.calls)
	s.calls = append(s.calls, fn)
	return func() { s.calls[idx] = nil }
}

// fire runs the callback at index i, if it has not been cancelled.
func (s *fakeScheduler) fire(i int) {
	if i < len(s.calls) && s.calls[i] != nil {
		s.calls[i]()
	}
}

type testSink struct {
	events     []Event
	linkChecks []LinkCheckResult
}

func (s *testSink) HandleEvent(ev Event)              { s.events = append(s.events, ev) }
func (s *testSink) HandleLinkCheck(r LinkCheckResult) { s.linkChecks = append(s.linkChecks, r) }

func (s *testSink) last() Event { return s.events[len(s.events)-1] }

func (s *testSink) kinds() []EventKind {
	out := make([]EventKind, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Kind
	}
	return out
}

var testABPKey = lorawan.AES128Key{0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6, 0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c}

func newTestEngine(t *testing.T) (*Engine, *radio.Fake, *fakeScheduler, *testSink, *session.Session) {
	t.Helper()
	region, err := band.Get(band.EU868, band.Config{})
	require.NoError(t, err)

	fake := radio.NewFake()
	sched := &fakeScheduler{}
	sink := &testSink{}
	sess := session.NewABPSession(session.ABPParams{
		DevAddr: lorawan.DevAddr{0x11, 0x11, 0x11, 0x11},
		NwkSKey: testABPKey,
		AppSKey: testABPKey,
	})

	e, err := NewEngine(region, fake, sess, sched, sink, Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, e.ConnectABP())
	return e, fake, sched, sink, sess
}

// buildDownlinkFrame hand-assembles a valid downlink data frame the way a
// network server would, mirroring BuildUplinkFrame's own MIC/encrypt
// sequence in framing.go but for the downlink direction.
func buildDownlinkFrame(t *testing.T, sess *session.Session, fCnt uint32, port uint8, payload []byte, confirmed bool) []byte {
	t.Helper()
	enc, err := lorawan.EncryptFRMPayload(sess.AppSKey, false, sess.DevAddr, fCnt, payload)
	require.NoError(t, err)

	mtype := lorawan.UnconfirmedDataDown
	if confirmed {
		mtype = lorawan.ConfirmedDataDown
	}
	mp := lorawan.MACPayload{
		FHDR:       lorawan.FHDR{DevAddr: sess.DevAddr, FCnt: uint16(fCnt)},
		FPort:      &port,
		FRMPayload: []lorawan.Payload{&lorawan.DataPayload{Bytes: enc}},
	}
	phy := lorawan.PHYPayload{MHDR: lorawan.MHDR{MType: mtype, Major: lorawan.LoRaWANR1}, MACPayload: mp}

	h, err := phy.MHDR.MarshalBinary()
	require.NoError(t, err)
	m, err := phy.MACPayload.MarshalBinary()
	require.NoError(t, err)
	mic, err := lorawan.ComputeDownlinkDataMIC(sess.NwkSKey, sess.DevAddr, fCnt, append(h, m...))
	require.NoError(t, err)
	phy.MIC = mic

	b, err := phy.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestConnectABPEmitsConnected(t *testing.T) {
	_, _, _, sink, sess := newTestEngine(t)
	require.True(t, sess.Active)
	require.Equal(t, []EventKind{EventConnected}, sink.kinds())
}

func TestSendAdvancesUplinkCounterAndArmsRXWindows(t *testing.T) {
	e, fake, sched, sink, sess := newTestEngine(t)

	err := e.Send(TxMessage{Type: Unconfirmed, Port: 10, Buffer: []byte("hello")})
	require.NoError(t, err)

	require.Len(t, fake.Sent, 1)
	require.EqualValues(t, 1, sess.Counters.UplinkCounter)
	require.Equal(t, WaitRX1, e.State())
	require.Contains(t, sink.kinds(), EventTxDone)
	require.Len(t, sched.calls, 2) // RX1 then RX2
}

func TestRX1DeliversDownlinkAndReturnsToIdle(t *testing.T) {
	e, fake, sched, sink, sess := newTestEngine(t)
	require.NoError(t, e.Send(TxMessage{Type: Unconfirmed, Port: 10, Buffer: []byte("hello")}))

	data := buildDownlinkFrame(t, sess, 0, 5, []byte("world"), false)
	fake.InjectRxDone(data, -50, 7.5)

	sched.fire(0) // RX1 callback arms the receive window, which delivers synchronously

	require.Equal(t, Idle, e.State())
	rx := e.RxMessage()
	require.True(t, rx.ReceiveReady)
	require.EqualValues(t, 5, rx.Port)
	require.Equal(t, []byte("world"), rx.Buffer)
	require.Equal(t, EventRxDone, sink.last().Kind)
	require.EqualValues(t, 5, sink.last().RxPort)
}

func TestRxTimeoutAtRX2EmitsRxTimeout(t *testing.T) {
	e, _, sched, sink, _ := newTestEngine(t)
	require.NoError(t, e.Send(TxMessage{Type: Unconfirmed, Port: 10, Buffer: []byte("hello")}))

	sched.fire(1) // RX2 arms; state becomes WaitRX2
	require.Equal(t, WaitRX2, e.State())

	e.onRxTimeout() // RX2 closes with nothing received

	require.Equal(t, Idle, e.State())
	require.Contains(t, sink.kinds(), EventRxTimeout)
}

func TestConfirmedRetryReschedulesAfterRX2Timeout(t *testing.T) {
	e, _, sched, _, _ := newTestEngine(t)
	require.NoError(t, e.Send(TxMessage{Type: Confirmed, Port: 10, Buffer: []byte("x"), RetriesRemaining: 3}))

	sched.fire(1) // enter WaitRX2
	require.Equal(t, WaitRX2, e.State())

	e.onRxTimeout()
	require.Equal(t, Send, e.State())
	require.Equal(t, 2, e.nbTrialsLeft)
}

func TestJoinFailureReturnsToInit(t *testing.T) {
	region, err := band.Get(band.EU868, band.Config{})
	require.NoError(t, err)
	fake := radio.NewFake()
	sched := &fakeScheduler{}
	sink := &testSink{}
	sess := session.NewOTAASession(session.OTAAParams{
		DevEUI: lorawan.EUI64{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88},
		AppEUI: lorawan.EUI64{0x6D, 0x75, 0x00, 0xD0, 0x7E, 0xD5, 0xB3, 0x70},
		AppKey: testABPKey,
	})
	e, err := NewEngine(region, fake, sess, sched, sink, Config{}, nil)
	require.NoError(t, err)

	require.NoError(t, e.StartJoin())
	// radio.Fake fires EventTxDone synchronously, so by the time StartJoin
	// returns the engine has already advanced past Joining into WaitRX1
	// with both receive windows scheduled.
	require.Equal(t, WaitRX1, e.State())

	sched.fire(1) // RX2 arm
	require.Equal(t, WaitRX2, e.State())

	e.onRxTimeout() // WaitRX2 timeout while awaiting a join-accept: join failed

	require.Equal(t, Init, e.State())
	require.Contains(t, sink.kinds(), EventJoinFailure)
}
