package radio

import (
	"sync"
	"time"
)

// Fake is an in-memory Driver double used by mac/node package tests. It
// has no hardware behind it: Send delivers an EventTxDone to the sink
// before returning (or, if TxTimeout is set, an EventTxTimeout), and
// Receive delivers
// whatever has been queued via InjectRxDone/InjectRxError/InjectRxTimeout.
// Nothing here is exercised by production code; it exists purely as a test
// double, the same role a loopback transport plays in the teacher's own
// backend tests.
type Fake struct {
	mu   sync.Mutex
	sink EventSink

	Sent        [][]byte
	TxTimeout   bool
	TimeOnAirFn func(modem Modem, pktLen int) time.Duration
	RandomFn    func() uint32
	CarrierFree bool
	RFSupported bool

	rxQueue []Event
}

func NewFake() *Fake {
	return &Fake{CarrierFree: true, RFSupported: true}
}

func (f *Fake) Init(sink EventSink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink = sink
	return nil
}

func (f *Fake) Reset() error   { return nil }
func (f *Fake) Sleep() error   { return nil }
func (f *Fake) Standby() error { return nil }

func (f *Fake) SetChannel(freqHz uint32) error         { return nil }
func (f *Fake) SetTxConfig(cfg TxConfig) error          { return nil }
func (f *Fake) SetRxConfig(cfg RxConfig) error          { return nil }
func (f *Fake) SetMaxPayloadLength(m Modem, n int) error { return nil }
func (f *Fake) SetPublicNetwork(public bool) error      { return nil }

func (f *Fake) Send(buf []byte) error {
	f.mu.Lock()
	f.Sent = append(f.Sent, append([]byte(nil), buf...))
	sink, timeout := f.sink, f.TxTimeout
	f.mu.Unlock()

	if sink == nil {
		return nil
	}
	if timeout {
		sink.HandleRadioEvent(Event{Kind: EventTxTimeout})
	} else {
		sink.HandleRadioEvent(Event{Kind: EventTxDone})
	}
	return nil
}

func (f *Fake) Receive() error {
	f.mu.Lock()
	var next *Event
	if len(f.rxQueue) > 0 {
		next = &f.rxQueue[0]
		f.rxQueue = f.rxQueue[1:]
	}
	sink := f.sink
	f.mu.Unlock()

	if sink == nil || next == nil {
		return nil
	}
	sink.HandleRadioEvent(*next)
	return nil
}

// InjectRxDone queues an RxDone event to be delivered on the next Receive
// call.
func (f *Fake) InjectRxDone(data []byte, rssi int, snr float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rxQueue = append(f.rxQueue, Event{Kind: EventRxDone, Data: data, RSSI: rssi, SNR: snr})
}

func (f *Fake) InjectRxTimeout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rxQueue = append(f.rxQueue, Event{Kind: EventRxTimeout})
}

func (f *Fake) InjectRxError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rxQueue = append(f.rxQueue, Event{Kind: EventRxError})
}

func (f *Fake) TimeOnAir(modem Modem, pktLen int) (time.Duration, error) {
	if f.TimeOnAirFn != nil {
		return f.TimeOnAirFn(modem, pktLen), nil
	}
	return time.Duration(pktLen) * time.Millisecond, nil
}

func (f *Fake) Random() (uint32, error) {
	if f.RandomFn != nil {
		return f.RandomFn(), nil
	}
	return 0, nil
}

func (f *Fake) PerformCarrierSense(modem Modem, freqHz uint32, rssiThresholdDBm int, maxSense time.Duration) (bool, error) {
	return f.CarrierFree, nil
}

func (f *Fake) CheckRFFrequency(freqHz uint32) (bool, error) {
	return f.RFSupported, nil
}

func (f *Fake) Lock()   {}
func (f *Fake) Unlock() {}

var _ Driver = (*Fake)(nil)
