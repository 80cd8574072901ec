package mac

import (
	"math/rand"
	"time"

	"github.com/lora-edge/node-stack/lorawan"
	"github.com/lora-edge/node-stack/lorawan/band"
	"github.com/lora-edge/node-stack/radio"
	"github.com/lora-edge/node-stack/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State is the device-state enum driving the MAC's primary path
// (spec.md §4.3 / §3 "Device state").
type State int

const (
	NotInitialized State = iota
	Init
	Joining
	Joined
	AbpConnecting
	Idle
	Send
	WaitRX1
	WaitRX2
	ComplianceTest
	Shutdown
)

func (s State) String() string {
	switch s {
	case NotInitialized:
		return "NotInitialized"
	case Init:
		return "Init"
	case Joining:
		return "Joining"
	case Joined:
		return "Joined"
	case AbpConnecting:
		return "AbpConnecting"
	case Idle:
		return "Idle"
	case Send:
		return "Send"
	case WaitRX1:
		return "WaitRX1"
	case WaitRX2:
		return "WaitRX2"
	case ComplianceTest:
		return "ComplianceTest"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// minRXSymbols is the minimum number of symbols the radio must listen for
// in a receive window, independent of clock-error margin.
const minRXSymbols = 6

// Engine is the MAC state machine: it owns the session, the region's
// channel plan, and the single radio in flight, and drives all three
// through the primitive surface described in spec.md §4.3. Every exported
// method is expected to run inside the caller's single-threaded work
// queue; Engine performs no internal synchronization of its own.
type Engine struct {
	log *logrus.Entry

	region    band.Region
	radioDrv  radio.Driver
	sess      *session.Session
	scheduler Scheduler
	sink      Sink
	cmds      *CommandHandler
	adr       *ADRState

	state State

	tx TxMessage
	rx RxMessage

	devNonceHistory    map[lorawan.DevNonce]bool
	lastDevNonce       lorawan.DevNonce
	joinTrial          int
	awaitingJoinAccept bool

	dutyCycleOn bool

	cancelRX1      func()
	cancelRX2      func()
	cancelAck      func()
	lastUplinkDR   int
	lastUplinkCh   int
	lastTOA        time.Duration
	rx1DROffset  int
	nbTrialsLeft int
	fCntConsumed bool

	DevStatusFunc func() DevStatus
}

// Config collects the construction-time parameters an Engine needs beyond
// its region/radio/session collaborators.
type Config struct {
	DutyCycleEnabled bool
	ADREnabled       bool
}

// NewEngine wires an Engine to its collaborators. radioDrv.Init is called
// with the Engine itself as the EventSink.
func NewEngine(region band.Region, radioDrv radio.Driver, sess *session.Session, scheduler Scheduler, sink Sink, cfg Config, log *logrus.Entry) (*Engine, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	e := &Engine{
		log:             log,
		region:          region,
		radioDrv:        radioDrv,
		sess:            sess,
		scheduler:       scheduler,
		sink:            sink,
		cmds:            NewCommandHandler(region),
		adr:             NewADRState(region.GetDefaults()),
		state:           NotInitialized,
		devNonceHistory: map[lorawan.DevNonce]bool{},
		dutyCycleOn:     cfg.DutyCycleEnabled,
	}
	e.adr.Enabled = cfg.ADREnabled
	if err := radioDrv.Init(e); err != nil {
		return nil, errors.Wrap(err, "mac: radio init")
	}
	e.state = Init
	return e, nil
}

// State returns the engine's current device state.
func (e *Engine) State() State { return e.state }

// RxMessage returns the current inbound application buffer. The caller
// must use ConsumeRx to advance PreviouslyRead/clear it once drained.
func (e *Engine) RxMessage() RxMessage { return e.rx }

// ConsumeRx advances the RX buffer's read offset by n bytes, clearing the
// buffer entirely once it has been fully drained.
func (e *Engine) ConsumeRx(n int) {
	e.rx.PreviouslyRead += n
	if e.rx.PreviouslyRead >= len(e.rx.Buffer) {
		e.rx = RxMessage{}
	}
}

// RequestLinkCheck queues a LinkCheckReq MAC command for the next uplink.
func (e *Engine) RequestLinkCheck() {
	e.cmds.QueueLinkCheckReq()
}

// Region exposes the engine's region policy for channel-management calls
// that live on the controller rather than the MAC itself.
func (e *Engine) Region() band.Region { return e.region }

// StartJoin begins an OTAA join attempt, transmitting a JoinRequest on the
// next available channel. It is only valid from Init or Joined (rejoin).
func (e *Engine) StartJoin() error {
	if e.sess.Method != session.ActivationOTAA {
		return errors.New("mac: session is not OTAA")
	}
	if e.state != Init && e.state != Joined {
		return errors.Errorf("mac: cannot join from state %s", e.state)
	}

	devNonce, err := e.drawDevNonce()
	if err != nil {
		return err
	}

	phy := lorawan.PHYPayload{
		MHDR: lorawan.MHDR{MType: lorawan.JoinRequest, Major: lorawan.LoRaWANR1},
		MACPayload: lorawan.JoinRequestPayload{
			AppEUI:   e.sess.OTAA.AppEUI,
			DevEUI:   e.sess.OTAA.DevEUI,
			DevNonce: devNonce,
		},
	}
	if err := phy.SetUplinkJoinMIC(e.sess.OTAA.AppKey); err != nil {
		return errors.Wrap(err, "mac: join MIC")
	}
	b, err := phy.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "mac: marshal join request")
	}

	dr, err := e.region.GetAlternateDR(e.joinTrial)
	if err != nil {
		return errors.Wrap(err, "mac: alternate DR")
	}
	e.joinTrial++
	e.lastUplinkDR = dr
	e.lastDevNonce = devNonce
	e.state = Joining
	e.awaitingJoinAccept = true
	return e.transmit(dr, b)
}

// drawDevNonce pulls a fresh DevNonce from the radio's entropy source,
// retrying until it has not been used in this session (spec.md §4.2: "must
// differ across retries within a session").
func (e *Engine) drawDevNonce() (lorawan.DevNonce, error) {
	for i := 0; i < 8; i++ {
		v, err := e.radioDrv.Random()
		if err != nil {
			return 0, errors.Wrap(err, "mac: radio random")
		}
		n := lorawan.DevNonce(uint16(v))
		if !e.devNonceHistory[n] {
			e.devNonceHistory[n] = true
			return n, nil
		}
	}
	return 0, errors.New("mac: could not draw a fresh DevNonce")
}

// ConnectABP activates the session for ABP operation. ABP never runs a
// join exchange; the device is Idle as soon as its session is marked
// active (spec.md §4.3, AbpConnecting → Idle is immediate for ABP).
func (e *Engine) ConnectABP() error {
	if e.sess.Method != session.ActivationABP {
		return errors.New("mac: session is not ABP")
	}
	e.state = AbpConnecting
	e.sess.Active = true
	e.state = Idle
	e.sink.HandleEvent(Event{Kind: EventConnected})
	return nil
}

// Send queues msg and attempts to schedule it immediately. Only Idle and
// Joined admit a new send (spec.md §3 Device state invariant).
func (e *Engine) Send(msg TxMessage) error {
	if e.state != Idle && e.state != Joined {
		return errors.Errorf("mac: cannot send from state %s", e.state)
	}
	if e.tx.Ongoing {
		return errors.New("mac: a transmission is already in flight")
	}

	e.tx = msg
	e.tx.Ongoing = true
	e.fCntConsumed = false
	if msg.Type == Confirmed {
		e.nbTrialsLeft = int(msg.RetriesRemaining)
		if e.nbTrialsLeft == 0 {
			e.nbTrialsLeft = 1
		}
	}
	e.state = Send
	return e.scheduleAndSend()
}

// scheduleAndSend picks a channel/DR via the region and transmits the
// currently buffered uplink, folding in ADR bookkeeping and any pending
// MAC-command answers.
func (e *Engine) scheduleAndSend() error {
	dr := e.currentDR()

	params := band.NextChannelParams{
		DataRate:    dr,
		Joined:      e.sess.Active,
		DutyCycleOn: e.dutyCycleOn,
		Now:         time.Now(),
	}
	ch, err := e.region.NextChannel(params)
	if err != nil {
		if err == band.ErrNoChannelFound {
			if dr > 0 {
				e.lastUplinkDR = dr - 1
				return e.scheduleAndSend()
			}
		}
		var dcErr band.DutyCycleRestrictedError
		if errors.As(err, &dcErr) {
			// every DR-eligible channel's band is still timed off; back off
			// for the delay the region reports and retry rather than
			// failing the send outright (spec.md §4.3).
			e.scheduler.After(dcErr.Delay, func() {
				if e.state == Send {
					e.scheduleAndSend()
				}
			})
			return nil
		}
		e.tx.Ongoing = false
		e.state = Idle
		e.sink.HandleEvent(Event{Kind: EventTxSchedulingError, Err: err})
		return err
	}

	adrACKReq := e.adr.ADRACKReq()
	cmds := e.cmds.PendingUplinkCommands()

	phy, err := BuildUplinkFrame(e.sess, e.tx, cmds, e.adr.Enabled, adrACKReq)
	if err != nil {
		e.tx.Ongoing = false
		e.state = Idle
		e.sink.HandleEvent(Event{Kind: EventTxCryptoError, Err: err})
		return err
	}
	b, err := phy.MarshalBinary()
	if err != nil {
		e.tx.Ongoing = false
		e.state = Idle
		e.sink.HandleEvent(Event{Kind: EventTxCryptoError, Err: err})
		return err
	}

	e.lastUplinkCh = ch
	return e.transmit(dr, b)
}

func (e *Engine) currentDR() int {
	return e.lastUplinkDR
}

// transmit programs the radio for one TX; lbt carrier-sense is honored
// for regions that require it before the configuration is applied.
func (e *Engine) transmit(dr int, payload []byte) error {
	e.radioDrv.Lock()
	defer e.radioDrv.Unlock()

	cfg, err := e.region.TXConfig(e.lastUplinkCh, dr, 0, len(payload))
	if err != nil {
		return errors.Wrap(err, "mac: tx config")
	}
	e.lastTOA = cfg.TimeOnAir

	threshold, window, required := e.region.CarrierSenseRequired(e.lastUplinkCh)
	if required {
		free, err := e.radioDrv.PerformCarrierSense(radio.ModemLoRa, uint32(cfg.Frequency), threshold, window)
		if err != nil {
			return errors.Wrap(err, "mac: carrier sense")
		}
		if !free {
			e.tx.Ongoing = false
			if e.state == Send {
				e.state = Idle
			}
			err := errors.New("mac: channel busy under listen-before-talk")
			e.sink.HandleEvent(Event{Kind: EventTxSchedulingError, Err: err})
			return err
		}
	}

	if err := e.radioDrv.SetChannel(uint32(cfg.Frequency)); err != nil {
		return errors.Wrap(err, "mac: set channel")
	}
	dataRate, err := e.region.GetDataRate(dr)
	if err != nil {
		return errors.Wrap(err, "mac: get data rate")
	}
	if err := e.radioDrv.SetTxConfig(radio.TxConfig{
		Modem:        radio.ModemLoRa,
		FreqHz:       uint32(cfg.Frequency),
		PowerDBm:     cfg.EffectiveDBm,
		Bandwidth:    dataRate.Bandwidth,
		SpreadFactor: dataRate.SpreadFactor,
		CRCOn:        true,
	}); err != nil {
		return errors.Wrap(err, "mac: set tx config")
	}

	return e.radioDrv.Send(payload)
}

// HandleRadioEvent implements radio.EventSink; every callback from the
// radio crosses into the engine here, synchronously, which is only safe
// because the caller (node.Queue) already serializes entry.
func (e *Engine) HandleRadioEvent(ev radio.Event) {
	switch ev.Kind {
	case radio.EventTxDone:
		e.onTxDone()
	case radio.EventTxTimeout:
		e.onTxTimeout()
	case radio.EventRxDone:
		e.onRxDone(ev)
	case radio.EventRxTimeout:
		e.onRxTimeout()
	case radio.EventRxError:
		e.sink.HandleEvent(Event{Kind: EventRxError})
	}
}

func (e *Engine) onTxDone() {
	wasJoin := e.state == Joining
	e.region.CalculateBackoff(e.lastUplinkCh, wasJoin, e.sess.Active, e.dutyCycleOn, e.lastTOA, time.Now())
	e.sink.HandleEvent(Event{Kind: EventTxDone})

	// UplinkCounter advances exactly once per logical uplink, after the
	// transmission that consumed it has actually gone out over the air —
	// never again for a confirmed message's retransmissions, which reuse
	// the same FCnt (spec.md §8 invariant 2).
	if !wasJoin && !e.fCntConsumed {
		e.sess.Counters.UplinkCounter++
		e.fCntConsumed = true
	}

	if !wasJoin {
		if action := e.adr.OnUplinkSent(); action == ADRStepDownDR && e.lastUplinkDR > 0 {
			e.lastUplinkDR--
		}
	}

	defaults := e.region.GetDefaults()
	e.state = WaitRX1
	rx1Delay := defaults.ReceiveDelay1
	if wasJoin {
		rx1Delay = defaults.JoinAcceptDelay1
	}
	e.cancelRX1 = e.scheduler.After(rx1Delay, func() { e.armRX1(wasJoin) })
	rx2Delay := defaults.ReceiveDelay1 + time.Second
	if wasJoin {
		rx2Delay = defaults.JoinAcceptDelay2
	}
	e.cancelRX2 = e.scheduler.After(rx2Delay, e.armRX2)
}

func (e *Engine) onTxTimeout() {
	e.tx.Ongoing = false
	e.state = Idle
	e.sink.HandleEvent(Event{Kind: EventTxTimeout})
}

func (e *Engine) armRX1(wasJoin bool) {
	if e.state != WaitRX1 {
		return
	}
	defaults := e.region.GetDefaults()
	dr := e.lastUplinkDR
	offset := e.rx1DROffset
	if wasJoin {
		offset = 0
	}
	cfg, err := e.region.RXConfig(e.lastUplinkCh, dr, band.RX1, offset, minRXSymbols, defaults.RXErrorMargin, defaults.WakeUpTime)
	if err != nil {
		e.log.WithError(err).Warn("mac: rx1 config failed")
		return
	}
	e.armReceiveWindow(cfg)
}

func (e *Engine) armRX2() {
	if e.state != WaitRX1 && e.state != WaitRX2 {
		return
	}
	e.state = WaitRX2
	defaults := e.region.GetDefaults()
	cfg, err := e.region.RXConfig(e.lastUplinkCh, defaults.RX2DataRate, band.RX2, 0, minRXSymbols, defaults.RXErrorMargin, defaults.WakeUpTime)
	if err != nil {
		e.log.WithError(err).Warn("mac: rx2 config failed")
		return
	}
	e.armReceiveWindow(cfg)
}

func (e *Engine) armReceiveWindow(cfg band.RXConfig) {
	e.radioDrv.Lock()
	defer e.radioDrv.Unlock()

	dataRate, err := e.region.GetDataRate(cfg.DataRate)
	if err != nil {
		e.log.WithError(err).Warn("mac: rx data rate lookup failed")
		return
	}
	if err := e.radioDrv.SetChannel(uint32(cfg.Frequency)); err != nil {
		e.log.WithError(err).Warn("mac: set rx channel failed")
		return
	}
	if err := e.radioDrv.SetRxConfig(radio.RxConfig{
		Modem:         radio.ModemLoRa,
		FreqHz:        uint32(cfg.Frequency),
		Bandwidth:     dataRate.Bandwidth,
		SpreadFactor:  dataRate.SpreadFactor,
		SymbolTimeout: cfg.WindowTimeout,
		CRCOn:         true,
	}); err != nil {
		e.log.WithError(err).Warn("mac: set rx config failed")
		return
	}
	if err := e.radioDrv.Receive(); err != nil {
		e.log.WithError(err).Warn("mac: receive arm failed")
	}
}

func (e *Engine) onRxDone(ev radio.Event) {
	var phy lorawan.PHYPayload
	if err := phy.UnmarshalBinary(ev.Data); err != nil {
		e.log.WithError(err).Debug("mac: malformed downlink dropped")
		return
	}

	if e.awaitingJoinAccept {
		e.handleJoinAccept(&phy, ev)
		return
	}

	if phy.MHDR.MType != lorawan.UnconfirmedDataDown && phy.MHDR.MType != lorawan.ConfirmedDataDown {
		return
	}

	slot := RXSlot1
	if e.state == WaitRX2 {
		slot = RXSlot2
	}

	parsed, err := ParseDownlinkFrame(e.sess, &phy, defaultMaxFCntGap)
	if err != nil {
		e.log.WithError(err).Debug("mac: downlink dropped")
		return
	}

	e.sess.Counters.DownlinkCounter = parsed.FCnt
	e.cancelPendingRXTimers()
	e.adr.OnDownlinkReceived()
	e.cmds.HandleDownlinkReceived()

	for _, c := range parsed.MACCmds {
		if err := e.cmds.Apply(c, e.DevStatusFunc); err != nil {
			e.log.WithError(err).Warn("mac: apply MAC command failed")
		}
	}

	e.tx.Ongoing = false
	e.state = Idle

	if parsed.FPort != nil {
		if !e.rx.ReceiveReady || e.rx.Port == *parsed.FPort {
			e.rx = RxMessage{ReceiveReady: true, Port: *parsed.FPort, Buffer: parsed.Payload}
		}
		e.sink.HandleEvent(Event{
			Kind:       EventRxDone,
			RxPort:     *parsed.FPort,
			RxPayload:  parsed.Payload,
			Indication: Indication{RSSI: ev.RSSI, SNR: ev.SNR, Slot: slot, FPending: parsed.FPending},
		})
	} else {
		e.sink.HandleEvent(Event{Kind: EventRxDone, Indication: Indication{RSSI: ev.RSSI, SNR: ev.SNR, Slot: slot, FPending: parsed.FPending}})
	}

	if e.cmds.LinkCheck != nil {
		e.sink.HandleLinkCheck(*e.cmds.LinkCheck)
		e.cmds.LinkCheck = nil
	}
}

func (e *Engine) handleJoinAccept(phy *lorawan.PHYPayload, ev radio.Event) {
	ja, ok := phy.MACPayload.(*lorawan.JoinAcceptPayload)
	if !ok {
		return
	}
	valid, err := phy.ValidateDownlinkJoinAcceptMIC(e.sess.OTAA.AppKey)
	if err != nil || !valid {
		e.log.Debug("mac: join-accept MIC invalid, dropped")
		return
	}

	if err := e.sess.ApplyJoinAccept(ja.DevAddr, ja.AppNonce, ja.NetID, e.lastDevNonce); err != nil {
		e.log.WithError(err).Warn("mac: derive session keys failed")
		return
	}

	e.rx1DROffset = int(ja.DLSettings.RX1DROffset)
	if ja.CFList != nil {
		var freqs [5]int
		for i, f := range ja.CFList.Frequencies {
			freqs[i] = int(f)
		}
		_ = e.region.ApplyCFList(freqs)
	}

	e.cancelPendingRXTimers()
	e.state = Joined
	e.joinTrial = 0
	e.awaitingJoinAccept = false
	// the join exchange itself ran at an alternated join DR (GetAlternateDR);
	// the first data uplink starts fresh at the region's default TX DR.
	e.lastUplinkDR = e.region.GetDefaults().DefaultTXDataRate
	e.sink.HandleEvent(Event{Kind: EventConnected})
}

func (e *Engine) onRxTimeout() {
	if e.state == WaitRX1 {
		// RX1 closed without a valid downlink; RX2 is already armed on its
		// own timer and will take over.
		return
	}
	if e.state != WaitRX2 {
		return
	}

	if e.awaitingJoinAccept {
		e.cancelPendingRXTimers()
		e.awaitingJoinAccept = false
		e.state = Init
		e.sink.HandleEvent(Event{Kind: EventJoinFailure})
		return
	}

	e.cancelPendingRXTimers()

	if e.tx.Type == Confirmed && e.nbTrialsLeft > 1 {
		e.nbTrialsLeft--
		if e.nbTrialsLeft%2 == 0 && e.lastUplinkDR > 0 {
			e.lastUplinkDR--
		}
		e.state = Send
		jitter := time.Duration(rand.Int63n(int64(2 * time.Second)))
		e.cancelAck = e.scheduler.After(jitter, func() {
			if err := e.scheduleAndSend(); err != nil {
				e.log.WithError(err).Warn("mac: confirmed retry failed")
			}
		})
		return
	}

	e.tx.Ongoing = false
	e.state = Idle
	e.sink.HandleEvent(Event{Kind: EventRxTimeout})
}

func (e *Engine) cancelPendingRXTimers() {
	if e.cancelRX1 != nil {
		e.cancelRX1()
		e.cancelRX1 = nil
	}
	if e.cancelRX2 != nil {
		e.cancelRX2()
		e.cancelRX2 = nil
	}
	if e.cancelAck != nil {
		e.cancelAck()
		e.cancelAck = nil
	}
}

// Shutdown disarms timers, returns the radio to idle, drops pending
// buffers, clears the session, and emits Disconnected (spec.md §5
// Cancellation).
func (e *Engine) Shutdown() error {
	e.cancelPendingRXTimers()
	if err := e.radioDrv.Standby(); err != nil {
		e.log.WithError(err).Warn("mac: radio standby on shutdown failed")
	}
	e.tx = TxMessage{}
	e.rx = RxMessage{}
	e.sess.Reset()
	e.state = NotInitialized
	e.sink.HandleEvent(Event{Kind: EventDisconnected})
	return nil
}
