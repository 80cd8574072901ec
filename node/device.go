package node

import (
	"context"

	"github.com/lora-edge/node-stack/lorawan/band"
	"github.com/lora-edge/node-stack/lorawan/sensitivity"
	"github.com/lora-edge/node-stack/mac"
	"github.com/lora-edge/node-stack/radio"
	"github.com/lora-edge/node-stack/session"
	"github.com/sirupsen/logrus"
)

// EventKind enumerates the application-facing events spec.md §4.4 lists.
type EventKind int

const (
	Connected EventKind = iota
	Disconnected
	TxDone
	TxTimeout
	TxError
	TxCryptoError
	TxSchedulingError
	RxDone
	RxTimeout
	RxError
	JoinFailure
	LinkCheck
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "Connected"
	case Disconnected:
		return "Disconnected"
	case TxDone:
		return "TxDone"
	case TxTimeout:
		return "TxTimeout"
	case TxError:
		return "TxError"
	case TxCryptoError:
		return "TxCryptoError"
	case TxSchedulingError:
		return "TxSchedulingError"
	case RxDone:
		return "RxDone"
	case RxTimeout:
		return "RxTimeout"
	case RxError:
		return "RxError"
	case JoinFailure:
		return "JoinFailure"
	case LinkCheck:
		return "LinkCheck"
	default:
		return "Unknown"
	}
}

// Event is delivered on Device.Events().
type Event struct {
	Kind       EventKind
	Err        error
	RxPort     uint8
	RxPayload  []byte
	Indication mac.Indication
	LinkCheck  mac.LinkCheckResult
}

var macEventKind = map[mac.EventKind]EventKind{
	mac.EventConnected:          Connected,
	mac.EventDisconnected:       Disconnected,
	mac.EventTxDone:             TxDone,
	mac.EventTxTimeout:          TxTimeout,
	mac.EventTxError:            TxError,
	mac.EventTxCryptoError:      TxCryptoError,
	mac.EventTxSchedulingError:  TxSchedulingError,
	mac.EventRxDone:             RxDone,
	mac.EventRxTimeout:          RxTimeout,
	mac.EventRxError:            RxError,
	mac.EventJoinFailure:        JoinFailure,
}

// Device is the application-facing stack controller: it owns the engine,
// the session, and the event channel, and serializes every call onto its
// Queue before touching MAC state.
type Device struct {
	cfg    Config
	queue  *Queue
	region band.Region
	sess   *session.Session
	engine *mac.Engine
	log    *logrus.Entry

	events         chan Event
	complianceMode bool
	initialized    bool
}

// NewDevice constructs a Device. The radio driver and session must already
// exist; NewDevice wires them to a fresh mac.Engine, so the returned
// Device is ready for Connect.
func NewDevice(cfg Config, radioDrv radio.Driver, sess *session.Session, log *logrus.Entry) (*Device, error) {
	region, err := band.Get(cfg.Region, band.Config{SubBand: cfg.SubBand, DwellTimeLimited: cfg.DwellTimeLimited})
	if err != nil {
		return nil, wrapError(Fatal, err, "node: region construction")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	d := &Device{
		cfg:    cfg,
		region: region,
		sess:   sess,
		log:    log,
		events: make(chan Event, 16),
	}
	d.queue = NewQueue(32)

	engine, err := mac.NewEngine(region, radioDrv, sess, d.queue, d, mac.Config{
		DutyCycleEnabled: cfg.DutyCycleOn,
		ADREnabled:       cfg.ADREnabled,
	}, log)
	if err != nil {
		return nil, wrapError(Fatal, err, "node: engine construction")
	}
	engine.DevStatusFunc = d.devStatus
	d.engine = engine
	d.initialized = true
	return d, nil
}

func (d *Device) devStatus() mac.DevStatus {
	if d.cfg.BatteryLevelFunc == nil {
		return mac.DevStatus{Battery: 255, Margin: 0}
	}
	b, m := d.cfg.BatteryLevelFunc()
	return mac.DevStatus{Battery: b, Margin: m}
}

// Run starts draining the Device's work queue until ctx is cancelled.
// Radio callbacks and timers are safe to post from any goroutine once
// this is running.
func (d *Device) Run(ctx context.Context) {
	d.queue.Run(ctx)
}

// Events returns the channel Device posts application-facing events to.
func (d *Device) Events() <-chan Event { return d.events }

// SetComplianceMode toggles whether port 224 passes the port validator;
// only node/compliance should ever call this.
func (d *Device) SetComplianceMode(enabled bool) { d.complianceMode = enabled }

// Connect starts an OTAA join (for an OTAA-provisioned session) or
// activates an ABP session immediately.
func (d *Device) Connect() error {
	if !d.initialized {
		return newError(NotInitialized, "node: device not initialized")
	}
	var err error
	switch d.sess.Method {
	case session.ActivationOTAA:
		err = d.engine.StartJoin()
	case session.ActivationABP:
		err = d.engine.ConnectABP()
	default:
		return newError(InvalidArgument, "node: unknown activation method")
	}
	if err != nil {
		return wrapError(Fatal, err, "node: connect")
	}
	return nil
}

// Disconnect shuts the engine down and emits Disconnected.
func (d *Device) Disconnect() error {
	if err := d.engine.Shutdown(); err != nil {
		return wrapError(Fatal, err, "node: disconnect")
	}
	return nil
}

// State reports the engine's current device state.
func (d *Device) State() mac.State { return d.engine.State() }

// Send queues port/payload for transmission. confirmed selects a
// Confirmed uplink, otherwise Unconfirmed; Send has no proprietary option.
func (d *Device) Send(port uint8, payload []byte, confirmed bool) (int, error) {
	if err := ValidatePort(port, d.complianceMode); err != nil {
		return 0, err
	}
	if !d.sess.Active {
		return 0, newError(NoNetworkJoined, "node: no active session")
	}

	maxN, err := d.maxPayloadSize()
	if err != nil {
		return 0, wrapError(Fatal, err, "node: payload cap lookup")
	}
	if d.cfg.MaxTXPayload > 0 && d.cfg.MaxTXPayload < maxN {
		maxN = d.cfg.MaxTXPayload
	}

	toSend := payload
	var pending []byte
	if len(payload) > maxN {
		toSend = payload[:maxN]
		pending = payload[maxN:]
	}

	msgType := mac.Unconfirmed
	if confirmed {
		msgType = mac.Confirmed
	}

	err = d.engine.Send(mac.TxMessage{
		Type:             msgType,
		Port:             port,
		Buffer:           toSend,
		RetriesRemaining: d.cfg.ConfirmedRetries,
		PendingBytes:     pending,
	})
	if err != nil {
		return 0, wrapError(WouldBlock, err, "node: send")
	}
	return len(toSend), nil
}

// maxPayloadSize reports the conservative DR0 payload cap. The engine
// alone tracks the data-rate the next uplink will actually use; Device
// uses this safe upper bound to decide how much of a large Send to
// accept. The rest is recorded in TxMessage.PendingBytes, which is not
// transmitted; Send returns only the number of bytes it accepted.
func (d *Device) maxPayloadSize() (int, error) {
	sizes, err := d.region.GetMaxPayloadSizeForDataRateIndex(0)
	if err != nil {
		return 0, err
	}
	return sizes.N, nil
}

// Receive copies up to len(buf) bytes of the ready RX buffer for port into
// buf, honoring PreviouslyRead for partial reads, and returns the number
// of bytes copied.
func (d *Device) Receive(port uint8, buf []byte) (int, error) {
	rx := d.engine.RxMessage()
	if !rx.ReceiveReady || rx.Port != port {
		return 0, newError(WouldBlock, "node: no RX ready for this port")
	}
	remaining := rx.Buffer[rx.PreviouslyRead:]
	n := copy(buf, remaining)
	d.engine.ConsumeRx(n)
	return n, nil
}

// AddChannel adds a custom channel to the region's plan.
func (d *Device) AddChannel(ch band.Channel) (int, error) {
	idx, err := d.region.AddChannel(ch)
	if err != nil {
		return 0, wrapError(InvalidArgument, err, "node: add channel")
	}
	return idx, nil
}

// RemoveChannel removes one channel by index.
func (d *Device) RemoveChannel(index int) error {
	if err := d.region.RemoveChannel(index); err != nil {
		return wrapError(InvalidArgument, err, "node: remove channel")
	}
	return nil
}

// GetEnabledChannels returns the currently enabled uplink channel indices.
func (d *Device) GetEnabledChannels() []int {
	return d.region.GetEnabledUplinkChannelIndices()
}

// EnableADR records the setting in the Device's Config. The engine's ADR
// state, fixed from Config.ADREnabled by NewDevice, does not change.
func (d *Device) EnableADR(enabled bool) { d.cfg.ADREnabled = enabled }

// SetConfirmedMsgRetry bounds confirmed-uplink retransmissions; per
// spec.md §4.4 this must stay below 255.
func (d *Device) SetConfirmedMsgRetry(n uint8) error {
	if n >= 255 {
		return newError(InvalidArgument, "node: confirmed retry count must be < 255")
	}
	d.cfg.ConfirmedRetries = n
	return nil
}

// SetLinkCheckRequest queues a LinkCheckReq for the next uplink.
func (d *Device) SetLinkCheckRequest() { d.engine.RequestLinkCheck() }

// EstimateLinkBudget reports the theoretical receiver sensitivity and
// link budget for dataRateIndex, given the radio's noise figure and the
// region's configured max EIRP. This is a field-diagnostic helper (site
// surveys, antenna selection) independent of anything the MAC engine
// tracks per packet.
func (d *Device) EstimateLinkBudget(dataRateIndex int, noiseFigureDB, requiredSNRDB float32) (sensitivityDBm, linkBudgetDB float32, err error) {
	dr, err := d.region.GetDataRate(dataRateIndex)
	if err != nil {
		return 0, 0, wrapError(InvalidArgument, err, "node: data rate lookup")
	}
	bandwidthHz := dr.Bandwidth * 1000
	txPower := float32(d.region.GetDefaults().MaxEIRP)

	s := sensitivity.CalculateSensitivity(bandwidthHz, noiseFigureDB, requiredSNRDB)
	lb := sensitivity.CalculateLinkBudget(bandwidthHz, noiseFigureDB, requiredSNRDB, txPower)
	return s, lb, nil
}

// HandleEvent implements mac.Sink.
func (d *Device) HandleEvent(ev mac.Event) {
	kind, ok := macEventKind[ev.Kind]
	if !ok {
		d.log.WithField("mac_event", ev.Kind).Warn("node: unmapped mac event")
		return
	}
	d.log.WithField("event", kind).Debug("node: event")
	d.events <- Event{
		Kind:       kind,
		Err:        ev.Err,
		RxPort:     ev.RxPort,
		RxPayload:  ev.RxPayload,
		Indication: ev.Indication,
	}
}

// HandleLinkCheck implements mac.Sink.
func (d *Device) HandleLinkCheck(res mac.LinkCheckResult) {
	d.events <- Event{Kind: LinkCheck, LinkCheck: res}
}
