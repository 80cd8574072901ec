package lorawan

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// CID defines the MAC command identifier.
type CID byte

// MAC command CIDs defined by LoRaWAN 1.0.2. Req and Ans share the same
// value; which one applies depends on the frame direction.
const (
	LinkCheckReq    CID = 0x02
	LinkCheckAns    CID = 0x02
	LinkADRReq      CID = 0x03
	LinkADRAns      CID = 0x03
	DutyCycleReq    CID = 0x04
	DutyCycleAns    CID = 0x04
	RXParamSetupReq CID = 0x05
	RXParamSetupAns CID = 0x05
	DevStatusReq    CID = 0x06
	DevStatusAns    CID = 0x06
	NewChannelReq   CID = 0x07
	NewChannelAns   CID = 0x07
	RXTimingSetupReq CID = 0x08
	RXTimingSetupAns CID = 0x08
	TXParamSetupReq  CID = 0x09
	TXParamSetupAns  CID = 0x09
	DLChannelReq     CID = 0x0A
	DLChannelAns     CID = 0x0A
)

func (c CID) String() string {
	switch c {
	case LinkCheckReq:
		return "LinkCheckReq/Ans"
	case LinkADRReq:
		return "LinkADRReq/Ans"
	case DutyCycleReq:
		return "DutyCycleReq/Ans"
	case RXParamSetupReq:
		return "RXParamSetupReq/Ans"
	case DevStatusReq:
		return "DevStatusReq/Ans"
	case NewChannelReq:
		return "NewChannelReq/Ans"
	case RXTimingSetupReq:
		return "RXTimingSetupReq/Ans"
	case TXParamSetupReq:
		return "TXParamSetupReq/Ans"
	case DLChannelReq:
		return "DLChannelReq/Ans"
	default:
		return fmt.Sprintf("CID(%#x)", byte(c))
	}
}

// MACCommandPayload is the interface implemented by every MAC-command
// payload.
type MACCommandPayload interface {
	Payload
	Size() int
}

// MACCommand couples a CID with its (possibly nil, for zero-length
// commands) payload.
type MACCommand struct {
	CID     CID
	Payload MACCommandPayload
}

// MarshalBinary marshals the object in binary form.
func (m MACCommand) MarshalBinary() ([]byte, error) {
	out := []byte{byte(m.CID)}
	if m.Payload != nil {
		b, err := m.Payload.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// UnmarshalBinary decodes the object from binary form. uplink indicates the
// direction the command travels (an uplink Ans vs a downlink Req share a
// CID but not always a payload shape).
func (m *MACCommand) UnmarshalBinary(uplink bool, data []byte) error {
	if len(data) == 0 {
		return errors.New("lorawan: at least 1 byte of data is expected")
	}
	m.CID = CID(data[0])

	pl, size, err := getMACPayloadAndSize(uplink, m.CID)
	if err != nil {
		return err
	}
	if size == 0 {
		m.Payload = nil
		return nil
	}
	if len(data) < 1+size {
		return fmt.Errorf("lorawan: %d bytes of data are expected for %s", size, m.CID)
	}
	if err := pl.UnmarshalBinary(data[1 : 1+size]); err != nil {
		return err
	}
	m.Payload = pl
	return nil
}

type macPayloadInfo struct {
	size    int
	factory func() MACCommandPayload
}

// macPayloadRegistry maps direction (uplink bool) -> CID -> constructor,
// mirroring the wire-size table from the LoRaWAN 1.0.2 MAC-command spec.
var macPayloadRegistry = map[bool]map[CID]macPayloadInfo{
	// downlink (network -> device): Req commands
	false: {
		LinkCheckAns:     {2, func() MACCommandPayload { return &LinkCheckAnsPayload{} }},
		LinkADRReq:       {4, func() MACCommandPayload { return &LinkADRReqPayload{} }},
		DutyCycleReq:     {1, func() MACCommandPayload { return &DutyCycleReqPayload{} }},
		RXParamSetupReq:  {4, func() MACCommandPayload { return &RXParamSetupReqPayload{} }},
		NewChannelReq:    {5, func() MACCommandPayload { return &NewChannelReqPayload{} }},
		RXTimingSetupReq: {1, func() MACCommandPayload { return &RXTimingSetupReqPayload{} }},
		TXParamSetupReq:  {1, func() MACCommandPayload { return &TXParamSetupReqPayload{} }},
		DLChannelReq:     {4, func() MACCommandPayload { return &DLChannelReqPayload{} }},
		DevStatusReq:     {0, nil},
	},
	// uplink (device -> network): Ans commands
	true: {
		LinkADRAns:       {1, func() MACCommandPayload { return &LinkADRAnsPayload{} }},
		RXParamSetupAns:  {1, func() MACCommandPayload { return &RXParamSetupAnsPayload{} }},
		DevStatusAns:     {2, func() MACCommandPayload { return &DevStatusAnsPayload{} }},
		NewChannelAns:    {1, func() MACCommandPayload { return &NewChannelAnsPayload{} }},
		DLChannelAns:     {1, func() MACCommandPayload { return &DLChannelAnsPayload{} }},
		TXParamSetupAns:  {0, nil},
		RXTimingSetupAns: {0, nil},
		DutyCycleAns:     {0, nil},
		LinkCheckReq:     {0, nil},
	},
}

func getMACPayloadAndSize(uplink bool, c CID) (MACCommandPayload, int, error) {
	v, ok := macPayloadRegistry[uplink][c]
	if !ok {
		return nil, 0, fmt.Errorf("lorawan: unknown MAC command CID %s for uplink=%v", c, uplink)
	}
	if v.factory == nil {
		return nil, 0, nil
	}
	return v.factory(), v.size, nil
}

// DwellTime defines the dwell-time limit type used by TXParamSetupReq.
type DwellTime int

// Possible dwell-time options.
const (
	DwellTimeNoLimit DwellTime = iota
	DwellTime400ms
)

var eirpTable = [16]uint8{8, 10, 12, 13, 14, 16, 18, 20, 21, 24, 26, 27, 29, 30, 33, 36}

// LinkCheckAnsPayload represents the LinkCheckAns payload.
type LinkCheckAnsPayload struct {
	Margin uint8
	GwCnt  uint8
}

func (p LinkCheckAnsPayload) Size() int { return 2 }

func (p LinkCheckAnsPayload) MarshalBinary() ([]byte, error) {
	return []byte{p.Margin, p.GwCnt}, nil
}

func (p *LinkCheckAnsPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 2 {
		return errors.New("lorawan: 2 bytes of data are expected")
	}
	p.Margin, p.GwCnt = data[0], data[1]
	return nil
}

// ChMask encodes 16 consecutive channels usable for uplink; bit i
// corresponds to channel index base+i.
type ChMask [16]bool

func (m ChMask) MarshalBinary() ([]byte, error) {
	b := make([]byte, 2)
	for i := uint8(0); i < 16; i++ {
		if m[i] {
			b[i/8] |= 1 << (i % 8)
		}
	}
	return b, nil
}

func (m *ChMask) UnmarshalBinary(data []byte) error {
	if len(data) != 2 {
		return errors.New("lorawan: 2 bytes of data are expected")
	}
	for i, b := range data {
		for j := uint8(0); j < 8; j++ {
			if b&(1<<j) > 0 {
				m[uint8(i)*8+j] = true
			}
		}
	}
	return nil
}

// Redundancy represents the ChMaskCntl / NbRep redundancy field of
// LinkADRReq.
type Redundancy struct {
	ChMaskCntl uint8
	NbRep      uint8
}

func (r Redundancy) MarshalBinary() ([]byte, error) {
	if r.NbRep > 15 {
		return nil, errors.New("lorawan: max value of NbRep is 15")
	}
	if r.ChMaskCntl > 7 {
		return nil, errors.New("lorawan: max value of ChMaskCntl is 7")
	}
	return []byte{r.NbRep | (r.ChMaskCntl << 4)}, nil
}

func (r *Redundancy) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return errors.New("lorawan: 1 byte of data is expected")
	}
	r.NbRep = data[0] & 0x0f
	r.ChMaskCntl = (data[0] & 0x70) >> 4
	return nil
}

// LinkADRReqPayload represents the LinkADRReq payload.
type LinkADRReqPayload struct {
	DataRate   uint8
	TXPower    uint8
	ChMask     ChMask
	Redundancy Redundancy
}

func (p LinkADRReqPayload) Size() int { return 4 }

func (p LinkADRReqPayload) MarshalBinary() ([]byte, error) {
	if p.DataRate > 15 {
		return nil, errors.New("lorawan: max value of DataRate is 15")
	}
	if p.TXPower > 15 {
		return nil, errors.New("lorawan: max value of TXPower is 15")
	}
	cm, err := p.ChMask.MarshalBinary()
	if err != nil {
		return nil, err
	}
	r, err := p.Redundancy.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := []byte{p.TXPower | (p.DataRate << 4)}
	out = append(out, cm...)
	out = append(out, r...)
	return out, nil
}

func (p *LinkADRReqPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 4 {
		return errors.New("lorawan: 4 bytes of data are expected")
	}
	p.DataRate = (data[0] & 0xf0) >> 4
	p.TXPower = data[0] & 0x0f
	if err := p.ChMask.UnmarshalBinary(data[1:3]); err != nil {
		return err
	}
	return p.Redundancy.UnmarshalBinary(data[3:4])
}

// LinkADRAnsPayload represents the LinkADRAns payload.
type LinkADRAnsPayload struct {
	ChannelMaskACK bool
	DataRateACK    bool
	PowerACK       bool
}

func (p LinkADRAnsPayload) Size() int { return 1 }

func (p LinkADRAnsPayload) MarshalBinary() ([]byte, error) {
	var b byte
	if p.ChannelMaskACK {
		b |= 1 << 0
	}
	if p.DataRateACK {
		b |= 1 << 1
	}
	if p.PowerACK {
		b |= 1 << 2
	}
	return []byte{b}, nil
}

func (p *LinkADRAnsPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return errors.New("lorawan: 1 byte of data is expected")
	}
	p.ChannelMaskACK = data[0]&(1<<0) > 0
	p.DataRateACK = data[0]&(1<<1) > 0
	p.PowerACK = data[0]&(1<<2) > 0
	return nil
}

// Accepted reports whether all three LinkADRAns bits are set (the only case
// in which the request is considered accepted).
func (p LinkADRAnsPayload) Accepted() bool {
	return p.ChannelMaskACK && p.DataRateACK && p.PowerACK
}

// DutyCycleReqPayload represents the DutyCycleReq payload.
type DutyCycleReqPayload struct {
	MaxDCycle uint8
}

func (p DutyCycleReqPayload) Size() int { return 1 }

func (p DutyCycleReqPayload) MarshalBinary() ([]byte, error) {
	if p.MaxDCycle > 15 && p.MaxDCycle != 255 {
		return nil, errors.New("lorawan: only 0-15 and 255 are allowed for MaxDCycle")
	}
	return []byte{p.MaxDCycle}, nil
}

func (p *DutyCycleReqPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return errors.New("lorawan: 1 byte of data is expected")
	}
	p.MaxDCycle = data[0]
	return nil
}

// RXParamSetupReqPayload represents the RXParamSetupReq payload.
type RXParamSetupReqPayload struct {
	Frequency  uint32 // Hz
	DLSettings DLSettings
}

func (p RXParamSetupReqPayload) Size() int { return 4 }

func (p RXParamSetupReqPayload) MarshalBinary() ([]byte, error) {
	if p.Frequency%100 != 0 || p.Frequency/100 >= 1<<24 {
		return nil, errors.New("lorawan: Frequency must be a multiple of 100 Hz and fit in 24 bits")
	}
	ds, err := p.DLSettings.MarshalBinary()
	if err != nil {
		return nil, err
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, p.Frequency/100)
	b[3] = ds[0]
	return b, nil
}

func (p *RXParamSetupReqPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 4 {
		return errors.New("lorawan: 4 bytes of data are expected")
	}
	freqBytes := append(append([]byte{}, data[0:3]...), 0)
	p.Frequency = binary.LittleEndian.Uint32(freqBytes) * 100
	return p.DLSettings.UnmarshalBinary(data[3:4])
}

// RXParamSetupAnsPayload represents the RXParamSetupAns payload.
type RXParamSetupAnsPayload struct {
	ChannelACK     bool
	RX2DataRateACK bool
	RX1DROffsetACK bool
}

func (p RXParamSetupAnsPayload) Size() int { return 1 }

func (p RXParamSetupAnsPayload) MarshalBinary() ([]byte, error) {
	var b byte
	if p.ChannelACK {
		b |= 1 << 0
	}
	if p.RX2DataRateACK {
		b |= 1 << 1
	}
	if p.RX1DROffsetACK {
		b |= 1 << 2
	}
	return []byte{b}, nil
}

func (p *RXParamSetupAnsPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return errors.New("lorawan: 1 byte of data is expected")
	}
	p.ChannelACK = data[0]&(1<<0) > 0
	p.RX2DataRateACK = data[0]&(1<<1) > 0
	p.RX1DROffsetACK = data[0]&(1<<2) > 0
	return nil
}

// Accepted reports whether the network should consider the setup applied.
func (p RXParamSetupAnsPayload) Accepted() bool {
	return p.ChannelACK && p.RX2DataRateACK && p.RX1DROffsetACK
}

// DevStatusAnsPayload represents the DevStatusAns payload.
type DevStatusAnsPayload struct {
	Battery uint8 // 0 = external power, 1-254 = level, 255 = unable to measure
	Margin  int8  // -32..31 dB
}

func (p DevStatusAnsPayload) Size() int { return 2 }

func (p DevStatusAnsPayload) MarshalBinary() ([]byte, error) {
	if p.Margin < -32 || p.Margin > 31 {
		return nil, errors.New("lorawan: Margin must be in [-32, 31]")
	}
	m := p.Margin
	if m < 0 {
		return []byte{p.Battery, uint8(64 + m)}, nil
	}
	return []byte{p.Battery, uint8(m)}, nil
}

func (p *DevStatusAnsPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 2 {
		return errors.New("lorawan: 2 bytes of data are expected")
	}
	p.Battery = data[0]
	if data[1] > 31 {
		p.Margin = int8(data[1]) - 64
	} else {
		p.Margin = int8(data[1])
	}
	return nil
}

// NewChannelReqPayload represents the NewChannelReq payload.
type NewChannelReqPayload struct {
	ChIndex uint8
	Freq    uint32 // Hz
	MaxDR   uint8
	MinDR   uint8
}

func (p NewChannelReqPayload) Size() int { return 5 }

func (p NewChannelReqPayload) MarshalBinary() ([]byte, error) {
	if p.Freq%100 != 0 || p.Freq/100 >= 1<<24 {
		return nil, errors.New("lorawan: Freq must be a multiple of 100 Hz and fit in 24 bits")
	}
	if p.MaxDR > 15 || p.MinDR > 15 {
		return nil, errors.New("lorawan: max value of MinDR/MaxDR is 15")
	}
	b := make([]byte, 5)
	b[0] = p.ChIndex
	binary.LittleEndian.PutUint32(b[1:5], p.Freq/100)
	b[4] = p.MinDR | (p.MaxDR << 4)
	return b, nil
}

func (p *NewChannelReqPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 5 {
		return errors.New("lorawan: 5 bytes of data are expected")
	}
	p.ChIndex = data[0]
	p.MinDR = data[4] & 0x0f
	p.MaxDR = (data[4] & 0xf0) >> 4
	freqBytes := append(append([]byte{}, data[1:4]...), 0)
	p.Freq = binary.LittleEndian.Uint32(freqBytes) * 100
	return nil
}

// NewChannelAnsPayload represents the NewChannelAns payload.
type NewChannelAnsPayload struct {
	ChannelFrequencyOK bool
	DataRateRangeOK    bool
}

func (p NewChannelAnsPayload) Size() int { return 1 }

func (p NewChannelAnsPayload) MarshalBinary() ([]byte, error) {
	var b byte
	if p.ChannelFrequencyOK {
		b |= 1 << 0
	}
	if p.DataRateRangeOK {
		b |= 1 << 1
	}
	return []byte{b}, nil
}

func (p *NewChannelAnsPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return errors.New("lorawan: 1 byte of data is expected")
	}
	p.ChannelFrequencyOK = data[0]&(1<<0) > 0
	p.DataRateRangeOK = data[0]&(1<<1) > 0
	return nil
}

// RXTimingSetupReqPayload represents the RXTimingSetupReq payload.
type RXTimingSetupReqPayload struct {
	Delay uint8 // 0 and 1 both mean 1s; 2..15 mean that many seconds
}

func (p RXTimingSetupReqPayload) Size() int { return 1 }

func (p RXTimingSetupReqPayload) MarshalBinary() ([]byte, error) {
	if p.Delay > 15 {
		return nil, errors.New("lorawan: max value of Delay is 15")
	}
	return []byte{p.Delay}, nil
}

func (p *RXTimingSetupReqPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return errors.New("lorawan: 1 byte of data is expected")
	}
	p.Delay = data[0]
	return nil
}

// TXParamSetupReqPayload represents the TXParamSetupReq payload.
type TXParamSetupReqPayload struct {
	DownlinkDwellTime DwellTime
	UplinkDwellTime   DwellTime
	MaxEIRP           uint8 // dBm, one of the eirpTable values (MarshalBinary rejects any other)
}

func (p TXParamSetupReqPayload) Size() int { return 1 }

func (p TXParamSetupReqPayload) MarshalBinary() ([]byte, error) {
	var idx int = -1
	for i, v := range eirpTable {
		if v == p.MaxEIRP {
			idx = i
		}
	}
	if idx < 0 {
		return nil, errors.New("lorawan: invalid MaxEIRP value")
	}
	b := uint8(idx)
	if p.UplinkDwellTime == DwellTime400ms {
		b |= 1 << 4
	}
	if p.DownlinkDwellTime == DwellTime400ms {
		b |= 1 << 5
	}
	return []byte{b}, nil
}

func (p *TXParamSetupReqPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return errors.New("lorawan: 1 byte of data is expected")
	}
	if data[0]&(1<<4) > 0 {
		p.UplinkDwellTime = DwellTime400ms
	}
	if data[0]&(1<<5) > 0 {
		p.DownlinkDwellTime = DwellTime400ms
	}
	p.MaxEIRP = eirpTable[data[0]&0x0f]
	return nil
}

// DLChannelReqPayload represents the DLChannelReq payload.
type DLChannelReqPayload struct {
	ChIndex uint8
	Freq    uint32 // Hz
}

func (p DLChannelReqPayload) Size() int { return 4 }

func (p DLChannelReqPayload) MarshalBinary() ([]byte, error) {
	if p.Freq%100 != 0 || p.Freq/100 >= 1<<24 {
		return nil, errors.New("lorawan: Freq must be a multiple of 100 Hz and fit in 24 bits")
	}
	b := make([]byte, 4)
	b[0] = p.ChIndex
	freq := make([]byte, 4)
	binary.LittleEndian.PutUint32(freq, p.Freq/100)
	copy(b[1:4], freq[0:3])
	return b, nil
}

func (p *DLChannelReqPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 4 {
		return errors.New("lorawan: 4 bytes of data are expected")
	}
	p.ChIndex = data[0]
	freqBytes := append(append([]byte{}, data[1:4]...), 0)
	p.Freq = binary.LittleEndian.Uint32(freqBytes) * 100
	return nil
}

// DLChannelAnsPayload represents the DLChannelAns payload.
type DLChannelAnsPayload struct {
	UplinkFrequencyExists bool
	ChannelFrequencyOK    bool
}

func (p DLChannelAnsPayload) Size() int { return 1 }

func (p DLChannelAnsPayload) MarshalBinary() ([]byte, error) {
	var b byte
	if p.ChannelFrequencyOK {
		b |= 1
	}
	if p.UplinkFrequencyExists {
		b |= 1 << 1
	}
	return []byte{b}, nil
}

func (p *DLChannelAnsPayload) UnmarshalBinary(data []byte) error {
	if len(data) != 1 {
		return errors.New("lorawan: 1 byte of data is expected")
	}
	p.ChannelFrequencyOK = data[0]&1 > 0
	p.UplinkFrequencyExists = data[0]&(1<<1) > 0
	return nil
}

// DecodeMACCommands decodes a contiguous block of bytes (FOpts, or
// FRMPayload on FPort 0) into a slice of MACCommand.
func DecodeMACCommands(uplink bool, data []byte) ([]MACCommand, error) {
	return decodeMACCommands(uplink, data)
}

// decodeMACCommands decodes a contiguous block of bytes (FOpts, or
// FRMPayload on FPort 0) into a slice of MACCommand.
func decodeMACCommands(uplink bool, data []byte) ([]MACCommand, error) {
	var out []MACCommand
	for len(data) > 0 {
		var mc MACCommand
		if err := mc.UnmarshalBinary(uplink, data); err != nil {
			return nil, err
		}
		out = append(out, mc)

		consumed := 1
		if mc.Payload != nil {
			consumed += mc.Payload.Size()
		}
		if consumed > len(data) {
			return nil, errors.New("lorawan: malformed MAC command block")
		}
		data = data[consumed:]
	}
	return out, nil
}

// EncodeMACCommands encodes a slice of MACCommand into a contiguous block
// of bytes.
func EncodeMACCommands(cmds []MACCommand) ([]byte, error) {
	return encodeMACCommands(cmds)
}

// encodeMACCommands encodes a slice of MACCommand into a contiguous block
// of bytes.
func encodeMACCommands(cmds []MACCommand) ([]byte, error) {
	var out []byte
	for _, c := range cmds {
		b, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}
