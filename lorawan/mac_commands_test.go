package lorawan

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestChMask(t *testing.T) {
	Convey("Given a ChMask with channels 0, 1 and 15 set", t, func() {
		var cm ChMask
		cm[0] = true
		cm[1] = true
		cm[15] = true

		Convey("Then MarshalBinary returns the expected bytes", func() {
			b, err := cm.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldResemble, []byte{0x03, 0x80})
		})

		Convey("Then it round-trips through UnmarshalBinary", func() {
			b, err := cm.MarshalBinary()
			So(err, ShouldBeNil)

			var out ChMask
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, cm)
		})
	})
}

func TestLinkADRReqPayload(t *testing.T) {
	Convey("Given a LinkADRReqPayload", t, func() {
		var cm ChMask
		cm[0] = true

		p := LinkADRReqPayload{
			DataRate:   5,
			TXPower:    3,
			ChMask:     cm,
			Redundancy: Redundancy{ChMaskCntl: 0, NbRep: 2},
		}

		Convey("Then MarshalBinary returns 4 bytes", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 4)
			So(b[0], ShouldEqual, byte(3|(5<<4)))
		})

		Convey("Then it round-trips through UnmarshalBinary", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)

			var out LinkADRReqPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, p)
		})
	})
}

func TestLinkADRAnsPayload(t *testing.T) {
	Convey("Given a fully-accepted LinkADRAnsPayload", t, func() {
		p := LinkADRAnsPayload{ChannelMaskACK: true, DataRateACK: true, PowerACK: true}

		Convey("Then Accepted returns true", func() {
			So(p.Accepted(), ShouldBeTrue)
		})

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldResemble, []byte{0x07})

			var out LinkADRAnsPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, p)
		})
	})

	Convey("Given a partially-accepted LinkADRAnsPayload", t, func() {
		p := LinkADRAnsPayload{ChannelMaskACK: true}
		Convey("Then Accepted returns false", func() {
			So(p.Accepted(), ShouldBeFalse)
		})
	})
}

func TestDutyCycleReqPayload(t *testing.T) {
	Convey("Given MaxDCycle of 255 (no duty cycle limit)", t, func() {
		p := DutyCycleReqPayload{MaxDCycle: 255}
		b, err := p.MarshalBinary()
		So(err, ShouldBeNil)
		So(b, ShouldResemble, []byte{255})
	})

	Convey("Given an invalid MaxDCycle", t, func() {
		p := DutyCycleReqPayload{MaxDCycle: 100}
		_, err := p.MarshalBinary()
		So(err, ShouldNotBeNil)
	})
}

func TestRXParamSetupReqPayload(t *testing.T) {
	Convey("Given an RXParamSetupReqPayload", t, func() {
		p := RXParamSetupReqPayload{
			Frequency:  869525000,
			DLSettings: DLSettings{RX1DROffset: 1, RX2DataRate: 0},
		}

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 4)

			var out RXParamSetupReqPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, p)
		})
	})
}

func TestDevStatusAnsPayload(t *testing.T) {
	Convey("Given a DevStatusAnsPayload with a negative margin", t, func() {
		p := DevStatusAnsPayload{Battery: 100, Margin: -10}

		Convey("Then MarshalBinary encodes the margin as 64+margin", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldResemble, []byte{100, 54})
		})

		Convey("Then it round-trips through UnmarshalBinary", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)

			var out DevStatusAnsPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, p)
		})
	})

	Convey("Given a DevStatusAnsPayload with a positive margin", t, func() {
		p := DevStatusAnsPayload{Battery: 200, Margin: 20}

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)

			var out DevStatusAnsPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, p)
		})
	})
}

func TestNewChannelReqPayload(t *testing.T) {
	Convey("Given a NewChannelReqPayload", t, func() {
		p := NewChannelReqPayload{ChIndex: 3, Freq: 867100000, MaxDR: 5, MinDR: 0}

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 5)

			var out NewChannelReqPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, p)
		})
	})
}

func TestTXParamSetupReqPayload(t *testing.T) {
	Convey("Given a TXParamSetupReqPayload with MaxEIRP 16 and both dwell times set", t, func() {
		p := TXParamSetupReqPayload{
			DownlinkDwellTime: DwellTime400ms,
			UplinkDwellTime:   DwellTime400ms,
			MaxEIRP:           16,
		}

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 1)

			var out TXParamSetupReqPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, p)
		})
	})

	Convey("Given an invalid MaxEIRP value", t, func() {
		p := TXParamSetupReqPayload{MaxEIRP: 15}
		_, err := p.MarshalBinary()
		So(err, ShouldNotBeNil)
	})
}

func TestDLChannelReqPayload(t *testing.T) {
	Convey("Given a DLChannelReqPayload", t, func() {
		p := DLChannelReqPayload{ChIndex: 2, Freq: 868500000}

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := p.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 4)

			var out DLChannelReqPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, p)
		})
	})
}

func TestMACCommandEncodeDecode(t *testing.T) {
	Convey("Given a downlink LinkADRReq MACCommand", t, func() {
		var cm ChMask
		cm[0] = true

		mc := MACCommand{
			CID: LinkADRReq,
			Payload: &LinkADRReqPayload{
				DataRate:   5,
				TXPower:    3,
				ChMask:     cm,
				Redundancy: Redundancy{NbRep: 1},
			},
		}

		Convey("Then MarshalBinary prefixes the CID byte", func() {
			b, err := mc.MarshalBinary()
			So(err, ShouldBeNil)
			So(b[0], ShouldEqual, byte(LinkADRReq))
			So(b, ShouldHaveLength, 5)
		})

		Convey("Then it round-trips through UnmarshalBinary", func() {
			b, err := mc.MarshalBinary()
			So(err, ShouldBeNil)

			var out MACCommand
			So(out.UnmarshalBinary(false, b), ShouldBeNil)
			So(out.CID, ShouldEqual, LinkADRReq)
			So(out.Payload, ShouldResemble, mc.Payload)
		})
	})

	Convey("Given a zero-length downlink DevStatusReq MACCommand", t, func() {
		mc := MACCommand{CID: DevStatusReq}

		Convey("Then it round-trips with a nil Payload", func() {
			b, err := mc.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldResemble, []byte{byte(DevStatusReq)})

			var out MACCommand
			So(out.UnmarshalBinary(false, b), ShouldBeNil)
			So(out.Payload, ShouldBeNil)
		})
	})

	Convey("Given a block of two chained downlink MAC commands", t, func() {
		cmds := []MACCommand{
			{CID: DevStatusReq},
			{CID: RXTimingSetupReq, Payload: &RXTimingSetupReqPayload{Delay: 3}},
		}

		Convey("Then encodeMACCommands and decodeMACCommands round-trip", func() {
			b, err := encodeMACCommands(cmds)
			So(err, ShouldBeNil)

			out, err := decodeMACCommands(false, b)
			So(err, ShouldBeNil)
			So(out, ShouldResemble, cmds)
		})
	})
}
