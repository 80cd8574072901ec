package lorawan

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPHYPayloadJoinRequest(t *testing.T) {
	Convey("Given a join-request PHYPayload", t, func() {
		appKey := AES128Key{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

		phy := PHYPayload{
			MHDR: MHDR{MType: JoinRequest, Major: LoRaWANR1},
			MACPayload: &JoinRequestPayload{
				AppEUI:   EUI64{1, 2, 3, 4, 5, 6, 7, 8},
				DevEUI:   EUI64{8, 7, 6, 5, 4, 3, 2, 1},
				DevNonce: DevNonce(42),
			},
		}
		So(phy.SetUplinkJoinMIC(appKey), ShouldBeNil)

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := phy.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 1+18+4)

			var out PHYPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out.MHDR, ShouldResemble, phy.MHDR)
			So(out.MIC, ShouldResemble, phy.MIC)
			So(out.MACPayload, ShouldResemble, phy.MACPayload)
		})

		Convey("Then ValidateUplinkJoinMIC reports true for the right key", func() {
			ok, err := phy.ValidateUplinkJoinMIC(appKey)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})

		Convey("Then ValidateUplinkJoinMIC reports false for the wrong key", func() {
			wrongKey := AES128Key{}
			ok, err := phy.ValidateUplinkJoinMIC(wrongKey)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestPHYPayloadJoinAccept(t *testing.T) {
	Convey("Given a join-accept PHYPayload", t, func() {
		appKey := AES128Key{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

		phy := PHYPayload{
			MHDR: MHDR{MType: JoinAccept, Major: LoRaWANR1},
			MACPayload: &JoinAcceptPayload{
				AppNonce:   AppNonce{1, 2, 3},
				NetID:      NetID{4, 5, 6},
				DevAddr:    DevAddr{1, 2, 3, 4},
				DLSettings: DLSettings{RX1DROffset: 0, RX2DataRate: 0},
				RXDelay:    1,
			},
		}
		So(phy.SetDownlinkJoinAcceptMIC(appKey), ShouldBeNil)

		Convey("Then ValidateDownlinkJoinAcceptMIC reports true for the right key", func() {
			ok, err := phy.ValidateDownlinkJoinAcceptMIC(appKey)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := phy.MarshalBinary()
			So(err, ShouldBeNil)

			var out PHYPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out.MACPayload, ShouldResemble, phy.MACPayload)
		})
	})
}

func TestPHYPayloadDataFrame(t *testing.T) {
	Convey("Given an unconfirmed uplink data PHYPayload", t, func() {
		nwkSKey := AES128Key{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
		addr := DevAddr{1, 2, 3, 4}
		port := uint8(1)

		fc, err := NewFCtrl(false, false, false, false, 0)
		So(err, ShouldBeNil)

		phy := PHYPayload{
			MHDR: MHDR{MType: UnconfirmedDataUp, Major: LoRaWANR1},
			MACPayload: &MACPayload{
				FHDR:       FHDR{DevAddr: addr, FCtrl: fc, FCnt: 3},
				FPort:      &port,
				FRMPayload: []Payload{&DataPayload{Bytes: []byte{0x01, 0x02, 0x03}}},
			},
		}
		So(phy.SetUplinkDataMIC(nwkSKey, addr, 3), ShouldBeNil)

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := phy.MarshalBinary()
			So(err, ShouldBeNil)

			var out PHYPayload
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out.MIC, ShouldResemble, phy.MIC)

			mp, ok := out.MACPayload.(*MACPayload)
			So(ok, ShouldBeTrue)
			So(*mp.FPort, ShouldEqual, port)
		})
	})
}

func TestEncodeDecodeMACCommandsToFOpts(t *testing.T) {
	Convey("Given two MAC commands to piggy-back as FOpts", t, func() {
		fc, err := NewFCtrl(false, false, false, false, 0)
		So(err, ShouldBeNil)
		fhdr := FHDR{DevAddr: DevAddr{1, 2, 3, 4}, FCtrl: fc, FCnt: 1}

		cmds := []MACCommand{
			{CID: DevStatusReq},
			{CID: RXTimingSetupReq, Payload: &RXTimingSetupReqPayload{Delay: 2}},
		}

		Convey("Then EncodeMACCommandsToFOpts sets FOptsLen and FOpts", func() {
			So(EncodeMACCommandsToFOpts(&fhdr, cmds), ShouldBeNil)
			So(fhdr.FCtrl.FOptsLen(), ShouldEqual, 4)
			So(fhdr.FOpts, ShouldHaveLength, 1)
		})

		Convey("Then DecodeFOptsToMACCommands recovers the original commands", func() {
			So(EncodeMACCommandsToFOpts(&fhdr, cmds), ShouldBeNil)
			So(DecodeFOptsToMACCommands(&fhdr, false), ShouldBeNil)
			So(fhdr.FOpts, ShouldHaveLength, 2)

			w0 := fhdr.FOpts[0].(macCommandPayloadWrapper)
			So(w0.CID, ShouldEqual, DevStatusReq)
		})
	})
}
