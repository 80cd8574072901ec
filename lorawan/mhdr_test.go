package lorawan

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMHDR(t *testing.T) {
	Convey("Given an empty MHDR", t, func() {
		var mhdr MHDR
		Convey("Then MarshalBinary returns 0x00", func() {
			b, err := mhdr.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldResemble, []byte{0x00})
		})
	})

	Convey("Given MHDR{ConfirmedDataUp, LoRaWANR1}", t, func() {
		mhdr := MHDR{MType: ConfirmedDataUp, Major: LoRaWANR1}
		Convey("Then MarshalBinary returns the expected byte", func() {
			b, err := mhdr.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldResemble, []byte{byte(ConfirmedDataUp) << 5})
		})

		Convey("Then it round-trips through UnmarshalBinary", func() {
			b, err := mhdr.MarshalBinary()
			So(err, ShouldBeNil)

			var out MHDR
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, mhdr)
		})
	})

	Convey("Given each known MType", t, func() {
		for _, mt := range []MType{JoinRequest, JoinAccept, UnconfirmedDataUp, UnconfirmedDataDown, ConfirmedDataUp, ConfirmedDataDown, Proprietary} {
			mt := mt
			Convey(mt.String()+" round-trips", func() {
				mhdr := MHDR{MType: mt, Major: LoRaWANR1}
				b, err := mhdr.MarshalBinary()
				So(err, ShouldBeNil)

				var out MHDR
				So(out.UnmarshalBinary(b), ShouldBeNil)
				So(out.MType, ShouldEqual, mt)
			})
		}
	})

	Convey("Given UnmarshalBinary with the wrong number of bytes", t, func() {
		var mhdr MHDR
		So(mhdr.UnmarshalBinary([]byte{}), ShouldNotBeNil)
		So(mhdr.UnmarshalBinary([]byte{0x00, 0x00}), ShouldNotBeNil)
	})
}

func TestMTypeIsUplink(t *testing.T) {
	Convey("Given the uplink MTypes", t, func() {
		for _, mt := range []MType{JoinRequest, UnconfirmedDataUp, ConfirmedDataUp} {
			mt := mt
			Convey(mt.String()+" is uplink", func() {
				So(mt.IsUplink(), ShouldBeTrue)
			})
		}
	})

	Convey("Given the downlink MTypes", t, func() {
		for _, mt := range []MType{JoinAccept, UnconfirmedDataDown, ConfirmedDataDown} {
			mt := mt
			Convey(mt.String()+" is not uplink", func() {
				So(mt.IsUplink(), ShouldBeFalse)
			})
		}
	})
}
