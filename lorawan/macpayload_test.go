package lorawan

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMACPayload(t *testing.T) {
	Convey("Given a MACPayload with an FPort and FRMPayload", t, func() {
		fc, err := NewFCtrl(false, false, false, false, 0)
		So(err, ShouldBeNil)
		port := uint8(10)

		mp := MACPayload{
			FHDR: FHDR{
				DevAddr: DevAddr{1, 2, 3, 4},
				FCtrl:   fc,
				FCnt:    5,
			},
			FPort:      &port,
			FRMPayload: []Payload{&DataPayload{Bytes: []byte{0xaa, 0xbb, 0xcc}}},
		}

		Convey("Then MarshalBinary appends FPort and FRMPayload after the FHDR", func() {
			b, err := mp.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 7+1+3)
			So(b[7], ShouldEqual, port)
			So(b[8:], ShouldResemble, []byte{0xaa, 0xbb, 0xcc})
		})

		Convey("Then it round-trips through UnmarshalBinary", func() {
			b, err := mp.MarshalBinary()
			So(err, ShouldBeNil)

			var out MACPayload
			So(out.UnmarshalBinary(true, b), ShouldBeNil)
			So(*out.FPort, ShouldEqual, port)
			So(out.FRMPayload, ShouldHaveLength, 1)

			dp := out.FRMPayload[0].(*DataPayload)
			So(dp.Bytes, ShouldResemble, []byte{0xaa, 0xbb, 0xcc})
		})
	})

	Convey("Given a MACPayload with no FPort and no FRMPayload", t, func() {
		fc, err := NewFCtrl(false, false, false, false, 0)
		So(err, ShouldBeNil)

		mp := MACPayload{
			FHDR: FHDR{DevAddr: DevAddr{1, 2, 3, 4}, FCtrl: fc, FCnt: 0},
		}

		Convey("Then it round-trips with nil FPort", func() {
			b, err := mp.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 7)

			var out MACPayload
			So(out.UnmarshalBinary(true, b), ShouldBeNil)
			So(out.FPort, ShouldBeNil)
			So(out.FRMPayload, ShouldBeNil)
		})
	})
}
