package lorawan

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFCtrl(t *testing.T) {
	Convey("Given NewFCtrl(true, false, true, false, 3)", t, func() {
		fc, err := NewFCtrl(true, false, true, false, 3)
		So(err, ShouldBeNil)

		Convey("Then the accessors report the expected bits", func() {
			So(fc.ADR(), ShouldBeTrue)
			So(fc.ADRACKReq(), ShouldBeFalse)
			So(fc.ACK(), ShouldBeTrue)
			So(fc.FPending(), ShouldBeFalse)
			So(fc.FOptsLen(), ShouldEqual, 3)
		})
	})

	Convey("Given NewFCtrl with fOptsLen > 15", t, func() {
		_, err := NewFCtrl(false, false, false, false, 16)
		Convey("Then an error is returned", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFHDR(t *testing.T) {
	Convey("Given an FHDR with no FOpts", t, func() {
		fc, err := NewFCtrl(true, false, false, false, 0)
		So(err, ShouldBeNil)

		fhdr := FHDR{
			DevAddr: DevAddr{1, 2, 3, 4},
			FCtrl:   fc,
			FCnt:    1024,
		}

		Convey("Then MarshalBinary returns 7 bytes", func() {
			b, err := fhdr.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 7)
		})

		Convey("Then it round-trips through UnmarshalBinary", func() {
			b, err := fhdr.MarshalBinary()
			So(err, ShouldBeNil)

			var out FHDR
			So(out.UnmarshalBinary(true, b), ShouldBeNil)
			So(out.DevAddr, ShouldResemble, fhdr.DevAddr)
			So(out.FCnt, ShouldEqual, fhdr.FCnt)
			So(out.FCtrl, ShouldEqual, fhdr.FCtrl)
		})
	})

	Convey("Given an FHDR carrying 3 bytes of FOpts", t, func() {
		fc, err := NewFCtrl(false, false, false, false, 3)
		So(err, ShouldBeNil)

		fhdr := FHDR{
			DevAddr: DevAddr{1, 2, 3, 4},
			FCtrl:   fc,
			FCnt:    7,
			FOpts:   []Payload{&DataPayload{Bytes: []byte{0x02, 0x00, 0x00}}},
		}

		Convey("Then MarshalBinary appends the FOpts bytes", func() {
			b, err := fhdr.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldHaveLength, 10)
			So(b[7:], ShouldResemble, []byte{0x02, 0x00, 0x00})
		})

		Convey("Then UnmarshalBinary leaves FOpts as a single opaque DataPayload", func() {
			b, err := fhdr.MarshalBinary()
			So(err, ShouldBeNil)

			var out FHDR
			So(out.UnmarshalBinary(true, b), ShouldBeNil)
			So(out.FOpts, ShouldHaveLength, 1)

			dp, ok := out.FOpts[0].(*DataPayload)
			So(ok, ShouldBeTrue)
			So(dp.Bytes, ShouldResemble, []byte{0x02, 0x00, 0x00})
		})
	})

	Convey("Given UnmarshalBinary with FOpts declaring more bytes than available", t, func() {
		fc, err := NewFCtrl(false, false, false, false, 5)
		So(err, ShouldBeNil)
		data := []byte{1, 2, 3, 4, byte(fc), 0, 0}

		var fhdr FHDR
		Convey("Then an error is returned", func() {
			So(fhdr.UnmarshalBinary(true, data), ShouldNotBeNil)
		})
	})
}
