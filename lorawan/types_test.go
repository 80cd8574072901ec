package lorawan

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDevAddr(t *testing.T) {
	Convey("Given DevAddr{91, 255, 255, 255}", t, func() {
		addr := DevAddr{91, 255, 255, 255}

		Convey("Then MarshalBinary returns the byte-reversed wire form", func() {
			b, err := addr.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldResemble, []byte{255, 255, 255, 91})
		})

		Convey("Then String returns the expected hex form", func() {
			So(addr.String(), ShouldEqual, "5bffffff")
		})

		Convey("Then it round-trips through UnmarshalBinary", func() {
			b, err := addr.MarshalBinary()
			So(err, ShouldBeNil)

			var out DevAddr
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, addr)
		})
	})

	Convey("Given UnmarshalBinary with the wrong number of bytes", t, func() {
		var addr DevAddr
		So(addr.UnmarshalBinary([]byte{1, 2, 3}), ShouldNotBeNil)
	})
}

func TestEUI64(t *testing.T) {
	Convey("Given EUI64{1,2,3,4,5,6,7,8}", t, func() {
		eui := EUI64{1, 2, 3, 4, 5, 6, 7, 8}

		Convey("Then it round-trips through Marshal/UnmarshalBinary", func() {
			b, err := eui.MarshalBinary()
			So(err, ShouldBeNil)

			var out EUI64
			So(out.UnmarshalBinary(b), ShouldBeNil)
			So(out, ShouldResemble, eui)
		})
	})
}

func TestNetID(t *testing.T) {
	Convey("Given NetID{0x20, 0x00, 0x00}", t, func() {
		n := NetID{0x20, 0x00, 0x00}
		Convey("Then Type returns 1", func() {
			So(n.Type(), ShouldEqual, 1)
		})
	})
}

func TestDevNonce(t *testing.T) {
	Convey("Given DevNonce(0x0102)", t, func() {
		dn := DevNonce(0x0102)
		Convey("Then MarshalBinary returns the little-endian wire form", func() {
			b, err := dn.MarshalBinary()
			So(err, ShouldBeNil)
			So(b, ShouldResemble, []byte{0x02, 0x01})
		})
	})
}
