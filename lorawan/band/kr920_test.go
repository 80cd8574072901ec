package band

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKR920LBTAndEIRPSplit(t *testing.T) {
	Convey("Given the KR920 region", t, func() {
		r := NewKR920()

		Convey("Then every channel requires LBT at -65 dBm / 6ms", func() {
			threshold, window, required := r.CarrierSenseRequired(0)
			So(required, ShouldBeTrue)
			So(threshold, ShouldEqual, -65)
			So(window.Milliseconds(), ShouldEqual, 6)
		})

		Convey("Then a channel below 922.1 MHz is capped at 10 dBm", func() {
			cfg, err := r.TXConfig(0, 0, 0, 10)
			So(err, ShouldBeNil)
			So(cfg.Frequency, ShouldEqual, 921900000)
			So(cfg.EffectiveDBm, ShouldBeLessThanOrEqualTo, 10)
		})

		Convey("Then a channel at or above 922.1 MHz is capped at 14 dBm", func() {
			cfg, err := r.TXConfig(1, 0, 0, 10)
			So(err, ShouldBeNil)
			So(cfg.Frequency, ShouldEqual, 922100000)
			So(cfg.EffectiveDBm, ShouldBeLessThanOrEqualTo, 14)
		})
	})
}

// defaultTXPowerOffsets is a tiny test helper exposing the number of
// TX-power ladder steps without reaching into the unexported base struct
// from outside the package.
func defaultTXPowerOffsets(r Region) []int {
	var out []int
	for i := 0; ; i++ {
		off, err := r.GetTXPowerOffset(i)
		if err != nil {
			break
		}
		out = append(out, off)
	}
	return out
}
