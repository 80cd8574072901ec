package band

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAU915Channels(t *testing.T) {
	Convey("Given the AU915 region", t, func() {
		r := NewAU915()

		Convey("Then it has 64 125kHz uplink channels and 8 500kHz uplink channels", func() {
			So(r.GetEnabledUplinkChannelIndices(), ShouldHaveLength, 72)
		})

		Convey("Then the uplink DR ceiling is DR6", func() {
			_, err := r.GetDataRate(6)
			So(err, ShouldBeNil)
			_, err = r.GetDataRate(7)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestUS915HybridSubBand(t *testing.T) {
	Convey("Given a US915 Hybrid region configured for sub-band 1", t, func() {
		r := NewUS915Hybrid(1)

		Convey("Then only the 8 125kHz channels of that sub-band and its paired 500kHz channel are enabled", func() {
			enabled := r.GetEnabledUplinkChannelIndices()
			So(enabled, ShouldHaveLength, 9)
		})
	})
}
