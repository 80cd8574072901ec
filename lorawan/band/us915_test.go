package band

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestUS915Channels(t *testing.T) {
	Convey("Given the US915 region", t, func() {
		r := NewUS915()

		Convey("Then it has 64 125kHz uplink channels and 8 500kHz uplink channels", func() {
			So(r.GetEnabledUplinkChannelIndices(), ShouldHaveLength, 72)
		})

		Convey("Then GetAlternateDR alternates between DR0 and DR4 across join trials", func() {
			dr0, err := r.GetAlternateDR(0)
			So(err, ShouldBeNil)
			So(dr0, ShouldEqual, 0)

			dr1, err := r.GetAlternateDR(1)
			So(err, ShouldBeNil)
			So(dr1, ShouldEqual, 4)
		})
	})
}

func TestUS915RX1ChannelMapping(t *testing.T) {
	Convey("Given the US915 region", t, func() {
		r := NewUS915()

		Convey("Then RX1 for uplink channel 9 maps to downlink channel 9 mod 8 = 1", func() {
			cfg, err := r.RXConfig(9, 0, RX1, 0, 8, 20*time.Millisecond, 3*time.Millisecond)
			So(err, ShouldBeNil)
			So(cfg.Frequency, ShouldEqual, 923300000+1*600000)
		})
	})
}

func TestUS915LinkADRRequestGridMasks(t *testing.T) {
	Convey("Given the US915 region", t, func() {
		r := NewUS915()

		Convey("Given a ChMaskCntl=6 request (enable all 125kHz, disable all 500kHz)", func() {
			req := LinkADRReq{DataRate: 0, TXPower: 0, ChMaskCntl: 6, NbRep: 1}
			res, err := r.LinkADRRequest([]LinkADRReq{req})
			So(err, ShouldBeNil)

			Convey("Then all 64 125kHz channels are enabled and the 500kHz channels are disabled", func() {
				So(res.ChannelMaskACK, ShouldBeTrue)
				for i := 0; i < 64; i++ {
					So(res.EnabledMask[i], ShouldBeTrue)
				}
				for i := 64; i < 72; i++ {
					So(res.EnabledMask[i], ShouldBeFalse)
				}
			})
		})

		Convey("Given a chained request that leaves only one 125kHz channel enabled below DR4", func() {
			var mask [16]bool
			mask[0] = true
			reqs := []LinkADRReq{
				{DataRate: 0, TXPower: 0, ChMaskCntl: 7, NbRep: 1},
				{DataRate: 0, TXPower: 0, ChMaskCntl: 0, ChMask: mask, NbRep: 1},
			}
			res, err := r.LinkADRRequest(reqs)
			So(err, ShouldBeNil)

			Convey("Then ChannelMaskACK is false (FCC two-channel minimum)", func() {
				So(res.ChannelMaskACK, ShouldBeFalse)
			})
		})
	})
}
