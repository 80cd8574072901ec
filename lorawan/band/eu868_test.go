package band

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEU868Defaults(t *testing.T) {
	Convey("Given the EU868 region", t, func() {
		r := NewEU868()

		Convey("Then it exposes 3 default enabled channels", func() {
			So(r.GetEnabledUplinkChannelIndices(), ShouldHaveLength, 3)
		})

		Convey("Then the max payload size for DR0 is 51 bytes (N)", func() {
			m, err := r.GetMaxPayloadSizeForDataRateIndex(0)
			So(err, ShouldBeNil)
			So(m.N, ShouldEqual, 51)
		})

		Convey("Then RX2 defaults to 869.525 MHz / DR0", func() {
			d := r.GetDefaults()
			So(d.RX2Frequency, ShouldEqual, 869525000)
			So(d.RX2DataRate, ShouldEqual, 0)
		})

		Convey("Then CarrierSenseRequired reports LBT is not required", func() {
			_, _, required := r.CarrierSenseRequired(0)
			So(required, ShouldBeFalse)
		})
	})
}

func TestEU868RXConfig(t *testing.T) {
	Convey("Given the EU868 region", t, func() {
		r := NewEU868()

		Convey("Then RX1 derives frequency from the uplink channel and applies the DR offset", func() {
			cfg, err := r.RXConfig(0, 5, RX1, 1, 8, 20*time.Millisecond, 3*time.Millisecond)
			So(err, ShouldBeNil)
			So(cfg.Frequency, ShouldEqual, 868100000)
			So(cfg.DataRate, ShouldEqual, 4)
		})

		Convey("Then RX2 uses the region default frequency/datarate", func() {
			cfg, err := r.RXConfig(0, 5, RX2, 0, 8, 20*time.Millisecond, 3*time.Millisecond)
			So(err, ShouldBeNil)
			So(cfg.Frequency, ShouldEqual, 869525000)
			So(cfg.DataRate, ShouldEqual, 0)
		})
	})
}

func TestEU868NextChannel(t *testing.T) {
	Convey("Given the EU868 region with default channels", t, func() {
		r := NewEU868()

		Convey("Then NextChannel returns one of the 3 default channels for DR0", func() {
			idx, err := r.NextChannel(NextChannelParams{DataRate: 0, Now: time.Now()})
			So(err, ShouldBeNil)
			So(idx, ShouldBeBetween, -1, 3)
		})
	})
}

func TestEU868LinkADRRequest(t *testing.T) {
	Convey("Given the EU868 region", t, func() {
		r := NewEU868()

		Convey("Given a LinkADRReq disabling channel 1", func() {
			var mask [16]bool
			mask[0] = true
			mask[2] = true
			req := LinkADRReq{DataRate: 3, TXPower: 1, ChMaskCntl: 0, ChMask: mask, NbRep: 1}

			res, err := r.LinkADRRequest([]LinkADRReq{req})
			So(err, ShouldBeNil)

			Convey("Then the request is accepted and channel 1 is disabled", func() {
				So(res.ChannelMaskACK, ShouldBeTrue)
				So(res.DataRateACK, ShouldBeTrue)
				So(res.PowerACK, ShouldBeTrue)
				So(res.EnabledMask[1], ShouldBeFalse)
				So(res.EnabledMask[0], ShouldBeTrue)
			})
		})

		Convey("Given a LinkADRReq that disables every channel", func() {
			var mask [16]bool
			req := LinkADRReq{DataRate: 0, TXPower: 0, ChMaskCntl: 0, ChMask: mask, NbRep: 1}

			res, err := r.LinkADRRequest([]LinkADRReq{req})
			So(err, ShouldBeNil)

			Convey("Then ChannelMaskACK is false", func() {
				So(res.ChannelMaskACK, ShouldBeFalse)
			})
		})
	})
}

func TestEU868Backoff(t *testing.T) {
	Convey("Given the EU868 region and a 50ms time-on-air TX on channel 0", t, func() {
		r := NewEU868()
		now := time.Now()

		delay := r.CalculateBackoff(0, false, true, true, 50*time.Millisecond, now)

		Convey("Then the band is backed off for time-on-air times the duty-cycle inverse", func() {
			So(delay, ShouldEqual, 5*time.Second)
		})
	})
}
