package band

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCN470Channels(t *testing.T) {
	Convey("Given the CN470 region", t, func() {
		r := NewCN470()
		Convey("Then it has 96 enabled uplink channels", func() {
			So(r.GetEnabledUplinkChannelIndices(), ShouldHaveLength, 96)
		})
	})
}

func TestAS923DwellTime(t *testing.T) {
	Convey("Given AS923 with dwell-time limiting enabled", t, func() {
		r := NewAS923(true)

		Convey("Then DR0 and DR1 have no usable uplink payload", func() {
			m0, err := r.GetMaxPayloadSizeForDataRateIndex(0)
			So(err, ShouldBeNil)
			So(m0.N, ShouldEqual, 0)
		})

		Convey("Then LBT is required on every channel", func() {
			_, _, required := r.CarrierSenseRequired(0)
			So(required, ShouldBeTrue)
		})
	})

	Convey("Given AS923 without dwell-time limiting", t, func() {
		r := NewAS923(false)
		Convey("Then DR0 keeps its normal payload cap", func() {
			m0, err := r.GetMaxPayloadSizeForDataRateIndex(0)
			So(err, ShouldBeNil)
			So(m0.N, ShouldEqual, 51)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the band registry", t, func() {
		for _, name := range []Name{EU868, EU433, US915, US915Hybrid, AU915, AS923, CN470, CN779, IN865, KR920} {
			name := name
			Convey("Get resolves "+string(name), func() {
				r, err := Get(name, Config{})
				So(err, ShouldBeNil)
				So(r.Name(), ShouldEqual, name)
			})
		}
	})

	Convey("Given an unknown region name", t, func() {
		_, err := Get(Name("XX000"), Config{})
		Convey("Then Get returns an error", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
