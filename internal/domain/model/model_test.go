package model

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClamp(t *testing.T) {
	Convey("Given values around a range", t, func() {
		Convey("Then Clamp should bound them", func() {
			So(Clamp(-1, 0, 100), ShouldEqual, 0)
			So(Clamp(150, 0, 100), ShouldEqual, 100)
			So(Clamp(42.5, 0, 100), ShouldEqual, 42.5)
			So(Clamp(math.NaN(), 0, 100), ShouldEqual, 0)
			So(Clamp(math.Inf(1), 0, 100), ShouldEqual, 100)
		})

		Convey("Then the integer helpers should bound them", func() {
			So(ClampInt(9, 1, 5), ShouldEqual, 5)
			So(ClampInt(-9, 1, 5), ShouldEqual, 1)
			So(NonNegative(-3), ShouldEqual, 0)
			So(NonNegative(3), ShouldEqual, 3)
		})
	})
}

func TestEnums(t *testing.T) {
	Convey("Given goal statuses", t, func() {
		Convey("Then only drafts and cancelled goals should be excluded from scoring", func() {
			So(GoalDraft.Scoreable(), ShouldBeFalse)
			So(GoalCancelled.Scoreable(), ShouldBeFalse)
			So(GoalActive.Scoreable(), ShouldBeTrue)
			So(GoalOnHold.Scoreable(), ShouldBeTrue)
			So(GoalCompleted.Scoreable(), ShouldBeTrue)
		})
	})

	Convey("Given risk levels", t, func() {
		Convey("Then Max should keep the more severe one", func() {
			So(RiskLow.Max(RiskHigh), ShouldEqual, RiskHigh)
			So(RiskHigh.Max(RiskMedium), ShouldEqual, RiskHigh)
			So(RiskMedium.Max(RiskLow), ShouldEqual, RiskMedium)
		})
	})

	Convey("Given percentiles", t, func() {
		Convey("Then PositionFor should bucket them", func() {
			So(PositionFor(100), ShouldEqual, PositionTop10)
			So(PositionFor(90), ShouldEqual, PositionTop10)
			So(PositionFor(80), ShouldEqual, PositionTop25)
			So(PositionFor(50), ShouldEqual, PositionMiddle50)
			So(PositionFor(10), ShouldEqual, PositionBottom25)
			So(PositionFor(9.9), ShouldEqual, PositionBottom10)
		})
	})

	Convey("Given loosely formatted enum input", t, func() {
		Convey("Then Normalize should upper-case and trim it", func() {
			So(Normalize("  manager "), ShouldEqual, "MANAGER")
			So(Priority(Normalize("high")).IsValid(), ShouldBeTrue)
			So(Grade("E").IsValid(), ShouldBeFalse)
		})
	})
}
