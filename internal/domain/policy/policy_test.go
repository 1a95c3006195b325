package policy

import (
	"errors"
	"testing"

	"github.com/okian/perfcore/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestDefault(t *testing.T) {
	convey.Convey("Given the built-in policy", t, func() {
		p := Default()

		convey.Convey("Then it should be valid", func() {
			convey.So(p.Validate(), convey.ShouldBeNil)
			convey.So(p.Name, convey.ShouldEqual, DefaultName)
		})

		convey.Convey("Then its weights should sum to one", func() {
			convey.So(p.Weights.Sum(), convey.ShouldAlmostEqual, 1, 1e-9)
		})

		convey.Convey("Then goal achievement should carry the largest weight", func() {
			for _, d := range Dimensions {
				convey.So(p.Weights.GoalAchievement, convey.ShouldBeGreaterThanOrEqualTo, p.Weights.For(d))
			}
		})

		convey.Convey("Then review type keys should be case-insensitive", func() {
			convey.So(p.ReviewTypeWeight("manager"), convey.ShouldEqual, p.ReviewTypeWeight(model.ReviewManager))
			convey.So(p.ReviewTypeWeight("CONTRACTOR"), convey.ShouldEqual, p.DefaultReviewTypeWeight)
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given a copy of the built-in policy", t, func() {
		p := Default()

		convey.Convey("When the weights no longer sum to one", func() {
			p.Weights.Initiative += 0.1
			err := p.Validate()

			convey.Convey("Then validation should fail with the sentinel", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, ErrInvalidPolicy), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "weights sum")
			})
		})

		convey.Convey("When grade bands are out of order", func() {
			p.GradeBands = []GradeBand{{Grade: model.GradeA, Min: 80}, {Grade: model.GradeAPlus, Min: 50}, {Grade: model.GradeF, Min: 0}}

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(p.Validate(), ErrInvalidPolicy), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the lowest star band does not start at zero", func() {
			p.StarBands = []StarBand{{Stars: 5, Min: 90}, {Stars: 1, Min: 10}}

			convey.Convey("Then validation should fail", func() {
				convey.So(p.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a cap is zero", func() {
			p.Caps.Evidence.Verified = 0

			convey.Convey("Then the failing cap should be named", func() {
				err := p.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "evidence.verified")
			})
		})

		convey.Convey("When risk and peer thresholds are left at zero", func() {
			p.Risk.MediumVelocityRisk = 0
			p.Risk.DeadlineWindowDays = 0
			p.Peers.LowZ = 0

			convey.Convey("Then each zero threshold should be rejected", func() {
				err := p.Validate()
				convey.So(errors.Is(err, ErrInvalidPolicy), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "medium_velocity_risk must be positive")
				convey.So(err.Error(), convey.ShouldContainSubstring, "deadline_window_days must be positive")
				convey.So(err.Error(), convey.ShouldContainSubstring, "low_z < 0 < high_z")
			})
		})

		convey.Convey("When both z thresholds sit above zero", func() {
			p.Peers = PeerThresholds{HighZ: 2, LowZ: 0.5}

			convey.Convey("Then validation should fail", func() {
				convey.So(p.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When several fields are wrong at once", func() {
			p.Name = ""
			p.Peers.LowZ = 2
			p.Risk.DeadlineWindowDays = -1
			err := p.Validate()

			convey.Convey("Then every problem should be reported", func() {
				convey.So(err.Error(), convey.ShouldContainSubstring, "name")
				convey.So(err.Error(), convey.ShouldContainSubstring, "low_z")
				convey.So(err.Error(), convey.ShouldContainSubstring, "deadline_window_days")
			})
		})
	})
}

func TestFillDefaults(t *testing.T) {
	convey.Convey("Given a policy that only overrides weights", t, func() {
		p := Policy{
			Name:    "sales",
			Weights: Weights{GoalAchievement: 0.5, ReviewQuality: 0.5},
		}

		convey.Convey("When filling defaults", func() {
			filled := p.FillDefaults()

			convey.Convey("Then the override should survive", func() {
				convey.So(filled.Name, convey.ShouldEqual, "sales")
				convey.So(filled.Weights.GoalAchievement, convey.ShouldEqual, 0.5)
				convey.So(filled.Weights.Growth, convey.ShouldEqual, 0)
			})

			convey.Convey("Then the other sections should come from the built-in profile", func() {
				d := Default()
				convey.So(filled.GradeBands, convey.ShouldResemble, d.GradeBands)
				convey.So(filled.Caps, convey.ShouldResemble, d.Caps)
				convey.So(filled.Risk, convey.ShouldResemble, d.Risk)
				convey.So(filled.Validate(), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a policy that sets one risk and one peer threshold", t, func() {
		p := Policy{
			Risk:  RiskThresholds{HighVelocityRisk: 70},
			Peers: PeerThresholds{HighZ: 1.5},
		}
		filled := p.FillDefaults()
		d := Default()

		convey.Convey("Then the sibling thresholds should come from the built-in profile", func() {
			convey.So(filled.Risk.HighVelocityRisk, convey.ShouldEqual, 70)
			convey.So(filled.Risk.MediumVelocityRisk, convey.ShouldEqual, d.Risk.MediumVelocityRisk)
			convey.So(filled.Risk.DeadlineWindowDays, convey.ShouldEqual, d.Risk.DeadlineWindowDays)
			convey.So(filled.Peers.HighZ, convey.ShouldEqual, 1.5)
			convey.So(filled.Peers.LowZ, convey.ShouldEqual, d.Peers.LowZ)
			convey.So(filled.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestClone(t *testing.T) {
	convey.Convey("Given a cloned policy", t, func() {
		p := Default()
		c := p.Clone()

		convey.Convey("When the clone is mutated", func() {
			c.GradeBands[0].Min = 1
			c.ReviewTypeWeights["MANAGER"] = 42

			convey.Convey("Then the original should be untouched", func() {
				convey.So(p.GradeBands[0].Min, convey.ShouldEqual, 95)
				convey.So(p.ReviewTypeWeights["MANAGER"], convey.ShouldEqual, 1)
			})
		})
	})
}

func TestPriorityMultipliers(t *testing.T) {
	convey.Convey("Given the default priority multipliers", t, func() {
		m := Default().Goals.Priority

		convey.Convey("Then unknown priorities should count as medium", func() {
			convey.So(m.For("URGENT"), convey.ShouldEqual, m.Medium)
			convey.So(m.For(model.PriorityCritical), convey.ShouldEqual, m.Critical)
		})
	})
}

func TestKey(t *testing.T) {
	convey.Convey("Given profile names in mixed case", t, func() {
		convey.So(Key("  Sales "), convey.ShouldEqual, "sales")
		convey.So(Key(DefaultName), convey.ShouldEqual, DefaultName)
	})
}
