package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/perfcore/internal/app"
	"github.com/okian/perfcore/internal/domain/model"
	"github.com/okian/perfcore/internal/domain/peers"
	"github.com/okian/perfcore/internal/domain/policy"
	"github.com/okian/perfcore/internal/domain/scoring"
	"github.com/okian/perfcore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func strongInput() scoring.Input {
	return scoring.Input{
		Goals:   []model.Goal{{ID: "g1", Progress: 100, Weight: 1, Status: model.GoalCompleted}},
		Reviews: []model.Review{{Rating: 5, Type: model.ReviewManager, ReviewerTrust: 100}},
	}
}

func weakInput() scoring.Input {
	return scoring.Input{
		Goals:   []model.Goal{{ID: "g2", Progress: 10, Weight: 1, Status: model.GoalActive}},
		Reviews: []model.Review{{Rating: 1, Type: model.ReviewManager, ReviewerTrust: 100}},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.DefaultPolicy(), ShouldEqual, policy.DefaultName)
			So(svc.Policies(), ShouldHaveLength, 1)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(1024),
			service.WithMaxTeamSize(10),
			service.WithTeamTimeout(time.Second),
		)

		Convey("Then the options should show in its stats", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 1024)
			So(stats["maxTeamSize"], ShouldEqual, 10)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		defer svc.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping should mark it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})

	Convey("Given a service with an invalid policy", t, func() {
		svc := service.New(service.WithPolicies(map[string]policy.Policy{
			"broken": {Weights: policy.Weights{GoalAchievement: 0.4}},
		}, "broken"))

		Convey("Then Start should refuse to run", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, policy.ErrInvalidPolicy), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a service whose default policy is missing", t, func() {
		svc := service.New(service.WithPolicies(map[string]policy.Policy{
			"sales": policy.Default(),
		}, "engineering"))

		Convey("Then Start should report the unknown policy", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrUnknownPolicy), ShouldBeTrue)
		})
	})
}

func TestService_Score(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When scoring a person with no records", func() {
			res, err := svc.Score(ctx, "", scoring.Input{})

			Convey("Then every dimension should sit at the neutral baseline", func() {
				So(err, ShouldBeNil)
				So(res.Score, ShouldEqual, 70)
				So(res.Grade, ShouldEqual, model.GradeB)
				So(res.PolicyName, ShouldEqual, policy.DefaultName)
			})
		})

		Convey("When scoring a strong performer", func() {
			res, err := svc.Score(ctx, "Standard", strongInput())

			Convey("Then the policy name should resolve case-insensitively", func() {
				So(err, ShouldBeNil)
				So(res.Score, ShouldBeGreaterThanOrEqualTo, 85)
				So(svc.GetStats()["scored"], ShouldEqual, int64(1))
			})
		})

		Convey("When naming an unknown policy", func() {
			_, err := svc.Score(ctx, "nope", scoring.Input{})

			Convey("Then it should fail with ErrUnknownPolicy", func() {
				So(errors.Is(err, service.ErrUnknownPolicy), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Score(cctx, "", scoring.Input{})

			Convey("Then it should return the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestService_ScoreTeam(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then team scoring should fail with ErrNotStarted", func() {
			_, err := svc.ScoreTeam(context.Background(), "", []service.Member{{UserID: "a"}})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(4), service.WithMaxTeamSize(5))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When scoring a team of three", func() {
			members := []service.Member{
				{UserID: "strong", Input: strongInput()},
				{UserID: "neutral"},
				{UserID: "weak", Input: weakInput()},
			}
			res, err := svc.ScoreTeam(ctx, "", members)

			Convey("Then every member should be scored in request order", func() {
				So(err, ShouldBeNil)
				So(res.RunID, ShouldNotBeEmpty)
				So(res.Policy, ShouldEqual, policy.DefaultName)
				So(res.Members, ShouldHaveLength, 3)
				for i, m := range res.Members {
					So(m.UserID, ShouldEqual, members[i].UserID)
					So(m.Peer.UserID, ShouldEqual, m.UserID)
					So(m.Peer.Score, ShouldEqual, float64(m.Composite.Score))
				}
			})

			Convey("Then the peer standing should follow the composite scores", func() {
				So(err, ShouldBeNil)
				strong, neutral, weak := res.Members[0], res.Members[1], res.Members[2]
				So(strong.Composite.Score, ShouldBeGreaterThan, neutral.Composite.Score)
				So(neutral.Composite.Score, ShouldBeGreaterThan, weak.Composite.Score)
				So(strong.Peer.ZScore, ShouldBeGreaterThan, weak.Peer.ZScore)
				So(strong.Peer.Percentile, ShouldEqual, 100)
				So(res.Summary.Count, ShouldEqual, 3)
				So(res.Summary.SnapshotID, ShouldNotBeEmpty)
			})
		})

		Convey("When the team exceeds the size limit", func() {
			members := make([]service.Member, 6)
			for i := range members {
				members[i].UserID = string(rune('a' + i))
			}
			_, err := svc.ScoreTeam(ctx, "", members)

			Convey("Then it should fail with ErrTeamTooLarge", func() {
				So(errors.Is(err, service.ErrTeamTooLarge), ShouldBeTrue)
			})
		})

		Convey("When a member appears twice", func() {
			_, err := svc.ScoreTeam(ctx, "", []service.Member{{UserID: "a"}, {UserID: "a"}})

			Convey("Then it should fail with ErrDuplicateMember", func() {
				So(errors.Is(err, service.ErrDuplicateMember), ShouldBeTrue)
			})
		})

		Convey("When a member has no id", func() {
			_, err := svc.ScoreTeam(ctx, "", []service.Member{{UserID: "a"}, {}})

			Convey("Then it should fail with ErrMissingMemberID", func() {
				So(errors.Is(err, service.ErrMissingMemberID), ShouldBeTrue)
			})
		})

		Convey("When the team is empty", func() {
			res, err := svc.ScoreTeam(ctx, "", nil)

			Convey("Then it should return an empty ranking", func() {
				So(err, ShouldBeNil)
				So(res.Members, ShouldBeEmpty)
				So(res.Summary.Count, ShouldEqual, 0)
			})
		})
	})
}

func TestService_AssessGoals(t *testing.T) {
	Convey("Given a service and a goal falling behind", t, func() {
		svc := service.New()
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		due := now.Add(10 * 24 * time.Hour)

		goals := []service.GoalHistory{
			{
				Goal: model.Goal{ID: "behind", Progress: 50, Status: model.GoalActive, DueDate: &due},
				History: []model.ProgressUpdate{
					{At: now.Add(-10 * 24 * time.Hour), Progress: 45},
					{At: now, Progress: 50},
				},
			},
			{Goal: model.Goal{ID: "done", Progress: 100, Status: model.GoalCompleted, DueDate: &due}},
		}

		Convey("When assessed", func() {
			report, err := svc.AssessGoals(context.Background(), "", goals, now)

			Convey("Then the open goal should be HIGH and the finished one skipped", func() {
				So(err, ShouldBeNil)
				So(report.Goals, ShouldHaveLength, 2)
				So(report.Goals[0].GoalID, ShouldEqual, "behind")
				So(report.Goals[0].Assessment, ShouldNotBeNil)
				So(report.Goals[0].Assessment.RiskLevel, ShouldEqual, model.RiskHigh)
				So(report.Goals[0].Assessment.DaysRemaining, ShouldEqual, 10)
				So(report.Goals[1].Assessment, ShouldBeNil)
				So(report.Highest, ShouldEqual, model.RiskHigh)
			})
		})

		Convey("When no goal can be assessed", func() {
			report, err := svc.AssessGoals(context.Background(), "", goals[1:], now)

			Convey("Then the report should carry no level", func() {
				So(err, ShouldBeNil)
				So(report.Highest, ShouldBeEmpty)
			})
		})
	})
}

func TestService_RankPeers(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When ranking three scores", func() {
			res, err := svc.RankPeers(ctx, "", []peers.Score{{UserID: "a", Score: 90}, {UserID: "b", Score: 70}, {UserID: "c", Score: 50}})

			Convey("Then it should return z-scores and a summary", func() {
				So(err, ShouldBeNil)
				So(res.Results, ShouldHaveLength, 3)
				So(res.Results[0].ZScore, ShouldAlmostEqual, 1.0, 1e-9)
				So(res.Summary.Mean, ShouldAlmostEqual, 70.0, 1e-9)
			})
		})

		Convey("When a user id repeats", func() {
			_, err := svc.RankPeers(ctx, "", []peers.Score{{UserID: "a", Score: 90}, {UserID: "a", Score: 70}})

			Convey("Then it should fail with ErrDuplicateMember", func() {
				So(errors.Is(err, service.ErrDuplicateMember), ShouldBeTrue)
			})
		})
	})
}

func TestService_Policies(t *testing.T) {
	Convey("Given a service with two profiles", t, func() {
		sales := policy.Policy{Weights: policy.Weights{GoalAchievement: 0.5, ReviewQuality: 0.5}}
		svc := service.New(service.WithPolicies(map[string]policy.Policy{
			"Sales":            sales,
			policy.DefaultName: policy.Default(),
		}, "SALES"))

		Convey("Then both should be listed by name", func() {
			list := svc.Policies()
			So(list, ShouldHaveLength, 2)
			So(list[0].Name, ShouldEqual, "Sales")
			So(list[1].Name, ShouldEqual, policy.DefaultName)
			So(svc.DefaultPolicy(), ShouldEqual, "sales")
		})

		Convey("Then the default should score with the sales weights", func() {
			res, err := svc.Score(context.Background(), "", strongInput())
			So(err, ShouldBeNil)
			So(res.PolicyName, ShouldEqual, "Sales")
			So(res.Score, ShouldEqual, 100)
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
				So(stats, ShouldNotContainKey, "queueLength")
			})
		})
	})
}
