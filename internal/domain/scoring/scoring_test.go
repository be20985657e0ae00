package scoring_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/creditrisk/internal/domain/features"
	"github.com/okian/creditrisk/internal/domain/scoring"
	"github.com/okian/creditrisk/internal/domain/scoring/scoringtest"
	. "github.com/smartystreets/goconvey/convey"
)

var names = []string{"AMT_INCOME_TOTAL", "AGE", "OWN_CAR_Yes"}

func vector(values ...float64) features.Vector {
	return features.Vector{Names: names, Values: values}
}

func TestScorer_Score(t *testing.T) {
	Convey("Given a scorer around a linear stub oracle", t, func() {
		oracle := &scoringtest.Oracle{
			Names: names,
			ProbabilityFunc: func(x []float64) (float64, error) {
				return math.Min(1, x[0]/100000), nil
			},
		}
		scorer, err := scoring.NewScorer(oracle)
		So(err, ShouldBeNil)

		Convey("When scoring a well formed vector", func() {
			res, err := scorer.Score(context.Background(), vector(55000, 30, 1))

			Convey("Then the probability should drive the decision", func() {
				So(err, ShouldBeNil)
				So(res.Probability, ShouldAlmostEqual, 0.55)
				So(res.Decision, ShouldEqual, scoring.Favorable)
				So(res.Label, ShouldEqual, 1)
			})
		})

		Convey("When scoring the same vector twice", func() {
			v := vector(30000, 45, 0)
			first, err1 := scorer.Score(context.Background(), v)
			second, err2 := scorer.Score(context.Background(), v)

			Convey("Then both results should be identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
			})
		})

		Convey("When the vector has the wrong dimensionality", func() {
			_, err := scorer.Score(context.Background(), features.Vector{Names: names[:2], Values: []float64{1, 2}})

			Convey("Then a scoring error should be returned", func() {
				So(errors.Is(err, scoring.ErrScoring), ShouldBeTrue)
				So(oracle.Calls(), ShouldEqual, 0)
			})
		})

		Convey("When the columns are in a different order", func() {
			v := features.Vector{Names: []string{"AGE", "AMT_INCOME_TOTAL", "OWN_CAR_Yes"}, Values: []float64{1, 2, 3}}
			_, err := scorer.Score(context.Background(), v)

			Convey("Then a scoring error should be returned", func() {
				So(errors.Is(err, scoring.ErrScoring), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "column 0")
			})
		})
	})

	Convey("Given an oracle that fails", t, func() {
		boom := errors.New("session closed")
		oracle := &scoringtest.Oracle{
			Names:           names,
			ProbabilityFunc: func([]float64) (float64, error) { return 0, boom },
		}
		scorer, _ := scoring.NewScorer(oracle)

		Convey("Then the failure should surface as a scoring error", func() {
			_, err := scorer.Score(context.Background(), vector(1, 2, 3))
			So(errors.Is(err, scoring.ErrScoring), ShouldBeTrue)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})

	Convey("Given an oracle returning an impossible probability", t, func() {
		scorer, _ := scoring.NewScorer(scoringtest.Fixed(names, 1.7))

		Convey("Then scoring should fail", func() {
			_, err := scorer.Score(context.Background(), vector(1, 2, 3))
			So(errors.Is(err, scoring.ErrScoring), ShouldBeTrue)
		})
	})

	Convey("Given a nil oracle", t, func() {
		_, err := scoring.NewScorer(nil)

		Convey("Then construction should fail", func() {
			So(errors.Is(err, scoring.ErrNilOracle), ShouldBeTrue)
		})
	})
}

func TestScorer_Decide(t *testing.T) {
	Convey("Given the default threshold", t, func() {
		scorer, _ := scoring.NewScorer(scoringtest.Fixed(names, 0))

		Convey("Then a probability exactly at the threshold is unfavorable", func() {
			So(scorer.Threshold(), ShouldEqual, 0.40)
			So(scorer.Decide(0.40), ShouldEqual, scoring.Unfavorable)
		})

		Convey("Then a probability just above is favorable", func() {
			So(scorer.Decide(0.4000001), ShouldEqual, scoring.Favorable)
		})

		Convey("Then the oracle's own label is ignored", func() {
			oracle := scoringtest.Fixed(names, 0.45)
			oracle.LabelFunc = func([]float64) (int, error) { return 0, nil }
			s, _ := scoring.NewScorer(oracle)
			res, err := s.Score(context.Background(), vector(1, 2, 3))
			So(err, ShouldBeNil)
			So(res.Label, ShouldEqual, 0)
			So(res.Decision, ShouldEqual, scoring.Favorable)
		})
	})

	Convey("Given an inclusive custom threshold", t, func() {
		scorer, _ := scoring.NewScorer(scoringtest.Fixed(names, 0),
			scoring.WithThreshold(0.5),
			scoring.WithInclusiveThreshold(true),
		)

		Convey("Then a probability at the threshold is favorable", func() {
			So(scorer.Decide(0.5), ShouldEqual, scoring.Favorable)
			So(scorer.Decide(0.49), ShouldEqual, scoring.Unfavorable)
		})
	})

	Convey("Given an out of range threshold option", t, func() {
		scorer, _ := scoring.NewScorer(scoringtest.Fixed(names, 0), scoring.WithThreshold(3))

		Convey("Then the default should be kept", func() {
			So(scorer.Threshold(), ShouldEqual, scoring.DefaultThreshold)
		})
	})
}
