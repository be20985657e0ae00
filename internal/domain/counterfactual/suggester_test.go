package counterfactual_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/internal/domain/applicant/applicanttest"
	"github.com/okian/creditrisk/internal/domain/counterfactual"
	"github.com/okian/creditrisk/internal/domain/features"
	"github.com/okian/creditrisk/internal/domain/scoring"
	"github.com/okian/creditrisk/internal/domain/scoring/scoringtest"
	. "github.com/smartystreets/goconvey/convey"
)

type fixture struct {
	codec    *features.Codec
	contract *features.Contract
	oracle   *scoringtest.Oracle
	scorer   *scoring.Scorer
	incomeAt int
}

// newFixture wires a stub oracle whose probability is a function of income.
func newFixture(prob func(income float64) (float64, error)) *fixture {
	contract, err := features.NewContract(applicanttest.Contract())
	if err != nil {
		panic(err)
	}
	f := &fixture{
		codec:    features.NewCodec(applicant.Base()),
		contract: contract,
	}
	f.incomeAt, _ = contract.Index(applicant.FieldIncome)
	f.oracle = &scoringtest.Oracle{
		Names: contract.Names(),
		ProbabilityFunc: func(x []float64) (float64, error) {
			return prob(x[f.incomeAt])
		},
	}
	f.scorer, err = scoring.NewScorer(f.oracle)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *fixture) encode(rec *applicant.Record) features.Vector {
	v, err := f.codec.Encode(rec, f.contract)
	if err != nil {
		panic(err)
	}
	return v
}

// nonMonotone improves only for the +20% candidate of a 60000 income.
func nonMonotone(income float64) (float64, error) {
	switch {
	case income < 61000:
		return 0.30, nil
	case income < 70000:
		return 0.25, nil
	case income < 75000:
		return 0.35, nil
	default:
		return 0.20, nil
	}
}

func TestSuggester_Suggest(t *testing.T) {
	Convey("Given an oracle where only the 0.2 increment improves", t, func() {
		f := newFixture(nonMonotone)
		sug, err := counterfactual.NewSuggester(f.codec, f.scorer)
		So(err, ShouldBeNil)

		rec := applicanttest.Record()
		before, _ := rec.Get(applicant.FieldIncome)

		Convey("When suggesting", func() {
			out, err := sug.Suggest(context.Background(), f.encode(rec), rec, f.contract)

			Convey("Then only the 0.2 suggestion should be returned", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 1)
				So(out[0].Increment, ShouldEqual, 0.2)
				So(out[0].Attribute, ShouldEqual, applicant.FieldIncome)
				So(out[0].Label, ShouldEqual, "Yearly Income")
				So(out[0].Money, ShouldBeTrue)
				So(out[0].Original, ShouldEqual, 60000)
				So(out[0].Candidate, ShouldAlmostEqual, 72000, 0.001)
				So(out[0].Probability, ShouldEqual, 0.35)
				So(out[0].OriginalProbability, ShouldEqual, 0.30)
				So(out[0].Favorable, ShouldBeFalse)
			})

			Convey("And the record should be restored", func() {
				after, _ := rec.Get(applicant.FieldIncome)
				So(after, ShouldResemble, before)
				So(rec.Fields(), ShouldResemble, applicanttest.Record().Fields())
			})

			Convey("And each increment should cost one scoring call", func() {
				So(f.oracle.Calls(), ShouldEqual, 4)
			})
		})
	})

	Convey("Given an oracle that never improves", t, func() {
		f := newFixture(func(float64) (float64, error) { return 0.1, nil })
		sug, _ := counterfactual.NewSuggester(f.codec, f.scorer)
		rec := applicanttest.Record()

		Convey("Then an empty result should be returned without error", func() {
			out, err := sug.Suggest(context.Background(), f.encode(rec), rec, f.contract)
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})
	})

	Convey("Given a monotone oracle", t, func() {
		f := newFixture(func(income float64) (float64, error) { return income / 200000, nil })
		rec := applicanttest.Record()

		Convey("When ordering by increment", func() {
			sug, _ := counterfactual.NewSuggester(f.codec, f.scorer)
			out, err := sug.Suggest(context.Background(), f.encode(rec), rec, f.contract)

			Convey("Then suggestions should follow increment order", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 3)
				So(out[0].Increment, ShouldEqual, 0.1)
				So(out[2].Increment, ShouldEqual, 0.3)
			})

			Convey("And increments should not accumulate", func() {
				So(out[1].Candidate, ShouldAlmostEqual, 72000, 0.001)
			})
		})

		Convey("When ordering by improvement", func() {
			sug, _ := counterfactual.NewSuggester(f.codec, f.scorer,
				counterfactual.WithOrder(counterfactual.OrderImprovement))
			out, err := sug.Suggest(context.Background(), f.encode(rec), rec, f.contract)

			Convey("Then the largest improvement should come first", func() {
				So(err, ShouldBeNil)
				So(out[0].Increment, ShouldEqual, 0.3)
				So(out[2].Increment, ShouldEqual, 0.1)
			})
		})

		Convey("When only favorable suggestions are wanted", func() {
			sug, _ := counterfactual.NewSuggester(f.codec, f.scorer,
				counterfactual.WithRequireFavorable(true))
			out, err := sug.Suggest(context.Background(), f.encode(rec), rec, f.contract)

			Convey("Then only candidates above the threshold should remain", func() {
				// 78000 / 200000 = 0.39, still below 0.40
				So(err, ShouldBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When searching with custom increments", func() {
			sug, _ := counterfactual.NewSuggester(f.codec, f.scorer,
				counterfactual.WithIncrements(0.5, -0.2, 0))
			out, err := sug.Suggest(context.Background(), f.encode(rec), rec, f.contract)

			Convey("Then non-positive increments should be ignored", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 1)
				So(out[0].Favorable, ShouldBeTrue)
			})
		})
	})

	Convey("Given an oracle that fails on perturbed incomes", t, func() {
		boom := errors.New("oracle unavailable")
		f := newFixture(func(income float64) (float64, error) {
			if income > 61000 {
				return 0, boom
			}
			return 0.2, nil
		})
		sug, _ := counterfactual.NewSuggester(f.codec, f.scorer)
		rec := applicanttest.Record()

		Convey("When suggesting", func() {
			out, err := sug.Suggest(context.Background(), f.encode(rec), rec, f.contract)

			Convey("Then the scoring error should surface", func() {
				So(out, ShouldBeNil)
				So(errors.Is(err, scoring.ErrScoring), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
			})

			Convey("And the record should still be restored", func() {
				v, _ := rec.Get(applicant.FieldIncome)
				So(v.Float(), ShouldEqual, 60000)
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		f := newFixture(func(income float64) (float64, error) { return income / 200000, nil })
		sug, _ := counterfactual.NewSuggester(f.codec, f.scorer)
		rec := applicanttest.Record()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then the search should stop with the budget error", func() {
			out, err := sug.Suggest(ctx, f.encode(rec), rec, f.contract)
			So(errors.Is(err, counterfactual.ErrBudgetExceeded), ShouldBeTrue)
			So(out, ShouldBeEmpty)
		})
	})

	Convey("Given a slow oracle and a short budget", t, func() {
		f := newFixture(func(income float64) (float64, error) {
			time.Sleep(20 * time.Millisecond)
			return income / 200000, nil
		})
		sug, _ := counterfactual.NewSuggester(f.codec, f.scorer,
			counterfactual.WithBudget(30*time.Millisecond))
		rec := applicanttest.Record()

		Convey("Then partial suggestions should be returned with the budget error", func() {
			out, err := sug.Suggest(context.Background(), f.encode(rec), rec, f.contract)
			So(errors.Is(err, counterfactual.ErrBudgetExceeded), ShouldBeTrue)
			So(len(out), ShouldBeGreaterThanOrEqualTo, 1)
			So(len(out), ShouldBeLessThan, 3)
			v, _ := rec.Get(applicant.FieldIncome)
			So(v.Float(), ShouldEqual, 60000)
		})
	})
}

func TestNewSuggester(t *testing.T) {
	Convey("Given suggestion attributes", t, func() {
		f := newFixture(nonMonotone)

		Convey("When an attribute is not declared", func() {
			_, err := counterfactual.NewSuggester(f.codec, f.scorer, counterfactual.WithAttributes("SALARY"))
			So(errors.Is(err, counterfactual.ErrAttribute), ShouldBeTrue)
		})

		Convey("When an attribute is categorical", func() {
			_, err := counterfactual.NewSuggester(f.codec, f.scorer, counterfactual.WithAttributes(applicant.FieldGender))
			So(errors.Is(err, counterfactual.ErrAttribute), ShouldBeTrue)
		})

		Convey("When an attribute is a meta field", func() {
			_, err := counterfactual.NewSuggester(f.codec, f.scorer, counterfactual.WithAttributes(applicant.FieldMonthsWithBank))
			So(errors.Is(err, counterfactual.ErrAttribute), ShouldBeTrue)
		})

		Convey("When an integer attribute would leave its bounds", func() {
			sug, err := counterfactual.NewSuggester(f.codec, f.scorer, counterfactual.WithAttributes(applicant.FieldAge))
			So(err, ShouldBeNil)
			rec := applicanttest.Record()
			rec.Set(applicant.FieldAge, applicant.Number(90))
			out, err := sug.Suggest(context.Background(), f.encode(rec), rec, f.contract)

			Convey("Then out of range candidates should be skipped", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeEmpty)
				// 99 is scored, 108 and 117 exceed the age bound
				So(f.oracle.Calls(), ShouldEqual, 2)
			})
		})
	})
}

func TestParseOrder(t *testing.T) {
	Convey("Given order names", t, func() {
		o, err := counterfactual.ParseOrder("Improvement")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, counterfactual.OrderImprovement)

		o, err = counterfactual.ParseOrder("")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, counterfactual.OrderIncrement)

		_, err = counterfactual.ParseOrder("random")
		So(errors.Is(err, counterfactual.ErrUnknownOrder), ShouldBeTrue)
	})
}
