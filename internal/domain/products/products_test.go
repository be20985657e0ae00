package products_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/internal/domain/applicant/applicanttest"
	"github.com/okian/creditrisk/internal/domain/products"
	"github.com/okian/creditrisk/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func names(ps []products.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestRules_Offer(t *testing.T) {
	Convey("Given the default rule set", t, func() {
		rules := products.NewRules()

		Convey("When the applicant has no car, no realty and income above the floor", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldOwnCar, applicant.Bool(false))
			rec.Set(applicant.FieldOwnRealty, applicant.Bool(false))
			rec.Set(applicant.FieldIncome, applicant.Number(75000))

			Convey("Then exactly three offers should be returned in rule order", func() {
				offers := rules.Offer(rec, scoring.Favorable)
				So(names(offers), ShouldResemble, []string{products.CarLoan, products.Mortgage, products.PersonalLoan})
				So(offers[0].Description, ShouldNotBeEmpty)
			})
		})

		Convey("When the applicant owns a car but no realty and earns 60000", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldOwnCar, applicant.Bool(true))
			rec.Set(applicant.FieldOwnRealty, applicant.Bool(false))

			Convey("Then Mortgage and Personal Loan should be offered", func() {
				So(names(rules.Offer(rec, scoring.Favorable)), ShouldResemble, []string{products.Mortgage, products.PersonalLoan})
			})
		})

		Convey("When income equals the floor", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldOwnCar, applicant.Bool(true))
			rec.Set(applicant.FieldIncome, applicant.Number(50000))

			Convey("Then no Personal Loan should be offered", func() {
				So(rules.Offer(rec, scoring.Favorable), ShouldBeEmpty)
			})
		})

		Convey("When booleans arrive as Yes/No categories", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldOwnCar, applicant.Category("No"))
			rec.Set(applicant.FieldOwnRealty, applicant.Category("yes"))
			rec.Set(applicant.FieldIncome, applicant.Number(1000))

			Convey("Then only the Car Loan should be offered", func() {
				So(names(rules.Offer(rec, scoring.Favorable)), ShouldResemble, []string{products.CarLoan})
			})
		})

		Convey("When the decision is unfavorable", func() {
			Convey("Then nothing should be offered", func() {
				So(rules.Offer(applicanttest.Record(), scoring.Unfavorable), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a lowered income floor", t, func() {
		rules := products.NewRules(products.WithPersonalLoanFloor(decimal.NewFromInt(2000)))

		Convey("Then modest incomes should qualify for a Personal Loan", func() {
			rec := applicanttest.Record()
			rec.Set(applicant.FieldOwnCar, applicant.Bool(true))
			rec.Set(applicant.FieldIncome, applicant.Number(2500))
			So(names(rules.Offer(rec, scoring.Favorable)), ShouldResemble, []string{products.PersonalLoan})
			So(rules.IncomeFloor().Equal(decimal.NewFromInt(2000)), ShouldBeTrue)
		})
	})

	Convey("Given a negative income floor option", t, func() {
		rules := products.NewRules(products.WithPersonalLoanFloor(decimal.NewFromInt(-1)))

		Convey("Then the default floor should be kept", func() {
			So(rules.IncomeFloor().Equal(products.DefaultPersonalLoanFloor), ShouldBeTrue)
		})
	})
}
