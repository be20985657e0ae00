// Package products maps favorable applicants to the products they may be
// offered.
package products

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/internal/domain/scoring"
)

// Product names.
const (
	CarLoan      = "Car Loan"
	Mortgage     = "Mortgage"
	PersonalLoan = "Personal Loan"
)

// DefaultPersonalLoanFloor is the yearly income a Personal Loan requires.
var DefaultPersonalLoanFloor = decimal.NewFromInt(50_000)

// Product is an offer shown to the applicant.
type Product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Rule offers Product when Eligible holds. Rules are independent.
type Rule struct {
	Product  Product
	Eligible func(r *applicant.Record) bool
}

// Option applies a configuration option to Rules.
type Option func(*Rules)

// WithPersonalLoanFloor sets the yearly income floor for a Personal Loan.
// Negative floors are ignored.
func WithPersonalLoanFloor(floor decimal.Decimal) Option {
	return func(r *Rules) {
		if !floor.IsNegative() {
			r.incomeFloor = floor
		}
	}
}

// Rules is an ordered rule set. It holds no mutable state.
type Rules struct {
	incomeFloor decimal.Decimal
	rules       []Rule
}

// NewRules builds the default rule set.
func NewRules(opts ...Option) *Rules {
	r := &Rules{incomeFloor: DefaultPersonalLoanFloor}
	for _, opt := range opts {
		opt(r)
	}
	r.rules = []Rule{
		{
			Product:  Product{Name: CarLoan, Description: "Consider our competitive car loan rates!"},
			Eligible: func(rec *applicant.Record) bool { return isNo(rec, applicant.FieldOwnCar) },
		},
		{
			Product:  Product{Name: Mortgage, Description: "Unlock home ownership with our tailored mortgages."},
			Eligible: func(rec *applicant.Record) bool { return isNo(rec, applicant.FieldOwnRealty) },
		},
		{
			Product:  Product{Name: PersonalLoan, Description: "You may qualify for a higher personal loan amount."},
			Eligible: r.incomeAboveFloor,
		},
	}
	return r
}

// IncomeFloor returns the Personal Loan income floor.
func (r *Rules) IncomeFloor() decimal.Decimal { return r.incomeFloor }

// Offer returns every matching product in rule order. Unfavorable
// decisions get no offers; an empty result is not an error.
func (r *Rules) Offer(rec *applicant.Record, d scoring.Decision) []Product {
	if d != scoring.Favorable || rec == nil {
		return nil
	}
	var out []Product
	for _, rule := range r.rules {
		if rule.Eligible(rec) {
			out = append(out, rule.Product)
		}
	}
	return out
}

func (r *Rules) incomeAboveFloor(rec *applicant.Record) bool {
	v, ok := rec.Get(applicant.FieldIncome)
	if !ok || v.Kind() != applicant.KindNumber {
		return false
	}
	return decimal.NewFromFloat(v.Float()).GreaterThan(r.incomeFloor)
}

// isNo reports whether a boolean field is explicitly No. Missing or
// malformed values never qualify.
func isNo(rec *applicant.Record, field string) bool {
	v, ok := rec.Get(field)
	if !ok {
		return false
	}
	switch v.Kind() {
	case applicant.KindBool:
		return !v.Flag()
	case applicant.KindCategory:
		return strings.EqualFold(applicant.NormalizeText(v.Text()), applicant.No)
	default:
		return false
	}
}
