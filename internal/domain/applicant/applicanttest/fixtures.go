// Package applicanttest provides record fixtures shared by tests.
package applicanttest

import (
	"github.com/okian/creditrisk/internal/domain/applicant"
)

// Record returns a valid base-schema record: a 35 year old employed woman
// with no car, her own home and 60000 yearly income.
func Record() *applicant.Record {
	r := applicant.NewRecord()
	r.Set(applicant.FieldGender, applicant.Category("Female"))
	r.Set(applicant.FieldChildren, applicant.Number(1))
	r.Set(applicant.FieldIncome, applicant.Number(60000))
	r.Set(applicant.FieldEducation, applicant.Category("Higher Education"))
	r.Set(applicant.FieldFamilyStatus, applicant.Category("Married"))
	r.Set(applicant.FieldIncomeType, applicant.Category("Working"))
	r.Set(applicant.FieldHousingType, applicant.Category("House / Apartment"))
	r.Set(applicant.FieldPhone, applicant.Bool(true))
	r.Set(applicant.FieldEmail, applicant.Bool(true))
	r.Set(applicant.FieldOwnCar, applicant.Bool(false))
	r.Set(applicant.FieldOwnRealty, applicant.Bool(true))
	r.Set(applicant.FieldAge, applicant.Number(35))
	r.Set(applicant.FieldDaysEmployed, applicant.Number(2400))
	r.Set(applicant.FieldEmployed, applicant.Bool(true))
	r.Set(applicant.FieldMonthsWithBank, applicant.Number(24))
	return r
}

// ExtendedRecord returns Record plus the extended-schema fields.
func ExtendedRecord() *applicant.Record {
	r := Record()
	r.Set(applicant.FieldOccupation, applicant.Category("IT staff"))
	r.Set(applicant.FieldFamilyMembers, applicant.Number(3))
	return r
}

// Contract returns a small feature contract compatible with the base
// schema. It omits some categories on purpose, as a trained model would
// for categories collapsed at training time.
func Contract() []string {
	return []string{
		applicant.FieldChildren,
		applicant.FieldIncome,
		applicant.FieldAge,
		applicant.FieldDaysEmployed,
		"CODE_GENDER_Female",
		"CODE_GENDER_Male",
		"NAME_EDUCATION_TYPE_Higher Education",
		"NAME_EDUCATION_TYPE_Secondary / Secondary Special",
		"NAME_FAMILY_STATUS_Married",
		"NAME_FAMILY_STATUS_Single / Not Married",
		"NAME_INCOME_TYPE_Working",
		"NAME_INCOME_TYPE_Pensioner",
		"NAME_HOUSING_TYPE_House / Apartment",
		"NAME_HOUSING_TYPE_Rented Apartment",
		"FLAG_PHONE_Yes",
		"FLAG_EMAIL_Yes",
		"OWN_CAR_Yes",
		"OWN_CAR_No",
		"OWN_REALTY_Yes",
		"OWN_REALTY_No",
		"EMPLOYED_OR_NOT_Yes",
	}
}
