package applicant

import (
	"fmt"
	"strings"
)

// Schema variant names.
const (
	VariantBase     = "base"
	VariantExtended = "extended"
)

// Category domains offered by the application form.
var (
	Genders = []string{"Male", "Female"}

	EducationTypes = []string{
		"Secondary / Secondary Special", "Higher Education", "Lower Secondary",
		"Incomplete Higher", "Academic Degree",
	}

	FamilyStatuses = []string{
		"Married", "Civil Marriage", "Single / Not Married", "Separated", "Widow",
	}

	IncomeTypes = []string{
		"Commercial Associate", "Working", "State Servant", "Pensioner", "Student",
	}

	HousingTypes = []string{
		"House / Apartment", "Rented Apartment", "Living with Parents",
		"Office Apartment", "Municipal Apartment", "Co-op Apartment",
	}

	OccupationTypes = []string{
		"Laborers", "Core staff", "Sales staff", "Managers", "Drivers",
		"High skill tech staff", "Accountants", "Medicine staff", "Cooking staff",
		"Security staff", "Cleaning staff", "Private service staff",
		"Low-skill Laborers", "Waiters/barmen staff", "Secretaries", "HR staff",
		"Realty agents", "IT staff", "Other", "Unknown",
	}
)

func baseFields() []Field {
	return []Field{
		{Name: FieldGender, Label: "Gender", Kind: KindCategory, Domain: Genders},
		{Name: FieldChildren, Label: "Number of Children", Kind: KindNumber, Integer: true},
		{Name: FieldIncome, Label: "Yearly Income", Kind: KindNumber, Money: true},
		{Name: FieldEducation, Label: "Education Level", Kind: KindCategory, Domain: EducationTypes},
		{Name: FieldFamilyStatus, Label: "Family Status", Kind: KindCategory, Domain: FamilyStatuses},
		{Name: FieldIncomeType, Label: "Income Type", Kind: KindCategory, Domain: IncomeTypes},
		{Name: FieldHousingType, Label: "Housing Type", Kind: KindCategory, Domain: HousingTypes},
		{Name: FieldPhone, Label: "Has Phone", Kind: KindBool},
		{Name: FieldEmail, Label: "Has Email", Kind: KindBool},
		{Name: FieldOwnCar, Label: "Owns Car", Kind: KindBool},
		{Name: FieldOwnRealty, Label: "Owns Real Estate", Kind: KindBool},
		{Name: FieldAge, Label: "Age", Kind: KindNumber, Integer: true, Min: 18, Max: 100},
		{Name: FieldDaysEmployed, Label: "Days Employed or Retired", Kind: KindNumber, Integer: true},
		{Name: FieldEmployed, Label: "Currently Employed", Kind: KindBool},
		{Name: FieldMonthsWithBank, Label: "Months with Bank", Kind: KindNumber, Integer: true, Max: 300, Role: RoleMeta},
	}
}

// Base returns the schema of the application form: fourteen model fields
// plus the banking-history field checked before scoring.
func Base() *Schema {
	s, err := NewSchema(VariantBase, baseFields()...)
	if err != nil {
		panic(err)
	}
	return s
}

// Extended returns Base plus occupation type and family member count.
func Extended() *Schema {
	fields := append(baseFields(),
		Field{Name: FieldOccupation, Label: "Occupation Type", Kind: KindCategory, Domain: OccupationTypes},
		Field{Name: FieldFamilyMembers, Label: "Family Members", Kind: KindNumber, Integer: true, Min: 1},
	)
	s, err := NewSchema(VariantExtended, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Variant returns the built-in schema with the given name.
func Variant(name string) (*Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VariantBase:
		return Base(), nil
	case VariantExtended:
		return Extended(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
}
