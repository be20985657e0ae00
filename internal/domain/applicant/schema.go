package applicant

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Boolean fields are expanded as these two categories.
const (
	Yes = "Yes"
	No  = "No"
)

// Field names used by the built-in schemas. They match the column prefixes
// of the trained model's feature contract.
const (
	FieldGender         = "CODE_GENDER"
	FieldChildren       = "CNT_CHILDREN"
	FieldIncome         = "AMT_INCOME_TOTAL"
	FieldEducation      = "NAME_EDUCATION_TYPE"
	FieldFamilyStatus   = "NAME_FAMILY_STATUS"
	FieldIncomeType     = "NAME_INCOME_TYPE"
	FieldHousingType    = "NAME_HOUSING_TYPE"
	FieldPhone          = "FLAG_PHONE"
	FieldEmail          = "FLAG_EMAIL"
	FieldOwnCar         = "OWN_CAR"
	FieldOwnRealty      = "OWN_REALTY"
	FieldAge            = "AGE"
	FieldDaysEmployed   = "DAYS_EMPLOYED"
	FieldEmployed       = "EMPLOYED_OR_NOT"
	FieldMonthsWithBank = "MONTHS_WITH_BANK"
	FieldOccupation     = "OCCUPATION_TYPE"
	FieldFamilyMembers  = "CNT_FAM_MEMBERS"
)

// Role tells whether a field feeds the model or only business rules.
type Role int

// Field roles.
const (
	RoleFeature Role = iota
	RoleMeta
)

// Field declares one schema field.
type Field struct {
	Name    string
	Label   string
	Kind    Kind
	Role    Role
	Domain  []string // category fields only
	Min     float64
	Max     float64 // 0 means unbounded
	Integer bool
	Money   bool
}

// Canonical returns the domain spelling matching s after normalization.
func (f Field) Canonical(s string) (string, bool) {
	want := NormalizeText(s)
	for _, d := range f.Domain {
		if strings.EqualFold(d, want) {
			return d, true
		}
	}
	return "", false
}

// InBounds reports whether x satisfies the numeric constraints of f.
func (f Field) InBounds(x float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	if x < f.Min {
		return false
	}
	if f.Max > 0 && x > f.Max {
		return false
	}
	return true
}

// Schema is an ordered, immutable set of field declarations.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewSchema validates and builds a schema.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	s := &Schema{name: name, index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field without name", ErrInvalidSchema)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %s", ErrInvalidSchema, f.Name)
		}
		if f.Kind == KindCategory && len(f.Domain) == 0 {
			return nil, fmt.Errorf("%w: category field %s has empty domain", ErrInvalidSchema, f.Name)
		}
		if f.Kind == KindBool {
			f.Domain = []string{Yes, No}
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// Name returns the schema variant name.
func (s *Schema) Name() string { return s.name }

// Fields returns all declared fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Validate checks that every declared field is present and well formed.
// Fields in the record that the schema does not declare are ignored.
func (s *Schema) Validate(r *Record) error {
	if r == nil {
		return invalid("*", "record is nil")
	}
	for _, f := range s.fields {
		v, ok := r.Get(f.Name)
		if !ok {
			return invalid(f.Name, "required field is missing")
		}
		if err := f.check(v); err != nil {
			return err
		}
	}
	return nil
}

func (f Field) check(v Value) error {
	switch f.Kind {
	case KindNumber:
		if v.Kind() != KindNumber {
			return invalid(f.Name, "expected number, got %s", v.Kind())
		}
		x := v.Float()
		if !f.InBounds(x) {
			if f.Max > 0 {
				return invalid(f.Name, "value %v outside [%v, %v]", x, f.Min, f.Max)
			}
			return invalid(f.Name, "value %v below minimum %v", x, f.Min)
		}
		if f.Integer && x != math.Trunc(x) {
			return invalid(f.Name, "value %v is not a whole number", x)
		}
	case KindBool:
		// Booleans are either typed or the literal Yes/No categories;
		// 0/1 numbers are rejected so only one convention reaches the codec.
		switch v.Kind() {
		case KindBool:
		case KindCategory:
			if _, ok := f.Canonical(v.Text()); !ok {
				return invalid(f.Name, "expected Yes or No, got %q", v.Text())
			}
		default:
			return invalid(f.Name, "expected Yes/No, got %s", v.Kind())
		}
	case KindCategory:
		if v.Kind() != KindCategory {
			return invalid(f.Name, "expected category, got %s", v.Kind())
		}
		if _, ok := f.Canonical(v.Text()); !ok {
			return invalid(f.Name, "value %q is not one of %s", v.Text(), strings.Join(f.Domain, ", "))
		}
	default:
		return invalid(f.Name, "unsupported field kind")
	}
	return nil
}

// BoolCategory returns the Yes/No category of a boolean field value. The
// value must already have passed validation.
func BoolCategory(f Field, v Value) string {
	if v.Kind() == KindBool {
		if v.Flag() {
			return Yes
		}
		return No
	}
	c, _ := f.Canonical(v.Text())
	return c
}

// NormalizeText applies NFKC, trims, and collapses inner whitespace runs.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
