package features

import (
	"github.com/okian/creditrisk/internal/domain/applicant"
)

// columnSeparator joins a field name and a category into an indicator
// column, following the pandas get_dummies naming the model was trained on.
const columnSeparator = "_"

// Column returns the indicator column name for a field category.
func Column(field, category string) string {
	return field + columnSeparator + category
}

// Codec turns applicant records into feature vectors.
//
// Encoding convention: numeric fields map to a column named after the
// field; category fields map to one indicator column FIELD_Category; boolean
// fields are categories Yes/No and map to FIELD_Yes or FIELD_No. Meta fields
// are never encoded.
type Codec struct {
	schema *applicant.Schema
}

// NewCodec creates a codec for the given schema.
func NewCodec(schema *applicant.Schema) *Codec {
	return &Codec{schema: schema}
}

// Schema returns the schema the codec validates against.
func (c *Codec) Schema() *applicant.Schema { return c.schema }

// Expand returns the columns generated from a single record before
// alignment. The record must be valid.
func (c *Codec) Expand(r *applicant.Record) map[string]float64 {
	cols := make(map[string]float64)
	for _, f := range c.schema.Fields() {
		if f.Role != applicant.RoleFeature {
			continue
		}
		v, ok := r.Get(f.Name)
		if !ok {
			continue
		}
		switch f.Kind {
		case applicant.KindNumber:
			cols[f.Name] = v.Float()
		case applicant.KindBool:
			cols[Column(f.Name, applicant.BoolCategory(f, v))] = 1
		case applicant.KindCategory:
			if cat, ok := f.Canonical(v.Text()); ok {
				cols[Column(f.Name, cat)] = 1
			}
		}
	}
	return cols
}

// Encode validates the record and lays it out exactly as the contract
// declares: contract columns the record does not produce are zero, and
// generated columns the contract does not know are dropped.
func (c *Codec) Encode(r *applicant.Record, contract *Contract) (Vector, error) {
	if err := c.schema.Validate(r); err != nil {
		return Vector{}, err
	}
	cols := c.Expand(r)

	v := Vector{
		Names:  contract.Names(),
		Values: make([]float64, contract.Len()),
	}
	for name, x := range cols {
		i, ok := contract.Index(name)
		if !ok {
			v.Dropped = append(v.Dropped, name)
			continue
		}
		v.Values[i] = x
	}
	sortStrings(v.Dropped)
	return v, nil
}

// Columns returns every column the codec can emit for its schema, in
// schema order.
func (c *Codec) Columns() []string {
	var out []string
	for _, f := range c.schema.Fields() {
		if f.Role != applicant.RoleFeature {
			continue
		}
		if f.Kind == applicant.KindNumber {
			out = append(out, f.Name)
			continue
		}
		for _, cat := range f.Domain {
			out = append(out, Column(f.Name, cat))
		}
	}
	return out
}
