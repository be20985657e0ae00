// Package applicant defines the applicant record submitted for assessment and
// the schema that declares which fields a record must carry.
package applicant

import (
	"strconv"
)

// Kind is the value kind of a record field.
type Kind int

// Supported value kinds.
const (
	KindCategory Kind = iota + 1
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value holds one field value. The zero Value is invalid.
type Value struct {
	kind Kind
	text string
	num  float64
	flag bool
}

// Category returns a categorical value.
func Category(s string) Value { return Value{kind: KindCategory, text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Kind reports the value kind.
func (v Value) Kind() Kind { return v.kind }

// Text returns the category text; empty for other kinds.
func (v Value) Text() string { return v.text }

// Float returns the numeric value; 0 for other kinds.
func (v Value) Float() float64 { return v.num }

// Flag returns the boolean value; false for other kinds.
func (v Value) Flag() bool { return v.flag }

func (v Value) String() string {
	switch v.kind {
	case KindCategory:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		if v.flag {
			return Yes
		}
		return No
	default:
		return ""
	}
}

// Record is an ordered mapping from field name to value. A record is owned
// by a single request and is not safe for concurrent use.
type Record struct {
	order  []string
	values map[string]Value
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set stores v under name, keeping first-insertion order.
func (r *Record) Set(name string, v Value) {
	if _, ok := r.values[name]; !ok {
		r.order = append(r.order, name)
	}
	r.values[name] = v
}

// Get returns the value stored under name.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Fields returns field names in insertion order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.order) }

// Clone returns an independent copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{
		order:  make([]string, len(r.order)),
		values: make(map[string]Value, len(r.values)),
	}
	copy(c.order, r.order)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}
