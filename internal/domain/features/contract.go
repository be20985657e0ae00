// Package features aligns applicant records with the ordered numeric
// feature layout a trained model expects.
package features

import (
	"fmt"
	"strings"
)

// Contract is the ordered set of column names a model was trained on.
// It is immutable once built and safe to share.
type Contract struct {
	names []string
	index map[string]int
}

// NewContract builds a contract from ordered column names. Names must be
// non-empty and unique.
func NewContract(names []string) (*Contract, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no feature names", ErrInvalidContract)
	}
	c := &Contract{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, fmt.Errorf("%w: empty name at position %d", ErrInvalidContract, i)
		}
		if _, dup := c.index[n]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidContract, n)
		}
		c.index[n] = i
		c.names[i] = n
	}
	return c, nil
}

// Names returns a copy of the column names in contract order.
func (c *Contract) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the contract dimensionality.
func (c *Contract) Len() int { return len(c.names) }

// Index returns the position of a column.
func (c *Contract) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Vector is a feature vector laid out against a contract.
type Vector struct {
	// Names are the contract columns. Each vector owns its copy.
	Names []string
	// Values[i] is the value of column Names[i].
	Values []float64
	// Dropped lists generated columns the contract does not declare.
	Dropped []string
}

// Len returns the vector dimensionality.
func (v Vector) Len() int { return len(v.Values) }

// Value returns the value of a named column.
func (v Vector) Value(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}
