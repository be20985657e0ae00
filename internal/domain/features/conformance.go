package features

import (
	"fmt"
	"sort"
)

// DefaultMinOverlap is the smallest share of contract columns the codec
// must be able to produce.
const DefaultMinOverlap = 0.5

// Conformance summarizes how well the codec covers a contract.
type Conformance struct {
	Declared    int
	Producible  int
	Unreachable []string // declared, never produced: always zero
	Unknown     []string // produced, never declared: always dropped
}

// Overlap is the producible share of the contract.
func (c Conformance) Overlap() float64 {
	if c.Declared == 0 {
		return 0
	}
	return float64(c.Producible) / float64(c.Declared)
}

// CheckConformance compares the codec's possible output with the contract
// and fails with ErrContractDrift when the overlap is below minOverlap.
func (c *Codec) CheckConformance(contract *Contract, minOverlap float64) (Conformance, error) {
	if minOverlap <= 0 || minOverlap > 1 {
		minOverlap = DefaultMinOverlap
	}
	possible := make(map[string]struct{})
	var rep Conformance
	for _, col := range c.Columns() {
		possible[col] = struct{}{}
		if _, ok := contract.Index(col); !ok {
			rep.Unknown = append(rep.Unknown, col)
		}
	}
	rep.Declared = contract.Len()
	for _, name := range contract.names {
		if _, ok := possible[name]; ok {
			rep.Producible++
			continue
		}
		rep.Unreachable = append(rep.Unreachable, name)
	}
	if rep.Overlap() < minOverlap {
		return rep, fmt.Errorf("%w: codec produces %d of %d contract columns (%.2f < %.2f)",
			ErrContractDrift, rep.Producible, rep.Declared, rep.Overlap(), minOverlap)
	}
	return rep, nil
}

func sortStrings(s []string) {
	if len(s) > 1 {
		sort.Strings(s)
	}
}
