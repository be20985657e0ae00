// Package scoringtest provides oracle doubles for tests.
package scoringtest

import (
	"context"
	"sync/atomic"
)

// Oracle is a configurable scoring.Oracle. ProbabilityFunc receives the
// raw vector; Calls counts PredictProbability invocations.
type Oracle struct {
	Names           []string
	ProbabilityFunc func(x []float64) (float64, error)
	LabelFunc       func(x []float64) (int, error)

	calls atomic.Int64
}

// Fixed returns an oracle that always answers p.
func Fixed(names []string, p float64) *Oracle {
	return &Oracle{
		Names:           names,
		ProbabilityFunc: func([]float64) (float64, error) { return p, nil },
	}
}

// FeatureNames implements scoring.Oracle.
func (o *Oracle) FeatureNames() []string { return o.Names }

// Predict implements scoring.Oracle. Without LabelFunc it labels at 0.5.
func (o *Oracle) Predict(_ context.Context, x []float64) (int, error) {
	if o.LabelFunc != nil {
		return o.LabelFunc(x)
	}
	p, err := o.ProbabilityFunc(x)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// PredictProbability implements scoring.Oracle.
func (o *Oracle) PredictProbability(_ context.Context, x []float64) (float64, error) {
	o.calls.Add(1)
	return o.ProbabilityFunc(x)
}

// Calls returns the number of PredictProbability invocations.
func (o *Oracle) Calls() int64 { return o.calls.Load() }
