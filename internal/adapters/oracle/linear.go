package oracle

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
)

const defaultLabelThreshold = 0.5

// linearFile is the on-disk layout of a logistic model.
type linearFile struct {
	Version        string    `yaml:"version"`
	FeatureNames   []string  `yaml:"feature_names"`
	Coefficients   []float64 `yaml:"coefficients"`
	Intercept      float64   `yaml:"intercept"`
	LabelThreshold *float64  `yaml:"label_threshold"`
}

// Linear is a logistic regression evaluated in process: p = σ(w·x + b).
type Linear struct {
	version        string
	names          []string
	coefficients   []float64
	intercept      float64
	labelThreshold float64
	closed         atomic.Bool
}

// LoadLinear reads a YAML logistic model.
func LoadLinear(path string) (*Linear, error) {
	var f linearFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	if err := checkNames(path, f.FeatureNames); err != nil {
		return nil, err
	}
	if len(f.Coefficients) != len(f.FeatureNames) {
		return nil, loadErr(path, "coefficients",
			fmt.Errorf("%d coefficients for %d features", len(f.Coefficients), len(f.FeatureNames)))
	}
	for i, w := range f.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, loadErr(path, "coefficients", fmt.Errorf("coefficient %d is not finite", i))
		}
	}
	th := defaultLabelThreshold
	if f.LabelThreshold != nil {
		th = *f.LabelThreshold
	}
	if th < 0 || th > 1 {
		return nil, loadErr(path, "label_threshold", fmt.Errorf("%v outside [0, 1]", th))
	}
	return &Linear{
		version:        f.Version,
		names:          copyNames(f.FeatureNames),
		coefficients:   f.Coefficients,
		intercept:      f.Intercept,
		labelThreshold: th,
	}, nil
}

// Kind implements Artifact.
func (m *Linear) Kind() string { return KindLinear }

// Version implements Artifact.
func (m *Linear) Version() string { return m.version }

// FeatureNames implements scoring.Oracle.
func (m *Linear) FeatureNames() []string { return copyNames(m.names) }

// PredictProbability implements scoring.Oracle.
func (m *Linear) PredictProbability(ctx context.Context, x []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if len(x) != len(m.coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrInput, len(x), len(m.coefficients))
	}
	z := m.intercept
	for i, w := range m.coefficients {
		z += w * x[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}

// Predict implements scoring.Oracle using the model's own label threshold.
func (m *Linear) Predict(ctx context.Context, x []float64) (int, error) {
	p, err := m.PredictProbability(ctx, x)
	if err != nil {
		return 0, err
	}
	if p >= m.labelThreshold {
		return 1, nil
	}
	return 0, nil
}

// Close implements Artifact.
func (m *Linear) Close() error {
	m.closed.Store(true)
	return nil
}
