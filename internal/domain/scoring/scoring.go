// Package scoring turns feature vectors into credit risk decisions using an
// injected, pre-trained oracle.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/creditrisk/internal/domain/features"
	"github.com/okian/creditrisk/pkg/metrics"
)

// DefaultThreshold is the favorable cut-point applied to the probability.
const DefaultThreshold = 0.40

// Oracle is the pre-trained binary classifier. Implementations must be
// safe for concurrent use and must not change after construction.
type Oracle interface {
	// FeatureNames returns the ordered feature contract.
	FeatureNames() []string
	// Predict returns the oracle's own label. It is advisory only.
	Predict(ctx context.Context, x []float64) (int, error)
	// PredictProbability returns the probability of the favorable class.
	PredictProbability(ctx context.Context, x []float64) (float64, error)
}

// Decision is the application-level classification of a probability.
type Decision int

// Decisions.
const (
	Unfavorable Decision = iota
	Favorable
)

func (d Decision) String() string {
	if d == Favorable {
		return "favorable"
	}
	return "unfavorable"
}

// Result is the outcome of scoring one vector.
type Result struct {
	Label       int
	Probability float64
	Decision    Decision
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithThreshold sets the favorable cut-point. Values outside [0,1] are ignored.
func WithThreshold(threshold float64) Option {
	return func(s *Scorer) {
		if threshold >= 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithInclusiveThreshold makes a probability equal to the threshold favorable.
func WithInclusiveThreshold(inclusive bool) Option {
	return func(s *Scorer) {
		s.inclusive = inclusive
	}
}

// Scorer wraps an Oracle with contract checks and the decision rule.
type Scorer struct {
	oracle    Oracle
	names     []string
	threshold float64
	inclusive bool
}

// NewScorer creates a scorer around oracle.
func NewScorer(oracle Oracle, opts ...Option) (*Scorer, error) {
	if oracle == nil {
		return nil, ErrNilOracle
	}
	s := &Scorer{
		oracle:    oracle,
		names:     oracle.FeatureNames(),
		threshold: DefaultThreshold,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Threshold returns the configured cut-point.
func (s *Scorer) Threshold() float64 { return s.threshold }

// FeatureNames returns the oracle's contract.
func (s *Scorer) FeatureNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Decide applies the decision rule. Only the probability drives it; the
// oracle's label may use a different implicit threshold.
func (s *Scorer) Decide(p float64) Decision {
	if p > s.threshold || (s.inclusive && p == s.threshold) {
		return Favorable
	}
	return Unfavorable
}

// Score checks the vector against the oracle contract and scores it.
func (s *Scorer) Score(ctx context.Context, v features.Vector) (Result, error) {
	const op = "scoring.score"
	if err := s.checkShape(v); err != nil {
		metrics.RecordScoringError()
		return Result{}, &Error{Op: op, Err: err}
	}

	start := time.Now()
	p, err := s.oracle.PredictProbability(ctx, v.Values)
	if err != nil {
		metrics.RecordScoringError()
		return Result{}, &Error{Op: op, Err: fmt.Errorf("predict probability: %w", err)}
	}
	label, err := s.oracle.Predict(ctx, v.Values)
	metrics.RecordOracleLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		return Result{}, &Error{Op: op, Err: fmt.Errorf("predict: %w", err)}
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		metrics.RecordScoringError()
		return Result{}, &Error{Op: op, Err: fmt.Errorf("probability %v outside [0,1]", p)}
	}

	return Result{
		Label:       label,
		Probability: p,
		Decision:    s.Decide(p),
	}, nil
}

func (s *Scorer) checkShape(v features.Vector) error {
	if len(v.Values) != len(s.names) {
		return fmt.Errorf("vector has %d columns, oracle expects %d", len(v.Values), len(s.names))
	}
	if len(v.Names) != len(v.Values) {
		return fmt.Errorf("vector has %d names for %d values", len(v.Names), len(v.Values))
	}
	for i, n := range s.names {
		if v.Names[i] != n {
			return fmt.Errorf("column %d is %q, oracle expects %q", i, v.Names[i], n)
		}
	}
	return nil
}
