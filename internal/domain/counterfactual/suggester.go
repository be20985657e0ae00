// Package counterfactual searches small perturbations of an applicant record
// that would have improved the model's favorable probability.
package counterfactual

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/internal/domain/features"
	"github.com/okian/creditrisk/internal/domain/scoring"
	"github.com/okian/creditrisk/pkg/metrics"
)

// Defaults observed in the original application.
var (
	DefaultAttributes = []string{applicant.FieldIncome}
	DefaultIncrements = []float64{0.1, 0.2, 0.3}
)

// DefaultBudget bounds one search.
const DefaultBudget = 2 * time.Second

// Suggestion is a single-field change that improved the probability.
type Suggestion struct {
	Attribute           string
	Label               string
	Money               bool
	Original            float64
	Candidate           float64
	Increment           float64
	Probability         float64
	OriginalProbability float64
	Favorable           bool
}

// Suggester runs the counterfactual search. It is stateless between calls.
type Suggester struct {
	codec  *features.Codec
	scorer *scoring.Scorer

	attributes       []string
	increments       []float64
	order            Order
	budget           time.Duration
	requireFavorable bool
}

// NewSuggester creates a suggester. Every attribute must be a numeric
// feature field of the codec's schema.
func NewSuggester(codec *features.Codec, scorer *scoring.Scorer, opts ...Option) (*Suggester, error) {
	s := &Suggester{
		codec:      codec,
		scorer:     scorer,
		attributes: DefaultAttributes,
		increments: DefaultIncrements,
		budget:     DefaultBudget,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	for _, attr := range s.attributes {
		f, ok := codec.Schema().Field(attr)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not declared", ErrAttribute, attr)
		}
		if f.Kind != applicant.KindNumber || f.Role != applicant.RoleFeature {
			return nil, fmt.Errorf("%w: %s is not a numeric model feature", ErrAttribute, attr)
		}
	}
	return s, nil
}

// Suggest scores v, then for each attribute and increment substitutes
// original*(1+increment) into rec, re-encodes and re-scores it. A candidate
// is kept when its probability strictly exceeds the original one.
// Increments are independent; rec is restored before every return.
//
// When the budget or ctx expires, the suggestions found so far are returned
// together with ErrBudgetExceeded.
func (s *Suggester) Suggest(ctx context.Context, v features.Vector, rec *applicant.Record, contract *features.Contract) ([]Suggestion, error) {
	base, err := s.scorer.Score(ctx, v)
	if err != nil {
		return nil, err
	}

	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	var out []Suggestion
	for _, attr := range s.attributes {
		field, _ := s.codec.Schema().Field(attr)
		orig, ok := rec.Get(attr)
		if !ok {
			return nil, &applicant.InvalidRecordError{Field: attr, Reason: "required field is missing"}
		}

		for _, inc := range s.increments {
			if err := ctx.Err(); err != nil {
				return s.truncate(out, err)
			}

			cand := orig.Float() * (1 + inc)
			if field.Integer {
				cand = math.Round(cand)
			}
			if cand == orig.Float() || !field.InBounds(cand) {
				continue
			}

			res, err := s.try(ctx, rec, attr, orig, cand, contract)
			if err != nil {
				// An oracle that honours ctx fails once the budget is spent.
				if cerr := ctx.Err(); cerr != nil {
					return s.truncate(out, cerr)
				}
				return nil, err
			}
			if res.Probability <= base.Probability {
				continue
			}
			if s.requireFavorable && res.Decision != scoring.Favorable {
				continue
			}
			out = append(out, Suggestion{
				Attribute:           attr,
				Label:               field.Label,
				Money:               field.Money,
				Original:            orig.Float(),
				Candidate:           cand,
				Increment:           inc,
				Probability:         res.Probability,
				OriginalProbability: base.Probability,
				Favorable:           res.Decision == scoring.Favorable,
			})
		}
	}
	return s.finish(out), nil
}

// try scores rec with attr temporarily set to cand.
func (s *Suggester) try(ctx context.Context, rec *applicant.Record, attr string, orig applicant.Value, cand float64, contract *features.Contract) (scoring.Result, error) {
	rec.Set(attr, applicant.Number(cand))
	defer rec.Set(attr, orig)

	vec, err := s.codec.Encode(rec, contract)
	if err != nil {
		return scoring.Result{}, err
	}
	return s.scorer.Score(ctx, vec)
}

func (s *Suggester) truncate(out []Suggestion, cause error) ([]Suggestion, error) {
	metrics.RecordSuggestionSearchTruncated()
	return s.finish(out), fmt.Errorf("%w: %v", ErrBudgetExceeded, cause)
}

func (s *Suggester) finish(out []Suggestion) []Suggestion {
	if s.order == OrderImprovement {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Probability > out[j].Probability
		})
	}
	metrics.RecordSuggestionsEmitted(len(out))
	return out
}
