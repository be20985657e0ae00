// Package service provides the assessment use case that the HTTP API
// depends on: validate and encode a record, score it, then either offer
// products or search for counterfactual suggestions.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/internal/domain/counterfactual"
	"github.com/okian/creditrisk/internal/domain/features"
	"github.com/okian/creditrisk/internal/domain/products"
	"github.com/okian/creditrisk/internal/domain/scoring"
	"github.com/okian/creditrisk/pkg/logger"
	"github.com/okian/creditrisk/pkg/metrics"
)

// Outcome classifies a completed assessment.
type Outcome string

// Assessment outcomes.
const (
	OutcomeInsufficientHistory Outcome = "insufficient_history"
	OutcomeFavorable           Outcome = "favorable"
	OutcomeUnfavorable         Outcome = "unfavorable"
)

// Risk status wording shown to applicants.
const (
	RiskLow  = "low credit risk"
	RiskHigh = "high credit risk"
)

// Messages shown alongside an assessment.
const (
	HighRiskLead  = "You are currently at a high credit risk. Here are some suggestions to improve your profile:"
	NoOffers      = "No additional products are available for your profile at this time."
	NoSuggestions = "No simple changes were found that would improve your assessment."
)

// DefaultMinHistoryMonths is the banking history required before scoring.
const DefaultMinHistoryMonths = 12

// Assessment is the result of one Assess call. Offers are set only for
// favorable outcomes and Suggestions only for unfavorable ones.
type Assessment struct {
	Outcome      Outcome
	RiskStatus   string
	Message      string
	Probability  float64
	Label        int
	Threshold    float64
	ModelVersion string
	Offers       []products.Product
	Suggestions  []counterfactual.Suggestion
	Truncated    bool
}

// Service implements the API dependencies for credit risk assessment.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	codec     *features.Codec
	contract  *features.Contract
	scorer    *scoring.Scorer
	rules     *products.Rules
	suggester *counterfactual.Suggester

	minHistoryMonths int
	modelVersion     string
	logger           logger.Logger
	startedAt        time.Time

	assessed     atomic.Int64
	favorable    atomic.Int64
	unfavorable  atomic.Int64
	insufficient atomic.Int64
	invalid      atomic.Int64
	failed       atomic.Int64
	offered      atomic.Int64
	suggested    atomic.Int64
	truncated    atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMinHistoryMonths sets the banking history required before scoring.
func WithMinHistoryMonths(months int) Option {
	return func(s *Service) {
		if months >= 0 {
			s.minHistoryMonths = months
		}
	}
}

// WithModelVersion records the loaded model version in assessments.
func WithModelVersion(version string) Option {
	return func(s *Service) {
		s.modelVersion = version
	}
}

// New constructs a Service over its domain components.
func New(codec *features.Codec, contract *features.Contract, scorer *scoring.Scorer,
	rules *products.Rules, suggester *counterfactual.Suggester, opts ...Option,
) (*Service, error) {
	switch {
	case codec == nil:
		return nil, fmt.Errorf("%w: codec", ErrMissingDependency)
	case contract == nil:
		return nil, fmt.Errorf("%w: contract", ErrMissingDependency)
	case scorer == nil:
		return nil, fmt.Errorf("%w: scorer", ErrMissingDependency)
	case rules == nil:
		return nil, fmt.Errorf("%w: rules", ErrMissingDependency)
	case suggester == nil:
		return nil, fmt.Errorf("%w: suggester", ErrMissingDependency)
	}

	s := &Service{
		codec:            codec,
		contract:         contract,
		scorer:           scorer,
		rules:            rules,
		suggester:        suggester,
		minHistoryMonths: DefaultMinHistoryMonths,
		startedAt:        time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("assessment")
	}
	return s, nil
}

// Assess runs one assessment. Invalid records return an error wrapping
// applicant.ErrInvalidRecord; scoring failures wrap scoring.ErrScoring.
// A suggestion search cut short by its budget is not an error: the partial
// result is returned with Truncated set.
func (s *Service) Assess(ctx context.Context, rec *applicant.Record) (Assessment, error) {
	s.assessed.Add(1)

	v, err := s.codec.Encode(rec, s.contract)
	if err != nil {
		s.invalid.Add(1)
		metrics.RecordInvalidRecord()
		s.logger.Debug(ctx, "record rejected", logger.Error(err))
		return Assessment{}, err
	}
	if len(v.Dropped) > 0 {
		s.logger.Debug(ctx, "columns outside the feature contract", logger.Any("dropped", v.Dropped))
	}

	if months, ok := s.historyMonths(rec); ok && months < float64(s.minHistoryMonths) {
		s.insufficient.Add(1)
		metrics.RecordAssessment(string(OutcomeInsufficientHistory))
		s.logger.Info(ctx, "insufficient banking history",
			logger.Float64("months", months),
			logger.Int("required", s.minHistoryMonths),
		)
		return Assessment{
			Outcome:      OutcomeInsufficientHistory,
			Message:      fmt.Sprintf("Unable to assess risk as banking history is less than %d months.", s.minHistoryMonths),
			Threshold:    s.scorer.Threshold(),
			ModelVersion: s.modelVersion,
		}, nil
	}

	res, err := s.scorer.Score(ctx, v)
	if err != nil {
		s.failed.Add(1)
		s.logger.Error(ctx, "scoring failed", logger.Error(err))
		return Assessment{}, err
	}

	a := Assessment{
		Probability:  res.Probability,
		Label:        res.Label,
		Threshold:    s.scorer.Threshold(),
		ModelVersion: s.modelVersion,
	}

	if res.Decision == scoring.Favorable {
		a.Outcome = OutcomeFavorable
		a.RiskStatus = RiskLow
		a.Offers = s.rules.Offer(rec, res.Decision)
		for _, p := range a.Offers {
			metrics.RecordOffer(p.Name)
		}
		if len(a.Offers) == 0 {
			a.Message = NoOffers
		}
		s.favorable.Add(1)
		s.offered.Add(int64(len(a.Offers)))
		metrics.RecordAssessment(string(OutcomeFavorable))
		s.logger.Info(ctx, "assessment complete",
			logger.String("outcome", string(a.Outcome)),
			logger.Float64("probability", a.Probability),
			logger.Int("offers", len(a.Offers)),
		)
		return a, nil
	}

	a.Outcome = OutcomeUnfavorable
	a.RiskStatus = RiskHigh
	suggestions, err := s.suggester.Suggest(ctx, v, rec, s.contract)
	switch {
	case errors.Is(err, counterfactual.ErrBudgetExceeded):
		a.Truncated = true
		s.truncated.Add(1)
		s.logger.Warn(ctx, "suggestion search truncated", logger.Int("partial", len(suggestions)))
	case err != nil:
		s.failed.Add(1)
		s.logger.Error(ctx, "suggestion search failed", logger.Error(err))
		return Assessment{}, err
	}
	a.Suggestions = suggestions
	if len(suggestions) > 0 {
		a.Message = HighRiskLead
	} else {
		a.Message = NoSuggestions
	}
	s.unfavorable.Add(1)
	s.suggested.Add(int64(len(suggestions)))
	metrics.RecordAssessment(string(OutcomeUnfavorable))
	s.logger.Info(ctx, "assessment complete",
		logger.String("outcome", string(a.Outcome)),
		logger.Float64("probability", a.Probability),
		logger.Int("suggestions", len(suggestions)),
		logger.Bool("truncated", a.Truncated),
	)
	return a, nil
}

func (s *Service) historyMonths(rec *applicant.Record) (float64, bool) {
	if _, declared := s.codec.Schema().Field(applicant.FieldMonthsWithBank); !declared {
		return 0, false
	}
	v, ok := rec.Get(applicant.FieldMonthsWithBank)
	if !ok || v.Kind() != applicant.KindNumber {
		return 0, false
	}
	return v.Float(), true
}

// ContractInfo describes the loaded model and the inbound schema.
type ContractInfo struct {
	ModelVersion      string
	Schema            string
	Features          []string
	Fields            []applicant.Field
	Threshold         float64
	MinHistoryMonths  int
	PersonalLoanFloor string
}

// Contract returns the model and schema description served by the API.
func (s *Service) Contract() ContractInfo {
	schema := s.codec.Schema()
	return ContractInfo{
		ModelVersion:      s.modelVersion,
		Schema:            schema.Name(),
		Features:          s.contract.Names(),
		Fields:            schema.Fields(),
		Threshold:         s.scorer.Threshold(),
		MinHistoryMonths:  s.minHistoryMonths,
		PersonalLoanFloor: s.rules.IncomeFloor().String(),
	}
}

// Schema returns the inbound record schema.
func (s *Service) Schema() *applicant.Schema { return s.codec.Schema() }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"modelVersion":        s.modelVersion,
		"schema":              s.codec.Schema().Name(),
		"features":            s.contract.Len(),
		"threshold":           s.scorer.Threshold(),
		"uptimeSeconds":       int64(time.Since(s.startedAt).Seconds()),
		"assessments":         s.assessed.Load(),
		"favorable":           s.favorable.Load(),
		"unfavorable":         s.unfavorable.Load(),
		"insufficientHistory": s.insufficient.Load(),
		"invalidRecords":      s.invalid.Load(),
		"failures":            s.failed.Load(),
		"offers":              s.offered.Load(),
		"suggestions":         s.suggested.Load(),
		"truncatedSearches":   s.truncated.Load(),
	}
}
