// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New(ctx) to build a Config with defaults.
//   - Load layers a .env file, an optional YAML file and CREDITRISK_ env vars on top.
//   - Errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
)

// Model artifact kinds.
const (
	ModelLinear = "linear"
	ModelONNX   = "onnx"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ModelKind selects the oracle adapter: linear or onnx.
	ModelKind string `koanf:"model_kind"`

	// ModelPath points at the model artifact.
	ModelPath string `koanf:"model_path"`

	// ContractPath points at the feature contract sidecar of an onnx model.
	// Empty means the model path with its extension replaced by .contract.yaml.
	ContractPath string `koanf:"contract_path"`

	// ONNX runtime settings.
	ONNXLibraryPath       string `koanf:"onnx_library_path"`
	ONNXInputName         string `koanf:"onnx_input_name"`
	ONNXLabelOutput       string `koanf:"onnx_label_output"`
	ONNXProbabilityOutput string `koanf:"onnx_probability_output"`

	// SchemaVariant picks the inbound record schema: base or extended.
	SchemaVariant string `koanf:"schema_variant"`

	// RiskThreshold is the favorable decision cut-off on P(class 1).
	RiskThreshold float64 `koanf:"risk_threshold"`

	// InclusiveThreshold makes a probability equal to the threshold favorable.
	InclusiveThreshold bool `koanf:"inclusive_threshold"`

	// PersonalLoanIncomeFloor is the yearly income above which a personal loan is offered.
	PersonalLoanIncomeFloor float64 `koanf:"personal_loan_income_floor"`

	// MinHistoryMonths is the banking history required before scoring.
	MinHistoryMonths int `koanf:"min_history_months"`

	// Counterfactual search.
	SuggestionAttributes        []string  `koanf:"suggestion_attributes"`
	SuggestionIncrements        []float64 `koanf:"suggestion_increments"`
	SuggestionOrder             string    `koanf:"suggestion_order"`
	SuggestionBudgetMS          int       `koanf:"suggestion_budget_ms"`
	RequireFavorableSuggestions bool      `koanf:"require_favorable_suggestions"`

	// MinContractOverlap is the share of contract columns the codec must be
	// able to produce for start-up to continue.
	MinContractOverlap float64 `koanf:"min_contract_overlap"`

	// Batch assessments.
	BatchWorkers    int `koanf:"batch_workers"`
	BatchMaxRecords int `koanf:"batch_max_records"`
	// BatchTimeoutMS bounds one batch request. The HTTP write timeout is
	// kept above it so a slow batch still gets its response.
	BatchTimeoutMS int `koanf:"batch_timeout_ms"`

	// Metric naming. Latency buckets are in milliseconds.
	MetricsNamespace      string    `koanf:"metrics_namespace"`
	MetricsSubsystem      string    `koanf:"metrics_subsystem"`
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		ModelKind:               ModelLinear,
		ModelPath:               "model/credit_risk.yaml",
		ONNXInputName:           "float_input",
		ONNXLabelOutput:         "label",
		ONNXProbabilityOutput:   "probabilities",
		SchemaVariant:           "base",
		RiskThreshold:           0.40,
		PersonalLoanIncomeFloor: 50_000,
		MinHistoryMonths:        12,
		SuggestionAttributes:    []string{"AMT_INCOME_TOTAL"},
		SuggestionIncrements:    []float64{0.1, 0.2, 0.3},
		SuggestionOrder:         "increment",
		SuggestionBudgetMS:      2000,
		MinContractOverlap:      0.5,
		BatchWorkers:            8,
		BatchMaxRecords:         100,
		BatchTimeoutMS:          12_000,
		MetricsNamespace:        "creditrisk",
		MetricsSubsystem:        "engine",
		MetricsLatencyBuckets:   []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.ModelPath) == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case c.RiskThreshold < 0 || c.RiskThreshold > 1:
		return fmt.Errorf("%w: risk_threshold %v outside [0, 1]", ErrInvalidConfig, c.RiskThreshold)
	case c.PersonalLoanIncomeFloor < 0:
		return fmt.Errorf("%w: personal_loan_income_floor must not be negative", ErrInvalidConfig)
	case c.MinHistoryMonths < 0:
		return fmt.Errorf("%w: min_history_months must not be negative", ErrInvalidConfig)
	case c.SuggestionBudgetMS <= 0:
		return fmt.Errorf("%w: suggestion_budget_ms must be positive", ErrInvalidConfig)
	case c.BatchWorkers <= 0:
		return fmt.Errorf("%w: batch_workers must be positive", ErrInvalidConfig)
	case c.BatchMaxRecords <= 0:
		return fmt.Errorf("%w: batch_max_records must be positive", ErrInvalidConfig)
	case c.BatchTimeoutMS <= 0:
		return fmt.Errorf("%w: batch_timeout_ms must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.MetricsNamespace) == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case c.MinContractOverlap <= 0 || c.MinContractOverlap > 1:
		return fmt.Errorf("%w: min_contract_overlap %v outside (0, 1]", ErrInvalidConfig, c.MinContractOverlap)
	}

	switch strings.ToLower(c.ModelKind) {
	case ModelLinear, ModelONNX:
	default:
		return fmt.Errorf("%w: unknown model_kind %q", ErrInvalidConfig, c.ModelKind)
	}
	switch strings.ToLower(c.SchemaVariant) {
	case "base", "extended":
	default:
		return fmt.Errorf("%w: unknown schema_variant %q", ErrInvalidConfig, c.SchemaVariant)
	}
	switch strings.ToLower(c.SuggestionOrder) {
	case "increment", "improvement":
	default:
		return fmt.Errorf("%w: unknown suggestion_order %q", ErrInvalidConfig, c.SuggestionOrder)
	}
	if len(c.SuggestionIncrements) == 0 {
		return fmt.Errorf("%w: suggestion_increments must not be empty", ErrInvalidConfig)
	}
	for i, b := range c.MetricsLatencyBuckets {
		if b <= 0 || (i > 0 && b <= c.MetricsLatencyBuckets[i-1]) {
			return fmt.Errorf("%w: metrics_latency_buckets must be positive and increasing", ErrInvalidConfig)
		}
	}
	for _, inc := range c.SuggestionIncrements {
		if inc <= 0 {
			return fmt.Errorf("%w: suggestion increment %v must be positive", ErrInvalidConfig, inc)
		}
	}
	return nil
}
