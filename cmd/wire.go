package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/creditrisk/internal/adapters/oracle"
	app "github.com/okian/creditrisk/internal/app"
	"github.com/okian/creditrisk/internal/config"
	"github.com/okian/creditrisk/internal/domain/applicant"
	"github.com/okian/creditrisk/internal/domain/counterfactual"
	"github.com/okian/creditrisk/internal/domain/features"
	"github.com/okian/creditrisk/internal/domain/products"
	"github.com/okian/creditrisk/internal/domain/scoring"
	"github.com/okian/creditrisk/pkg/logger"
	"github.com/okian/creditrisk/pkg/metrics"
)

// build loads the model and assembles the assessment service. Any error is
// fatal: the process must not serve requests without a conforming model.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, oracle.Artifact, error) {
	art, err := oracle.Load(ctx, oracle.Options{
		Kind:              cfg.ModelKind,
		Path:              cfg.ModelPath,
		ContractPath:      cfg.ContractPath,
		LibraryPath:       cfg.ONNXLibraryPath,
		InputName:         cfg.ONNXInputName,
		LabelOutput:       cfg.ONNXLabelOutput,
		ProbabilityOutput: cfg.ONNXProbabilityOutput,
	})
	if err != nil {
		return nil, nil, err
	}

	svc, err := assemble(cfg, art, log)
	if err != nil {
		_ = art.Close()
		return nil, nil, err
	}
	return svc, art, nil
}

func assemble(cfg *config.Config, art oracle.Artifact, log logger.Logger) (*app.Service, error) {
	schema, err := applicant.Variant(cfg.SchemaVariant)
	if err != nil {
		return nil, err
	}
	codec := features.NewCodec(schema)

	contract, err := features.NewContract(art.FeatureNames())
	if err != nil {
		return nil, err
	}
	conf, err := codec.CheckConformance(contract, cfg.MinContractOverlap)
	if err != nil {
		return nil, err
	}
	if len(conf.Unreachable) > 0 {
		log.Warn(context.Background(), "model expects columns the schema cannot produce; they will be zero",
			logger.Any("columns", conf.Unreachable))
	}
	if len(conf.Unknown) > 0 {
		log.Debug(context.Background(), "schema columns unknown to the model are dropped",
			logger.Any("columns", conf.Unknown))
	}
	log.Info(context.Background(), "feature contract checked",
		logger.Int("declared", conf.Declared),
		logger.Int("producible", conf.Producible),
		logger.Float64("overlap", conf.Overlap()),
	)

	scorer, err := scoring.NewScorer(art,
		scoring.WithThreshold(cfg.RiskThreshold),
		scoring.WithInclusiveThreshold(cfg.InclusiveThreshold),
	)
	if err != nil {
		return nil, err
	}

	rules := products.NewRules(
		products.WithPersonalLoanFloor(decimal.NewFromFloat(cfg.PersonalLoanIncomeFloor)),
	)

	order, err := counterfactual.ParseOrder(cfg.SuggestionOrder)
	if err != nil {
		return nil, err
	}
	suggester, err := counterfactual.NewSuggester(codec, scorer,
		counterfactual.WithAttributes(cfg.SuggestionAttributes...),
		counterfactual.WithIncrements(cfg.SuggestionIncrements...),
		counterfactual.WithOrder(order),
		counterfactual.WithBudget(time.Duration(cfg.SuggestionBudgetMS)*time.Millisecond),
		counterfactual.WithRequireFavorable(cfg.RequireFavorableSuggestions),
	)
	if err != nil {
		return nil, fmt.Errorf("suggester: %w", err)
	}

	metrics.SetModelInfo(art.Version(), art.Kind(), contract.Len())

	return app.New(codec, contract, scorer, rules, suggester,
		app.WithLogger(log.Named("assessment")),
		app.WithMinHistoryMonths(cfg.MinHistoryMonths),
		app.WithModelVersion(art.Version()),
	)
}
