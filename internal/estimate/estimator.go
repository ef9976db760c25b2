// Package estimate computes annual benefit, payback period and the
// implement/consider/reject recommendation for a proposed task.
package estimate

import (
	"go.uber.org/zap"

	"github.com/sells-group/roi-cli/internal/config"
	"github.com/sells-group/roi-cli/internal/cost"
	"github.com/sells-group/roi-cli/internal/model"
)

// Snapshot is an immutable view of one set of form inputs. Override maps
// carry admin-supplied values and may be nil.
type Snapshot struct {
	Scores       Scores        `json:"scores"`
	Efforts      []cost.Effort `json:"efforts"`
	Coefficients Weights       `json:"coefficients,omitempty"`
	Conversions  Weights       `json:"conversions,omitempty"`
	Rates        cost.Rates    `json:"rates,omitempty"`
}

// SnapshotFromForm parses form values into a Snapshot. Admin inputs are
// read only when admin is true. Every recognized role gets an effort row.
func SnapshotFromForm(form model.Form, admin bool) Snapshot {
	snap := Snapshot{
		Scores:  make(Scores, len(model.Criteria)),
		Efforts: make([]cost.Effort, 0, len(model.Roles)),
	}
	for _, c := range model.Criteria {
		snap.Scores[c] = ParseNumber(form[model.ScoreField(c)])
	}
	for _, r := range model.Roles {
		snap.Efforts = append(snap.Efforts, cost.Effort{
			Role: r,
			Days: ParseNumber(form[model.DaysField(r)]),
		})
	}
	if !admin {
		return snap
	}

	snap.Coefficients = make(Weights, len(model.Criteria))
	snap.Conversions = make(Weights, len(model.Criteria))
	for _, c := range model.Criteria {
		snap.Coefficients[c] = ParseNumber(form[model.CoefficientField(c)])
		snap.Conversions[c] = ParseNumber(form[model.ConversionField(c)])
	}
	snap.Rates = make(cost.Rates, len(model.Roles))
	for _, r := range model.Roles {
		snap.Rates[r] = ParseNumber(form[model.RateField(r)])
	}
	return snap
}

// Estimator runs the benefit, cost and payback calculations with a fixed
// set of default parameters. It holds no mutable state.
type Estimator struct {
	params Params
	costs  *cost.Calculator
}

// New creates an Estimator.
func New(params Params, costs *cost.Calculator) *Estimator {
	return &Estimator{params: params, costs: costs}
}

// NewFromConfig creates an Estimator from the estimate configuration.
func NewFromConfig(cfg config.EstimateConfig) *Estimator {
	return New(ParamsFromConfig(cfg), cost.NewCalculator(cost.RatesFromConfig(cfg.Rates)))
}

// Defaults returns the configured parameters and day rates.
func (e *Estimator) Defaults() (Params, cost.Rates) {
	return e.params.WithOverrides(nil, nil), e.costs.Rates()
}

// Effective returns the parameters and calculator that apply to snap once
// its overrides are merged over the defaults.
func (e *Estimator) Effective(snap Snapshot) (Params, *cost.Calculator) {
	return e.params.WithOverrides(snap.Coefficients, snap.Conversions), e.costs.WithOverrides(snap.Rates)
}

// Estimate recomputes every derived output from snap.
func (e *Estimator) Estimate(snap Snapshot) model.Estimation {
	params, costs := e.Effective(snap)

	benefit, parts := AnnualBenefit(snap.Scores, params)
	total, lines := costs.Total(snap.Efforts)
	months := PaybackMonths(total, benefit)
	rec := classify(months, total, benefit, params.Thresholds)

	zap.L().Debug("estimate: recomputed",
		zap.Float64("annual_benefit", benefit),
		zap.Float64("total_cost", total),
		zap.Float64("payback_months", months),
		zap.String("recommendation", string(rec)),
	)

	return model.Estimation{
		AnnualBenefit:  benefit,
		Criteria:       parts,
		TotalCost:      total,
		Lines:          lines,
		MonthlyBenefit: benefit / MonthsPerYear,
		PaybackMonths:  months,
		Recommendation: rec,
	}
}
