package estimate

import (
	"github.com/sells-group/roi-cli/internal/config"
	"github.com/sells-group/roi-cli/internal/model"
)

// Weights maps each criterion to a positive multiplier.
type Weights map[model.Criterion]float64

// Thresholds are the payback cut-offs, in months, of the recommendation policy.
type Thresholds struct {
	ImplementBelow float64 `json:"implement_below_months"` // payback strictly below → Implement
	ConsiderUpTo   float64 `json:"consider_up_to_months"`  // payback at or below → Consider
}

// Params are the benefit parameters of an estimation.
type Params struct {
	Coefficients Weights    `json:"coefficients"`
	Conversions  Weights    `json:"conversions"`
	Thresholds   Thresholds `json:"thresholds"`
}

const (
	defaultImplementBelow = 3
	defaultConsiderUpTo   = 6
)

// DefaultParams returns the built-in coefficients, conversion factors and
// thresholds.
func DefaultParams() Params {
	return Params{
		Coefficients: Weights{
			model.CriterionRevenue: 3,
			model.CriterionUX:      2.5,
			model.CriterionRisk:    2,
			model.CriterionCare:    1.5,
		},
		Conversions: Weights{
			model.CriterionRevenue: 10000,
			model.CriterionUX:      15000,
			model.CriterionRisk:    2000,
			model.CriterionCare:    5000,
		},
		Thresholds: Thresholds{
			ImplementBelow: defaultImplementBelow,
			ConsiderUpTo:   defaultConsiderUpTo,
		},
	}
}

// ParamsFromConfig builds Params from configuration. Entries that are
// missing or non-positive keep their built-in default.
func ParamsFromConfig(cfg config.EstimateConfig) Params {
	p := DefaultParams()
	p = p.WithOverrides(weightsFromConfig(cfg.Coefficients), weightsFromConfig(cfg.Conversions))
	p.Thresholds.ImplementBelow = positiveOr(cfg.ImplementBelowMonths, defaultImplementBelow)
	p.Thresholds.ConsiderUpTo = positiveOr(cfg.ConsiderUpToMonths, defaultConsiderUpTo)
	return p
}

// WithOverrides returns a copy of p where every positive coefficient or
// conversion override replaces the current value.
func (p Params) WithOverrides(coefficients, conversions Weights) Params {
	out := Params{
		Coefficients: make(Weights, len(model.Criteria)),
		Conversions:  make(Weights, len(model.Criteria)),
		Thresholds:   p.Thresholds,
	}
	for _, c := range model.Criteria {
		out.Coefficients[c] = positiveOr(coefficients[c], p.Coefficient(c))
		out.Conversions[c] = positiveOr(conversions[c], p.Conversion(c))
	}
	return out
}

// Coefficient returns the coefficient for c, falling back to the default
// when absent or non-positive.
func (p Params) Coefficient(c model.Criterion) float64 {
	return positiveOr(p.Coefficients[c], DefaultParams().Coefficients[c])
}

// Conversion returns the conversion factor for c, falling back to the
// default when absent or non-positive.
func (p Params) Conversion(c model.Criterion) float64 {
	return positiveOr(p.Conversions[c], DefaultParams().Conversions[c])
}

func weightsFromConfig(m map[string]float64) Weights {
	out := make(Weights, len(m))
	for k, v := range m {
		if c, ok := model.ParseCriterion(k); ok {
			out[c] = v
		}
	}
	return out
}
