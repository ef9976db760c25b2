// Package cost computes development cost from per-role effort and day rates.
package cost

import (
	"math"

	"github.com/sells-group/roi-cli/internal/model"
)

// Rates holds the day rate per role, in currency units.
type Rates map[model.Role]float64

// Effort is the number of days a role spends on a task.
type Effort struct {
	Role model.Role `json:"role" yaml:"role"`
	Days float64    `json:"days" yaml:"days"`
}

// Calculator computes costs for role effort.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates. Recognized
// roles whose rate is missing or non-positive get the default rate.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: merge(DefaultRates(), rates)}
}

// WithOverrides returns a Calculator where every positive override
// replaces the configured rate. Non-positive overrides are ignored.
func (c *Calculator) WithOverrides(overrides Rates) *Calculator {
	return &Calculator{rates: merge(c.rates, overrides)}
}

// Rate returns the day rate for a role, or 0 for a role with no rate.
func (c *Calculator) Rate(role model.Role) float64 {
	return c.rates[role]
}

// Rates returns a copy of the effective rate table.
func (c *Calculator) Rates() Rates {
	out := make(Rates, len(c.rates))
	for k, v := range c.rates {
		out[k] = v
	}
	return out
}

// Line computes the cost of a single effort row.
func (c *Calculator) Line(e Effort) model.LineCost {
	days := finite(e.Days)
	rate := c.Rate(e.Role)
	return model.LineCost{
		Role: e.Role,
		Days: days,
		Rate: rate,
		Cost: days * rate,
	}
}

// Total computes the cost of every effort row and their sum.
func (c *Calculator) Total(efforts []Effort) (float64, []model.LineCost) {
	lines := make([]model.LineCost, 0, len(efforts))
	var total float64
	for _, e := range efforts {
		line := c.Line(e)
		total += line.Cost
		lines = append(lines, line)
	}
	return total, lines
}

// DefaultRates returns the default day rates for the recognized roles.
func DefaultRates() Rates {
	return Rates{
		model.RoleAnalyst:        24000,
		model.RoleDesigner:       24000,
		model.RoleFrontend:       28000,
		model.RoleBackend:        30000,
		model.RoleSystemAnalyst:  26000,
		model.RoleIntegrationDev: 30000,
		model.RoleArchitect:      36000,
	}
}

// RatesFromConfig converts a role-keyed config map into Rates. Unknown
// role keys are dropped.
func RatesFromConfig(m map[string]float64) Rates {
	out := make(Rates, len(m))
	for k, v := range m {
		if role, ok := model.ParseRole(k); ok {
			out[role] = v
		}
	}
	return out
}

// merge copies base and applies every finite, positive override for a
// role that base already knows.
func merge(base, overrides Rates) Rates {
	out := make(Rates, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		if _, known := out[k]; !known {
			continue
		}
		if v > 0 && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
