package estimate

import (
	"math"

	"github.com/sells-group/roi-cli/internal/model"
)

// MonthsPerYear converts an annual benefit to a monthly one.
const MonthsPerYear = 12

// PaybackMonths returns how many months of benefit it takes to cover
// totalCost. It is +Inf when the annual benefit is not positive.
func PaybackMonths(totalCost, annualBenefit float64) float64 {
	if annualBenefit > 0 {
		monthly := annualBenefit / MonthsPerYear
		if monthly > 0 {
			return totalCost / monthly
		}
	}
	return math.Inf(1)
}

// Recommend classifies a task from its cost and annual benefit. The first
// matching rule wins:
//
//	payback not finite or ≤ 0, cost ≤ 0, or benefit ≤ 0 → InsufficientData
//	payback < ImplementBelow                             → Implement
//	payback ≤ ConsiderUpTo                               → Consider
//	otherwise                                            → Reject
func Recommend(totalCost, annualBenefit float64, th Thresholds) model.Recommendation {
	months := PaybackMonths(totalCost, annualBenefit)
	return classify(months, totalCost, annualBenefit, th)
}

func classify(months, totalCost, annualBenefit float64, th Thresholds) model.Recommendation {
	switch {
	case math.IsInf(months, 0) || math.IsNaN(months) || months <= 0 || totalCost <= 0 || annualBenefit <= 0:
		return model.RecommendationInsufficientData
	case months < th.ImplementBelow:
		return model.RecommendationImplement
	case months <= th.ConsiderUpTo:
		return model.RecommendationConsider
	default:
		return model.RecommendationReject
	}
}
