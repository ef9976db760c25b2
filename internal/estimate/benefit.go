package estimate

import "github.com/sells-group/roi-cli/internal/model"

// Scores maps each criterion to its user-supplied score.
type Scores map[model.Criterion]float64

// AnnualBenefit computes Σ score × coefficient × conversion over every
// criterion. Non-finite scores count as 0. Scores are not clamped, so a
// negative score yields a negative contribution.
func AnnualBenefit(scores Scores, p Params) (float64, []model.CriterionScore) {
	parts := make([]model.CriterionScore, 0, len(model.Criteria))
	var total float64
	for _, c := range model.Criteria {
		score := Sanitize(scores[c])
		coef := p.Coefficient(c)
		conv := p.Conversion(c)
		contribution := score * coef * conv
		total += contribution
		parts = append(parts, model.CriterionScore{
			Criterion:    c,
			Score:        score,
			Coefficient:  coef,
			Conversion:   conv,
			Contribution: contribution,
		})
	}
	return total, parts
}
