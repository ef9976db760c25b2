package model

// Criterion is one of the qualitative value dimensions a task is scored on.
type Criterion string

const (
	CriterionRevenue Criterion = "revenue" // Revenue impact
	CriterionUX      Criterion = "ux"      // UX improvement
	CriterionRisk    Criterion = "risk"    // Risk reduction
	CriterionCare    Criterion = "care"    // Customer care
)

// Criteria lists every criterion in display order.
var Criteria = []Criterion{
	CriterionRevenue,
	CriterionUX,
	CriterionRisk,
	CriterionCare,
}

var criterionTitles = map[Criterion]string{
	CriterionRevenue: "Revenue impact",
	CriterionUX:      "UX improvement",
	CriterionRisk:    "Risk reduction",
	CriterionCare:    "Customer care",
}

// ParseCriterion returns the criterion for a wire key such as "ux".
func ParseCriterion(s string) (Criterion, bool) {
	c := Criterion(s)
	_, ok := criterionTitles[c]
	return c, ok
}

// Title returns the human-readable criterion name.
func (c Criterion) Title() string {
	if t, ok := criterionTitles[c]; ok {
		return t
	}
	return string(c)
}
