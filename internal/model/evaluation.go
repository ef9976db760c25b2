package model

import (
	"encoding/json"
	"math"
	"time"
)

// CriterionScore is one criterion's weighted contribution to the annual benefit.
type CriterionScore struct {
	Criterion    Criterion `json:"criterion"`
	Score        float64   `json:"score"`
	Coefficient  float64   `json:"coefficient"`
	Conversion   float64   `json:"conversion"`
	Contribution float64   `json:"contribution"`
}

// LineCost is the cost of one role's effort.
type LineCost struct {
	Role Role    `json:"role"`
	Days float64 `json:"days"`
	Rate float64 `json:"rate"`
	Cost float64 `json:"cost"`
}

// Estimation holds the derived outputs of one recomputation.
type Estimation struct {
	AnnualBenefit  float64          `json:"annual_benefit"`
	Criteria       []CriterionScore `json:"criteria"`
	TotalCost      float64          `json:"total_cost"`
	Lines          []LineCost       `json:"lines"`
	MonthlyBenefit float64          `json:"monthly_benefit"`
	PaybackMonths  float64          `json:"payback_months"` // +Inf when the benefit never pays back
	Recommendation Recommendation   `json:"recommendation"`
}

// estimationJSON mirrors Estimation with a nullable payback, since JSON has
// no representation for infinity.
type estimationJSON struct {
	AnnualBenefit  float64          `json:"annual_benefit"`
	Criteria       []CriterionScore `json:"criteria"`
	TotalCost      float64          `json:"total_cost"`
	Lines          []LineCost       `json:"lines"`
	MonthlyBenefit float64          `json:"monthly_benefit"`
	PaybackMonths  *float64         `json:"payback_months"`
	Recommendation Recommendation   `json:"recommendation"`
}

// MarshalJSON encodes a non-finite payback as null.
func (e Estimation) MarshalJSON() ([]byte, error) {
	out := estimationJSON{
		AnnualBenefit:  e.AnnualBenefit,
		Criteria:       e.Criteria,
		TotalCost:      e.TotalCost,
		Lines:          e.Lines,
		MonthlyBenefit: e.MonthlyBenefit,
		Recommendation: e.Recommendation,
	}
	if !math.IsInf(e.PaybackMonths, 0) && !math.IsNaN(e.PaybackMonths) {
		p := e.PaybackMonths
		out.PaybackMonths = &p
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null payback back to +Inf.
func (e *Estimation) UnmarshalJSON(data []byte) error {
	var in estimationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Estimation{
		AnnualBenefit:  in.AnnualBenefit,
		Criteria:       in.Criteria,
		TotalCost:      in.TotalCost,
		Lines:          in.Lines,
		MonthlyBenefit: in.MonthlyBenefit,
		PaybackMonths:  math.Inf(1),
		Recommendation: in.Recommendation,
	}
	if in.PaybackMonths != nil {
		e.PaybackMonths = *in.PaybackMonths
	}
	return nil
}

// EvaluationKind distinguishes a brief request from a final evaluation.
type EvaluationKind string

const (
	EvaluationKindBrief EvaluationKind = "brief"
	EvaluationKindFinal EvaluationKind = "final"
)

// Evaluation is an archived, composed brief or final evaluation.
type Evaluation struct {
	ID         string         `json:"id"`
	Kind       EvaluationKind `json:"kind"`
	Requester  string         `json:"requester"`
	Fields     Form           `json:"fields"`
	Estimation Estimation     `json:"estimation"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Title returns the task title of the evaluated brief.
func (e Evaluation) Title() string {
	return e.Fields.Get(FieldTitle)
}
