package model

import "strings"

// Field identifies an input of the estimation form.
type Field string

// Brief fields carried in the shareable prefill URL.
const (
	FieldTitle         Field = "taskTitle"
	FieldOwner         Field = "taskOwner"
	FieldDate          Field = "taskDate"
	FieldStatus        Field = "taskStatus"
	FieldDescription   Field = "taskDescription"
	FieldScoreRevenue  Field = "scoreRevenue"
	FieldScoreUX       Field = "scoreUx"
	FieldScoreRisk     Field = "scoreRisk"
	FieldScoreCare     Field = "scoreCare"
	FieldReasonRevenue Field = "reasonRevenue"
	FieldReasonUX      Field = "reasonUx"
	FieldReasonRisk    Field = "reasonRisk"
	FieldReasonCare    Field = "reasonCare"
	FieldRequester     Field = "requesterEmail"
)

// FieldAdminPassword carries the access-gate secret on form submissions.
const FieldAdminPassword Field = "adminPassword"

// FieldMapping ties a form field to its short query-string key.
type FieldMapping struct {
	Field Field  `json:"field"`
	Key   string `json:"key"`
}

// PrefillFields lists the fields encoded into the shareable URL, in the
// order they are written.
var PrefillFields = []FieldMapping{
	{FieldTitle, "t"},
	{FieldOwner, "o"},
	{FieldDate, "d"},
	{FieldStatus, "st"},
	{FieldDescription, "desc"},
	{FieldScoreRevenue, "sr"},
	{FieldScoreUX, "su"},
	{FieldScoreRisk, "sk"},
	{FieldScoreCare, "sc"},
	{FieldReasonRevenue, "rr"},
	{FieldReasonUX, "ru"},
	{FieldReasonRisk, "rk"},
	{FieldReasonCare, "rc"},
	{FieldRequester, "req"},
}

var criterionSuffix = map[Criterion]string{
	CriterionRevenue: "Revenue",
	CriterionUX:      "Ux",
	CriterionRisk:    "Risk",
	CriterionCare:    "Care",
}

// ScoreField returns the score input for a criterion.
func ScoreField(c Criterion) Field { return Field("score" + criterionSuffix[c]) }

// ReasonField returns the free-text justification input for a criterion.
func ReasonField(c Criterion) Field { return Field("reason" + criterionSuffix[c]) }

// CoefficientField returns the admin coefficient input for a criterion.
func CoefficientField(c Criterion) Field { return Field("coef" + criterionSuffix[c]) }

// ConversionField returns the admin conversion-factor input for a criterion.
func ConversionField(c Criterion) Field { return Field("conv" + criterionSuffix[c]) }

// RateField returns the admin day-rate input for a role.
func RateField(r Role) Field { return Field("rate" + roleInfos[r].suffix) }

// DaysField returns the effort-days input for a role.
func DaysField(r Role) Field { return Field("days" + roleInfos[r].suffix) }

// Form is a flat snapshot of form values keyed by field.
type Form map[Field]string

// Get returns the trimmed value of a field, or "" when absent.
func (f Form) Get(field Field) string {
	return strings.TrimSpace(f[field])
}

// Brief returns only the fields that belong to the shareable brief.
func (f Form) Brief() Form {
	out := make(Form, len(PrefillFields))
	for _, m := range PrefillFields {
		if v, ok := f[m.Field]; ok {
			out[m.Field] = v
		}
	}
	return out
}

// FormFields lists every input the estimation form submits: the brief
// fields, the per-role effort and rate inputs, the admin weights and the
// access-gate secret.
func FormFields() []Field {
	out := make([]Field, 0, len(PrefillFields)+2*len(Criteria)+2*len(Roles)+1)
	for _, m := range PrefillFields {
		out = append(out, m.Field)
	}
	for _, r := range Roles {
		out = append(out, DaysField(r), RateField(r))
	}
	for _, c := range Criteria {
		out = append(out, CoefficientField(c), ConversionField(c))
	}
	return append(out, FieldAdminPassword)
}

// Inputs returns the brief and effort-day fields of f. Admin weights and
// day rates are kept only when admin is true; everything else is dropped.
func (f Form) Inputs(admin bool) Form {
	out := f.Brief()
	keep := func(field Field) {
		if v, ok := f[field]; ok {
			out[field] = v
		}
	}
	for _, r := range Roles {
		keep(DaysField(r))
		if admin {
			keep(RateField(r))
		}
	}
	if admin {
		for _, c := range Criteria {
			keep(CoefficientField(c))
			keep(ConversionField(c))
		}
	}
	return out
}
