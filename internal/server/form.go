package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/roi-cli/internal/brief"
	"github.com/sells-group/roi-cli/internal/estimate"
	"github.com/sells-group/roi-cli/internal/model"
)

// Form actions submitted by the page buttons.
const (
	actionRecalculate = "recalculate"
	actionUnlock      = "unlock"
	actionSendBrief   = "send-brief"
	actionSendFinal   = "send-final"
)

type criterionRow struct {
	Title        string
	ScoreField   model.Field
	Score        string
	ReasonField  model.Field
	Reason       string
	CoefField    model.Field
	Coefficient  string
	ConvField    model.Field
	Conversion   string
	Contribution string
}

type roleRow struct {
	Title     string
	DaysField model.Field
	Days      string
	RateField model.Field
	Rate      string
	Cost      string
}

type taskView struct {
	Title       string
	Owner       string
	Date        string
	Status      string
	Description string
	Requester   string
}

type pageData struct {
	Task       taskView
	Criteria   []criterionRow
	Roles      []roleRow
	Figures    estimate.Figures
	Status     brief.Status
	Admin      bool
	Password   string
	AdminError string
	Error      string
	Message    *brief.Message
	Mailto     string
	ArchivedID string
	PrefillURL string
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	form := brief.Decode(r.URL.Query())
	out := s.evaluate(form, "")
	s.renderPage(w, s.pageFor(form, "", out))
}

func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := make(model.Form, len(model.FormFields()))
	for _, f := range model.FormFields() {
		if v, ok := r.PostForm[string(f)]; ok && len(v) > 0 {
			form[f] = v[0]
		}
	}
	password := form[model.FieldAdminPassword]
	delete(form, model.FieldAdminPassword)

	out := s.evaluate(form, password)
	if !out.Admin {
		password = ""
	}
	data := s.pageFor(form, password, out)

	var kind model.EvaluationKind
	switch r.PostForm.Get("action") {
	case actionSendBrief:
		kind = model.EvaluationKindBrief
	case actionSendFinal:
		kind = model.EvaluationKindFinal
	}
	if kind != "" {
		msg, id, err := s.compose(r.Context(), kind, form, form[model.FieldRequester], out)
		switch {
		case errors.Is(err, brief.ErrInvalidRecipient):
			data.Error = "Please enter a valid requester e-mail."
		case err != nil:
			zap.L().Error("server: compose", zap.Error(err))
			data.Error = "Could not compose the message."
		default:
			data.Message = &msg
			data.Mailto = msg.MailtoURL()
			data.ArchivedID = id
		}
	}

	s.renderPage(w, data)
}

// pageFor builds the view of form. Admin inputs show the effective values
// so an unlocked page starts from the defaults.
func (s *Server) pageFor(form model.Form, password string, out outcome) pageData {
	est := out.Estimation
	data := pageData{
		Task: taskView{
			Title:       form[model.FieldTitle],
			Owner:       form[model.FieldOwner],
			Date:        form[model.FieldDate],
			Status:      form[model.FieldStatus],
			Description: form[model.FieldDescription],
			Requester:   form[model.FieldRequester],
		},
		Figures:    s.format.Figures(est),
		Status:     brief.StatusOf(form),
		Admin:      out.Admin,
		Password:   password,
		AdminError: out.AdminError,
	}

	params, costs := s.estimator.Effective(estimate.SnapshotFromForm(form, out.Admin))
	contributions := make(map[model.Criterion]float64, len(est.Criteria))
	for _, c := range est.Criteria {
		contributions[c.Criterion] = c.Contribution
	}
	for _, c := range model.Criteria {
		data.Criteria = append(data.Criteria, criterionRow{
			Title:        c.Title(),
			ScoreField:   model.ScoreField(c),
			Score:        form[model.ScoreField(c)],
			ReasonField:  model.ReasonField(c),
			Reason:       form[model.ReasonField(c)],
			CoefField:    model.CoefficientField(c),
			Coefficient:  plainNumber(params.Coefficient(c)),
			ConvField:    model.ConversionField(c),
			Conversion:   plainNumber(params.Conversion(c)),
			Contribution: s.format.Currency(contributions[c]),
		})
	}
	for _, r := range model.Roles {
		data.Roles = append(data.Roles, roleRow{
			Title:     r.Title(),
			DaysField: model.DaysField(r),
			Days:      form[model.DaysField(r)],
			RateField: model.RateField(r),
			Rate:      plainNumber(costs.Rate(r)),
			Cost:      data.Figures.LineCosts[r],
		})
	}

	if link, err := brief.PrefillURL(s.cfg.PublicURL, form, ""); err == nil {
		data.PrefillURL = link
	}
	return data
}

func (s *Server) renderPage(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		zap.L().Error("server: render form", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// plainNumber renders v without grouping so it parses back unchanged.
func plainNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
