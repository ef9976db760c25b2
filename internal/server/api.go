package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/sells-group/roi-cli/internal/brief"
	"github.com/sells-group/roi-cli/internal/export"
	"github.com/sells-group/roi-cli/internal/model"
	"github.com/sells-group/roi-cli/internal/store"
)

const maxListLimit = 500

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	archive := "enabled"
	if s.store == nil {
		archive = "disabled"
	}
	_ = render.Render(w, r, HealthReply{Status: "ok", Archive: archive})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := render.Bind(r, &req); err != nil {
		_ = render.Render(w, r, errBadRequest("invalid request body"))
		return
	}

	out := s.evaluate(req.Fields, req.AdminPassword)
	status := brief.StatusOf(req.Fields)
	_ = render.Render(w, r, EstimateReply{
		Estimation:  out.Estimation,
		Figures:     s.format.Figures(out.Estimation),
		BriefStatus: status,
		StatusLabel: status.Label(),
		Admin:       out.Admin,
		AdminError:  out.AdminError,
	})
}

func (s *Server) handleBrief(w http.ResponseWriter, r *http.Request) {
	var req BriefRequest
	if err := render.Bind(r, &req); err != nil {
		msg := "invalid request body"
		if errors.Is(err, errUnknownKind) {
			msg = err.Error()
		}
		_ = render.Render(w, r, errBadRequest(msg))
		return
	}

	requester := req.Requester
	if requester == "" {
		requester = req.Fields[model.FieldRequester]
	}

	out := s.evaluate(req.Fields, req.AdminPassword)
	msg, id, err := s.compose(r.Context(), req.Kind, req.Fields, requester, out)
	if errors.Is(err, brief.ErrInvalidRecipient) {
		_ = render.Render(w, r, errBadRequest("Please enter a valid requester e-mail."))
		return
	}
	if err != nil {
		zap.L().Error("server: compose", zap.Error(err))
		_ = render.Render(w, r, errInternal("could not compose message"))
		return
	}

	_ = render.Render(w, r, BriefReply{
		EvaluationID: id,
		Kind:         req.Kind,
		Message:      msg,
		Mailto:       msg.MailtoURL(),
		Estimation:   out.Estimation,
		AdminError:   out.AdminError,
	})
}

func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	form := brief.Decode(r.URL.Query())
	_ = render.Render(w, r, PrefillReply{Fields: form, Status: brief.StatusOf(form)})
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := render.Bind(r, &req); err != nil {
		_ = render.Render(w, r, errBadRequest("invalid request body"))
		return
	}
	if err := s.gate.Unlock(req.Password); err != nil {
		_ = render.Render(w, r, ErrIncorrectPassword)
		return
	}

	params, rates := s.estimator.Defaults()
	_ = render.Render(w, r, ParamsReply{
		Coefficients: params.Coefficients,
		Conversions:  params.Conversions,
		Thresholds:   params.Thresholds,
		Rates:        rates,
	})
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		_ = render.Render(w, r, ErrArchiveDisabled)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		_ = render.Render(w, r, errBadRequest(err.Error()))
		return
	}

	evals, err := s.store.ListEvaluations(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list evaluations", zap.Error(err))
		_ = render.Render(w, r, errInternal("could not list evaluations"))
		return
	}

	reply := EvaluationListReply{Evaluations: make([]EvaluationReply, 0, len(evals))}
	for _, ev := range evals {
		reply.Evaluations = append(reply.Evaluations, EvaluationReply{Evaluation: ev, Figures: s.format.Figures(ev.Estimation)})
	}
	reply.Count = len(reply.Evaluations)
	_ = render.Render(w, r, reply)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		_ = render.Render(w, r, ErrArchiveDisabled)
		return
	}

	ev, err := s.store.GetEvaluation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		_ = render.Render(w, r, ErrNotFound)
		return
	}
	if err != nil {
		zap.L().Error("server: get evaluation", zap.Error(err))
		_ = render.Render(w, r, errInternal("could not load evaluation"))
		return
	}
	_ = render.Render(w, r, EvaluationReply{Evaluation: *ev, Figures: s.format.Figures(ev.Estimation)})
}

func (s *Server) handleExportEvaluations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		_ = render.Render(w, r, ErrArchiveDisabled)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		_ = render.Render(w, r, errBadRequest(err.Error()))
		return
	}

	evals, err := s.store.ListEvaluations(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: export evaluations", zap.Error(err))
		_ = render.Render(w, r, errInternal("could not list evaluations"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="evaluations.xlsx"`)
	if err := export.Write(w, evals); err != nil {
		zap.L().Error("server: write export", zap.Error(err))
	}
}

var errBadPaging = errors.New("limit and offset must be non-negative integers")

func parseFilter(r *http.Request) (store.EvaluationFilter, error) {
	q := r.URL.Query()
	filter := store.EvaluationFilter{
		Kind:      model.EvaluationKind(q.Get("kind")),
		Requester: q.Get("requester"),
	}
	switch filter.Kind {
	case "", model.EvaluationKindBrief, model.EvaluationKindFinal:
	default:
		return filter, errUnknownKind
	}

	for _, p := range []struct {
		key string
		dst *int
	}{
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errBadPaging
		}
		*p.dst = n
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return filter, nil
}
