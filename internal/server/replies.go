package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/sells-group/roi-cli/internal/brief"
	"github.com/sells-group/roi-cli/internal/cost"
	"github.com/sells-group/roi-cli/internal/estimate"
	"github.com/sells-group/roi-cli/internal/model"
)

// incorrectPassword is shown when the access-gate secret does not match.
const incorrectPassword = "Incorrect password. Try again."

// ErrResponse is the JSON error body.
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Message        string `json:"error"`
}

func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

var (
	ErrNotFound          = &ErrResponse{HTTPStatusCode: http.StatusNotFound, Message: "not found"}
	ErrTooManyRequests   = &ErrResponse{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limit exceeded"}
	ErrArchiveDisabled   = &ErrResponse{HTTPStatusCode: http.StatusServiceUnavailable, Message: "evaluation archive is disabled"}
	ErrIncorrectPassword = &ErrResponse{HTTPStatusCode: http.StatusForbidden, Message: incorrectPassword}
)

var errUnknownKind = errors.New("kind must be brief or final")

func errBadRequest(msg string) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusBadRequest, Message: msg}
}

func errInternal(msg string) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusInternalServerError, Message: msg}
}

// EstimateRequest carries the form values of one recomputation.
type EstimateRequest struct {
	Fields        model.Form `json:"fields"`
	AdminPassword string     `json:"admin_password,omitempty"`
}

func (e *EstimateRequest) Bind(_ *http.Request) error {
	if e.Fields == nil {
		e.Fields = model.Form{}
	}
	return nil
}

// EstimateReply is the result of a recomputation.
type EstimateReply struct {
	Estimation  model.Estimation `json:"estimation"`
	Figures     estimate.Figures `json:"figures"`
	BriefStatus brief.Status     `json:"brief_status"`
	StatusLabel string           `json:"brief_status_label"`
	Admin       bool             `json:"admin"`
	AdminError  string           `json:"admin_error,omitempty"`
}

func (EstimateReply) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }

// BriefRequest asks for a composed brief or final evaluation.
type BriefRequest struct {
	EstimateRequest
	Requester string               `json:"requester"`
	Kind      model.EvaluationKind `json:"kind"`
}

func (b *BriefRequest) Bind(r *http.Request) error {
	if err := b.EstimateRequest.Bind(r); err != nil {
		return err
	}
	switch b.Kind {
	case "":
		b.Kind = model.EvaluationKindBrief
	case model.EvaluationKindBrief, model.EvaluationKindFinal:
	default:
		return errUnknownKind
	}
	return nil
}

// BriefReply is a composed message ready to open in a mail client.
type BriefReply struct {
	EvaluationID string               `json:"evaluation_id,omitempty"`
	Kind         model.EvaluationKind `json:"kind"`
	Message      brief.Message        `json:"message"`
	Mailto       string               `json:"mailto"`
	Estimation   model.Estimation     `json:"estimation"`
	AdminError   string               `json:"admin_error,omitempty"`
}

func (BriefReply) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusCreated)
	return nil
}

// PrefillReply is the form decoded from a prefill query string.
type PrefillReply struct {
	Fields model.Form   `json:"fields"`
	Status brief.Status `json:"brief_status"`
}

func (PrefillReply) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }

// UnlockRequest carries the access-gate secret.
type UnlockRequest struct {
	Password string `json:"password"`
}

func (UnlockRequest) Bind(_ *http.Request) error { return nil }

// ParamsReply lists the default parameters revealed by the access gate.
type ParamsReply struct {
	Coefficients estimate.Weights    `json:"coefficients"`
	Conversions  estimate.Weights    `json:"conversions"`
	Thresholds   estimate.Thresholds `json:"thresholds"`
	Rates        cost.Rates          `json:"rates"`
}

func (ParamsReply) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }

// EvaluationReply wraps one archived evaluation.
type EvaluationReply struct {
	model.Evaluation
	Figures estimate.Figures `json:"figures"`
}

func (EvaluationReply) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }

// EvaluationListReply is a page of archived evaluations.
type EvaluationListReply struct {
	Evaluations []EvaluationReply `json:"evaluations"`
	Count       int               `json:"count"`
}

func (EvaluationListReply) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }

// HealthReply is the liveness response.
type HealthReply struct {
	Status  string `json:"status"`
	Archive string `json:"archive"`
}

func (HealthReply) Render(_ http.ResponseWriter, _ *http.Request) error { return nil }
