package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/roi-cli/internal/brief"
	"github.com/sells-group/roi-cli/internal/config"
	"github.com/sells-group/roi-cli/internal/cost"
	"github.com/sells-group/roi-cli/internal/estimate"
	"github.com/sells-group/roi-cli/internal/metrics"
	"github.com/sells-group/roi-cli/internal/model"
	"github.com/sells-group/roi-cli/internal/store"
)

const testSecret = "admin2026"

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	format := estimate.NewFormatter("en", "₽")
	srv, err := New(Options{
		Estimator: estimate.New(estimate.DefaultParams(), cost.NewCalculator(nil)),
		Format:    format,
		Composer:  brief.NewComposer(format, "https://roi.example.com/", "desk@example.com", "Acme Life"),
		Gate:      brief.NewGate(testSecret),
		Store:     st,
		Metrics:   metrics.New(),
		Config: config.ServerConfig{
			PublicURL: "https://roi.example.com/",
		},
	})
	require.NoError(t, err)
	return srv
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "roi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sampleFields() model.Form {
	return model.Form{
		model.FieldTitle:        "Online renewal",
		model.FieldScoreRevenue: "3",
		model.FieldScoreUX:      "2",
		model.FieldScoreRisk:    "1",
		model.FieldScoreCare:    "0",
		"daysBackend":           "10",
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server:")
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","archive":"disabled"}`, rec.Body.String())
}

func TestAPIEstimate(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	rec := postJSON(t, h, "/api/estimate", EstimateRequest{Fields: sampleFields()})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply struct {
		Estimation struct {
			AnnualBenefit  float64  `json:"annual_benefit"`
			TotalCost      float64  `json:"total_cost"`
			PaybackMonths  *float64 `json:"payback_months"`
			Recommendation string   `json:"recommendation"`
		} `json:"estimation"`
		Figures     estimate.Figures `json:"figures"`
		BriefStatus string           `json:"brief_status"`
		Admin       bool             `json:"admin"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))

	// 3·3·10000 + 2·2.5·15000 + 1·2·2000 + 0 = 169000
	assert.InDelta(t, 169000, reply.Estimation.AnnualBenefit, 1e-6)
	assert.InDelta(t, 300000, reply.Estimation.TotalCost, 1e-6)
	require.NotNil(t, reply.Estimation.PaybackMonths)
	assert.InDelta(t, 300000/(169000.0/12), *reply.Estimation.PaybackMonths, 1e-6)
	assert.Equal(t, "reject", reply.Estimation.Recommendation)
	assert.Equal(t, "🔴 Reject", reply.Figures.Recommendation)
	assert.Equal(t, "bad", reply.Figures.Category)
	assert.Equal(t, "ready", reply.BriefStatus)
	assert.False(t, reply.Admin)
}

func TestAPIEstimate_AdminOverrides(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	fields := sampleFields()
	fields["rateBackend"] = "1000"

	ignored := postJSON(t, h, "/api/estimate", EstimateRequest{Fields: fields, AdminPassword: "wrong"})
	require.Equal(t, http.StatusOK, ignored.Code)
	var bad EstimateReply
	require.NoError(t, json.Unmarshal(ignored.Body.Bytes(), &bad))
	assert.False(t, bad.Admin)
	assert.Equal(t, "Incorrect password. Try again.", bad.AdminError)
	assert.InDelta(t, 300000, bad.Estimation.TotalCost, 1e-6)

	applied := postJSON(t, h, "/api/estimate", EstimateRequest{Fields: fields, AdminPassword: testSecret})
	require.Equal(t, http.StatusOK, applied.Code)
	var good EstimateReply
	require.NoError(t, json.Unmarshal(applied.Body.Bytes(), &good))
	assert.True(t, good.Admin)
	assert.Empty(t, good.AdminError)
	assert.InDelta(t, 10000, good.Estimation.TotalCost, 1e-6)
	assert.Equal(t, model.RecommendationImplement, good.Estimation.Recommendation)
}

func TestAPIEstimate_EmptyIsInsufficient(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	rec := postJSON(t, h, "/api/estimate", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payback_months":null`)
	assert.Contains(t, rec.Body.String(), `"recommendation":"insufficient_data"`)
	assert.Contains(t, rec.Body.String(), `"brief_status":"pending"`)
}

func TestAPIEstimate_BadBody(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, rec.Body.String())
}

func TestAPIBrief_ArchivesEvaluation(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	h := newTestServer(t, st).Router()

	rec := postJSON(t, h, "/api/brief", BriefRequest{
		EstimateRequest: EstimateRequest{Fields: sampleFields()},
		Requester:       "owner@example.com",
		Kind:            model.EvaluationKindFinal,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var reply BriefReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.NotEmpty(t, reply.EvaluationID)
	assert.Equal(t, "owner@example.com", reply.Message.To)
	assert.Equal(t, "desk@example.com", reply.Message.CC)
	assert.Equal(t, "Final ROI evaluation: Online renewal", reply.Message.Subject)
	assert.True(t, strings.HasPrefix(reply.Mailto, "mailto:owner%40example.com?cc="))

	ev, err := st.GetEvaluation(context.Background(), reply.EvaluationID)
	require.NoError(t, err)
	assert.Equal(t, model.EvaluationKindFinal, ev.Kind)
	assert.Equal(t, "owner@example.com", ev.Requester)
	assert.Equal(t, "Online renewal", ev.Title())
}

func TestAPIBrief_ArchivesOnlyAppliedInputs(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	h := newTestServer(t, st).Router()

	fields := sampleFields()
	fields["rateBackend"] = "1000"
	fields["coefRevenue"] = "9"
	fields["extra"] = "dropped"

	send := func(password string) *model.Evaluation {
		rec := postJSON(t, h, "/api/brief", BriefRequest{
			EstimateRequest: EstimateRequest{Fields: fields, AdminPassword: password},
			Requester:       "owner@example.com",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var reply BriefReply
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
		ev, err := st.GetEvaluation(context.Background(), reply.EvaluationID)
		require.NoError(t, err)
		return ev
	}

	rejected := send("wrong")
	assert.InDelta(t, 300000, rejected.Estimation.TotalCost, 1e-6)
	assert.NotContains(t, rejected.Fields, model.Field("rateBackend"))
	assert.NotContains(t, rejected.Fields, model.Field("coefRevenue"))
	assert.NotContains(t, rejected.Fields, model.FieldAdminPassword)
	assert.NotContains(t, rejected.Fields, model.Field("extra"))
	assert.Equal(t, "10", rejected.Fields[model.Field("daysBackend")])

	applied := send(testSecret)
	assert.InDelta(t, 10000, applied.Estimation.TotalCost, 1e-6)
	assert.Equal(t, "1000", applied.Fields[model.Field("rateBackend")])
	assert.Equal(t, "9", applied.Fields[model.Field("coefRevenue")])
	assert.NotContains(t, applied.Fields, model.FieldAdminPassword)
}

func TestAPIBrief_RequesterFromFields(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	fields := sampleFields()
	fields[model.FieldRequester] = "form@example.com"
	rec := postJSON(t, h, "/api/brief", BriefRequest{EstimateRequest: EstimateRequest{Fields: fields}})
	require.Equal(t, http.StatusCreated, rec.Code)

	var reply BriefReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, model.EvaluationKindBrief, reply.Kind)
	assert.Equal(t, "desk@example.com", reply.Message.To)
	assert.Empty(t, reply.EvaluationID)
	assert.Contains(t, reply.Message.Link, "req=form%40example.com")
}

func TestAPIBrief_InvalidRecipient(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	h := newTestServer(t, st).Router()

	rec := postJSON(t, h, "/api/brief", BriefRequest{
		EstimateRequest: EstimateRequest{Fields: sampleFields()},
		Requester:       "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "valid requester e-mail")

	evals, err := st.ListEvaluations(context.Background(), store.EvaluationFilter{})
	require.NoError(t, err)
	assert.Empty(t, evals)
}

func TestAPIBrief_UnknownKind(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	rec := postJSON(t, h, "/api/brief", map[string]any{"requester": "a@b.c", "kind": "draft"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "kind must be brief or final")
}

func TestAPIPrefill(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prefill?t=Renewal&sr=3&req=a%40b.c", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"fields":{"taskTitle":"Renewal","scoreRevenue":"3","requesterEmail":"a@b.c"},"brief_status":"pending"}`, rec.Body.String())
}

func TestAPIUnlock(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	denied := postJSON(t, h, "/api/admin/unlock", UnlockRequest{Password: "guess"})
	assert.Equal(t, http.StatusForbidden, denied.Code)
	assert.JSONEq(t, `{"error":"Incorrect password. Try again."}`, denied.Body.String())

	ok := postJSON(t, h, "/api/admin/unlock", UnlockRequest{Password: testSecret})
	require.Equal(t, http.StatusOK, ok.Code)

	var params ParamsReply
	require.NoError(t, json.Unmarshal(ok.Body.Bytes(), &params))
	assert.InDelta(t, 2.5, params.Coefficients[model.CriterionUX], 1e-9)
	assert.InDelta(t, 15000, params.Conversions[model.CriterionUX], 1e-9)
	assert.InDelta(t, 3, params.Thresholds.ImplementBelow, 1e-9)
	assert.Len(t, params.Rates, len(model.Roles))
}

func TestAPIEvaluations(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	h := newTestServer(t, st).Router()

	for _, kind := range []model.EvaluationKind{model.EvaluationKindBrief, model.EvaluationKindFinal} {
		rec := postJSON(t, h, "/api/brief", BriefRequest{
			EstimateRequest: EstimateRequest{Fields: sampleFields()},
			Requester:       "owner@example.com",
			Kind:            kind,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluations?kind=final", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Evaluations []struct {
			ID      string           `json:"id"`
			Kind    string           `json:"kind"`
			Figures estimate.Figures `json:"figures"`
		} `json:"evaluations"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "final", list.Evaluations[0].Kind)
	assert.Equal(t, "🔴 Reject", list.Evaluations[0].Figures.Recommendation)

	one := httptest.NewRecorder()
	h.ServeHTTP(one, httptest.NewRequest(http.MethodGet, "/api/evaluations/"+list.Evaluations[0].ID, nil))
	require.Equal(t, http.StatusOK, one.Code)
	assert.Contains(t, one.Body.String(), `"requester":"owner@example.com"`)

	missing := httptest.NewRecorder()
	h.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/evaluations/nope", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)

	badLimit := httptest.NewRecorder()
	h.ServeHTTP(badLimit, httptest.NewRequest(http.MethodGet, "/api/evaluations?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, badLimit.Code)
}

func TestAPIEvaluations_Export(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	h := newTestServer(t, st).Router()

	rec := postJSON(t, h, "/api/brief", BriefRequest{
		EstimateRequest: EstimateRequest{Fields: sampleFields()},
		Requester:       "owner@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	dl := httptest.NewRecorder()
	h.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, "/api/evaluations/export", nil))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "evaluations.xlsx")

	f, err := xlsx.OpenBinary(dl.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Len(t, f.Sheets[0].Rows, 2)
}

func TestAPIEvaluations_ArchiveDisabled(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	for _, path := range []string{"/api/evaluations", "/api/evaluations/x", "/api/evaluations/export"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestForm_GetPrefilled(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?t=Online%20renewal&sr=3&su=2&sk=1&sc=0", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `value="Online renewal"`)
	assert.Contains(t, body, `name="scoreRevenue" type="number" step="any" value="3"`)
	assert.Contains(t, body, "169,000 ₽")
	assert.Contains(t, body, "Insufficient data")
	assert.Contains(t, body, "✅ Ready for evaluation")
	assert.NotContains(t, body, `name="coefRevenue"`)
}

func postForm(h http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestForm_Recalculate(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	rec := postForm(h, url.Values{
		"scoreRevenue": {"3"},
		"daysBackend":  {"1"},
		"action":       {"recalculate"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// 90000 benefit, 30000 cost → 4 months
	assert.Contains(t, body, "90,000 ₽")
	assert.Contains(t, body, "30,000 ₽")
	assert.Contains(t, body, `<strong id="payback">4</strong>`)
	assert.Contains(t, body, "🟡 Consider")
	assert.Contains(t, body, "⏳ Needs completion")
}

func TestForm_Unlock(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	wrong := postForm(h, url.Values{"adminPassword": {"nope"}, "action": {"unlock"}})
	assert.Contains(t, wrong.Body.String(), "Incorrect password. Try again.")
	assert.NotContains(t, wrong.Body.String(), `name="coefRevenue"`)

	right := postForm(h, url.Values{"adminPassword": {testSecret}, "action": {"unlock"}})
	body := right.Body.String()
	assert.Contains(t, body, `name="coefUx" type="number" step="any" value="2.5"`)
	assert.Contains(t, body, `name="rateBackend" type="number" step="any" value="30000"`)
	assert.Contains(t, body, `type="hidden" name="adminPassword"`)
}

func TestForm_SendBrief(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	h := newTestServer(t, st).Router()

	invalid := postForm(h, url.Values{"requesterEmail": {"nobody"}, "action": {"send-brief"}})
	assert.Contains(t, invalid.Body.String(), "Please enter a valid requester e-mail.")
	assert.NotContains(t, invalid.Body.String(), `id="mailto"`)

	ok := postForm(h, url.Values{
		"taskTitle":      {"Renewal"},
		"requesterEmail": {"owner@example.com"},
		"action":         {"send-brief"},
	})
	body := ok.Body.String()
	assert.Contains(t, body, `id="mailto" href="mailto:desk%40example.com?subject=ROI%20brief%3A%20Renewal`)
	assert.Contains(t, body, "Archived as")

	evals, err := st.ListEvaluations(context.Background(), store.EvaluationFilter{})
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.NotContains(t, evals[0].Fields, model.FieldAdminPassword)
}

func TestRouter_RateLimited(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	srv.limiter = NewRateLimiter(0.001, 1)
	h := srv.Router()

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/prefill", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/prefill", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, nil).Router()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, "api", ln, h) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
