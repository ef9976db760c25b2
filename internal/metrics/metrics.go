// Package metrics exposes Prometheus counters for estimations and composed
// evaluations, plus HTTP request metrics for the chi router.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/roi-cli/internal/model"
)

const (
	namespace = "roi"

	RequestsCollectorName    = "http_requests_total"
	LatencyCollectorName     = "http_request_duration_milliseconds"
	EstimatesCollectorName   = "estimates_total"
	EvaluationsCollectorName = "evaluations_total"

	// Labels
	recommendationLabel = "recommendation"
	kindLabel           = "kind"
)

var latencyBuckets = []float64{5, 25, 100, 300, 1000}

// Recorder owns a private registry with the service collectors. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	estimates   *prometheus.CounterVec
	evaluations *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors alongside the Go
// runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      RequestsCollectorName,
			Help:      "Number of HTTP requests partitioned by status code, method and HTTP path.",
		}, []string{"code", "method", "path"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      LatencyCollectorName,
			Help:      "Time spent on the request partitioned by status code, method and HTTP path.",
			Buckets:   latencyBuckets,
		}, []string{"code", "method", "path"}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      EstimatesCollectorName,
			Help:      "Number of recomputations partitioned by recommendation.",
		}, []string{recommendationLabel}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      EvaluationsCollectorName,
			Help:      "Number of composed briefs and final evaluations partitioned by kind and recommendation.",
		}, []string{kindLabel, recommendationLabel}),
	}

	r.registry.MustRegister(
		r.requests,
		r.latency,
		r.estimates,
		r.evaluations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveEstimate counts one recomputation.
func (r *Recorder) ObserveEstimate(rec model.Recommendation) {
	if r == nil {
		return
	}
	r.estimates.With(prometheus.Labels{recommendationLabel: string(rec)}).Inc()
}

// ObserveEvaluation counts one composed brief or final evaluation.
func (r *Recorder) ObserveEvaluation(kind model.EvaluationKind, rec model.Recommendation) {
	if r == nil {
		return
	}
	r.evaluations.With(prometheus.Labels{
		kindLabel:           string(kind),
		recommendationLabel: string(rec),
	}).Inc()
}

// Middleware records request count and latency by route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	fn := func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			rp := rctx.RoutePattern()
			if rp == "" {
				rp = "unmatched"
			}
			code := strconv.Itoa(ww.Status())
			since := float64(time.Since(start).Milliseconds())
			r.requests.WithLabelValues(code, req.Method, rp).Inc()
			r.latency.WithLabelValues(code, req.Method, rp).Observe(since)
		}
	}
	return http.HandlerFunc(fn)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Router returns the router mounted on the metrics listener.
func (r *Recorder) Router() http.Handler {
	router := chi.NewRouter()
	router.Handle("/metrics", r.Handler())
	return router
}
