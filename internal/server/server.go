// Package server serves the estimation form and its JSON API.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roi-cli/internal/brief"
	"github.com/sells-group/roi-cli/internal/config"
	"github.com/sells-group/roi-cli/internal/estimate"
	"github.com/sells-group/roi-cli/internal/metrics"
	"github.com/sells-group/roi-cli/internal/model"
	"github.com/sells-group/roi-cli/internal/store"
)

const gracefulShutdownTimeout = 5 * time.Second

//go:embed templates/*.html
var templateFS embed.FS

// Options are the dependencies of a Server. Store and Metrics may be nil.
type Options struct {
	Estimator *estimate.Estimator
	Format    *estimate.Formatter
	Composer  *brief.Composer
	Gate      *brief.Gate
	Store     store.Store
	Metrics   *metrics.Recorder
	Config    config.ServerConfig
}

// Server handles the form and API routes.
type Server struct {
	estimator *estimate.Estimator
	format    *estimate.Formatter
	composer  *brief.Composer
	gate      *brief.Gate
	store     store.Store
	metrics   *metrics.Recorder
	limiter   *RateLimiter
	cfg       config.ServerConfig
	page      *template.Template
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Estimator == nil || opts.Format == nil || opts.Composer == nil || opts.Gate == nil {
		return nil, eris.New("server: estimator, format, composer and gate are required")
	}
	page, err := template.New("form.html").ParseFS(templateFS, "templates/form.html")
	if err != nil {
		return nil, eris.Wrap(err, "server: parse templates")
	}
	return &Server{
		estimator: opts.Estimator,
		format:    opts.Format,
		composer:  opts.Composer,
		gate:      opts.Gate,
		store:     opts.Store,
		metrics:   opts.Metrics,
		limiter:   NewRateLimiter(opts.Config.RateLimit, opts.Config.RateBurst),
		cfg:       opts.Config,
		page:      page,
	}, nil
}

// Router builds the chi router with the middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}),
		s.metrics.Middleware,
	)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)

		r.Get("/", s.handleForm)
		r.Post("/", s.handleFormSubmit)

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Post("/estimate", s.handleEstimate)
			r.Post("/brief", s.handleBrief)
			r.Get("/prefill", s.handlePrefill)
			r.Post("/admin/unlock", s.handleUnlock)

			r.Route("/evaluations", func(r chi.Router) {
				r.Get("/", s.handleListEvaluations)
				r.Get("/export", s.handleExportEvaluations)
				r.Get("/{id}", s.handleGetEvaluation)
			})
		})
	})

	return r
}

// outcome is one recomputation together with the access-gate result.
type outcome struct {
	Estimation model.Estimation
	Admin      bool
	AdminError string
}

// evaluate recomputes form. Admin inputs in form apply only when password
// unlocks the gate; a wrong password is reported but changes nothing else.
func (s *Server) evaluate(form model.Form, password string) outcome {
	var out outcome
	if password != "" {
		if err := s.gate.Unlock(password); err != nil {
			out.AdminError = incorrectPassword
		} else {
			out.Admin = true
		}
	}
	out.Estimation = s.estimator.Estimate(estimate.SnapshotFromForm(form, out.Admin))
	s.metrics.ObserveEstimate(out.Estimation.Recommendation)
	return out
}

// compose builds the message of kind and archives it with the inputs that
// produced out. An invalid requester aborts before anything is recorded.
func (s *Server) compose(ctx context.Context, kind model.EvaluationKind, form model.Form, requester string, out outcome) (brief.Message, string, error) {
	est := out.Estimation
	msg, err := s.composer.Compose(kind, form, requester, est)
	if err != nil {
		return brief.Message{}, "", err
	}
	s.metrics.ObserveEvaluation(kind, est.Recommendation)

	if s.store == nil {
		return msg, "", nil
	}

	requester, _ = brief.ValidateRecipient(requester)
	ev := &model.Evaluation{
		Kind:       kind,
		Requester:  requester,
		Fields:     form.Inputs(out.Admin),
		Estimation: est,
	}
	if err := s.store.SaveEvaluation(ctx, ev); err != nil {
		zap.L().Error("server: archive evaluation",
			zap.String("kind", string(kind)),
			zap.String("requester", requester),
			zap.Error(err),
		)
		return msg, "", nil
	}
	zap.L().Info("server: evaluation archived",
		zap.String("id", ev.ID),
		zap.String("kind", string(kind)),
		zap.String("recommendation", string(est.Recommendation)),
	)
	return msg, ev.ID, nil
}

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, name, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return eris.Wrapf(err, "server: %s listen %s", name, addr)
	}
	return Serve(ctx, name, ln, h)
}

// Serve serves h on ln and shuts down gracefully once ctx is cancelled.
func Serve(ctx context.Context, name string, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.String("server", name), zap.Error(err))
		}
		zap.L().Info("server: terminated", zap.String("server", name))
	}()

	zap.L().Info("server: listening", zap.String("server", name), zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrapf(err, "server: %s serve", name)
	}
	<-done
	return nil
}
