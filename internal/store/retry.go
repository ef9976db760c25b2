package store

import (
	"context"

	"github.com/sells-group/roi-cli/internal/model"
	"github.com/sells-group/roi-cli/internal/resilience"
)

// RetryingStore retries archive calls that fail on transient database
// errors. Migrate and Close pass through unchanged.
type RetryingStore struct {
	Store
	backend string
	cfg     resilience.RetryConfig
}

// WithRetry wraps st so reads and writes are retried per cfg.
func WithRetry(st Store, backend string, cfg resilience.RetryConfig) *RetryingStore {
	return &RetryingStore{Store: st, backend: backend, cfg: cfg}
}

func (s *RetryingStore) config(op string) resilience.RetryConfig {
	cfg := s.cfg
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(s.backend, op)
	}
	return cfg
}

func (s *RetryingStore) SaveEvaluation(ctx context.Context, ev *model.Evaluation) error {
	return resilience.Do(ctx, s.config("save"), func(ctx context.Context) error {
		return s.Store.SaveEvaluation(ctx, ev)
	})
}

func (s *RetryingStore) GetEvaluation(ctx context.Context, id string) (*model.Evaluation, error) {
	return resilience.DoVal(ctx, s.config("get"), func(ctx context.Context) (*model.Evaluation, error) {
		return s.Store.GetEvaluation(ctx, id)
	})
}

func (s *RetryingStore) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]model.Evaluation, error) {
	return resilience.DoVal(ctx, s.config("list"), func(ctx context.Context) ([]model.Evaluation, error) {
		return s.Store.ListEvaluations(ctx, filter)
	})
}
