// Package store archives composed brief and final evaluations.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/roi-cli/internal/model"
)

// ErrNotFound is returned when an evaluation does not exist.
var ErrNotFound = errors.New("evaluation not found")

const defaultListLimit = 100

// EvaluationFilter specifies criteria for listing evaluations.
type EvaluationFilter struct {
	Kind      model.EvaluationKind `json:"kind,omitempty"`
	Requester string               `json:"requester,omitempty"`
	Limit     int                  `json:"limit,omitempty"`
	Offset    int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for the evaluation archive.
type Store interface {
	// SaveEvaluation inserts ev, assigning an ID and creation time when
	// they are unset.
	SaveEvaluation(ctx context.Context, ev *model.Evaluation) error
	GetEvaluation(ctx context.Context, id string) (*model.Evaluation, error)
	ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]model.Evaluation, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// prepare fills the generated columns of ev and returns its JSON payloads.
func prepare(ev *model.Evaluation) (fields, estimation []byte, err error) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if ev.Kind == "" {
		ev.Kind = model.EvaluationKindBrief
	}
	if ev.Fields == nil {
		ev.Fields = model.Form{}
	}

	fields, err = json.Marshal(ev.Fields)
	if err != nil {
		return nil, nil, eris.Wrap(err, "marshal fields")
	}
	estimation, err = json.Marshal(ev.Estimation)
	if err != nil {
		return nil, nil, eris.Wrap(err, "marshal estimation")
	}
	return fields, estimation, nil
}

// decode fills the JSON payload columns of ev.
func decode(ev *model.Evaluation, fields, estimation []byte) error {
	if err := json.Unmarshal(fields, &ev.Fields); err != nil {
		return eris.Wrap(err, "unmarshal fields")
	}
	if err := json.Unmarshal(estimation, &ev.Estimation); err != nil {
		return eris.Wrap(err, "unmarshal estimation")
	}
	return nil
}

func listLimit(filter EvaluationFilter) int {
	if filter.Limit <= 0 {
		return defaultListLimit
	}
	return filter.Limit
}
