// Package testutil provides shared test fixtures for the evaluation
// pipeline.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/evalpipe/evalpipe/internal/domain"
)

// NewTestTrace creates a test trace with default values.
func NewTestTrace(id string) *domain.Trace {
	if id == "" {
		id = "trace-" + uuid.New().String()[:8]
	}
	return &domain.Trace{
		ID:        id,
		TraceID:   id,
		Input:     "What is the capital of France?",
		Context:   "France is a country in Europe. Its capital is Paris.",
		Output:    "The capital of France is Paris.",
		CreatedAt: time.Now(),
	}
}

// NewTestEvaluator creates a runnable test evaluator with default values.
func NewTestEvaluator(id, templateID string) *domain.Evaluator {
	return &domain.Evaluator{
		ID:         id,
		ScoreName:  id + "-score",
		Status:     domain.EvaluatorStatusActive,
		TemplateID: templateID,
		Execution: domain.ExecutionPolicy{
			SamplingRate: 1.0,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestEvaluation creates a persisted-style evaluation record.
func NewTestEvaluation(traceID, evaluatorID string, score float64) *domain.Evaluation {
	s := domain.RoundScore(score)
	return &domain.Evaluation{
		ID:          domain.EvalID(traceID, evaluatorID),
		TraceID:     traceID,
		EvaluatorID: evaluatorID,
		Score:       &s,
		Status:      domain.EvaluationStatusCompleted,
		Timestamp:   time.Now().UTC(),
	}
}
