package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// EvaluatorStatus represents the lifecycle state of an evaluator
type EvaluatorStatus string

const (
	EvaluatorStatusActive   EvaluatorStatus = "active"
	EvaluatorStatusEnabled  EvaluatorStatus = "enabled"
	EvaluatorStatusPaused   EvaluatorStatus = "paused"
	EvaluatorStatusArchived EvaluatorStatus = "archived"
)

// IsValid checks if the evaluator status is valid
func (s EvaluatorStatus) IsValid() bool {
	switch s {
	case EvaluatorStatusActive, EvaluatorStatusEnabled, EvaluatorStatusPaused, EvaluatorStatusArchived:
		return true
	}
	return false
}

// Runnable reports whether an evaluator in this status participates in
// batch runs.
func (s EvaluatorStatus) Runnable() bool {
	return s == EvaluatorStatusActive || s == EvaluatorStatusEnabled
}

// ExecutionPolicy is the per-evaluator cost control: the probability a
// trace is evaluated at all, and a delay applied before each scoring
// call to cap the rate against a paid model API.
type ExecutionPolicy struct {
	SamplingRate float64 `json:"sampling_rate" db:"sampling_rate"`
	DelayMs      int64   `json:"delay_ms" db:"delay_ms"`
}

// EffectiveSamplingRate clamps a misconfigured rate to 1.0 so that bad
// config fails open rather than silently disabling an evaluator.
func (p ExecutionPolicy) EffectiveSamplingRate() float64 {
	if p.SamplingRate < 0 || p.SamplingRate > 1 {
		return 1.0
	}
	return p.SamplingRate
}

// Delay returns the configured per-unit delay
func (p ExecutionPolicy) Delay() time.Duration {
	if p.DelayMs <= 0 {
		return 0
	}
	return time.Duration(p.DelayMs) * time.Millisecond
}

// Evaluator represents a configured scoring job definition. Evaluators
// are created and mutated by the management API; the pipeline only
// loads the runnable subset per run.
type Evaluator struct {
	ID         string          `json:"id" db:"id" validate:"required"`
	ScoreName  string          `json:"score_name" db:"score_name"`
	Status     EvaluatorStatus `json:"status" db:"status"`
	TemplateID string          `json:"template_id" db:"template_id" validate:"required"`
	Execution  ExecutionPolicy `json:"execution"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

var evaluatorValidate = validator.New()

// Validate checks that the evaluator carries the fields the pipeline
// cannot run without. Records failing validation are skipped
// individually; they never abort a batch.
func (e *Evaluator) Validate() error {
	return evaluatorValidate.Struct(e)
}

// DisplayName returns the evaluator's score name, falling back to the
// id for evaluators created before score names existed.
func (e *Evaluator) DisplayName() string {
	if e.ScoreName != "" {
		return e.ScoreName
	}
	return e.ID
}
