package domain

import (
	"math"
	"time"
)

// EvaluationStatus represents the terminal state of an evaluation record
type EvaluationStatus string

const (
	EvaluationStatusCompleted EvaluationStatus = "completed"
	EvaluationStatusFailed    EvaluationStatus = "failed"
)

// ClassificationFailed is the reserved classification label meaning the
// scoring capability itself failed to execute.
const ClassificationFailed = "failed"

// Evaluation is the persisted result of running one evaluator against
// one trace. Identity is the composite eval id; trace_id doubles as the
// partition key.
type Evaluation struct {
	ID             string           `json:"id" ch:"id"`
	TraceID        string           `json:"trace_id" ch:"trace_id"`
	EvaluatorID    string           `json:"evaluator_id" ch:"evaluator_id"`
	EvaluatorName  string           `json:"evaluator" ch:"evaluator_name"`
	TemplateID     string           `json:"template_id" ch:"template_id"`
	Score          *float64         `json:"score" ch:"score"`
	Classification string           `json:"classification,omitempty" ch:"classification"`
	RawOutput      string           `json:"raw_output,omitempty" ch:"raw_output"`
	Status         EvaluationStatus `json:"status" ch:"status"`
	DurationMs     int64            `json:"duration_ms" ch:"duration_ms"`
	Timestamp      time.Time        `json:"timestamp" ch:"timestamp"`
}

// EvalID builds the idempotency key for a (trace, evaluator) pair. The
// evaluator id is used rather than the display name: ids are unique and
// immutable, names are neither.
func EvalID(traceID, evaluatorID string) string {
	return traceID + ":" + evaluatorID
}

// RoundScore rounds a numeric score to two decimal places, the
// precision evaluation records are persisted with.
func RoundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

// StatusForClassification maps a capability classification to the
// record status: only the reserved "failed" label marks a failed run.
func StatusForClassification(classification string) EvaluationStatus {
	if classification == ClassificationFailed {
		return EvaluationStatusFailed
	}
	return EvaluationStatusCompleted
}
