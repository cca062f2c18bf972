package domain

import "time"

// Trace represents a single captured LLM interaction. Traces are
// produced by the ingestion side of the platform; the pipeline only
// reads them. Older producers populate question/answer instead of
// input/output, so both column pairs exist.
type Trace struct {
	ID        string    `json:"id" ch:"id"`
	TraceID   string    `json:"trace_id,omitempty" ch:"trace_id"`
	Input     string    `json:"input,omitempty" ch:"input"`
	Question  string    `json:"question,omitempty" ch:"question"`
	Context   string    `json:"context,omitempty" ch:"context"`
	Output    string    `json:"output,omitempty" ch:"output"`
	Answer    string    `json:"answer,omitempty" ch:"answer"`
	Metadata  string    `json:"metadata,omitempty" ch:"metadata"`
	CreatedAt time.Time `json:"createdAt" ch:"created_at"`
}

// Key returns the stable trace identity, preferring the explicit
// trace_id over the document id. Empty when the trace carries neither.
func (t *Trace) Key() string {
	if t.TraceID != "" {
		return t.TraceID
	}
	return t.ID
}

// NormalizedTrace is the view handed to scoring capabilities. Response
// and Output carry the same value; both names exist because prompt
// templates historically referenced either.
type NormalizedTrace struct {
	Input    string `json:"input"`
	Context  string `json:"context"`
	Response string `json:"response"`
	Output   string `json:"output"`

	// Raw is the trace the view was derived from.
	Raw *Trace `json:"-"`
}

// Normalize produces the scoring view of a trace: input falls back to
// question, output falls back to answer.
func (t *Trace) Normalize() NormalizedTrace {
	input := t.Input
	if input == "" {
		input = t.Question
	}
	output := t.Output
	if output == "" {
		output = t.Answer
	}
	return NormalizedTrace{
		Input:    input,
		Context:  t.Context,
		Response: output,
		Output:   output,
		Raw:      t,
	}
}
