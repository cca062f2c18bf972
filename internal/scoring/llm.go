package scoring

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/evalpipe/evalpipe/internal/domain"
)

// Completer is the remote model dependency of LLM-backed capabilities.
// An empty completion with a nil error means the model produced no
// usable answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const relevancePrompt = `Rate how relevant the response is to the question on a scale from 0.0 to 1.0.
Answer with a single number only.

Question:
%s

Response:
%s`

const groundednessPrompt = `Rate how well the response is grounded in the provided context on a scale from 0.0 to 1.0.
A response that states facts absent from the context scores low.
Answer with a single number only.

Context:
%s

Response:
%s`

// LLMJudge scores traces by prompting a remote model and parsing its
// answer. A numeric answer becomes the score; any other non-empty
// answer is recorded as a classification label.
type LLMJudge struct {
	client Completer
	build  func(trace domain.NormalizedTrace) string
}

// NewRelevance creates a judge that scores response relevance to the input
func NewRelevance(client Completer) *LLMJudge {
	return &LLMJudge{
		client: client,
		build: func(trace domain.NormalizedTrace) string {
			return fmt.Sprintf(relevancePrompt, trace.Input, trace.Response)
		},
	}
}

// NewGroundedness creates a judge that scores response grounding in context
func NewGroundedness(client Completer) *LLMJudge {
	return &LLMJudge{
		client: client,
		build: func(trace domain.NormalizedTrace) string {
			return fmt.Sprintf(groundednessPrompt, trace.Context, trace.Response)
		},
	}
}

func (j *LLMJudge) Evaluate(ctx context.Context, trace domain.NormalizedTrace) (Outcome, error) {
	answer, err := j.client.Complete(ctx, j.build(trace))
	if err != nil {
		return Outcome{}, err
	}

	return ParseJudgeAnswer(answer), nil
}

// ParseJudgeAnswer interprets a judge model's answer. Numeric answers
// become scores clamped to [0, 1]; non-numeric answers become
// classification labels; an empty answer yields an outcome with
// neither.
func ParseJudgeAnswer(answer string) Outcome {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return Outcome{}
	}

	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return Outcome{Score: ptr(domain.RoundScore(v)), RawOutput: trimmed}
	}

	return Outcome{Classification: strings.ToLower(trimmed), RawOutput: trimmed}
}

func ptr(v float64) *float64 {
	return &v
}
