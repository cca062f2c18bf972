// Package scoring hosts the capabilities that turn a trace into a
// quality score, and the dispatcher that routes template ids to them.
package scoring

import (
	"context"

	"github.com/evalpipe/evalpipe/internal/domain"
)

// Outcome is the result of one scoring invocation. Score is nil when
// the capability produced no numeric result; Classification carries a
// categorical label instead, with "failed" reserved for capability
// failures.
type Outcome struct {
	Score          *float64
	Classification string
	RawOutput      string
}

// Capability scores a single normalized trace. Implementations must be
// safe for concurrent use; the pipeline invokes one capability from
// many goroutines.
type Capability interface {
	Evaluate(ctx context.Context, trace domain.NormalizedTrace) (Outcome, error)
}

// scoreOf is a small helper for building numeric outcomes.
func scoreOf(v float64) Outcome {
	rounded := domain.RoundScore(v)
	return Outcome{Score: &rounded}
}
