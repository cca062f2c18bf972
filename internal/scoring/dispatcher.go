package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/evalpipe/evalpipe/internal/domain"
	apperrors "github.com/evalpipe/evalpipe/internal/pkg/errors"
	"github.com/evalpipe/evalpipe/internal/pkg/metrics"
)

// Template ids understood by the default registry.
const (
	TemplateResponseLength  = "response_length"
	TemplateContextRecall   = "context_recall"
	TemplateKeywordPresence = "keyword_presence"
	TemplateRelevance       = "relevance"
	TemplateGroundedness    = "groundedness"
)

// DefaultRegistry builds the closed set of scoring capabilities. The
// registry is fixed at startup; template ids outside it stay
// unresolved for the life of the process.
func DefaultRegistry(client Completer) map[string]Capability {
	return map[string]Capability{
		TemplateResponseLength:  NewResponseLength(),
		TemplateContextRecall:   &ContextRecall{},
		TemplateKeywordPresence: &KeywordPresence{},
		TemplateRelevance:       NewRelevance(client),
		TemplateGroundedness:    NewGroundedness(client),
	}
}

// Dispatcher resolves template ids to capabilities and runs them under
// a per-invocation timeout with fault capture.
type Dispatcher struct {
	registry      map[string]Capability
	invokeTimeout time.Duration
}

// NewDispatcher creates a dispatcher over a capability registry
func NewDispatcher(registry map[string]Capability, invokeTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry:      registry,
		invokeTimeout: invokeTimeout,
	}
}

// Resolve looks up the capability for a template id
func (d *Dispatcher) Resolve(templateID string) (Capability, error) {
	capability, ok := d.registry[templateID]
	if !ok {
		return nil, apperrors.TemplateUnresolved(templateID)
	}
	return capability, nil
}

// Invoke runs the capability for templateID against the trace. A
// capability error or panic does not propagate: it is captured into a
// failed outcome so one bad unit cannot take down its siblings. An
// unresolved template is the only error returned.
func (d *Dispatcher) Invoke(ctx context.Context, templateID string, trace domain.NormalizedTrace) (Outcome, error) {
	capability, err := d.Resolve(templateID)
	if err != nil {
		return Outcome{}, err
	}

	if d.invokeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.invokeTimeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := d.invoke(ctx, capability, trace)
	metrics.RecordScoring(templateID, time.Since(start))

	if err != nil {
		return Outcome{
			Classification: domain.ClassificationFailed,
			RawOutput:      err.Error(),
		}, nil
	}

	return outcome, nil
}

func (d *Dispatcher) invoke(ctx context.Context, capability Capability, trace domain.NormalizedTrace) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capability panicked: %v", r)
		}
	}()
	return capability.Evaluate(ctx, trace)
}
