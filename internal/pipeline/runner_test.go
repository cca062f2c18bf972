package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalpipe/evalpipe/internal/domain"
	apperrors "github.com/evalpipe/evalpipe/internal/pkg/errors"
	"github.com/evalpipe/evalpipe/internal/scoring"
	"github.com/evalpipe/evalpipe/internal/testutil"
)

type stubCatalog struct {
	evaluators []domain.Evaluator
	err        error
}

func (c *stubCatalog) ListRunnable(_ context.Context) ([]domain.Evaluator, error) {
	return c.evaluators, c.err
}

type memStore struct {
	mu        sync.Mutex
	records   map[string]*domain.Evaluation
	existsErr error
	upsertErr error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*domain.Evaluation)}
}

func (s *memStore) Exists(_ context.Context, evalID, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.records[evalID]
	return ok, nil
}

func (s *memStore) Upsert(_ context.Context, eval *domain.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.records[eval.ID] = eval
	return nil
}

func (s *memStore) get(evalID string) *domain.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[evalID]
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type memAudit struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (a *memAudit) Create(_ context.Context, entry *domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memAudit) details() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Details)
	}
	return out
}

// stubScorer resolves a fixed set of template ids and scores via fn.
type stubScorer struct {
	known map[string]bool
	fn    func(templateID string, trace domain.NormalizedTrace) scoring.Outcome
}

func newStubScorer(templates ...string) *stubScorer {
	known := make(map[string]bool)
	for _, id := range templates {
		known[id] = true
	}
	score := 0.9
	return &stubScorer{
		known: known,
		fn: func(_ string, _ domain.NormalizedTrace) scoring.Outcome {
			return scoring.Outcome{Score: &score}
		},
	}
}

func (s *stubScorer) Resolve(templateID string) (scoring.Capability, error) {
	if !s.known[templateID] {
		return nil, apperrors.TemplateUnresolved(templateID)
	}
	return nil, nil
}

func (s *stubScorer) Invoke(_ context.Context, templateID string, trace domain.NormalizedTrace) (scoring.Outcome, error) {
	if !s.known[templateID] {
		return scoring.Outcome{}, apperrors.TemplateUnresolved(templateID)
	}
	return s.fn(templateID, trace), nil
}

func newTestRunner(catalog CatalogLoader, store EvaluationStore, audit AuditSink, scorer Scorer) *Runner {
	return NewRunner(catalog, store, audit, scorer, NewSeededSampler(1), 4)
}

func traceBatch(ids ...string) []domain.Trace {
	traces := make([]domain.Trace, 0, len(ids))
	for _, id := range ids {
		traces = append(traces, *testutil.NewTestTrace(id))
	}
	return traces
}

func TestRunner_Run_EmptyBatch(t *testing.T) {
	audit := &memAudit{}
	r := newTestRunner(&stubCatalog{}, newMemStore(), audit, newStubScorer())

	err := r.Run(context.Background(), "b1", nil)
	require.NoError(t, err)
	assert.Empty(t, audit.entries)
}

func TestRunner_Run_CatalogFailureAbortsBatch(t *testing.T) {
	catalog := &stubCatalog{err: errors.New("connection refused")}
	store := newMemStore()
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer())

	err := r.Run(context.Background(), "b1", traceBatch("t1"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCatalogUnavailable(err))
	assert.Zero(t, store.count())
	assert.Empty(t, audit.entries)
}

func TestRunner_Run_PersistsEveryUnit(t *testing.T) {
	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*testutil.NewTestEvaluator("e1", "relevance"),
	}}
	store := newMemStore()
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	err := r.Run(context.Background(), "b1", traceBatch("t1", "t2"))
	require.NoError(t, err)

	assert.Equal(t, 2, store.count())

	record := store.get("t1:e1")
	require.NotNil(t, record)
	assert.Equal(t, "t1", record.TraceID)
	assert.Equal(t, "e1", record.EvaluatorID)
	assert.Equal(t, "e1-score", record.EvaluatorName)
	assert.Equal(t, "relevance", record.TemplateID)
	assert.Equal(t, domain.EvaluationStatusCompleted, record.Status)
	require.NotNil(t, record.Score)
	assert.InDelta(t, 0.9, *record.Score, 1e-9)

	assert.Equal(t, []string{"Ran evaluator 'e1' on 2/2 traces"}, audit.details())
}

func TestRunner_Run_SkipsExistingRecords(t *testing.T) {
	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*testutil.NewTestEvaluator("e1", "relevance"),
	}}
	store := newMemStore()
	store.records["t2:e1"] = testutil.NewTestEvaluation("t2", "e1", 0.7)

	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	err := r.Run(context.Background(), "b1", traceBatch("t1", "t2", "t3"))
	require.NoError(t, err)

	// t2 was scored in an earlier delivery; only t1 and t3 run now and
	// the denominator stays the full batch size
	assert.Equal(t, 3, store.count())
	assert.Equal(t, []string{"Ran evaluator 'e1' on 2/3 traces"}, audit.details())

	// the existing record is untouched
	existing := store.get("t2:e1")
	require.NotNil(t, existing)
	assert.InDelta(t, 0.7, *existing.Score, 1e-9)
}

func TestRunner_Run_SamplingRateZeroRunsNothing(t *testing.T) {
	eval := testutil.NewTestEvaluator("e1", "relevance")
	eval.Execution.SamplingRate = 0.0

	catalog := &stubCatalog{evaluators: []domain.Evaluator{*eval}}
	store := newMemStore()
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	err := r.Run(context.Background(), "b1", traceBatch("t1", "t2"))
	require.NoError(t, err)

	assert.Zero(t, store.count())
	assert.Equal(t, []string{"Ran evaluator 'e1' on 0/2 traces"}, audit.details())
}

func TestRunner_Run_BadSamplingRateFailsOpen(t *testing.T) {
	eval := testutil.NewTestEvaluator("e1", "relevance")
	eval.Execution.SamplingRate = 7.5

	catalog := &stubCatalog{evaluators: []domain.Evaluator{*eval}}
	store := newMemStore()
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	err := r.Run(context.Background(), "b1", traceBatch("t1", "t2"))
	require.NoError(t, err)

	assert.Equal(t, 2, store.count())
	assert.Equal(t, []string{"Ran evaluator 'e1' on 2/2 traces"}, audit.details())
}

func TestRunner_Run_SkipsInvalidEvaluator(t *testing.T) {
	broken := testutil.NewTestEvaluator("e1", "relevance")
	broken.TemplateID = ""

	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*broken,
		*testutil.NewTestEvaluator("e2", "relevance"),
	}}
	store := newMemStore()
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	err := r.Run(context.Background(), "b1", traceBatch("t1"))
	require.NoError(t, err)

	// the broken evaluator is skipped without aborting its sibling
	assert.Equal(t, 1, store.count())
	assert.NotNil(t, store.get("t1:e2"))
	assert.Equal(t, []string{"Ran evaluator 'e2' on 1/1 traces"}, audit.details())
}

func TestRunner_Run_SkipsUnresolvedTemplate(t *testing.T) {
	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*testutil.NewTestEvaluator("e1", "retired-template"),
		*testutil.NewTestEvaluator("e2", "relevance"),
	}}
	store := newMemStore()
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	err := r.Run(context.Background(), "b1", traceBatch("t1"))
	require.NoError(t, err)

	assert.Equal(t, 1, store.count())
	assert.Equal(t, []string{"Ran evaluator 'e2' on 1/1 traces"}, audit.details())
}

func TestRunner_Run_StoreCheckFailureSkipsUnit(t *testing.T) {
	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*testutil.NewTestEvaluator("e1", "relevance"),
	}}
	store := newMemStore()
	store.existsErr = errors.New("store timeout")
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	err := r.Run(context.Background(), "b1", traceBatch("t1"))
	require.NoError(t, err)

	// cannot prove the unit was not already scored, so nothing is written
	assert.Equal(t, []string{"Ran evaluator 'e1' on 0/1 traces"}, audit.details())
}

func TestRunner_Run_PersistFailureNotCounted(t *testing.T) {
	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*testutil.NewTestEvaluator("e1", "relevance"),
	}}
	store := newMemStore()
	store.upsertErr = errors.New("insert failed")
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	err := r.Run(context.Background(), "b1", traceBatch("t1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Ran evaluator 'e1' on 0/1 traces"}, audit.details())
}

func TestRunner_Run_CapabilityFailureIsRecorded(t *testing.T) {
	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*testutil.NewTestEvaluator("e1", "relevance"),
	}}
	store := newMemStore()
	audit := &memAudit{}

	scorer := newStubScorer("relevance")
	scorer.fn = func(_ string, trace domain.NormalizedTrace) scoring.Outcome {
		if trace.Raw.Key() == "t1" {
			return scoring.Outcome{
				Classification: domain.ClassificationFailed,
				RawOutput:      "model unavailable",
			}
		}
		score := 0.6
		return scoring.Outcome{Score: &score}
	}

	r := newTestRunner(catalog, store, audit, scorer)

	err := r.Run(context.Background(), "b1", traceBatch("t1", "t2"))
	require.NoError(t, err)

	// the failed unit is a recorded result, not a dropped one
	failed := store.get("t1:e1")
	require.NotNil(t, failed)
	assert.Nil(t, failed.Score)
	assert.Equal(t, domain.EvaluationStatusFailed, failed.Status)
	assert.Equal(t, "model unavailable", failed.RawOutput)

	ok := store.get("t2:e1")
	require.NotNil(t, ok)
	assert.Equal(t, domain.EvaluationStatusCompleted, ok.Status)

	assert.Equal(t, []string{"Ran evaluator 'e1' on 2/2 traces"}, audit.details())
}

func TestRunner_Run_SkipsTraceWithoutID(t *testing.T) {
	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*testutil.NewTestEvaluator("e1", "relevance"),
	}}
	store := newMemStore()
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	traces := traceBatch("t1")
	traces = append(traces, domain.Trace{Input: "no id at all"})

	err := r.Run(context.Background(), "b1", traces)
	require.NoError(t, err)

	assert.Equal(t, 1, store.count())
	assert.Equal(t, []string{"Ran evaluator 'e1' on 1/2 traces"}, audit.details())
}

func TestRunner_Run_MultipleEvaluators(t *testing.T) {
	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*testutil.NewTestEvaluator("e1", "relevance"),
		*testutil.NewTestEvaluator("e2", "groundedness"),
	}}
	store := newMemStore()
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance", "groundedness"))

	err := r.Run(context.Background(), "b1", traceBatch("t1", "t2", "t3"))
	require.NoError(t, err)

	assert.Equal(t, 6, store.count())
	for _, eval := range []string{"e1", "e2"} {
		for _, tr := range []string{"t1", "t2", "t3"} {
			assert.NotNil(t, store.get(fmt.Sprintf("%s:%s", tr, eval)))
		}
	}
	assert.Equal(t, []string{
		"Ran evaluator 'e1' on 3/3 traces",
		"Ran evaluator 'e2' on 3/3 traces",
	}, audit.details())
}

func TestRunner_Run_RedeliveryIsIdempotent(t *testing.T) {
	catalog := &stubCatalog{evaluators: []domain.Evaluator{
		*testutil.NewTestEvaluator("e1", "relevance"),
	}}
	store := newMemStore()
	audit := &memAudit{}
	r := newTestRunner(catalog, store, audit, newStubScorer("relevance"))

	batch := traceBatch("t1", "t2")
	require.NoError(t, r.Run(context.Background(), "b1", batch))
	require.NoError(t, r.Run(context.Background(), "b1", batch))

	assert.Equal(t, 2, store.count())
	assert.Equal(t, []string{
		"Ran evaluator 'e1' on 2/2 traces",
		"Ran evaluator 'e1' on 0/2 traces",
	}, audit.details())
}
