// Package orchestrator executes validation suites. One scenario's failure
// must never corrupt the aggregate measurement of the others: adapter and
// judge failures are absorbed into that case's evaluation, and every
// started case ends with exactly one evaluation, cancelled runs included.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benefitsnav/maive/internal/adapter"
	"github.com/benefitsnav/maive/internal/apperr"
	"github.com/benefitsnav/maive/internal/catalog"
	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/judge"
	"github.com/benefitsnav/maive/internal/storage"
	"github.com/benefitsnav/maive/internal/trend"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const trendUpdateTimeout = 30 * time.Second

type SuiteRequest struct {
	Name         string
	TestCaseIDs  []uuid.UUID
	SystemType   domain.SystemType
	Jurisdiction string
	Rubric       judge.Rubric
}

type Orchestrator struct {
	catalog  catalog.Catalog
	adapters *adapter.Registry
	judge    judge.Judge
	store    storage.RunStore
	trends   *trend.Aggregator
	cfg      Config

	mu     sync.Mutex
	active map[uuid.UUID]*activeRun
}

type activeRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cat catalog.Catalog, adapters *adapter.Registry, j judge.Judge, store storage.RunStore, trends *trend.Aggregator, cfg Config) *Orchestrator {
	return &Orchestrator{
		catalog:  cat,
		adapters: adapters,
		judge:    j,
		store:    store,
		trends:   trends,
		cfg:      cfg.withDefaults(),
		active:   make(map[uuid.UUID]*activeRun),
	}
}

// RunSuite resolves the requested cases, persists a running TestRun and
// returns it immediately; case execution continues in the background and is
// observed by polling GetRun.
func (o *Orchestrator) RunSuite(ctx context.Context, req SuiteRequest) (*domain.TestRun, error) {
	if req.Name == "" {
		return nil, apperr.NewValidation("run name is required")
	}
	if !req.SystemType.Valid() {
		return nil, apperr.NewValidation(fmt.Sprintf("unknown system type %q", req.SystemType))
	}
	sut, err := o.adapters.Resolve(req.SystemType)
	if err != nil {
		return nil, apperr.NewValidationWrap("system type has no adapter", err)
	}

	cases, err := o.resolveCases(ctx, req.TestCaseIDs)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, apperr.NewEmptyTestSet("no active test cases resolved from request")
	}

	run := domain.TestRun{
		ID:           uuid.New(),
		Name:         req.Name,
		SystemType:   req.SystemType,
		Jurisdiction: req.Jurisdiction,
		TotalTests:   len(cases),
		Status:       domain.RunStatusRunning,
		StartedAt:    time.Now().UTC(),
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		return nil, apperr.NewPersistence("create run", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ar := &activeRun{cancel: cancel, done: make(chan struct{})}
	o.mu.Lock()
	o.active[run.ID] = ar
	o.mu.Unlock()

	slog.Info("Test run accepted",
		"run_id", run.ID, "name", run.Name, "system_type", run.SystemType,
		"jurisdiction", run.Jurisdiction, "cases", len(cases))

	go o.execute(runCtx, run, cases, sut, req.Rubric, ar)

	return &run, nil
}

func (o *Orchestrator) resolveCases(ctx context.Context, ids []uuid.UUID) ([]domain.TestCase, error) {
	seen := make(map[uuid.UUID]bool, len(ids))
	cases := make([]domain.TestCase, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		tc, err := o.catalog.Get(ctx, id)
		if err != nil {
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				slog.Warn("Requested test case not found, skipping", "case_id", id)
				continue
			}
			return nil, fmt.Errorf("resolve test case %s: %w", id, err)
		}
		if !tc.IsActive {
			slog.Warn("Requested test case is inactive, skipping", "case_id", id, "name", tc.Name)
			continue
		}
		cases = append(cases, *tc)
	}
	return cases, nil
}

func (o *Orchestrator) execute(ctx context.Context, run domain.TestRun, cases []domain.TestCase, sut adapter.Adapter, rubric judge.Rubric, ar *activeRun) {
	defer close(ar.done)
	defer func() {
		o.mu.Lock()
		delete(o.active, run.ID)
		o.mu.Unlock()
	}()

	// Record-keeping must survive cancellation of the run context.
	persistCtx := context.WithoutCancel(ctx)

	var (
		mu         sync.Mutex
		evals      = make([]domain.Evaluation, 0, len(cases))
		done       = make(map[uuid.UUID]bool, len(cases))
		persistErr error
	)

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.MaxParallel)
	for _, tc := range cases {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil // terminal evaluation written by the fill-in pass
			}

			ev := o.evaluateCase(ctx, run.ID, tc, sut, rubric)

			if err := o.store.SaveEvaluation(persistCtx, ev); err != nil {
				slog.Error("Failed to persist evaluation, aborting run",
					"run_id", run.ID, "case_id", tc.ID, "error", err)
				mu.Lock()
				if persistErr == nil {
					persistErr = apperr.NewPersistence("save evaluation", err)
				}
				mu.Unlock()
				ar.cancel()
				return nil
			}

			mu.Lock()
			evals = append(evals, ev)
			done[tc.ID] = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	cancelled := ctx.Err() != nil && persistErr == nil

	// Every started case gets exactly one evaluation, even under
	// cancellation or a persistence abort.
	for _, tc := range cases {
		if done[tc.ID] {
			continue
		}
		ev := domain.NewEvaluation(run.ID, tc, 0, "", []string{"run cancelled"}, 0, "")
		if err := o.store.SaveEvaluation(persistCtx, ev); err != nil {
			slog.Error("Failed to persist cancellation evaluation",
				"run_id", run.ID, "case_id", tc.ID, "error", err)
		}
		evals = append(evals, ev)
	}

	var accuracySum float64
	for _, ev := range evals {
		accuracySum += ev.Accuracy
		if ev.Passed {
			run.PassedTests++
		} else {
			run.FailedTests++
		}
	}
	run.OverallAccuracy = accuracySum / float64(len(evals))

	run.Status = domain.RunStatusFailed
	if run.OverallAccuracy >= o.cfg.RunThreshold && !cancelled && persistErr == nil {
		run.Status = domain.RunStatusPassed
	}
	now := time.Now().UTC()
	run.CompletedAt = &now

	if err := o.store.CompleteRun(persistCtx, run); err != nil {
		slog.Error("Failed to finalize test run", "run_id", run.ID, "error", err)
		return
	}

	slog.Info("Test run completed",
		"run_id", run.ID, "status", run.Status,
		"overall_accuracy", run.OverallAccuracy,
		"passed", run.PassedTests, "failed", run.FailedTests,
		"cancelled", cancelled)

	trendCtx, cancel := context.WithTimeout(context.Background(), trendUpdateTimeout)
	defer cancel()
	if err := o.trends.RecomputeDay(trendCtx, run.Jurisdiction, now); err != nil {
		slog.Warn("Trend recomputation failed; rows remain rebuildable from run history",
			"run_id", run.ID, "error", err)
	}
}

// evaluateCase runs one scenario end to end. All failures collapse into a
// zero-accuracy evaluation with a distinguishing deviation; a failed
// judgment is never treated as a pass.
func (o *Orchestrator) evaluateCase(ctx context.Context, runID uuid.UUID, tc domain.TestCase, sut adapter.Adapter, rubric judge.Rubric) domain.Evaluation {
	start := time.Now()

	inv, err := sut.Invoke(ctx, tc)
	if err != nil {
		slog.Warn("Subsystem invocation failed", "run_id", runID, "case", tc.Name, "error", err)
		return domain.NewEvaluation(runID, tc, 0, "",
			[]string{adapterDeviation(err)}, time.Since(start).Milliseconds(), "")
	}

	verdict, err := o.judge.Evaluate(ctx, judge.Request{
		ExpectedBehavior: tc.ExpectedBehavior,
		ActualOutput:     inv.ActualOutput,
		Rubric:           rubric,
	})
	elapsedMs := time.Since(start).Milliseconds()
	if err != nil {
		slog.Warn("Judgment failed", "run_id", runID, "case", tc.Name, "error", err)
		return domain.NewEvaluation(runID, tc, 0, "",
			[]string{"evaluation could not be completed: " + err.Error()}, elapsedMs, o.judge.Name())
	}

	return domain.NewEvaluation(runID, tc, verdict.Accuracy, verdict.Reasoning, verdict.Deviations, elapsedMs, verdict.Judgment)
}

func adapterDeviation(err error) string {
	if errors.Is(err, adapter.ErrTimeout) {
		return "subsystem call timed out"
	}
	var se *adapter.SubsystemError
	if errors.As(err, &se) {
		return "subsystem error: " + se.Error()
	}
	return "subsystem call failed: " + err.Error()
}

// Cancel forces a running suite to a terminal state. In-flight case calls
// are cut off and unfinished cases receive a "run cancelled" evaluation.
func (o *Orchestrator) Cancel(ctx context.Context, runID uuid.UUID) error {
	o.mu.Lock()
	ar, ok := o.active[runID]
	o.mu.Unlock()

	if ok {
		ar.cancel()
		return nil
	}

	run, err := o.store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Terminal() {
		return apperr.NewValidation("test run " + runID.String() + " is already in a terminal state")
	}
	// Running in the store but unknown here: owned by another instance.
	return apperr.NewValidation("test run " + runID.String() + " is not owned by this orchestrator")
}

// Await returns a channel closed when the run's background execution has
// fully finished, terminal evaluations included.
func (o *Orchestrator) Await(runID uuid.UUID) <-chan struct{} {
	o.mu.Lock()
	ar, ok := o.active[runID]
	o.mu.Unlock()

	if ok {
		return ar.done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}
