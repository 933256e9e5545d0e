package storage

import (
	"context"
	"time"

	"github.com/benefitsnav/maive/internal/domain"
	"github.com/google/uuid"
)

type Type string

const (
	PG    Type = "pg"
	InMem Type = "in_mem"
)

type TestCaseFilter struct {
	Category     *domain.Category
	Jurisdiction string
}

// CatalogStore persists the versioned test case catalog.
type CatalogStore interface {
	SaveTestCase(ctx context.Context, tc domain.TestCase) error
	GetTestCase(ctx context.Context, id uuid.UUID) (*domain.TestCase, error)
	// ListActiveTestCases excludes inactive cases unconditionally.
	ListActiveTestCases(ctx context.Context, filter TestCaseFilter) ([]domain.TestCase, error)
	RetireTestCase(ctx context.Context, id uuid.UUID) error
	// HasCompletedRunReference reports whether any completed run owns an
	// evaluation of the given case.
	HasCompletedRunReference(ctx context.Context, caseID uuid.UUID) (bool, error)
}

// RunStore persists runs and their evaluations. A run's records are mutated
// only by the orchestrator instance that owns the run.
type RunStore interface {
	CreateRun(ctx context.Context, run domain.TestRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*domain.TestRun, error)
	// CompleteRun writes the terminal aggregate; rejects transitions out of
	// a terminal state.
	CompleteRun(ctx context.Context, run domain.TestRun) error
	SaveEvaluation(ctx context.Context, ev domain.Evaluation) error
	ListEvaluations(ctx context.Context, runID uuid.UUID) ([]domain.Evaluation, error)
	// ListCompletedRuns matches the jurisdiction exactly; the empty string
	// is the unscoped bucket, never a wildcard. Trend buckets would bleed
	// into each other otherwise.
	ListCompletedRuns(ctx context.Context, jurisdiction string, from, to time.Time) ([]domain.TestRun, error)
}

// TrendStore persists the derived accuracy trend table.
type TrendStore interface {
	// ReplaceTrends swaps all rows for the jurisdiction within [from, to)
	// with the given rows in one atomic step.
	ReplaceTrends(ctx context.Context, jurisdiction string, from, to time.Time, rows []domain.AccuracyTrend) error
	// ListTrends matches the jurisdiction exactly, like ListCompletedRuns.
	ListTrends(ctx context.Context, jurisdiction string) ([]domain.AccuracyTrend, error)
}

type Store interface {
	CatalogStore
	RunStore
	TrendStore
}
