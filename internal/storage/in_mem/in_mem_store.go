package in_mem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benefitsnav/maive/internal/apperr"
	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/storage"
	"github.com/google/uuid"
)

type evalKey struct {
	runID  uuid.UUID
	caseID uuid.UUID
}

type trendKey struct {
	day          time.Time
	jurisdiction string
}

// InMemStore implements storage.Store with in-process maps. Used by the
// harness test suite and the storage-less local mode.
type InMemStore struct {
	mu     sync.RWMutex
	cases  map[uuid.UUID]domain.TestCase
	runs   map[uuid.UUID]domain.TestRun
	evals  map[evalKey]domain.Evaluation
	trends map[trendKey]domain.AccuracyTrend
}

func NewInMemStore() *InMemStore {
	return &InMemStore{
		cases:  make(map[uuid.UUID]domain.TestCase),
		runs:   make(map[uuid.UUID]domain.TestRun),
		evals:  make(map[evalKey]domain.Evaluation),
		trends: make(map[trendKey]domain.AccuracyTrend),
	}
}

func (s *InMemStore) SaveTestCase(ctx context.Context, tc domain.TestCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tc.Tags = append([]string(nil), tc.Tags...)
	s.cases[tc.ID] = tc
	return nil
}

func (s *InMemStore) GetTestCase(ctx context.Context, id uuid.UUID) (*domain.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tc, ok := s.cases[id]
	if !ok {
		return nil, apperr.NewNotFound("test case " + id.String())
	}
	cp := tc
	cp.Tags = append([]string(nil), tc.Tags...)
	return &cp, nil
}

func (s *InMemStore) ListActiveTestCases(ctx context.Context, filter storage.TestCaseFilter) ([]domain.TestCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TestCase
	for _, tc := range s.cases {
		if !tc.IsActive {
			continue
		}
		if filter.Category != nil && tc.Category != *filter.Category {
			continue
		}
		if filter.Jurisdiction != "" && tc.Jurisdiction != "" && tc.Jurisdiction != filter.Jurisdiction {
			continue
		}
		cp := tc
		cp.Tags = append([]string(nil), tc.Tags...)
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

func (s *InMemStore) RetireTestCase(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tc, ok := s.cases[id]
	if !ok {
		return apperr.NewNotFound("test case " + id.String())
	}
	tc.IsActive = false
	s.cases[id] = tc
	return nil
}

func (s *InMemStore) HasCompletedRunReference(ctx context.Context, caseID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, ev := range s.evals {
		if ev.TestCaseID != caseID {
			continue
		}
		if run, ok := s.runs[key.runID]; ok && run.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemStore) CreateRun(ctx context.Context, run domain.TestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *InMemStore) GetRun(ctx context.Context, id uuid.UUID) (*domain.TestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, apperr.NewNotFound("test run " + id.String())
	}
	cp := run
	return &cp, nil
}

func (s *InMemStore) CompleteRun(ctx context.Context, run domain.TestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.runs[run.ID]
	if !ok {
		return apperr.NewNotFound("test run " + run.ID.String())
	}
	if existing.Terminal() {
		return apperr.NewValidation("test run " + run.ID.String() + " is already in a terminal state")
	}
	s.runs[run.ID] = run
	return nil
}

func (s *InMemStore) SaveEvaluation(ctx context.Context, ev domain.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.Deviations = append([]string(nil), ev.Deviations...)
	s.evals[evalKey{runID: ev.RunID, caseID: ev.TestCaseID}] = ev
	return nil
}

func (s *InMemStore) ListEvaluations(ctx context.Context, runID uuid.UUID) ([]domain.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Evaluation
	for key, ev := range s.evals {
		if key.runID != runID {
			continue
		}
		cp := ev
		cp.Deviations = append([]string(nil), ev.Deviations...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TestCaseID.String() < out[j].TestCaseID.String()
	})
	return out, nil
}

func (s *InMemStore) ListCompletedRuns(ctx context.Context, jurisdiction string, from, to time.Time) ([]domain.TestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TestRun
	for _, run := range s.runs {
		if !run.Terminal() || run.CompletedAt == nil {
			continue
		}
		if run.Jurisdiction != jurisdiction {
			continue
		}
		if run.CompletedAt.Before(from) || !run.CompletedAt.Before(to) {
			continue
		}
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(*out[j].CompletedAt)
	})
	return out, nil
}

func (s *InMemStore) ReplaceTrends(ctx context.Context, jurisdiction string, from, to time.Time, rows []domain.AccuracyTrend) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.trends {
		if key.jurisdiction != jurisdiction {
			continue
		}
		if key.day.Before(from) || !key.day.Before(to) {
			continue
		}
		delete(s.trends, key)
	}
	for _, row := range rows {
		s.trends[trendKey{day: domain.TrendDay(row.Date), jurisdiction: row.Jurisdiction}] = row
	}
	return nil
}

func (s *InMemStore) ListTrends(ctx context.Context, jurisdiction string) ([]domain.AccuracyTrend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.AccuracyTrend
	for key, row := range s.trends {
		if key.jurisdiction != jurisdiction {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Jurisdiction < out[j].Jurisdiction
	})
	return out, nil
}
