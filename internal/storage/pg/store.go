package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benefitsnav/maive/internal/apperr"
	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements storage.Store on PostgreSQL.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(pool *ConnectionPool) *Store {
	return &Store{db: pool.conn}
}

func (s *Store) SaveTestCase(ctx context.Context, tc domain.TestCase) error {
	tags, err := json.Marshal(tc.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	sql := `
		INSERT INTO test_cases (id, name, category, scenario, expected_behavior, accuracy_threshold, jurisdiction, tags, is_active, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			scenario = EXCLUDED.scenario,
			expected_behavior = EXCLUDED.expected_behavior,
			accuracy_threshold = EXCLUDED.accuracy_threshold,
			jurisdiction = EXCLUDED.jurisdiction,
			tags = EXCLUDED.tags,
			is_active = EXCLUDED.is_active,
			version = EXCLUDED.version
	`
	_, err = s.db.Exec(ctx, sql,
		tc.ID, tc.Name, tc.Category, tc.Scenario, tc.ExpectedBehavior,
		tc.AccuracyThreshold, tc.Jurisdiction, tags, tc.IsActive, tc.Version, tc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save test case %s: %w", tc.ID, err)
	}
	return nil
}

func (s *Store) GetTestCase(ctx context.Context, id uuid.UUID) (*domain.TestCase, error) {
	sql := `
		SELECT id, name, category, scenario, expected_behavior, accuracy_threshold, jurisdiction, tags, is_active, version, created_at
		FROM test_cases
		WHERE id = $1
	`
	tc, err := scanTestCase(s.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFound("test case " + id.String())
		}
		return nil, fmt.Errorf("get test case %s: %w", id, err)
	}
	return tc, nil
}

func (s *Store) ListActiveTestCases(ctx context.Context, filter storage.TestCaseFilter) ([]domain.TestCase, error) {
	sql := `
		SELECT id, name, category, scenario, expected_behavior, accuracy_threshold, jurisdiction, tags, is_active, version, created_at
		FROM test_cases
		WHERE is_active = TRUE
		  AND ($1::text IS NULL OR category = $1)
		  AND ($2 = '' OR jurisdiction = '' OR jurisdiction = $2)
		ORDER BY name, version
	`
	var category *string
	if filter.Category != nil {
		c := string(*filter.Category)
		category = &c
	}

	rows, err := s.db.Query(ctx, sql, category, filter.Jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("list active test cases: %w", err)
	}
	defer rows.Close()

	var out []domain.TestCase
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test case: %w", err)
		}
		out = append(out, *tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test cases: %w", err)
	}
	return out, nil
}

func (s *Store) RetireTestCase(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `UPDATE test_cases SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("retire test case %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("test case " + id.String())
	}
	return nil
}

func (s *Store) HasCompletedRunReference(ctx context.Context, caseID uuid.UUID) (bool, error) {
	sql := `
		SELECT EXISTS (
			SELECT 1
			FROM evaluations e
			JOIN test_runs r ON r.id = e.run_id
			WHERE e.test_case_id = $1 AND r.status IN ('passed', 'failed')
		)
	`
	var referenced bool
	if err := s.db.QueryRow(ctx, sql, caseID).Scan(&referenced); err != nil {
		return false, fmt.Errorf("check run references for case %s: %w", caseID, err)
	}
	return referenced, nil
}

func (s *Store) CreateRun(ctx context.Context, run domain.TestRun) error {
	sql := `
		INSERT INTO test_runs (id, name, system_type, jurisdiction, total_tests, passed_tests, failed_tests, overall_accuracy, status, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.Exec(ctx, sql,
		run.ID, run.Name, run.SystemType, run.Jurisdiction,
		run.TotalTests, run.PassedTests, run.FailedTests, run.OverallAccuracy,
		run.Status, run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*domain.TestRun, error) {
	sql := `
		SELECT id, name, system_type, jurisdiction, total_tests, passed_tests, failed_tests, overall_accuracy, status, started_at, completed_at
		FROM test_runs
		WHERE id = $1
	`
	run, err := scanRun(s.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFound("test run " + id.String())
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (s *Store) CompleteRun(ctx context.Context, run domain.TestRun) error {
	sql := `
		UPDATE test_runs
		SET passed_tests = $2, failed_tests = $3, overall_accuracy = $4, status = $5, completed_at = $6
		WHERE id = $1 AND status = 'running'
	`
	tag, err := s.db.Exec(ctx, sql,
		run.ID, run.PassedTests, run.FailedTests, run.OverallAccuracy, run.Status, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("complete run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewValidation("test run " + run.ID.String() + " is not running")
	}
	return nil
}

func (s *Store) SaveEvaluation(ctx context.Context, ev domain.Evaluation) error {
	deviations, err := json.Marshal(ev.Deviations)
	if err != nil {
		return fmt.Errorf("marshal deviations: %w", err)
	}

	sql := `
		INSERT INTO evaluations (run_id, test_case_id, accuracy, passed, reasoning, deviations, execution_time_ms, llm_judgment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, test_case_id) DO UPDATE SET
			accuracy = EXCLUDED.accuracy,
			passed = EXCLUDED.passed,
			reasoning = EXCLUDED.reasoning,
			deviations = EXCLUDED.deviations,
			execution_time_ms = EXCLUDED.execution_time_ms,
			llm_judgment = EXCLUDED.llm_judgment
	`
	_, err = s.db.Exec(ctx, sql,
		ev.RunID, ev.TestCaseID, ev.Accuracy, ev.Passed, ev.Reasoning, deviations, ev.ExecutionTimeMs, ev.LLMJudgment,
	)
	if err != nil {
		return fmt.Errorf("save evaluation run=%s case=%s: %w", ev.RunID, ev.TestCaseID, err)
	}
	return nil
}

func (s *Store) ListEvaluations(ctx context.Context, runID uuid.UUID) ([]domain.Evaluation, error) {
	sql := `
		SELECT run_id, test_case_id, accuracy, passed, reasoning, deviations, execution_time_ms, llm_judgment
		FROM evaluations
		WHERE run_id = $1
		ORDER BY test_case_id
	`
	rows, err := s.db.Query(ctx, sql, runID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []domain.Evaluation
	for rows.Next() {
		var ev domain.Evaluation
		var deviationsJSON []byte
		if err := rows.Scan(
			&ev.RunID, &ev.TestCaseID, &ev.Accuracy, &ev.Passed,
			&ev.Reasoning, &deviationsJSON, &ev.ExecutionTimeMs, &ev.LLMJudgment,
		); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		if err := json.Unmarshal(deviationsJSON, &ev.Deviations); err != nil {
			return nil, fmt.Errorf("unmarshal deviations: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return out, nil
}

func (s *Store) ListCompletedRuns(ctx context.Context, jurisdiction string, from, to time.Time) ([]domain.TestRun, error) {
	sql := `
		SELECT id, name, system_type, jurisdiction, total_tests, passed_tests, failed_tests, overall_accuracy, status, started_at, completed_at
		FROM test_runs
		WHERE status IN ('passed', 'failed')
		  AND completed_at >= $1 AND completed_at < $2
		  AND jurisdiction = $3
		ORDER BY completed_at
	`
	rows, err := s.db.Query(ctx, sql, from, to, jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("list completed runs: %w", err)
	}
	defer rows.Close()

	var out []domain.TestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func (s *Store) ReplaceTrends(ctx context.Context, jurisdiction string, from, to time.Time, trends []domain.AccuracyTrend) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin trend replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`DELETE FROM accuracy_trends WHERE jurisdiction = $1 AND trend_date >= $2 AND trend_date < $3`,
		jurisdiction, from, to,
	)
	if err != nil {
		return fmt.Errorf("delete trend rows: %w", err)
	}

	for _, row := range trends {
		_, err = tx.Exec(ctx,
			`INSERT INTO accuracy_trends (trend_date, jurisdiction, avg_accuracy, test_count) VALUES ($1, $2, $3, $4)`,
			row.Date, row.Jurisdiction, row.AvgAccuracy, row.TestCount,
		)
		if err != nil {
			return fmt.Errorf("insert trend row %s: %w", row.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit trend replace: %w", err)
	}
	return nil
}

func (s *Store) ListTrends(ctx context.Context, jurisdiction string) ([]domain.AccuracyTrend, error) {
	sql := `
		SELECT trend_date, jurisdiction, avg_accuracy, test_count
		FROM accuracy_trends
		WHERE jurisdiction = $1
		ORDER BY trend_date
	`
	rows, err := s.db.Query(ctx, sql, jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("list trends: %w", err)
	}
	defer rows.Close()

	var out []domain.AccuracyTrend
	for rows.Next() {
		var row domain.AccuracyTrend
		if err := rows.Scan(&row.Date, &row.Jurisdiction, &row.AvgAccuracy, &row.TestCount); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		row.Date = domain.TrendDay(row.Date)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trends: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTestCase(row rowScanner) (*domain.TestCase, error) {
	var tc domain.TestCase
	var tagsJSON []byte
	if err := row.Scan(
		&tc.ID, &tc.Name, &tc.Category, &tc.Scenario, &tc.ExpectedBehavior,
		&tc.AccuracyThreshold, &tc.Jurisdiction, &tagsJSON, &tc.IsActive, &tc.Version, &tc.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tagsJSON, &tc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return &tc, nil
}

func scanRun(row rowScanner) (*domain.TestRun, error) {
	var run domain.TestRun
	if err := row.Scan(
		&run.ID, &run.Name, &run.SystemType, &run.Jurisdiction,
		&run.TotalTests, &run.PassedTests, &run.FailedTests, &run.OverallAccuracy,
		&run.Status, &run.StartedAt, &run.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &run, nil
}
