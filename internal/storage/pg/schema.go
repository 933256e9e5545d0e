package pg

import (
	"context"
	"fmt"
)

// Schema is the MAIVE validation schema. Applied idempotently at startup
// and by the integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS test_cases (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	scenario TEXT NOT NULL,
	expected_behavior TEXT NOT NULL,
	accuracy_threshold DOUBLE PRECISION NOT NULL CHECK (accuracy_threshold > 0 AND accuracy_threshold <= 1),
	jurisdiction TEXT NOT NULL DEFAULT '',
	tags JSONB NOT NULL DEFAULT '[]',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	version INT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_test_cases_active ON test_cases (is_active, category, jurisdiction);

CREATE TABLE IF NOT EXISTS test_runs (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	system_type TEXT NOT NULL,
	jurisdiction TEXT NOT NULL DEFAULT '',
	total_tests INT NOT NULL,
	passed_tests INT NOT NULL DEFAULT 0,
	failed_tests INT NOT NULL DEFAULT 0,
	overall_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_test_runs_completed ON test_runs (jurisdiction, completed_at) WHERE completed_at IS NOT NULL;

CREATE TABLE IF NOT EXISTS evaluations (
	run_id UUID NOT NULL REFERENCES test_runs(id) ON DELETE CASCADE,
	test_case_id UUID NOT NULL,
	accuracy DOUBLE PRECISION NOT NULL,
	passed BOOLEAN NOT NULL,
	reasoning TEXT NOT NULL DEFAULT '',
	deviations JSONB NOT NULL DEFAULT '[]',
	execution_time_ms BIGINT NOT NULL DEFAULT 0,
	llm_judgment TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, test_case_id)
);

CREATE TABLE IF NOT EXISTS accuracy_trends (
	trend_date DATE NOT NULL,
	jurisdiction TEXT NOT NULL DEFAULT '',
	avg_accuracy DOUBLE PRECISION NOT NULL,
	test_count INT NOT NULL,
	PRIMARY KEY (trend_date, jurisdiction)
);
`

// EnsureSchema creates the validation tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.GetConn().Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
