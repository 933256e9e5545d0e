package domain

import (
	"time"

	"github.com/google/uuid"
)

type SystemType string

const (
	SystemPolicyEngine     SystemType = "policy_engine"
	SystemGeminiExtraction SystemType = "gemini_extraction"
)

func (s SystemType) Valid() bool {
	return s == SystemPolicyEngine || s == SystemGeminiExtraction
}

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
)

// TestRun is one batch execution of test cases against one subsystem type.
// Lifecycle: running -> {passed, failed}; terminal states are immutable.
type TestRun struct {
	ID              uuid.UUID
	Name            string
	SystemType      SystemType
	Jurisdiction    string
	TotalTests      int
	PassedTests     int
	FailedTests     int
	OverallAccuracy float64
	Status          RunStatus
	StartedAt       time.Time
	CompletedAt     *time.Time
}

func (r *TestRun) Terminal() bool {
	return r.Status == RunStatusPassed || r.Status == RunStatusFailed
}

// Evaluation is the scored result of one test case within one run.
// Passed is always derived from Accuracy and the owning case's threshold.
type Evaluation struct {
	RunID           uuid.UUID
	TestCaseID      uuid.UUID
	Accuracy        float64
	Passed          bool
	Reasoning       string
	Deviations      []string
	ExecutionTimeMs int64
	LLMJudgment     string
}

func NewEvaluation(runID uuid.UUID, tc TestCase, accuracy float64, reasoning string, deviations []string, executionMs int64, judgment string) Evaluation {
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 1 {
		accuracy = 1
	}
	return Evaluation{
		RunID:           runID,
		TestCaseID:      tc.ID,
		Accuracy:        accuracy,
		Passed:          accuracy >= tc.AccuracyThreshold,
		Reasoning:       reasoning,
		Deviations:      deviations,
		ExecutionTimeMs: executionMs,
		LLMJudgment:     judgment,
	}
}
