package dto

import (
	"time"

	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/gate"
	"github.com/benefitsnav/maive/internal/judge"
	"github.com/benefitsnav/maive/pkg/utils"
	"github.com/google/uuid"
)

const accuracyDecimals = 4

type StartRunRequest struct {
	Name           string      `json:"name" validate:"required,min=1"`
	TestCaseIds    []uuid.UUID `json:"testCaseIds" validate:"required,min=1"`
	SystemType     string      `json:"systemType" validate:"required"`
	Jurisdiction   string      `json:"jurisdiction,omitempty"`
	CriticalWeight float64     `json:"criticalWeight,omitempty"`
}

func (r StartRunRequest) Rubric() judge.Rubric {
	return judge.Rubric{CriticalWeight: r.CriticalWeight}
}

type TestRunResponse struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	SystemType      string               `json:"systemType"`
	Jurisdiction    string               `json:"jurisdiction,omitempty"`
	TotalTests      int                  `json:"totalTests"`
	PassedTests     int                  `json:"passedTests"`
	FailedTests     int                  `json:"failedTests"`
	OverallAccuracy float64              `json:"overallAccuracy"`
	Status          string               `json:"status"`
	Readiness       string               `json:"readiness,omitempty"`
	StartedAt       time.Time            `json:"startedAt"`
	CompletedAt     *time.Time           `json:"completedAt,omitempty"`
	Evaluations     []EvaluationResponse `json:"evaluations,omitempty"`
}

type EvaluationResponse struct {
	TestCaseID      uuid.UUID `json:"testCaseId"`
	Accuracy        float64   `json:"accuracy"`
	Passed          bool      `json:"passed"`
	Reasoning       string    `json:"reasoning,omitempty"`
	Deviations      []string  `json:"deviations,omitempty"`
	ExecutionTimeMs int64     `json:"executionTimeMs"`
	LLMJudgment     string    `json:"llmJudgment,omitempty"`
}

// FromRun maps a run for API responses. The readiness band is only
// reported once the run is terminal; a partial accuracy would mislabel it.
func FromRun(run *domain.TestRun, evals []domain.Evaluation) TestRunResponse {
	resp := TestRunResponse{
		ID:              run.ID,
		Name:            run.Name,
		SystemType:      string(run.SystemType),
		Jurisdiction:    run.Jurisdiction,
		TotalTests:      run.TotalTests,
		PassedTests:     run.PassedTests,
		FailedTests:     run.FailedTests,
		OverallAccuracy: utils.RoundDecimal(run.OverallAccuracy, accuracyDecimals),
		Status:          string(run.Status),
		StartedAt:       run.StartedAt,
		CompletedAt:     run.CompletedAt,
	}
	if run.Terminal() {
		resp.Readiness = gate.Classify(run.OverallAccuracy).Label()
	}
	if len(evals) > 0 {
		resp.Evaluations = make([]EvaluationResponse, 0, len(evals))
		for _, ev := range evals {
			resp.Evaluations = append(resp.Evaluations, FromEvaluation(ev))
		}
	}
	return resp
}

func FromEvaluation(ev domain.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		TestCaseID:      ev.TestCaseID,
		Accuracy:        utils.RoundDecimal(ev.Accuracy, accuracyDecimals),
		Passed:          ev.Passed,
		Reasoning:       ev.Reasoning,
		Deviations:      ev.Deviations,
		ExecutionTimeMs: ev.ExecutionTimeMs,
		LLMJudgment:     ev.LLMJudgment,
	}
}
