package dto

import (
	"time"

	"github.com/benefitsnav/maive/internal/domain"
	"github.com/google/uuid"
)

type TestCaseResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Scenario          string    `json:"scenario"`
	ExpectedBehavior  string    `json:"expectedBehavior"`
	AccuracyThreshold float64   `json:"accuracyThreshold"`
	Jurisdiction      string    `json:"jurisdiction,omitempty"`
	Tags              []string  `json:"tags,omitempty"`
	IsActive          bool      `json:"isActive"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
}

func FromTestCase(tc domain.TestCase) TestCaseResponse {
	return TestCaseResponse{
		ID:                tc.ID,
		Name:              tc.Name,
		Category:          string(tc.Category),
		Scenario:          tc.Scenario,
		ExpectedBehavior:  tc.ExpectedBehavior,
		AccuracyThreshold: tc.AccuracyThreshold,
		Jurisdiction:      tc.Jurisdiction,
		Tags:              tc.Tags,
		IsActive:          tc.IsActive,
		Version:           tc.Version,
		CreatedAt:         tc.CreatedAt,
	}
}

func FromTestCases(cases []domain.TestCase) []TestCaseResponse {
	out := make([]TestCaseResponse, 0, len(cases))
	for _, tc := range cases {
		out = append(out, FromTestCase(tc))
	}
	return out
}
