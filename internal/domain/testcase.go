package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryBenefitCalculation       Category = "benefit_calculation"
	CategoryPolicyInterpretation     Category = "policy_interpretation"
	CategoryDocumentExtraction       Category = "document_extraction"
	CategoryEligibilityDetermination Category = "eligibility_determination"
	CategoryWorkRequirements         Category = "work_requirements"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBenefitCalculation,
		CategoryPolicyInterpretation,
		CategoryDocumentExtraction,
		CategoryEligibilityDetermination,
		CategoryWorkRequirements:
		return true
	}
	return false
}

// TestCase is a versioned scenario with known-correct expected behavior.
// A case referenced by a completed run is never mutated; edits produce a
// new version and retire the old row.
type TestCase struct {
	ID                uuid.UUID
	Name              string
	Category          Category
	Scenario          string
	ExpectedBehavior  string
	AccuracyThreshold float64
	Jurisdiction      string
	Tags              []string
	IsActive          bool
	Version           int
	CreatedAt         time.Time
}

func (tc *TestCase) Validate() error {
	if tc.Name == "" {
		return fmt.Errorf("test case has no name")
	}
	if !tc.Category.Valid() {
		return fmt.Errorf("test case %q has invalid category %q", tc.Name, tc.Category)
	}
	if tc.Scenario == "" {
		return fmt.Errorf("test case %q has no scenario", tc.Name)
	}
	if tc.ExpectedBehavior == "" {
		return fmt.Errorf("test case %q has no expected behavior", tc.Name)
	}
	if tc.AccuracyThreshold <= 0 || tc.AccuracyThreshold > 1 {
		return fmt.Errorf("test case %q accuracy threshold %v is outside (0,1]", tc.Name, tc.AccuracyThreshold)
	}
	return nil
}

// NewVersion copies a case into its next version with a fresh identity.
func NewVersion(tc TestCase) TestCase {
	next := tc
	next.ID = uuid.New()
	next.Version = tc.Version + 1
	next.IsActive = true
	next.CreatedAt = time.Now().UTC()
	next.Tags = append([]string(nil), tc.Tags...)
	return next
}
