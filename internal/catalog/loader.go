package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/storage"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SeedFile is the authored fixture format for catalog bootstrap.
type SeedFile struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Cases       []SeedCase `yaml:"cases"`
}

type SeedCase struct {
	ID                string   `yaml:"id,omitempty"`
	Name              string   `yaml:"name"`
	Category          string   `yaml:"category"`
	Scenario          string   `yaml:"scenario"`
	ExpectedBehavior  string   `yaml:"expected_behavior"`
	AccuracyThreshold float64  `yaml:"accuracy_threshold"`
	Jurisdiction      string   `yaml:"jurisdiction,omitempty"`
	Tags              []string `yaml:"tags,omitempty"`
	Inactive          bool     `yaml:"inactive,omitempty"`
	Version           int      `yaml:"version,omitempty"`
}

func LoadSeedFile(path string) ([]domain.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]domain.TestCase, error) {
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed YAML: %w", err)
	}
	if len(sf.Cases) == 0 {
		return nil, fmt.Errorf("seed file has no cases")
	}

	seen := make(map[string]bool, len(sf.Cases))
	cases := make([]domain.TestCase, 0, len(sf.Cases))
	for i, sc := range sf.Cases {
		tc, err := sc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("case at index %d: %w", i, err)
		}
		key := fmt.Sprintf("%s@%d", tc.Name, tc.Version)
		if seen[key] {
			return nil, fmt.Errorf("duplicate case %q version %d", tc.Name, tc.Version)
		}
		seen[key] = true
		cases = append(cases, *tc)
	}
	return cases, nil
}

func (sc SeedCase) toDomain() (*domain.TestCase, error) {
	id := uuid.New()
	if sc.ID != "" {
		parsed, err := uuid.Parse(sc.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", sc.ID, err)
		}
		id = parsed
	}

	version := sc.Version
	if version == 0 {
		version = 1
	}

	tc := domain.TestCase{
		ID:                id,
		Name:              sc.Name,
		Category:          domain.Category(sc.Category),
		Scenario:          sc.Scenario,
		ExpectedBehavior:  sc.ExpectedBehavior,
		AccuracyThreshold: sc.AccuracyThreshold,
		Jurisdiction:      sc.Jurisdiction,
		Tags:              sc.Tags,
		IsActive:          !sc.Inactive,
		Version:           version,
		CreatedAt:         time.Now().UTC(),
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return &tc, nil
}

// Seed writes the parsed cases into the catalog store.
func Seed(ctx context.Context, store storage.CatalogStore, cases []domain.TestCase) error {
	for _, tc := range cases {
		if err := store.SaveTestCase(ctx, tc); err != nil {
			return fmt.Errorf("seed case %q: %w", tc.Name, err)
		}
	}
	return nil
}
