// Package catalog owns the versioned test case catalog. Selection excludes
// inactive cases unconditionally: a retired case may encode incorrect ground
// truth, so it must never reach a run.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/storage"
	"github.com/google/uuid"
)

type Filter struct {
	Category     *domain.Category
	Jurisdiction string
}

type Catalog interface {
	ListActive(ctx context.Context, filter Filter) ([]domain.TestCase, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.TestCase, error)
}

// StoreCatalog is the store-backed catalog used by the orchestrator and API.
type StoreCatalog struct {
	store storage.CatalogStore
}

func New(store storage.CatalogStore) *StoreCatalog {
	return &StoreCatalog{store: store}
}

func (c *StoreCatalog) ListActive(ctx context.Context, filter Filter) ([]domain.TestCase, error) {
	return c.store.ListActiveTestCases(ctx, storage.TestCaseFilter{
		Category:     filter.Category,
		Jurisdiction: filter.Jurisdiction,
	})
}

func (c *StoreCatalog) Get(ctx context.Context, id uuid.UUID) (*domain.TestCase, error) {
	return c.store.GetTestCase(ctx, id)
}

// Upsert writes an authored case. A case already referenced by a completed
// run is immutable: the edit lands as a new version and the old row is
// retired instead of mutated.
func (c *StoreCatalog) Upsert(ctx context.Context, tc domain.TestCase) (*domain.TestCase, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	referenced, err := c.store.HasCompletedRunReference(ctx, tc.ID)
	if err != nil {
		return nil, fmt.Errorf("check case references: %w", err)
	}

	if !referenced {
		if err := c.store.SaveTestCase(ctx, tc); err != nil {
			return nil, err
		}
		return &tc, nil
	}

	next := domain.NewVersion(tc)
	if err := c.store.SaveTestCase(ctx, next); err != nil {
		return nil, err
	}
	if err := c.store.RetireTestCase(ctx, tc.ID); err != nil {
		return nil, err
	}
	slog.Info("Test case versioned instead of mutated",
		"name", tc.Name, "old_version", tc.Version, "new_version", next.Version)
	return &next, nil
}
