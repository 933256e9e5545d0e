package factory

import (
	"context"
	"fmt"

	"github.com/benefitsnav/maive/internal/storage"
	"github.com/benefitsnav/maive/internal/storage/in_mem"
	"github.com/benefitsnav/maive/internal/storage/pg"
)

// Built bundles a ready store with its health hook and cleanup.
type Built struct {
	Store storage.Store
	Ping  func(ctx context.Context) error
	Close func()
}

// NewStore creates a storage.Store from the loaded configuration and applies
// the schema when backed by PostgreSQL.
func NewStore(ctx context.Context, cfg *StorageConfig) (*Built, error) {
	switch cfg.Type {
	case storage.PG:
		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Built{
			Store: pg.NewStore(pool),
			Ping:  pool.Ping,
			Close: pool.Close,
		}, nil

	case storage.InMem:
		return &Built{
			Store: in_mem.NewInMemStore(),
			Ping:  func(context.Context) error { return nil },
			Close: func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
