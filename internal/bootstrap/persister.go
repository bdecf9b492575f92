package bootstrap

import (
	"context"
	"fmt"

	"github.com/GregMSThompson/finboard/internal/config"
	"github.com/GregMSThompson/finboard/internal/services"
	"github.com/GregMSThompson/finboard/internal/store"
)

// NewPersister returns the dashboard persister selected by cfg.Persistence.
func NewPersister(ctx context.Context, cfg *config.Config, bs *Bootstrap) (services.Persister, error) {
	switch cfg.Persistence {
	case config.PersistenceFirestore:
		if bs.Firestore == nil {
			return nil, fmt.Errorf("firestore client not initialized")
		}
		return store.NewFirestoreState(bs.Firestore), nil
	case config.PersistencePostgres:
		if bs.Postgres == nil {
			return nil, fmt.Errorf("postgres pool not initialized")
		}
		pg := store.NewPostgresState(bs.Postgres)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case config.PersistenceFile:
		fs, err := store.NewFileState(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown persistence %q", cfg.Persistence)
	}
}
