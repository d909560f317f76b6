package service

import (
	"context"
	"fmt"

	"github.com/okian/prizewheel/internal/adapters/store"
	"github.com/okian/prizewheel/internal/adapters/store/firestore"
	"github.com/okian/prizewheel/internal/adapters/store/sqlite"
	"github.com/okian/prizewheel/internal/config"
)

// OpenStore opens the backend selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		return store.NewMemory(), nil
	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	case config.DriverFirestore:
		st, err := firestore.Open(ctx, firestore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
	}
}
