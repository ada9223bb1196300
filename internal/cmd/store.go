package cmd

import (
	"context"

	"github.com/domainscout/domainscout/internal/core/store"
)

func openStore(ctx context.Context) (*store.Store, error) {
	cfg := loadedConfig()

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
