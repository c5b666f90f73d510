package main

import (
	"context"
	"fmt"

	"github.com/codermillat/BDLawCorpus-sub002/internal/corpstorage"
	"github.com/codermillat/BDLawCorpus-sub002/pkg/config"
)

// openBackend constructs the Backend named by cfg.Storage.Backend. Both
// backends present the same corpstorage.Backend contract, so nothing past
// this point branches on which one was chosen.
func openBackend(ctx context.Context, cfg *config.Config) (corpstorage.Backend, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		return corpstorage.NewPostgresBackend(ctx, &corpstorage.PostgresConfig{
			ConnectionString: cfg.Storage.DSN,
			MaxConnections:   10,
		})
	case "memory", "":
		return corpstorage.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
