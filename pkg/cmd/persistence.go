// Package cmd provides shared construction helpers for the flowstate binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukex/flowstate/pkg/persistence"
	"github.com/dukex/flowstate/pkg/persistence/file"
	"github.com/dukex/flowstate/pkg/persistence/memory"
	"github.com/dukex/flowstate/pkg/persistence/postgresql"
	"github.com/dukex/flowstate/pkg/persistence/redis"
)

// NewPersistence builds a persistence backend from a database URL. The URL
// scheme selects the provider: memory://, file://<dir>, postgres://...,
// redis://... . An empty URL falls back to the in-memory backend.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis":
		return redis.NewPersistence(ctx, databaseURL)
	case "file":
		return file.NewPersistence(databaseURL), nil
	default:
		return memory.NewPersistence(), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "memory"
	}

	return provider
}
