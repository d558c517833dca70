// Package redis provides Redis persistence implementation for workflow
// definitions and instances.
//
// Key layout under the configured prefix:
//
//	<prefix>def:<id>   JSON-encoded definition
//	<prefix>inst:<id>  JSON-encoded instance
//	<prefix>idx:defs   SET of definition ids
//	<prefix>idx:insts  SET of instance ids
//	<prefix>lock:<id>  short-lived lease serializing UpdateInstance per instance
package redis

import (
	"context"
	"fmt"

	"github.com/dukex/flowstate/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "flowstate:"

// Persistence implements the persistence layer for Redis.
type Persistence struct {
	client         *redis.Client
	definitionRepo *DefinitionRepository
	instanceRepo   *InstanceRepository
}

// NewPersistence creates a new Redis persistence layer from a connection URL.
func NewPersistence(ctx context.Context, redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(client), nil
}

// NewPersistenceWithClient creates a Redis persistence layer on an existing client.
func NewPersistenceWithClient(client *redis.Client) *Persistence {
	return &Persistence{
		client:         client,
		definitionRepo: NewDefinitionRepository(client, defaultPrefix),
		instanceRepo:   NewInstanceRepository(client, defaultPrefix),
	}
}

// DefinitionRepository returns the definition repository implementation for Redis.
func (p *Persistence) DefinitionRepository() persistence.DefinitionRepository {
	return p.definitionRepo
}

// InstanceRepository returns the instance repository implementation for Redis.
func (p *Persistence) InstanceRepository() persistence.InstanceRepository {
	return p.instanceRepo
}

// HealthCheck verifies connectivity to the Redis server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

// Close closes the Redis client.
func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
