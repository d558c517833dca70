package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefinitionRepository handles definition-related Redis operations.
type DefinitionRepository struct {
	client *redis.Client
	prefix string
}

// NewDefinitionRepository creates a new definition repository.
func NewDefinitionRepository(client *redis.Client, prefix string) *DefinitionRepository {
	return &DefinitionRepository{client: client, prefix: prefix}
}

func (r *DefinitionRepository) keyDefinition(id string) string {
	return r.prefix + "def:" + id
}

func (r *DefinitionRepository) keyIndex() string {
	return r.prefix + "idx:defs"
}

// Definitions returns all stored workflow definitions.
func (r *DefinitionRepository) Definitions(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	ids, err := r.client.SMembers(ctx, r.keyIndex()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list definition ids: %w", err)
	}

	definitions := make([]*models.WorkflowDefinition, 0, len(ids))

	for _, id := range ids {
		def, err := r.DefinitionByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if def != nil {
			definitions = append(definitions, def)
		}
	}

	return definitions, nil
}

// DefinitionByID returns the definition with the given id, or nil when absent.
func (r *DefinitionRepository) DefinitionByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	body, err := r.client.Get(ctx, r.keyDefinition(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch definition %s: %w", id, err)
	}

	var def models.WorkflowDefinition

	err = json.Unmarshal(body, &def)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition %s: %w", id, err)
	}

	return &def, nil
}

// SaveDefinition stores a definition and registers it in the index set.
func (r *DefinitionRepository) SaveDefinition(ctx context.Context, def *models.WorkflowDefinition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition %s: %w", def.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.keyDefinition(def.ID), data, 0)
	pipe.SAdd(ctx, r.keyIndex(), def.ID)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save definition %s: %w", def.ID, err)
	}

	return nil
}
