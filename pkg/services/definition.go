package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/persistence"
	"github.com/dukex/flowstate/pkg/workflow"
	"github.com/google/uuid"
)

// Definition manages workflow definitions: validated creation plus
// read-only lookups.
type Definition struct {
	persistence persistence.Persistence
}

// NewDefinition creates a new definition service.
func NewDefinition(persistence persistence.Persistence) *Definition {
	return &Definition{
		persistence: persistence,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Definition) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates a candidate definition and stores it. The id and
// creation timestamp are assigned here; a rejected candidate is never
// stored. Validation runs exactly once, at this point: a stored definition
// is immutable and structurally sound for its whole lifetime.
func (s *Definition) Create(ctx context.Context, def *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if err := workflow.ValidateDefinition(def); err != nil {
		return nil, err
	}

	def.ID = uuid.NewString()
	def.CreatedAt = time.Now().UTC()

	err := s.persistence.DefinitionRepository().SaveDefinition(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("failed to create definition: %w", err)
	}

	return def, nil
}

// FetchByID retrieves a definition by its ID.
func (s *Definition) FetchByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	def, err := s.persistence.DefinitionRepository().DefinitionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if def == nil {
		return nil, persistence.NewDefinitionError("FetchByID", id, ErrDefinitionNotFound)
	}

	return def, nil
}

// FetchAll retrieves all stored definitions.
func (s *Definition) FetchAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	definitions, err := s.persistence.DefinitionRepository().Definitions(ctx)
	if err != nil {
		return make([]*models.WorkflowDefinition, 0), err
	}

	return definitions, nil
}
