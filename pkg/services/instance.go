package services

import (
	"context"
	"log/slog"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/persistence"
	"github.com/dukex/flowstate/pkg/workflow"
)

// Instance manages workflow instances. Creation and action execution
// delegate to the transition engine; lookups pass through to the
// repository.
type Instance struct {
	persistence persistence.Persistence
	engine      *workflow.Engine
}

// NewInstance creates a new instance service.
func NewInstance(persistence persistence.Persistence, logger *slog.Logger) *Instance {
	return &Instance{
		persistence: persistence,
		engine:      workflow.NewEngine(persistence, logger),
	}
}

// Create seeds a new instance of the given definition at its initial state.
func (s *Instance) Create(ctx context.Context, definitionID string) (*models.WorkflowInstance, error) {
	return s.engine.CreateInstance(ctx, definitionID)
}

// ExecuteAction runs one transition against an instance.
func (s *Instance) ExecuteAction(ctx context.Context, instanceID, actionID string) (*models.WorkflowInstance, error) {
	return s.engine.ExecuteAction(ctx, instanceID, actionID)
}

// FetchByID retrieves an instance by its ID.
func (s *Instance) FetchByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	instance, err := s.persistence.InstanceRepository().InstanceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if instance == nil {
		return nil, persistence.NewInstanceError("FetchByID", id, ErrInstanceNotFound)
	}

	return instance, nil
}

// FetchAll retrieves all stored instances.
func (s *Instance) FetchAll(ctx context.Context) ([]*models.WorkflowInstance, error) {
	instances, err := s.persistence.InstanceRepository().Instances(ctx)
	if err != nil {
		return make([]*models.WorkflowInstance, 0), err
	}

	return instances, nil
}

// AvailableActions returns the actions executable from an instance's
// current state, derived purely from the stored definition.
func (s *Instance) AvailableActions(ctx context.Context, instanceID string) ([]*models.Action, error) {
	instance, err := s.FetchByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	def, err := s.persistence.DefinitionRepository().DefinitionByID(ctx, instance.DefinitionID)
	if err != nil {
		return nil, err
	}

	if def == nil {
		return nil, persistence.NewDefinitionError("AvailableActions", instance.DefinitionID, ErrDefinitionNotFound)
	}

	return workflow.AvailableActions(def, instance.CurrentStateID), nil
}
