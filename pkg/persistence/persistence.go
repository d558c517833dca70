// Package persistence provides the data storage abstraction layer for
// workflow definitions and instances.
package persistence

import (
	"context"

	"github.com/dukex/flowstate/pkg/models"
)

// UpdateInstanceFunc computes the next version of an instance inside an
// UpdateInstance call. It must not mutate its argument; it returns the
// instance to persist, or an error to abort the update without any write.
type UpdateInstanceFunc func(instance *models.WorkflowInstance) (*models.WorkflowInstance, error)

// DefinitionRepository stores workflow definitions. Definitions are
// write-once: saved after validation and never mutated in place.
type DefinitionRepository interface {
	Definitions(ctx context.Context) ([]*models.WorkflowDefinition, error)
	DefinitionByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	SaveDefinition(ctx context.Context, def *models.WorkflowDefinition) error
}

// InstanceRepository stores workflow instances.
//
// UpdateInstance is the atomic read-modify-write primitive the transition
// engine builds on: implementations must serialize concurrent updates to
// the same instance id (per-key locking, row locks, or a lease), resolve
// the current instance, apply fn, and persist the result only when fn
// succeeds. Updates to different instance ids must not contend with each
// other. ErrInstanceNotFound is returned when the id does not exist.
type InstanceRepository interface {
	Instances(ctx context.Context) ([]*models.WorkflowInstance, error)
	InstanceByID(ctx context.Context, id string) (*models.WorkflowInstance, error)
	SaveInstance(ctx context.Context, instance *models.WorkflowInstance) error
	UpdateInstance(ctx context.Context, id string, fn UpdateInstanceFunc) (*models.WorkflowInstance, error)
}

// Persistence aggregates the repositories behind one pluggable backend.
type Persistence interface {
	DefinitionRepository() DefinitionRepository
	InstanceRepository() InstanceRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
