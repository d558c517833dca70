// Package memory provides an in-memory persistence implementation for
// workflow definitions and instances. It is the reference implementation of
// the per-instance update serialization the transition engine relies on.
package memory

import (
	"context"
	"sync"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface with
// process-local maps.
type Persistence struct {
	definitionRepo *DefinitionRepository
	instanceRepo   *InstanceRepository
}

// NewPersistence creates an empty in-memory persistence layer.
func NewPersistence() *Persistence {
	return &Persistence{
		definitionRepo: NewDefinitionRepository(),
		instanceRepo:   NewInstanceRepository(),
	}
}

func (p *Persistence) DefinitionRepository() persistence.DefinitionRepository {
	return p.definitionRepo
}

func (p *Persistence) InstanceRepository() persistence.InstanceRepository {
	return p.instanceRepo
}

// HealthCheck always succeeds for the in-memory backend.
func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

// Close performs any necessary cleanup. There is nothing to clean up for
// the in-memory backend.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// DefinitionRepository stores definitions in a map guarded by a RWMutex.
// Stored definitions are treated as immutable, so reads hand out the stored
// pointer directly.
type DefinitionRepository struct {
	mu          sync.RWMutex
	definitions map[string]*models.WorkflowDefinition
}

// NewDefinitionRepository creates an empty in-memory definition repository.
func NewDefinitionRepository() *DefinitionRepository {
	return &DefinitionRepository{
		definitions: make(map[string]*models.WorkflowDefinition),
	}
}

func (r *DefinitionRepository) Definitions(_ context.Context) ([]*models.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]*models.WorkflowDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		definitions = append(definitions, def)
	}

	return definitions, nil
}

func (r *DefinitionRepository) DefinitionByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.definitions[id], nil
}

func (r *DefinitionRepository) SaveDefinition(_ context.Context, def *models.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.definitions[def.ID] = def

	return nil
}

// InstanceRepository stores instances in a map guarded by a RWMutex, with an
// additional per-instance mutex serializing UpdateInstance calls per key.
type InstanceRepository struct {
	mu        sync.RWMutex
	instances map[string]*models.WorkflowInstance
	locks     sync.Map // instance id -> *sync.Mutex
}

// NewInstanceRepository creates an empty in-memory instance repository.
func NewInstanceRepository() *InstanceRepository {
	return &InstanceRepository{
		instances: make(map[string]*models.WorkflowInstance),
	}
}

func (r *InstanceRepository) Instances(_ context.Context) ([]*models.WorkflowInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]*models.WorkflowInstance, 0, len(r.instances))
	for _, instance := range r.instances {
		instances = append(instances, instance.Clone())
	}

	return instances, nil
}

func (r *InstanceRepository) InstanceByID(_ context.Context, id string) (*models.WorkflowInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, ok := r.instances[id]
	if !ok {
		return nil, nil
	}

	return instance.Clone(), nil
}

func (r *InstanceRepository) SaveInstance(_ context.Context, instance *models.WorkflowInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.instances[instance.ID] = instance.Clone()

	return nil
}

// UpdateInstance applies fn to the stored instance under the per-key mutex.
// Nothing is written when fn fails, and concurrent updates to different
// instance ids proceed independently.
func (r *InstanceRepository) UpdateInstance(
	_ context.Context,
	id string,
	fn persistence.UpdateInstanceFunc,
) (*models.WorkflowInstance, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	current, ok := r.instances[id]
	r.mu.RUnlock()

	if !ok {
		return nil, persistence.NewInstanceError("UpdateInstance", id, persistence.ErrInstanceNotFound)
	}

	updated, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.instances[id] = updated.Clone()
	r.mu.Unlock()

	return updated, nil
}

func (r *InstanceRepository) lockFor(id string) *sync.Mutex {
	lock, _ := r.locks.LoadOrStore(id, &sync.Mutex{})

	return lock.(*sync.Mutex)
}
