package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/persistence"
)

// InstanceRepository handles instance-related file operations. UpdateInstance
// calls for the same instance id are serialized through a per-key mutex;
// the file system itself offers no locking we can lean on.
type InstanceRepository struct {
	root  string
	locks sync.Map // instance id -> *sync.Mutex
}

// NewInstanceRepository creates a new instance repository rooted at the given directory.
func NewInstanceRepository(root string) *InstanceRepository {
	return &InstanceRepository{root: root}
}

// Instances returns all stored workflow instances.
func (ir *InstanceRepository) Instances(ctx context.Context) ([]*models.WorkflowInstance, error) {
	root := os.DirFS(path.Join(ir.root, "instances"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list instance files: %w", err)
	}

	instances := make([]*models.WorkflowInstance, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		instanceID := file[:len(file)-5] // Remove .json extension

		instance, err := ir.InstanceByID(ctx, instanceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load instance %s: %w", instanceID, err)
		}

		if instance != nil {
			instances = append(instances, instance)
		}
	}

	return instances, nil
}

// InstanceByID retrieves an instance by its ID from the file system.
func (ir *InstanceRepository) InstanceByID(_ context.Context, instanceID string) (*models.WorkflowInstance, error) {
	filePath := filepath.Clean(path.Join(ir.root, "instances", instanceID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch instance %s: %w", instanceID, err)
	}

	var instance models.WorkflowInstance

	err = json.Unmarshal(body, &instance)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal instance %s: %w", instanceID, err)
	}

	return &instance, nil
}

// SaveInstance saves an instance to the file system.
func (ir *InstanceRepository) SaveInstance(_ context.Context, instance *models.WorkflowInstance) error {
	dir := path.Join(ir.root, "instances")

	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create instances directory: %w", err)
	}

	data, err := json.MarshalIndent(instance, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal instance %s: %w", instance.ID, err)
	}

	return os.WriteFile(path.Join(dir, instance.ID+".json"), data, 0600)
}

// UpdateInstance applies fn to the stored instance under the per-key mutex
// and rewrites the file only when fn succeeds.
func (ir *InstanceRepository) UpdateInstance(
	ctx context.Context,
	id string,
	fn persistence.UpdateInstanceFunc,
) (*models.WorkflowInstance, error) {
	lock := ir.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	current, err := ir.InstanceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current == nil {
		return nil, persistence.NewInstanceError("UpdateInstance", id, persistence.ErrInstanceNotFound)
	}

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}

	err = ir.SaveInstance(ctx, updated)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (ir *InstanceRepository) lockFor(id string) *sync.Mutex {
	lock, _ := ir.locks.LoadOrStore(id, &sync.Mutex{})

	return lock.(*sync.Mutex)
}
