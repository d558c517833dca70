package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/persistence"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockTTL          = 10 * time.Second
	lockRetryBackoff = 20 * time.Millisecond
)

// Lua script releasing a lock only when still held by its owner.
const releaseLockLua = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// InstanceRepository handles instance-related Redis operations.
// UpdateInstance serializes per-instance writers through a SETNX lease with
// a TTL, so a crashed holder cannot wedge the instance forever.
type InstanceRepository struct {
	client *redis.Client
	prefix string
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(client *redis.Client, prefix string) *InstanceRepository {
	return &InstanceRepository{client: client, prefix: prefix}
}

func (r *InstanceRepository) keyInstance(id string) string {
	return r.prefix + "inst:" + id
}

func (r *InstanceRepository) keyIndex() string {
	return r.prefix + "idx:insts"
}

func (r *InstanceRepository) keyLock(id string) string {
	return r.prefix + "lock:" + id
}

// Instances returns all stored workflow instances.
func (r *InstanceRepository) Instances(ctx context.Context) ([]*models.WorkflowInstance, error) {
	ids, err := r.client.SMembers(ctx, r.keyIndex()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list instance ids: %w", err)
	}

	instances := make([]*models.WorkflowInstance, 0, len(ids))

	for _, id := range ids {
		instance, err := r.InstanceByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if instance != nil {
			instances = append(instances, instance)
		}
	}

	return instances, nil
}

// InstanceByID returns the instance with the given id, or nil when absent.
func (r *InstanceRepository) InstanceByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	body, err := r.client.Get(ctx, r.keyInstance(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch instance %s: %w", id, err)
	}

	var instance models.WorkflowInstance

	err = json.Unmarshal(body, &instance)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal instance %s: %w", id, err)
	}

	return &instance, nil
}

// SaveInstance stores an instance and registers it in the index set.
func (r *InstanceRepository) SaveInstance(ctx context.Context, instance *models.WorkflowInstance) error {
	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to marshal instance %s: %w", instance.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.keyInstance(instance.ID), data, 0)
	pipe.SAdd(ctx, r.keyIndex(), instance.ID)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	return nil
}

// UpdateInstance applies fn to the stored instance while holding the
// per-instance lease. Nothing is written when fn fails.
func (r *InstanceRepository) UpdateInstance(
	ctx context.Context,
	id string,
	fn persistence.UpdateInstanceFunc,
) (*models.WorkflowInstance, error) {
	owner := uuid.NewString()

	err := r.acquireLock(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = r.client.Eval(context.WithoutCancel(ctx), releaseLockLua, []string{r.keyLock(id)}, owner).Err()
	}()

	current, err := r.InstanceByID(ctx, id)
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

	err = r.SaveInstance(ctx, updated)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *InstanceRepository) acquireLock(ctx context.Context, id, owner string) error {
	for {
		ok, err := r.client.SetNX(ctx, r.keyLock(id), owner, lockTTL).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock for instance %s: %w", id, err)
		}

		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to acquire lock for instance %s: %w", id, ctx.Err())
		case <-time.After(lockRetryBackoff):
		}
	}
}
