package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/persistence"
)

// InstanceRepository handles instance-related database operations.
// UpdateInstance serializes per-instance writers through a transactional
// SELECT ... FOR UPDATE row lock.
type InstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(db *sql.DB, logger *slog.Logger) *InstanceRepository {
	return &InstanceRepository{db: db, logger: logger}
}

// Instances returns all workflow instances from the database.
func (r *InstanceRepository) Instances(ctx context.Context) ([]*models.WorkflowInstance, error) {
	query := `
		SELECT
			id
		  , definition_id
		  , current_state_id
		  , history
		  , created_at
		FROM workflow_instances
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances: %w", err)
	}

	defer func(ctx context.Context, r *InstanceRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	instances := make([]*models.WorkflowInstance, 0)

	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}

		instances = append(instances, instance)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating instances: %w", err)
	}

	return instances, nil
}

// InstanceByID returns the instance with the given id, or nil when absent.
func (r *InstanceRepository) InstanceByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := `
		SELECT
			id
		  , definition_id
		  , current_state_id
		  , history
		  , created_at
		FROM workflow_instances
		WHERE id = $1
	`

	instance, err := scanInstance(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan instance: %w", err)
	}

	return instance, nil
}

// SaveInstance stores an instance.
func (r *InstanceRepository) SaveInstance(ctx context.Context, instance *models.WorkflowInstance) error {
	history, err := json.Marshal(instance.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `
		INSERT INTO workflow_instances (id, definition_id, current_state_id, history, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			current_state_id = EXCLUDED.current_state_id,
			history = EXCLUDED.history
	`

	_, err = r.db.ExecContext(ctx, query,
		instance.ID, instance.DefinitionID, instance.CurrentStateID, history, instance.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	return nil
}

// UpdateInstance applies fn to the instance row while holding its row lock.
// The transaction commits only when fn succeeds, so a rejected transition
// leaves the row untouched.
func (r *InstanceRepository) UpdateInstance(
	ctx context.Context,
	id string,
	fn persistence.UpdateInstanceFunc,
) (*models.WorkflowInstance, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	updated, err := r.updateInstanceTx(ctx, tx, id, fn)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			r.logger.ErrorContext(ctx, "failed to rollback instance update", "error", rollbackErr)
		}

		return nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit instance update: %w", err)
	}

	return updated, nil
}

func (r *InstanceRepository) updateInstanceTx(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	fn persistence.UpdateInstanceFunc,
) (*models.WorkflowInstance, error) {
	query := `
		SELECT
			id
		  , definition_id
		  , current_state_id
		  , history
		  , created_at
		FROM workflow_instances
		WHERE id = $1
		FOR UPDATE
	`

	current, err := scanInstance(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewInstanceError("UpdateInstance", id, persistence.ErrInstanceNotFound)
		}

		return nil, fmt.Errorf("failed to scan instance: %w", err)
	}

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}

	history, err := json.Marshal(updated.History)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE workflow_instances SET current_state_id = $2, history = $3 WHERE id = $1",
		updated.ID, updated.CurrentStateID, history)
	if err != nil {
		return nil, fmt.Errorf("failed to update instance %s: %w", id, err)
	}

	return updated, nil
}

func scanInstance(row rowScanner) (*models.WorkflowInstance, error) {
	var (
		instance models.WorkflowInstance
		history  []byte
	)

	err := row.Scan(&instance.ID, &instance.DefinitionID, &instance.CurrentStateID, &history, &instance.CreatedAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(history, &instance.History)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	return &instance, nil
}
