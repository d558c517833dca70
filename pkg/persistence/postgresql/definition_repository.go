package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowstate/pkg/models"
)

// DefinitionRepository handles definition-related database operations.
type DefinitionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDefinitionRepository creates a new definition repository.
func NewDefinitionRepository(db *sql.DB, logger *slog.Logger) *DefinitionRepository {
	return &DefinitionRepository{db: db, logger: logger}
}

// Definitions returns all workflow definitions from the database.
func (r *DefinitionRepository) Definitions(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , states
		  , actions
		  , created_at
		FROM workflow_definitions
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}

	defer func(ctx context.Context, r *DefinitionRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	definitions := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}

		definitions = append(definitions, def)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating definitions: %w", err)
	}

	return definitions, nil
}

// DefinitionByID returns the definition with the given id, or nil when absent.
func (r *DefinitionRepository) DefinitionByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , states
		  , actions
		  , created_at
		FROM workflow_definitions
		WHERE id = $1
	`

	def, err := scanDefinition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan definition: %w", err)
	}

	return def, nil
}

// SaveDefinition stores a definition.
func (r *DefinitionRepository) SaveDefinition(ctx context.Context, def *models.WorkflowDefinition) error {
	states, err := json.Marshal(def.States)
	if err != nil {
		return fmt.Errorf("failed to marshal states: %w", err)
	}

	actions, err := json.Marshal(def.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO workflow_definitions (id, name, description, states, actions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			states = EXCLUDED.states,
			actions = EXCLUDED.actions
	`

	_, err = r.db.ExecContext(ctx, query, def.ID, def.Name, def.Description, states, actions, def.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save definition %s: %w", def.ID, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		def     models.WorkflowDefinition
		states  []byte
		actions []byte
	)

	err := row.Scan(&def.ID, &def.Name, &def.Description, &states, &actions, &def.CreatedAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(states, &def.States)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal states: %w", err)
	}

	err = json.Unmarshal(actions, &def.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	return &def, nil
}
