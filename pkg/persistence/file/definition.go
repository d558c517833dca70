package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/dukex/flowstate/pkg/models"
)

// DefinitionRepository handles definition-related file operations.
type DefinitionRepository struct {
	root string
}

// NewDefinitionRepository creates a new definition repository rooted at the given directory.
func NewDefinitionRepository(root string) *DefinitionRepository {
	return &DefinitionRepository{root: root}
}

// Definitions returns all stored workflow definitions.
func (dr *DefinitionRepository) Definitions(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	root := os.DirFS(path.Join(dr.root, "definitions"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list definition files: %w", err)
	}

	definitions := make([]*models.WorkflowDefinition, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		definitionID := file[:len(file)-5] // Remove .json extension

		def, err := dr.DefinitionByID(ctx, definitionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load definition %s: %w", definitionID, err)
		}

		if def != nil {
			definitions = append(definitions, def)
		}
	}

	return definitions, nil
}

// DefinitionByID retrieves a definition by its ID from the file system.
func (dr *DefinitionRepository) DefinitionByID(_ context.Context, definitionID string) (*models.WorkflowDefinition, error) {
	filePath := filepath.Clean(path.Join(dr.root, "definitions", definitionID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch definition %s: %w", definitionID, err)
	}

	var def models.WorkflowDefinition

	err = json.Unmarshal(body, &def)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition %s: %w", definitionID, err)
	}

	return &def, nil
}

// SaveDefinition saves a definition to the file system.
func (dr *DefinitionRepository) SaveDefinition(_ context.Context, def *models.WorkflowDefinition) error {
	dir := path.Join(dr.root, "definitions")

	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create definitions directory: %w", err)
	}

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal definition %s: %w", def.ID, err)
	}

	return os.WriteFile(path.Join(dir, def.ID+".json"), data, 0600)
}
