package file_test

import (
	"context"
	"testing"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/persistence"
	"github.com/dukex/flowstate/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPersistence(t *testing.T) *file.Persistence {
	t.Helper()

	return file.NewPersistence(t.TempDir())
}

func testDefinition(id string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:   id,
		Name: "Test Definition",
		States: []*models.State{
			{ID: "start", Name: "Start", IsInitial: true, Enabled: true},
			{ID: "done", Name: "Done", IsFinal: true, Enabled: true},
		},
		Actions: []*models.Action{
			{ID: "finish", Name: "Finish", Enabled: true, FromStates: []string{"start"}, ToState: "done"},
		},
	}
}

func TestPersistence_URLPrefixStripped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := file.NewPersistence("file://" + root)

	assert.NoError(t, p.HealthCheck(context.Background()))
}

func TestDefinitionRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	p := setupPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.DefinitionRepository().SaveDefinition(ctx, testDefinition("def-1")))

	def, err := p.DefinitionRepository().DefinitionByID(ctx, "def-1")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "Test Definition", def.Name)
	require.Len(t, def.States, 2)
	assert.True(t, def.States[0].IsInitial)
	require.Len(t, def.Actions, 1)
	assert.Equal(t, []string{"start"}, def.Actions[0].FromStates)

	missing, err := p.DefinitionRepository().DefinitionByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDefinitionRepository_Definitions(t *testing.T) {
	t.Parallel()

	p := setupPersistence(t)
	ctx := context.Background()

	all, err := p.DefinitionRepository().Definitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, p.DefinitionRepository().SaveDefinition(ctx, testDefinition("def-1")))
	require.NoError(t, p.DefinitionRepository().SaveDefinition(ctx, testDefinition("def-2")))

	all, err = p.DefinitionRepository().Definitions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInstanceRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	p := setupPersistence(t)
	ctx := context.Background()

	instance := &models.WorkflowInstance{
		ID:             "inst-1",
		DefinitionID:   "def-1",
		CurrentStateID: "start",
		History: []*models.HistoryEntry{
			{ActionID: "finish", ActionName: "Finish", FromStateID: "start", ToStateID: "done"},
		},
	}

	require.NoError(t, p.InstanceRepository().SaveInstance(ctx, instance))

	stored, err := p.InstanceRepository().InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "start", stored.CurrentStateID)
	require.Len(t, stored.History, 1)
	assert.Equal(t, "finish", stored.History[0].ActionID)
}

func TestInstanceRepository_UpdateInstance(t *testing.T) {
	t.Parallel()

	p := setupPersistence(t)
	ctx := context.Background()

	instance := &models.WorkflowInstance{
		ID:             "inst-1",
		DefinitionID:   "def-1",
		CurrentStateID: "start",
		History:        []*models.HistoryEntry{},
	}
	require.NoError(t, p.InstanceRepository().SaveInstance(ctx, instance))

	updated, err := p.InstanceRepository().UpdateInstance(ctx, "inst-1",
		func(current *models.WorkflowInstance) (*models.WorkflowInstance, error) {
			next := current.Clone()
			next.CurrentStateID = "done"
			next.History = append(next.History, &models.HistoryEntry{ActionID: "finish"})

			return next, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "done", updated.CurrentStateID)

	stored, err := p.InstanceRepository().InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "done", stored.CurrentStateID)
	assert.Len(t, stored.History, 1)
}

func TestInstanceRepository_UpdateInstance_NotFound(t *testing.T) {
	t.Parallel()

	p := setupPersistence(t)

	_, err := p.InstanceRepository().UpdateInstance(context.Background(), "ghost",
		func(current *models.WorkflowInstance) (*models.WorkflowInstance, error) {
			return current, nil
		})
	assert.ErrorIs(t, err, persistence.ErrInstanceNotFound)
}

func TestInstanceRepository_UpdateInstance_AbortedOnError(t *testing.T) {
	t.Parallel()

	p := setupPersistence(t)
	ctx := context.Background()

	instance := &models.WorkflowInstance{
		ID:             "inst-1",
		DefinitionID:   "def-1",
		CurrentStateID: "start",
		History:        []*models.HistoryEntry{},
	}
	require.NoError(t, p.InstanceRepository().SaveInstance(ctx, instance))

	_, err := p.InstanceRepository().UpdateInstance(ctx, "inst-1",
		func(current *models.WorkflowInstance) (*models.WorkflowInstance, error) {
			return nil, assert.AnError
		})
	require.ErrorIs(t, err, assert.AnError)

	stored, err := p.InstanceRepository().InstanceByID(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "start", stored.CurrentStateID)
	assert.Empty(t, stored.History)
}
