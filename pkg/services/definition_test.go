package services_test

import (
	"context"
	"testing"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/persistence/memory"
	"github.com/dukex/flowstate/pkg/services"
	"github.com/dukex/flowstate/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name: "Document Approval",
		States: []*models.State{
			{ID: "draft", Name: "Draft", IsInitial: true, Enabled: true},
			{ID: "review", Name: "In Review", Enabled: true},
			{ID: "approved", Name: "Approved", IsFinal: true, Enabled: true},
			{ID: "rejected", Name: "Rejected", IsFinal: true, Enabled: true},
		},
		Actions: []*models.Action{
			{ID: "submit", Name: "Submit", Enabled: true, FromStates: []string{"draft"}, ToState: "review"},
			{ID: "approve", Name: "Approve", Enabled: true, FromStates: []string{"review"}, ToState: "approved"},
			{ID: "reject", Name: "Reject", Enabled: true, FromStates: []string{"review"}, ToState: "rejected"},
		},
	}
}

func TestDefinition_Create(t *testing.T) {
	t.Parallel()

	p := memory.NewPersistence()
	service := services.NewDefinition(p)
	ctx := context.Background()

	created, err := service.Create(ctx, candidateDefinition())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	stored, err := p.DefinitionRepository().DefinitionByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Document Approval", stored.Name)
}

func TestDefinition_Create_RejectedNotStored(t *testing.T) {
	t.Parallel()

	p := memory.NewPersistence()
	service := services.NewDefinition(p)
	ctx := context.Background()

	candidate := candidateDefinition()
	candidate.States[1].IsInitial = true

	_, err := service.Create(ctx, candidate)
	require.ErrorIs(t, err, workflow.ErrInitialStateCount)
	assert.True(t, services.IsValidationError(err))

	all, err := p.DefinitionRepository().Definitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDefinition_FetchByID(t *testing.T) {
	t.Parallel()

	service := services.NewDefinition(memory.NewPersistence())
	ctx := context.Background()

	created, err := service.Create(ctx, candidateDefinition())
	require.NoError(t, err)

	fetched, err := service.FetchByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	_, err = service.FetchByID(ctx, "ghost")
	require.ErrorIs(t, err, services.ErrDefinitionNotFound)
	assert.True(t, services.IsNotFound(err))
}

func TestDefinition_FetchAll(t *testing.T) {
	t.Parallel()

	service := services.NewDefinition(memory.NewPersistence())
	ctx := context.Background()

	all, err := service.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = service.Create(ctx, candidateDefinition())
	require.NoError(t, err)

	_, err = service.Create(ctx, candidateDefinition())
	require.NoError(t, err)

	all, err = service.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDefinition_HealthCheck(t *testing.T) {
	t.Parallel()

	service := services.NewDefinition(memory.NewPersistence())

	message, healthy := service.HealthCheck(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, "Persistence layer is healthy", message)
}
