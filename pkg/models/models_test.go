package models

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition() *WorkflowDefinition {
	return &WorkflowDefinition{
		ID:   "def-1",
		Name: "Order Fulfillment",
		States: []*State{
			{ID: "new", Name: "New", IsInitial: true, Enabled: true},
			{ID: "shipped", Name: "Shipped", Enabled: true},
			{ID: "delivered", Name: "Delivered", IsFinal: true, Enabled: true},
		},
		Actions: []*Action{
			{ID: "ship", Name: "Ship", Enabled: true, FromStates: []string{"new"}, ToState: "shipped"},
			{ID: "deliver", Name: "Deliver", Enabled: true, FromStates: []string{"shipped"}, ToState: "delivered"},
		},
	}
}

func TestWorkflowDefinition_StateByID(t *testing.T) {
	t.Parallel()

	def := sampleDefinition()

	state := def.StateByID("shipped")
	require.NotNil(t, state)
	assert.Equal(t, "Shipped", state.Name)

	assert.Nil(t, def.StateByID("ghost"))
}

func TestWorkflowDefinition_ActionByID(t *testing.T) {
	t.Parallel()

	def := sampleDefinition()

	action := def.ActionByID("deliver")
	require.NotNil(t, action)
	assert.Equal(t, "delivered", action.ToState)

	assert.Nil(t, def.ActionByID("ghost"))
}

func TestWorkflowDefinition_InitialState(t *testing.T) {
	t.Parallel()

	def := sampleDefinition()

	initial := def.InitialState()
	require.NotNil(t, initial)
	assert.Equal(t, "new", initial.ID)

	initial.IsInitial = false
	assert.Nil(t, def.InitialState())
}

func TestAction_HasSource(t *testing.T) {
	t.Parallel()

	action := &Action{
		ID:         "archive",
		Name:       "Archive",
		FromStates: []string{"delivered", "cancelled", "delivered"},
		ToState:    "archived",
	}

	assert.True(t, action.HasSource("delivered"))
	assert.True(t, action.HasSource("cancelled"))
	assert.False(t, action.HasSource("new"))
}

func TestWorkflowInstance_Clone(t *testing.T) {
	t.Parallel()

	instance := &WorkflowInstance{
		ID:             "inst-1",
		DefinitionID:   "def-1",
		CurrentStateID: "new",
		History: []*HistoryEntry{
			{ActionID: "ship", ActionName: "Ship", FromStateID: "new", ToStateID: "shipped"},
		},
	}

	clone := instance.Clone()
	clone.CurrentStateID = "shipped"
	clone.History[0].ActionID = "mutated"
	clone.History = append(clone.History, &HistoryEntry{ActionID: "deliver"})

	assert.Equal(t, "new", instance.CurrentStateID)
	require.Len(t, instance.History, 1)
	assert.Equal(t, "ship", instance.History[0].ActionID)
}

func TestWorkflowDefinition_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	def := sampleDefinition()

	body, err := json.Marshal(def)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"is_initial":true`)
	assert.Contains(t, string(body), `"from_states":["new"]`)

	var decoded WorkflowDefinition

	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, def.Name, decoded.Name)
	require.Len(t, decoded.States, 3)
	assert.True(t, decoded.States[0].IsInitial)
}

func TestAction_Validation(t *testing.T) {
	t.Parallel()

	validate := validator.New()

	valid := &Action{ID: "ship", Name: "Ship", FromStates: []string{"new"}, ToState: "shipped"}
	assert.NoError(t, validate.Struct(valid))

	missingSources := &Action{ID: "ship", Name: "Ship", ToState: "shipped"}
	assert.Error(t, validate.Struct(missingSources))

	missingTarget := &Action{ID: "ship", Name: "Ship", FromStates: []string{"new"}}
	assert.Error(t, validate.Struct(missingTarget))
}
