// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/dukex/flowstate/pkg/models"

// StateRequest describes one state of a candidate definition. Enabled
// defaults to true when omitted.
type StateRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsInitial bool   `json:"is_initial"`
	IsFinal   bool   `json:"is_final"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

// ActionRequest describes one action of a candidate definition. Enabled
// defaults to true when omitted.
type ActionRequest struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Enabled    *bool    `json:"enabled,omitempty"`
	FromStates []string `json:"from_states"`
	ToState    string   `json:"to_state"`
}

// CreateDefinitionRequest represents the request body for creating a new
// workflow definition. Structural rules (unique ids, exactly one initial
// state, resolvable transitions) are enforced by the definition validator,
// which reports the specific rule violated.
type CreateDefinitionRequest struct {
	Name        string          `json:"name"                  validate:"required"`
	Description string          `json:"description,omitempty"`
	States      []StateRequest  `json:"states"`
	Actions     []ActionRequest `json:"actions"`
}

// ToModel converts the request into a candidate definition, applying the
// enabled-by-default rule for states and actions.
func (r *CreateDefinitionRequest) ToModel() *models.WorkflowDefinition {
	states := make([]*models.State, 0, len(r.States))
	for _, state := range r.States {
		states = append(states, &models.State{
			ID:        state.ID,
			Name:      state.Name,
			IsInitial: state.IsInitial,
			IsFinal:   state.IsFinal,
			Enabled:   state.Enabled == nil || *state.Enabled,
		})
	}

	actions := make([]*models.Action, 0, len(r.Actions))
	for _, action := range r.Actions {
		actions = append(actions, &models.Action{
			ID:         action.ID,
			Name:       action.Name,
			Enabled:    action.Enabled == nil || *action.Enabled,
			FromStates: action.FromStates,
			ToState:    action.ToState,
		})
	}

	return &models.WorkflowDefinition{
		Name:        r.Name,
		Description: r.Description,
		States:      states,
		Actions:     actions,
	}
}

// CreateInstanceRequest represents the request body for creating a new
// workflow instance of a stored definition.
type CreateInstanceRequest struct {
	DefinitionID string `json:"definition_id" validate:"required"`
}
