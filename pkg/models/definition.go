package models

import "time"

// WorkflowDefinition is the static template describing a workflow's states
// and legal transitions. Once validated and stored a definition is treated
// as immutable for the lifetime of every instance referencing it.
type WorkflowDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"                  validate:"required"`
	Description string    `json:"description,omitempty"`
	States      []*State  `json:"states"`
	Actions     []*Action `json:"actions"`
	CreatedAt   time.Time `json:"created_at"`
}

// StateByID returns the state with the given id, or nil if the definition
// does not contain it.
func (d *WorkflowDefinition) StateByID(id string) *State {
	for _, state := range d.States {
		if state.ID == id {
			return state
		}
	}

	return nil
}

// ActionByID returns the action with the given id, or nil if the definition
// does not contain it.
func (d *WorkflowDefinition) ActionByID(id string) *Action {
	for _, action := range d.Actions {
		if action.ID == id {
			return action
		}
	}

	return nil
}

// InitialState returns the state marked as initial. A validated definition
// has exactly one; nil is only possible for definitions that bypassed
// validation.
func (d *WorkflowDefinition) InitialState() *State {
	for _, state := range d.States {
		if state.IsInitial {
			return state
		}
	}

	return nil
}
