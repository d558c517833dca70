package models

import "slices"

// Action is a directed transition rule: it may fire from any of its source
// states and always lands on exactly one target state.
type Action struct {
	ID         string   `json:"id"          validate:"required"`
	Name       string   `json:"name"        validate:"required"`
	Enabled    bool     `json:"enabled"`
	FromStates []string `json:"from_states" validate:"required,min=1"`
	ToState    string   `json:"to_state"    validate:"required"`
}

// HasSource reports whether stateID is one of the action's allowed source
// states. FromStates order is irrelevant and duplicates are harmless.
func (a *Action) HasSource(stateID string) bool {
	return slices.Contains(a.FromStates, stateID)
}
