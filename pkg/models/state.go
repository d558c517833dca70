// Package models defines the core domain models for definition-driven workflow state machines.
package models

// State describes one position in a workflow definition's state machine.
// A state is a pure descriptor; all behavior attached to its flags lives in
// the transition engine.
type State struct {
	ID        string `json:"id"         validate:"required"`
	Name      string `json:"name"       validate:"required"`
	IsInitial bool   `json:"is_initial"`
	IsFinal   bool   `json:"is_final"`
	Enabled   bool   `json:"enabled"`
}
