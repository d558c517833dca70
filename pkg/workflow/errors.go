// Package workflow implements the definition validator and the transition
// engine: the rules deciding whether a workflow definition is well-formed
// and whether an action may fire from an instance's current state.
package workflow

import (
	"errors"
	"fmt"
)

// Definition validation failures, raised only at definition-creation time.
var (
	// ErrEmptyDefinitionName indicates the definition name is blank.
	ErrEmptyDefinitionName = errors.New("definition name is required")

	// ErrNoStates indicates the definition declares no states at all.
	ErrNoStates = errors.New("definition must have at least one state")

	// ErrDuplicateStateID indicates two states share the same id.
	ErrDuplicateStateID = errors.New("duplicate state id")

	// ErrDuplicateActionID indicates two actions share the same id.
	ErrDuplicateActionID = errors.New("duplicate action id")

	// ErrInitialStateCount indicates the definition does not have exactly one initial state.
	ErrInitialStateCount = errors.New("definition must have exactly one initial state")

	// ErrEmptyStateField indicates a state with a blank id or name.
	ErrEmptyStateField = errors.New("state id and name are required")

	// ErrEmptyActionField indicates an action with a blank id, name or
	// target state, or with no source states.
	ErrEmptyActionField = errors.New("action id, name, target state and source states are required")

	// ErrUnknownToState indicates an action whose target state is not part of the definition.
	ErrUnknownToState = errors.New("action targets an unknown state")

	// ErrUnknownFromState indicates an action listing a source state that is not part of the definition.
	ErrUnknownFromState = errors.New("action lists an unknown source state")
)

// Transition failures, raised during action execution. Every failed
// execution leaves the instance untouched.
var (
	// ErrFinalStateReached indicates the instance sits on a final state.
	ErrFinalStateReached = errors.New("no action can be executed from a final state")

	// ErrStateDisabled indicates the instance's current state is disabled.
	ErrStateDisabled = errors.New("current state is disabled")

	// ErrActionNotFound indicates the requested action is not part of the definition.
	ErrActionNotFound = errors.New("action not found in definition")

	// ErrActionDisabled indicates the requested action is disabled.
	ErrActionDisabled = errors.New("action is disabled")

	// ErrInvalidSourceState indicates the current state is not one of the action's source states.
	ErrInvalidSourceState = errors.New("action cannot be executed from the current state")

	// ErrCurrentStateNotFound indicates the instance's current state vanished
	// from its definition. Definitions are immutable after creation, so this
	// points at a corrupted cross-reference rather than bad user input.
	ErrCurrentStateNotFound = errors.New("current state not found in definition")

	// ErrTargetStateNotFound indicates the action's target state vanished
	// from its definition. Same consistency-violation reading as
	// ErrCurrentStateNotFound.
	ErrTargetStateNotFound = errors.New("target state not found in definition")

	// ErrNoInitialState indicates a stored definition without an initial
	// state. Unreachable for validated definitions, handled anyway.
	ErrNoInitialState = errors.New("definition has no initial state")
)

// ValidationError wraps a definition validation failure with the element
// that caused it.
type ValidationError struct {
	StateID  string // Offending state id, when applicable
	ActionID string // Offending action id, when applicable
	Count    int    // Initial-state count, for ErrInitialStateCount
	Err      error
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrInitialStateCount):
		return fmt.Sprintf("invalid definition: %v (found %d)", e.Err, e.Count)
	case e.ActionID != "" && e.StateID != "":
		return fmt.Sprintf("invalid definition: action %s: %v (state %s)", e.ActionID, e.Err, e.StateID)
	case e.ActionID != "":
		return fmt.Sprintf("invalid definition: action %s: %v", e.ActionID, e.Err)
	case e.StateID != "":
		return fmt.Sprintf("invalid definition: state %s: %v", e.StateID, e.Err)
	default:
		return fmt.Sprintf("invalid definition: %v", e.Err)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// TransitionError wraps a rejected action execution with the state and
// action involved, so callers can produce an actionable message.
type TransitionError struct {
	InstanceID string
	StateID    string
	ActionID   string
	Err        error
}

func (e *TransitionError) Error() string {
	switch {
	case e.ActionID != "" && e.StateID != "":
		return fmt.Sprintf("cannot execute action %s from state %s: %v", e.ActionID, e.StateID, e.Err)
	case e.ActionID != "":
		return fmt.Sprintf("cannot execute action %s: %v", e.ActionID, e.Err)
	default:
		return fmt.Sprintf("cannot execute action from state %s: %v", e.StateID, e.Err)
	}
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func (e *TransitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a definition validation failure
// that should surface as HTTP 400.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}

// IsTransitionError checks if an error is a rejected transition.
func IsTransitionError(err error) bool {
	var transitionErr *TransitionError

	return errors.As(err, &transitionErr)
}
