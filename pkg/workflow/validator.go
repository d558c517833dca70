package workflow

import (
	"strings"

	"github.com/dukex/flowstate/pkg/models"
)

// ValidateDefinition checks the structural integrity of a candidate
// definition before it is persisted. Checks run in a fixed order and the
// first failure aborts with a specific error; there is no partial success.
//
// A definition that passed validation is referentially intact, so the
// transition engine only re-checks behavioral conditions (enabled, final,
// source membership) at execution time and treats missing lookups as
// consistency violations.
func ValidateDefinition(def *models.WorkflowDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return &ValidationError{Err: ErrEmptyDefinitionName}
	}

	if len(def.States) == 0 {
		return &ValidationError{Err: ErrNoStates}
	}

	stateIDs := make(map[string]bool, len(def.States))
	for _, state := range def.States {
		if stateIDs[state.ID] {
			return &ValidationError{StateID: state.ID, Err: ErrDuplicateStateID}
		}

		stateIDs[state.ID] = true
	}

	actionIDs := make(map[string]bool, len(def.Actions))
	for _, action := range def.Actions {
		if actionIDs[action.ID] {
			return &ValidationError{ActionID: action.ID, Err: ErrDuplicateActionID}
		}

		actionIDs[action.ID] = true
	}

	initialCount := 0

	for _, state := range def.States {
		if state.IsInitial {
			initialCount++
		}
	}

	if initialCount != 1 {
		return &ValidationError{Count: initialCount, Err: ErrInitialStateCount}
	}

	for _, state := range def.States {
		if strings.TrimSpace(state.ID) == "" || strings.TrimSpace(state.Name) == "" {
			return &ValidationError{StateID: state.ID, Err: ErrEmptyStateField}
		}
	}

	for _, action := range def.Actions {
		if strings.TrimSpace(action.ID) == "" ||
			strings.TrimSpace(action.Name) == "" ||
			strings.TrimSpace(action.ToState) == "" ||
			len(action.FromStates) == 0 {
			return &ValidationError{ActionID: action.ID, Err: ErrEmptyActionField}
		}
	}

	for _, action := range def.Actions {
		if !stateIDs[action.ToState] {
			return &ValidationError{ActionID: action.ID, StateID: action.ToState, Err: ErrUnknownToState}
		}
	}

	for _, action := range def.Actions {
		for _, from := range action.FromStates {
			if !stateIDs[from] {
				return &ValidationError{ActionID: action.ID, StateID: from, Err: ErrUnknownFromState}
			}
		}
	}

	return nil
}
