// Package services provides the operation families the orchestration layer
// exposes: definition creation and lookup, instance creation, action
// execution.
package services

import (
	"github.com/dukex/flowstate/pkg/persistence"
	"github.com/dukex/flowstate/pkg/workflow"
)

// Service-level error surface. Validation and transition failures originate
// in pkg/workflow, lookup failures in pkg/persistence; the aliases keep
// callers on one import.
var (
	// ErrDefinitionNotFound is returned when a workflow definition is not found.
	ErrDefinitionNotFound = persistence.ErrDefinitionNotFound

	// ErrInstanceNotFound is returned when a workflow instance is not found.
	ErrInstanceNotFound = persistence.ErrInstanceNotFound
)

// IsValidationError checks if an error is a definition validation failure (HTTP 400).
func IsValidationError(err error) bool {
	return workflow.IsValidationError(err)
}

// IsTransitionError checks if an error is a rejected transition (HTTP 409).
func IsTransitionError(err error) bool {
	return workflow.IsTransitionError(err)
}

// IsNotFound checks if an error is a definition or instance lookup failure (HTTP 404).
func IsNotFound(err error) bool {
	return persistence.IsDefinitionNotFound(err) || persistence.IsInstanceNotFound(err)
}
