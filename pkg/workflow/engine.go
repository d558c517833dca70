package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowstate/pkg/models"
	"github.com/dukex/flowstate/pkg/otelhelper"
	"github.com/dukex/flowstate/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CanExecute decides whether actionID may fire while an instance of def sits
// on currentStateID. It is a pure function over already-resolved data and
// returns nil when the transition is legal, or a *TransitionError naming the
// rejected element. Checks run in a fixed order, each short-circuiting:
// current state resolution, final flag, state enablement, action resolution,
// action enablement, source membership, target resolution.
//
// State-level disablement always wins: a disabled current state blocks every
// action even when the action lists it as a legal source.
func CanExecute(def *models.WorkflowDefinition, currentStateID, actionID string) error {
	current := def.StateByID(currentStateID)
	if current == nil {
		return &TransitionError{StateID: currentStateID, Err: ErrCurrentStateNotFound}
	}

	if current.IsFinal {
		return &TransitionError{StateID: current.ID, Err: ErrFinalStateReached}
	}

	if !current.Enabled {
		return &TransitionError{StateID: current.ID, Err: ErrStateDisabled}
	}

	action := def.ActionByID(actionID)
	if action == nil {
		return &TransitionError{ActionID: actionID, Err: ErrActionNotFound}
	}

	if !action.Enabled {
		return &TransitionError{ActionID: action.ID, Err: ErrActionDisabled}
	}

	if !action.HasSource(current.ID) {
		return &TransitionError{ActionID: action.ID, StateID: current.ID, Err: ErrInvalidSourceState}
	}

	if def.StateByID(action.ToState) == nil {
		return &TransitionError{ActionID: action.ID, StateID: action.ToState, Err: ErrTargetStateNotFound}
	}

	return nil
}

// AvailableActions returns the actions of def that CanExecute accepts from
// currentStateID, in definition order. An instance parked on a final or
// disabled state has no available actions.
func AvailableActions(def *models.WorkflowDefinition, currentStateID string) []*models.Action {
	available := make([]*models.Action, 0, len(def.Actions))

	for _, action := range def.Actions {
		if CanExecute(def, currentStateID, action.ID) == nil {
			available = append(available, action)
		}
	}

	return available
}

// Engine advances workflow instances through their definitions. The state
// machine is driven entirely by the stored definition; the engine itself
// carries no hardcoded transitions.
type Engine struct {
	persistence persistence.Persistence
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewEngine creates a transition engine on top of the given persistence
// backend.
func NewEngine(persistence persistence.Persistence, logger *slog.Logger) *Engine {
	return &Engine{
		persistence: persistence,
		logger:      logger,
		tracer:      otel.Tracer("flowstate.engine"),
	}
}

// CreateInstance seeds a new instance of the given definition at its unique
// initial state, with empty history, and persists it.
func (e *Engine) CreateInstance(ctx context.Context, definitionID string) (*models.WorkflowInstance, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.create_instance",
		attribute.String(otelhelper.DefinitionIDKey, definitionID),
	)
	defer span.End()

	def, err := e.persistence.DefinitionRepository().DefinitionByID(ctx, definitionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to resolve definition %s: %w", definitionID, err)
	}

	if def == nil {
		err := persistence.NewDefinitionError("CreateInstance", definitionID, persistence.ErrDefinitionNotFound)
		otelhelper.SetError(span, err)

		return nil, err
	}

	initial := def.InitialState()
	if initial == nil {
		// Unreachable for validated definitions.
		err := &TransitionError{Err: ErrNoInitialState}
		otelhelper.SetError(span, err)

		return nil, err
	}

	instance := &models.WorkflowInstance{
		ID:             uuid.NewString(),
		DefinitionID:   def.ID,
		CurrentStateID: initial.ID,
		History:        []*models.HistoryEntry{},
		CreatedAt:      time.Now().UTC(),
	}

	err = e.persistence.InstanceRepository().SaveInstance(ctx, instance)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save instance: %w", err)
	}

	e.logger.InfoContext(ctx, "Created workflow instance",
		"instance_id", instance.ID,
		"definition_id", def.ID,
		"state_id", instance.CurrentStateID,
	)

	return instance, nil
}

// ExecuteAction runs one transition against an instance. All checks pass
// before any mutation happens: the state change and the history append land
// together under the repository's per-instance serialization, or the
// instance is left exactly as it was.
func (e *Engine) ExecuteAction(ctx context.Context, instanceID, actionID string) (*models.WorkflowInstance, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.execute_action",
		attribute.String(otelhelper.InstanceIDKey, instanceID),
		attribute.String(otelhelper.ActionIDKey, actionID),
	)
	defer span.End()

	updated, err := e.persistence.InstanceRepository().UpdateInstance(ctx, instanceID,
		func(instance *models.WorkflowInstance) (*models.WorkflowInstance, error) {
			def, err := e.persistence.DefinitionRepository().DefinitionByID(ctx, instance.DefinitionID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve definition %s: %w", instance.DefinitionID, err)
			}

			if def == nil {
				// The instance points at a definition that no longer exists:
				// a corrupted cross-reference, not a user input error.
				return nil, persistence.NewDefinitionError("ExecuteAction", instance.DefinitionID, persistence.ErrDefinitionNotFound)
			}

			if err := CanExecute(def, instance.CurrentStateID, actionID); err != nil {
				return nil, err
			}

			action := def.ActionByID(actionID)

			next := instance.Clone()
			next.History = append(next.History, &models.HistoryEntry{
				ActionID:    action.ID,
				ActionName:  action.Name,
				FromStateID: instance.CurrentStateID,
				ToStateID:   action.ToState,
				Timestamp:   time.Now().UTC(),
			})
			next.CurrentStateID = action.ToState

			return next, nil
		})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.StateIDKey, updated.CurrentStateID))

	e.logger.InfoContext(ctx, "Executed workflow action",
		"instance_id", instanceID,
		"action_id", actionID,
		"state_id", updated.CurrentStateID,
	)

	return updated, nil
}
