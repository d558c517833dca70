package models

import "time"

// WorkflowInstance is one running execution of a WorkflowDefinition. It
// references its definition by id only; the repository remains the single
// source of truth for both entities, so the engine re-resolves the
// definition on every operation instead of caching it here.
type WorkflowInstance struct {
	ID             string          `json:"id"`
	DefinitionID   string          `json:"definition_id"    validate:"required"`
	CurrentStateID string          `json:"current_state_id"`
	History        []*HistoryEntry `json:"history"`
	CreatedAt      time.Time       `json:"created_at"`
}

// HistoryEntry is an immutable audit record of one executed transition.
// ActionName is captured at execution time, not re-derived later.
type HistoryEntry struct {
	ActionID    string    `json:"action_id"`
	ActionName  string    `json:"action_name"`
	FromStateID string    `json:"from_state_id"`
	ToStateID   string    `json:"to_state_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// Clone returns a deep copy of the instance. The engine mutates a clone and
// persists it as a whole, so a failed transition never leaves a
// half-applied instance behind.
func (i *WorkflowInstance) Clone() *WorkflowInstance {
	history := make([]*HistoryEntry, len(i.History))
	for idx, entry := range i.History {
		entryCopy := *entry
		history[idx] = &entryCopy
	}

	return &WorkflowInstance{
		ID:             i.ID,
		DefinitionID:   i.DefinitionID,
		CurrentStateID: i.CurrentStateID,
		History:        history,
		CreatedAt:      i.CreatedAt,
	}
}
