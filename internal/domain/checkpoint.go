package domain

import "time"

// WorkflowCheckpoint is the acyclic, monotonically-growing record the
// Orchestrator persists after every completed stage (§3, §4.7). Its shape
// grows as stages complete. The one field rewritten later is Candidates:
// SCORING replaces it with the surviving candidates so it stays
// index-aligned with Scorecards.
type WorkflowCheckpoint struct {
	WorkflowID        string        `json:"workflow_id"`
	LastCompletedStage WorkflowStage `json:"last_completed_stage"`
	ContextPack       ContextPack   `json:"context_pack"`
	ModelID           string        `json:"model_id"`

	Candidates []Strategy       `json:"candidates,omitempty"`
	Scorecards []EdgeScorecard  `json:"scorecards,omitempty"`

	WinnerIndex int                 `json:"winner_index,omitempty"`
	Winner      *Strategy           `json:"winner,omitempty"`
	Selection   *SelectionReasoning `json:"selection,omitempty"`

	Charter *Charter `json:"charter,omitempty"`

	SymphonyID string     `json:"symphony_id,omitempty"`
	DeployedAt *time.Time `json:"deployed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Advance returns a shallow copy of cp with LastCompletedStage set to
// stage and UpdatedAt bumped to now. The caller is expected to have
// already populated the stage-specific fields before calling Advance.
func (cp WorkflowCheckpoint) Advance(stage WorkflowStage, now time.Time) WorkflowCheckpoint {
	cp.LastCompletedStage = stage
	cp.UpdatedAt = now
	return cp
}
