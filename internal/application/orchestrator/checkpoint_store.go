package orchestrator

import (
	"context"

	"github.com/quantpipeline/tradingagent/internal/domain"
)

// CheckpointStore persists and retrieves WorkflowCheckpoints keyed by
// workflow ID (§4.7). Clear is called once, after a successful
// DEPLOYMENT; every other path leaves the last-saved checkpoint in
// place so Resume can pick the workflow back up.
type CheckpointStore interface {
	Save(ctx context.Context, cp *domain.WorkflowCheckpoint) error
	Load(ctx context.Context, workflowID string) (*domain.WorkflowCheckpoint, error)
	Clear(ctx context.Context, workflowID string) error
}
