// Package orchestrator implements the Workflow Orchestrator (C5): a
// linear state machine over the five pipeline stages that checkpoints
// after every completed stage and can resume a crashed or interrupted
// run without replaying finished work (§4.7). Grounded on the teacher's
// engine.ExecutionCheckpoint/CheckpointManager pattern (save-on-progress,
// one checkpoint per execution, cleared on completion), simplified from
// a DAG-of-nodes model to this domain's fixed five-stage sequence.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	"github.com/quantpipeline/tradingagent/internal/application/stages"
	"github.com/quantpipeline/tradingagent/internal/domain"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// errDeploymentDeclined marks the §4.5 clean-abort case: the confirmation
// call or the blocking audit declined to deploy. It is not surfaced as a
// Run/Resume error; the checkpoint simply stays at CHARTER, unadvanced
// and unsaved again, so a later Resume re-attempts DEPLOYMENT.
var errDeploymentDeclined = errors.New("deployment declined")

// Metrics receives per-run and per-stage timing, when the orchestrator is
// configured with one (§6.3: gated by TRACK_TOKENS). Defined here rather
// than imported from the monitoring package so this application-layer
// package never depends on infrastructure; *monitoring.MetricsCollector
// satisfies it structurally.
type Metrics interface {
	RecordWorkflowRun(workflowID string, duration time.Duration, success bool)
	RecordStageExecution(stage string, duration time.Duration, success bool, isFixRetry bool)
}

// Orchestrator wires the Agent Runtime and a symphony_save tool into a
// run over the five stages, persisting a WorkflowCheckpoint through a
// CheckpointStore after each one.
type Orchestrator struct {
	Runtime      *agent.Runtime
	SymphonyTool agent.Tool
	Store        CheckpointStore
	Metrics      Metrics

	// MarketDataTools are offered to Generate and Charter calls (§4.6:
	// "consumed via the generic Tool interface"); Score and Select never
	// receive tools, and Deploy's confirmation call uses SymphonyTool only
	// indirectly, through the save step after confirmation.
	MarketDataTools []agent.Tool
}

// New builds an Orchestrator from its three collaborators.
func New(runtime *agent.Runtime, symphonyTool agent.Tool, store CheckpointStore) *Orchestrator {
	return &Orchestrator{Runtime: runtime, SymphonyTool: symphonyTool, Store: store}
}

// Run starts a fresh workflow at CANDIDATES and drives it to completion
// or to the first stage that fails.
func (o *Orchestrator) Run(ctx context.Context, workflowID string, pack domain.ContextPack, modelID string) (*domain.WorkflowCheckpoint, error) {
	now := time.Now().UTC()
	cp := &domain.WorkflowCheckpoint{
		WorkflowID:  workflowID,
		ContextPack: pack,
		ModelID:     modelID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return o.drive(ctx, cp, domain.StageCandidates)
}

// Resume loads the last checkpoint for workflowID and continues from
// the stage after LastCompletedStage, never re-running a stage that
// already completed (§4.7).
func (o *Orchestrator) Resume(ctx context.Context, workflowID string) (*domain.WorkflowCheckpoint, error) {
	cp, err := o.Store.Load(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, &domainerrors.CheckpointNotFoundError{WorkflowID: workflowID}
	}

	next, ok := domain.NextStage(cp.LastCompletedStage)
	if !ok {
		// LastCompletedStage is already DEPLOYMENT or unrecognized; nothing to resume.
		return cp, nil
	}
	return o.drive(ctx, cp, next)
}

// drive walks the stage sequence starting at `from`, running each stage
// operator, saving a checkpoint after every success, and stopping on the
// first error without clearing the checkpoint (§4.7: a failed run's
// checkpoint survives for a later Resume).
func (o *Orchestrator) drive(ctx context.Context, cp *domain.WorkflowCheckpoint, from domain.WorkflowStage) (cpOut *domain.WorkflowCheckpoint, errOut error) {
	runStart := time.Now()
	defer func() {
		if o.Metrics != nil {
			o.Metrics.RecordWorkflowRun(cp.WorkflowID, time.Since(runStart), errOut == nil)
		}
	}()

	for stage := from; ; {
		log.Info().Str("workflow_id", cp.WorkflowID).Str("stage", string(stage)).Msg("orchestrator: entering stage")

		stageStart := time.Now()
		err := o.runStage(ctx, cp, stage)
		if o.Metrics != nil {
			o.Metrics.RecordStageExecution(string(stage), time.Since(stageStart), err == nil, false)
		}
		if err != nil {
			if errors.Is(err, errDeploymentDeclined) {
				// §4.5: a clean abort, not a failure. The checkpoint stays at
				// the last-completed stage (CHARTER) so Resume re-attempts
				// DEPLOYMENT from scratch.
				return cp, nil
			}
			log.Error().Err(err).Str("workflow_id", cp.WorkflowID).Str("stage", string(stage)).Msg("orchestrator: stage failed, checkpoint preserved")
			return cp, fmt.Errorf("stage %s: %w", stage, err)
		}

		*cp = cp.Advance(stage, time.Now().UTC())
		if err := o.Store.Save(ctx, cp); err != nil {
			return cp, fmt.Errorf("stage %s: save checkpoint: %w", stage, err)
		}

		if stage == domain.StageDeployment {
			if err := o.Store.Clear(ctx, cp.WorkflowID); err != nil {
				log.Warn().Err(err).Str("workflow_id", cp.WorkflowID).Msg("orchestrator: clearing checkpoint after completion failed")
			}
			return cp, nil
		}

		next, ok := domain.NextStage(stage)
		if !ok {
			return cp, nil
		}
		stage = next
	}
}

// runStage calls the single stage operator for stage and writes its
// output into cp. It never advances LastCompletedStage itself; the
// caller does that only once runStage returns without error.
func (o *Orchestrator) runStage(ctx context.Context, cp *domain.WorkflowCheckpoint, stage domain.WorkflowStage) error {
	switch stage {
	case domain.StageCandidates:
		candidates, warnings, err := stages.Generate(ctx, o.Runtime, cp.ContextPack, cp.ModelID, o.MarketDataTools)
		if err != nil {
			return err
		}
		logWarnings(cp.WorkflowID, stage, warnings)
		cp.Candidates = candidates
		return nil

	case domain.StageScoring:
		survivors, scorecards, err := stages.Score(ctx, o.Runtime, cp.Candidates, cp.ContextPack, cp.ModelID)
		if err != nil {
			return err
		}
		cp.Candidates = survivors
		cp.Scorecards = scorecards
		return nil

	case domain.StageSelection:
		winner, reasoning, err := stages.Select(ctx, o.Runtime, cp.Candidates, cp.Scorecards, cp.ContextPack, cp.ModelID)
		if err != nil {
			return err
		}
		cp.Winner = winner
		cp.Selection = reasoning
		cp.WinnerIndex = reasoning.WinnerIndex
		return nil

	case domain.StageCharter:
		if cp.Winner == nil || cp.Selection == nil {
			return fmt.Errorf("charter stage reached with no winner selected")
		}
		charter, warnings, err := stages.Charter(ctx, o.Runtime, *cp.Winner, *cp.Selection, cp.Candidates, cp.Scorecards, cp.ContextPack, cp.ModelID, o.MarketDataTools)
		if err != nil {
			return err
		}
		logWarnings(cp.WorkflowID, stage, warnings)
		cp.Charter = charter
		return nil

	case domain.StageDeployment:
		if cp.Winner == nil || cp.Charter == nil {
			return fmt.Errorf("deployment stage reached with no winner or charter")
		}
		result, err := stages.Deploy(ctx, o.Runtime, *cp.Winner, *cp.Charter, cp.ContextPack, cp.ModelID, o.SymphonyTool)
		if err != nil {
			var auditErr *domainerrors.DeploymentAuditError
			if errors.As(err, &auditErr) {
				log.Warn().Str("workflow_id", cp.WorkflowID).Strs("findings", auditErr.Findings).Msg("orchestrator: deployment audit declined to deploy")
				return errDeploymentDeclined
			}
			return err
		}
		if result == nil {
			log.Info().Str("workflow_id", cp.WorkflowID).Msg("orchestrator: deployment declined by confirmation call")
			return errDeploymentDeclined
		}
		cp.SymphonyID = result.SymphonyID
		deployedAt := result.DeployedAt
		cp.DeployedAt = &deployedAt
		return nil

	default:
		return fmt.Errorf("unrecognized stage %q", stage)
	}
}

func logWarnings(workflowID string, stage domain.WorkflowStage, warnings []string) {
	for _, w := range warnings {
		log.Warn().Str("workflow_id", workflowID).Str("stage", string(stage)).Msg(w)
	}
}
