package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	"github.com/quantpipeline/tradingagent/internal/application/logictree"
	"github.com/quantpipeline/tradingagent/internal/application/prompts"
	"github.com/quantpipeline/tradingagent/internal/domain"
)

// Charter runs the CHARTER stage: synthesizes the five-section document
// from the winner and its full surrounding context, then runs a
// non-blocking logic audit whose findings are returned as warnings and
// never mutate the returned Charter (§4.4).
func Charter(ctx context.Context, rt *agent.Runtime, winner domain.Strategy, reasoning domain.SelectionReasoning, candidates []domain.Strategy, scorecards []domain.EdgeScorecard, pack domain.ContextPack, modelID string, tools []agent.Tool) (*domain.Charter, []string, error) {
	winnerJSON, err := marshalIndent(winner)
	if err != nil {
		return nil, nil, err
	}
	reasoningJSON, err := marshalIndent(reasoning)
	if err != nil {
		return nil, nil, err
	}

	var others strings.Builder
	for i, c := range candidates {
		if c.PersonaID == winner.PersonaID && c.Name == winner.Name {
			continue
		}
		fmt.Fprintf(&others, "- candidate %d (%s, %s): %s\n", i, c.EdgeType, c.Archetype, c.Name)
	}

	userPrompt := prompts.Render(prompts.CharterRecipe, map[string]string{
		"context_pack":        prompts.RenderContextPack(pack),
		"strategy":            winnerJSON,
		"selection_reasoning": reasoningJSON,
		"other_candidates":    others.String(),
	})

	req := agent.RunRequest{
		Stage:         "charter",
		ModelID:       modelID,
		SystemPrompt:  prompts.SystemPrompt,
		UserPrompt:    userPrompt,
		OutputSchema:  prompts.CharterSchema,
		HistoryLimit:  agent.HistoryLong,
		Tools:         tools,
		CompressTools: dataHeavyToolNames,
	}

	res, err := rt.Run(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	charter, err := agent.DecodeArgs[domain.Charter](res.Output)
	if err != nil {
		return nil, nil, err
	}

	warnings := auditCharter(winner, *charter)
	return charter, warnings, nil
}

// auditCharter is the §4.4 non-blocking logic audit: condition syntax
// valid, both branches populated, and failure_modes mentions at least
// one branch indicator. It never mutates charter or winner.
func auditCharter(winner domain.Strategy, charter domain.Charter) []string {
	var warnings []string

	for _, cond := range winner.LogicTree.Conditions() {
		parsed, err := logictree.ParseCondition(cond)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("charter audit: condition %q failed grammar check: %v", cond, err))
			continue
		}
		if !mentionsIndicator(charter.FailureModes, parsed.LeftTicker) {
			warnings = append(warnings, fmt.Sprintf("charter audit: failure_modes does not mention branch indicator %q", parsed.LeftTicker))
		}
	}

	if winner.LogicTree != nil && !winner.LogicTree.IsEmpty() {
		if winner.LogicTree.Kind == domain.LogicTreeConditional {
			if winner.LogicTree.IfTrue == nil || winner.LogicTree.IfFalse == nil {
				warnings = append(warnings, "charter audit: conditional branch missing a populated if_true/if_false subtree")
			}
		}
	}

	if len(charter.FailureModes) == 0 {
		warnings = append(warnings, "charter audit: failure_modes is empty")
	}

	return warnings
}

func mentionsIndicator(failureModes []string, ticker string) bool {
	for _, fm := range failureModes {
		if strings.Contains(strings.ToUpper(fm), ticker) {
			return true
		}
	}
	return false
}
