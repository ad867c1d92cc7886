package stages

import (
	"context"
	"sync"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	"github.com/quantpipeline/tradingagent/internal/application/prompts"
	"github.com/quantpipeline/tradingagent/internal/domain"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// passingMean is the minimum scorecard mean a candidate needs to survive
// into Select (§4.4).
const passingMean = 3.0

// Score runs the SCORING stage: one parallel, tool-free, short-history
// call per candidate, then keeps only candidates whose scorecard passes
// EdgeScorecard.Passes (every dimension at least 3 and mean at least
// 3.0); a candidate whose scoring call failed is dropped as well. It
// returns the surviving candidates in
// their original relative order alongside their scorecards, or a
// NoPassingCandidateError if the filter empties the set.
func Score(ctx context.Context, rt *agent.Runtime, candidates []domain.Strategy, pack domain.ContextPack, modelID string) ([]domain.Strategy, []domain.EdgeScorecard, error) {
	scorecards := make([]*domain.EdgeScorecard, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c domain.Strategy) {
			defer wg.Done()
			sc, err := scoreOne(ctx, rt, c, pack, modelID)
			scorecards[i] = sc
			errs[i] = err
		}(i, c)
	}
	wg.Wait()

	var survivingCandidates []domain.Strategy
	var survivingScorecards []domain.EdgeScorecard
	for i, sc := range scorecards {
		if errs[i] != nil || sc == nil {
			continue
		}
		if sc.Passes() {
			survivingCandidates = append(survivingCandidates, candidates[i])
			survivingScorecards = append(survivingScorecards, *sc)
		}
	}

	if len(survivingCandidates) == 0 {
		return nil, nil, &domainerrors.NoPassingCandidateError{CandidateCount: len(candidates)}
	}
	return survivingCandidates, survivingScorecards, nil
}

func scoreOne(ctx context.Context, rt *agent.Runtime, candidate domain.Strategy, pack domain.ContextPack, modelID string) (*domain.EdgeScorecard, error) {
	strategyJSON, err := marshalIndent(candidate)
	if err != nil {
		return nil, err
	}

	userPrompt := prompts.Render(prompts.ScoreRecipe, map[string]string{
		"context_pack": prompts.RenderContextPack(pack),
		"strategy":     strategyJSON,
	})

	req := agent.RunRequest{
		Stage:        "score",
		ModelID:      modelID,
		SystemPrompt: prompts.SystemPrompt,
		UserPrompt:   userPrompt,
		OutputSchema: prompts.ScorecardSchema,
		HistoryLimit: agent.HistoryShort,
	}

	res, err := rt.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return agent.DecodeArgs[domain.EdgeScorecard](res.Output)
}
