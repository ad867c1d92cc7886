package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	"github.com/quantpipeline/tradingagent/internal/application/prompts"
	"github.com/quantpipeline/tradingagent/internal/domain"
)

// selectRanking is the shape of the LLM's ranking call output, separate
// from domain.SelectionReasoning because winner_index there is resolved
// by this operator from the composite score, never echoed by the model.
type selectRanking struct {
	Ranking              []int    `json:"ranking"`
	Conviction           float64  `json:"conviction"`
	WhySelected          string   `json:"why_selected"`
	TradeoffsAccepted    string   `json:"tradeoffs_accepted"`
	AlternativesRejected []string `json:"alternatives_rejected"`
}

// Select runs the SELECTION stage: a 50/50 composite of normalized
// scorecard mean and LLM-expressed rank, with a deterministic three-way
// tie-break (§4.4).
func Select(ctx context.Context, rt *agent.Runtime, candidates []domain.Strategy, scorecards []domain.EdgeScorecard, pack domain.ContextPack, modelID string) (*domain.Strategy, *domain.SelectionReasoning, error) {
	if len(candidates) != len(scorecards) {
		return nil, nil, fmt.Errorf("select: candidates and scorecards length mismatch (%d vs %d)", len(candidates), len(scorecards))
	}

	ranking, err := rankCandidates(ctx, rt, candidates, scorecards, pack, modelID)
	if err != nil {
		return nil, nil, err
	}

	llmRank := rankPositions(ranking.Ranking, len(candidates))
	scoreRank := rankByScorecardMean(scorecards)

	winnerIdx := bestCompositeIndex(candidates, scorecards, llmRank, scoreRank)

	reasoning := &domain.SelectionReasoning{
		WinnerIndex:          winnerIdx,
		Conviction:           ranking.Conviction,
		WhySelected:          ranking.WhySelected,
		TradeoffsAccepted:    ranking.TradeoffsAccepted,
		AlternativesRejected: ranking.AlternativesRejected,
	}
	winner := candidates[winnerIdx]
	return &winner, reasoning, nil
}

func rankCandidates(ctx context.Context, rt *agent.Runtime, candidates []domain.Strategy, scorecards []domain.EdgeScorecard, pack domain.ContextPack, modelID string) (*selectRanking, error) {
	var sb strings.Builder
	for i, c := range candidates {
		strategyJSON, err := marshalIndent(c)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "--- candidate %d (scorecard mean %.2f) ---\n%s\n\n", i, scorecards[i].Mean(), strategyJSON)
	}

	userPrompt := prompts.Render(prompts.SelectRecipe, map[string]string{
		"count":        fmt.Sprint(len(candidates)),
		"context_pack": prompts.RenderContextPack(pack),
		"candidates":   sb.String(),
	})

	req := agent.RunRequest{
		Stage:        "select",
		ModelID:      modelID,
		SystemPrompt: prompts.SystemPrompt,
		UserPrompt:   userPrompt,
		OutputSchema: prompts.SelectionSchema,
		HistoryLimit: agent.HistoryMedium,
	}

	res, err := rt.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return agent.DecodeArgs[selectRanking](res.Output)
}

// rankPositions converts an LLM-produced ordering (most to least
// convincing, by candidate index) into a per-candidate rank (0 = best).
// A candidate index the model omits is ranked last.
func rankPositions(ranking []int, n int) []int {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = n
	}
	for pos, idx := range ranking {
		if idx >= 0 && idx < n {
			positions[idx] = pos
		}
	}
	return positions
}

// rankByScorecardMean ranks candidates by scorecard mean descending
// (0 = highest mean), the "normalized scorecard mean" half of the
// composite (§4.4).
func rankByScorecardMean(scorecards []domain.EdgeScorecard) []int {
	type entry struct {
		idx  int
		mean float64
	}
	entries := make([]entry, len(scorecards))
	for i, sc := range scorecards {
		entries[i] = entry{idx: i, mean: sc.Mean()}
	}
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].mean > entries[b].mean })

	positions := make([]int, len(scorecards))
	for pos, e := range entries {
		positions[e.idx] = pos
	}
	return positions
}

// bestCompositeIndex picks the lowest-composite-rank candidate, applying
// the §4.4 tie-break chain: higher risk_framework, lower Herfindahl
// concentration, earlier persona order (i.e. original candidate index).
func bestCompositeIndex(candidates []domain.Strategy, scorecards []domain.EdgeScorecard, llmRank, scoreRank []int) int {
	best := 0
	bestComposite := compositeScore(llmRank[0], scoreRank[0])
	for i := 1; i < len(candidates); i++ {
		composite := compositeScore(llmRank[i], scoreRank[i])
		if composite < bestComposite || (composite == bestComposite && isBetterTiebreak(candidates, scorecards, i, best)) {
			best = i
			bestComposite = composite
		}
	}
	return best
}

func compositeScore(llmPosition, scorePosition int) float64 {
	return 0.5*float64(llmPosition) + 0.5*float64(scorePosition)
}

func isBetterTiebreak(candidates []domain.Strategy, scorecards []domain.EdgeScorecard, i, current int) bool {
	if scorecards[i].RiskFramework != scorecards[current].RiskFramework {
		return scorecards[i].RiskFramework > scorecards[current].RiskFramework
	}
	hhiI, hhiCurrent := candidates[i].HerfindahlIndex(), candidates[current].HerfindahlIndex()
	if hhiI != hhiCurrent {
		return hhiI < hhiCurrent
	}
	return i < current
}
