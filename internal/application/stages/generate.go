// Package stages implements the five Stage Operators (C4): pure
// orchestration glue binding the Agent Runtime (C1), the Validator (C2),
// and the Translator (C3) into the contract each pipeline step exposes
// to the Workflow Orchestrator (C5).
package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	"github.com/quantpipeline/tradingagent/internal/application/prompts"
	"github.com/quantpipeline/tradingagent/internal/application/validator"
	"github.com/quantpipeline/tradingagent/internal/domain"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// maxFixRetries bounds how many targeted fix-retries a single candidate
// gets before Generate gives up on it (§4.2: "at most twice").
const maxFixRetries = 2

// minDiversityCount is the minimum number of distinct edge_type and
// archetype values the accepted candidate set must cover (§4.2).
const minDiversityCount = 3

// dataHeavyToolNames names the macro/price tools eligible for
// tool-result compression when offered on a call (§4.1); mirrors the
// set agent.Compressor checks against internally.
var dataHeavyToolNames = []string{
	"fetch_price_history",
	"fetch_time_series",
	"search_macro_corpus",
	"fetch_fred_series",
}

// Generate runs the CANDIDATES stage: five persona-driven candidates in
// parallel, each fix-retried against the Validator up to maxFixRetries
// times. A candidate that never clears validation is dropped; the
// orchestrator is told via a logged warning, not an error, since Generate
// only fails outright if every persona is dropped.
func Generate(ctx context.Context, rt *agent.Runtime, pack domain.ContextPack, modelID string, tools []agent.Tool) ([]domain.Strategy, []string, error) {
	type result struct {
		strategy *domain.Strategy
		warning  string
	}

	results := make([]result, len(prompts.Personas))
	var wg sync.WaitGroup
	for i, persona := range prompts.Personas {
		wg.Add(1)
		go func(i int, persona prompts.Persona) {
			defer wg.Done()
			strat, warn := generateOne(ctx, rt, persona, pack, modelID, tools)
			results[i] = result{strategy: strat, warning: warn}
		}(i, persona)
	}
	wg.Wait()

	var candidates []domain.Strategy
	var warnings []string
	for _, r := range results {
		if r.strategy != nil {
			candidates = append(candidates, *r.strategy)
		}
		if r.warning != "" {
			warnings = append(warnings, r.warning)
		}
	}

	if len(candidates) == 0 {
		return nil, warnings, fmt.Errorf("generate: every persona candidate was dropped after fix-retries")
	}

	warnings = append(warnings, diversityWarnings(candidates)...)
	return candidates, warnings, nil
}

func generateOne(ctx context.Context, rt *agent.Runtime, persona prompts.Persona, pack domain.ContextPack, modelID string, tools []agent.Tool) (*domain.Strategy, string) {
	userPrompt := prompts.Render(prompts.GenerateRecipe, map[string]string{
		"persona_label":       persona.Label,
		"persona_description": persona.Description,
		"context_pack":        prompts.RenderContextPack(pack),
	})

	req := agent.RunRequest{
		Stage:         "generate",
		ModelID:       modelID,
		SystemPrompt:  prompts.SystemPrompt,
		UserPrompt:    userPrompt,
		OutputSchema:  prompts.StrategySchema,
		HistoryLimit:  agent.HistoryMedium,
		Tools:         tools,
		CompressTools: dataHeavyToolNames,
	}

	strat, history, err := runAndDecode(ctx, rt, req)
	if err != nil {
		return nil, fmt.Sprintf("generate: persona %s failed initial call: %v", persona.ID, err)
	}
	strat.PersonaID = persona.ID
	strat.CandidateID = uuid.NewString()

	for attempt := 0; attempt < maxFixRetries; attempt++ {
		errs, _ := validator.Validate(strat, pack)
		if len(errs) == 0 {
			return strat, ""
		}
		if !allRetryable(errs) {
			return nil, fmt.Sprintf("generate: persona %s dropped after non-retryable validation error: %v", persona.ID, firstFatal(errs))
		}

		fixReq := buildFixRequest(persona, modelID, strat, errs, history, tools)
		fixed, updatedHistory, err := runAndDecode(ctx, rt, fixReq)
		if err != nil {
			return nil, fmt.Sprintf("generate: persona %s fix-retry %d failed: %v", persona.ID, attempt+1, err)
		}
		fixed.PersonaID = persona.ID
		fixed.CandidateID = strat.CandidateID
		strat = fixed
		history = updatedHistory
	}

	errs, _ := validator.Validate(strat, pack)
	if len(errs) > 0 {
		return nil, fmt.Sprintf("generate: persona %s dropped after exhausting %d fix-retries: %v", persona.ID, maxFixRetries, errs[0])
	}
	return strat, ""
}

// strategyFields is every top-level Strategy field the immutability
// section can classify as preserve or may-change.
var strategyFields = []string{
	"name", "assets", "weights", "thesis_document", "rebalancing_rationale",
	"edge_type", "archetype", "concentration_intent", "logic_tree",
}

// mayChangeByKind names the Strategy fields a fix for each validation
// error kind needs to touch, per its own FixGuidance (validator.go). A
// field not listed for any error kind present in a fix-retry stays
// preserved.
var mayChangeByKind = map[domainerrors.ValidationKind][]string{
	domainerrors.KindWeightsOutOfRange:           {"weights"},
	domainerrors.KindWeightKeyNotAsset:           {"weights", "assets"},
	domainerrors.KindFilterNOutOfRange:           {"logic_tree"},
	domainerrors.KindWeightingAtRoot:             {"logic_tree"},
	domainerrors.KindAssetNotHeld:                {"assets", "weights"},
	domainerrors.KindConcentration:               {"weights", "concentration_intent"},
	domainerrors.KindLeverageJustification:       {"thesis_document"},
	domainerrors.KindArchetypeCoherence:          {"logic_tree"},
	domainerrors.KindThesisNumericMismatch:       {"thesis_document", "logic_tree"},
	domainerrors.KindBooleanCondition:            {"logic_tree"},
	domainerrors.KindUnknownMetric:               {"logic_tree"},
	domainerrors.KindUnapprovedAbsoluteThreshold: {"logic_tree"},
	domainerrors.KindMalformedLogicTree:          {"logic_tree"},
	domainerrors.KindVixyThesisMisalignment:      {"thesis_document", "rebalancing_rationale"},
}

// immutabilitySets derives the preserve/may-change field lists from the
// error kinds actually present, so a fix is never asked to both change
// and preserve the same field (§4.2).
func immutabilitySets(errs []*domainerrors.ValidationError) (preserve, mayChange []string) {
	changeable := map[string]bool{}
	for _, e := range errs {
		for _, field := range mayChangeByKind[e.Kind] {
			changeable[field] = true
		}
	}
	for _, field := range strategyFields {
		if changeable[field] {
			mayChange = append(mayChange, field)
		} else {
			preserve = append(preserve, field)
		}
	}
	return preserve, mayChange
}

func buildFixRequest(persona prompts.Persona, modelID string, strat *domain.Strategy, errs []*domainerrors.ValidationError, history []agent.Message, tools []agent.Tool) agent.RunRequest {
	current, _ := json.Marshal(strat)
	errLines := ""
	preserve, mayChange := immutabilitySets(errs)
	for _, e := range errs {
		errLines += fmt.Sprintf("- [%s] %s (%s)\n", e.Kind, e.Message, e.FixGuidance)
	}

	fixNote := prompts.Render(prompts.FixRetryTemplate, map[string]string{
		"current_strategy":     string(current),
		"errors":               errLines,
		"immutability_section": prompts.ImmutabilitySection(preserve, mayChange),
	})

	return agent.RunRequest{
		Stage:         "generate",
		ModelID:       modelID,
		SystemPrompt:  prompts.SystemPrompt,
		UserPrompt:    fixNote,
		OutputSchema:  prompts.StrategySchema,
		History:       history,
		HistoryLimit:  agent.HistoryMedium,
		Tools:         tools,
		CompressTools: dataHeavyToolNames,
	}
}

func allRetryable(errs []*domainerrors.ValidationError) bool {
	for _, e := range errs {
		if !e.Retryable {
			return false
		}
	}
	return true
}

func firstFatal(errs []*domainerrors.ValidationError) *domainerrors.ValidationError {
	for _, e := range errs {
		if !e.Retryable {
			return e
		}
	}
	return errs[0]
}

// diversityWarnings checks the §4.2 diversity constraint across the
// accepted candidate set and returns a non-fatal warning if it fails.
func diversityWarnings(candidates []domain.Strategy) []string {
	edgeTypes := map[domain.EdgeType]bool{}
	archetypes := map[domain.Archetype]bool{}
	for _, c := range candidates {
		edgeTypes[c.EdgeType] = true
		archetypes[c.Archetype] = true
	}
	var warnings []string
	if len(edgeTypes) < minDiversityCount {
		warnings = append(warnings, fmt.Sprintf("generate: diversity constraint unmet: only %d distinct edge_type values (need %d)", len(edgeTypes), minDiversityCount))
	}
	if len(archetypes) < minDiversityCount {
		warnings = append(warnings, fmt.Sprintf("generate: diversity constraint unmet: only %d distinct archetype values (need %d)", len(archetypes), minDiversityCount))
	}
	return warnings
}

// runAndDecode runs req through the Runtime and decodes the structured
// output into a Strategy, logging the call's token usage and returning
// the updated history tail for the caller to thread into its next call.
func runAndDecode(ctx context.Context, rt *agent.Runtime, req agent.RunRequest) (*domain.Strategy, []agent.Message, error) {
	res, err := rt.Run(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	strat, err := agent.DecodeArgs[domain.Strategy](res.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("decode strategy output: %w", err)
	}
	log.Debug().Int("prompt_tokens", res.PromptTokens).Int("completion_tokens", res.CompletionTokens).
		Str("stage", req.Stage).Str("candidate_id", strat.CandidateID).Msg("stage call complete")
	return strat, res.UpdatedHistory, nil
}
