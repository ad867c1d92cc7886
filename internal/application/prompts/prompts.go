package prompts

// SystemPrompt is the shared system-role preamble for every stage call.
// Stage-specific behavior is carried by the user prompt, not this text,
// so the runtime's adaptive history trimming never has to reason about
// which system prompt a trimmed call belongs to.
const SystemPrompt = `You are a quantitative strategist assisting a disciplined research process
for producing algorithmic trading strategies on a rules-based execution platform.
Every strategy must be expressed as explicit assets, weights, and an optional
logic tree of filter/weighting/conditional steps. You always return a single
JSON object conforming exactly to the schema you are given. You never include
prose outside that JSON object.`

// GenerateRecipe is the per-persona candidate-generation prompt (§4.2).
// {{persona_label}} and {{persona_description}} bind the fixed persona
// roster; {{context_pack}} binds the rendered ContextPack.
const GenerateRecipe = `You are acting as the {{persona_label}}.

{{persona_description}}

Market context for this cycle:
{{context_pack}}

Produce exactly one candidate trading strategy as a JSON object matching the
given schema. Your thesis_document must state your market view in specific,
falsifiable terms and cite concrete thresholds where relevant. Your
rebalancing_rationale must explain why the rebalance_frequency and weights
were chosen. If your logic_tree references a volatility proxy or a leveraged
ETF, your thesis_document must justify it explicitly.`

// FixRetryTemplate is the targeted fix-retry prompt issued when the
// Validator returns retryable errors for a just-generated candidate
// (§4.2). The immutability section is assembled at call time from the
// actual field set, since which fields are "preserved" depends on which
// validation kinds fired.
const FixRetryTemplate = `Your previous candidate strategy failed validation. Here is the exact
strategy you returned:

{{current_strategy}}

The following issues must be fixed:
{{errors}}

{{immutability_section}}

Return a corrected JSON object matching the same schema. Do not introduce new
problems while fixing these.`

// ImmutabilitySection renders the "preserve vs. may change" contract a
// fix-retry attaches, naming only the fields relevant to the error kinds
// actually present so the model is not told to touch fields the errors
// never implicated.
func ImmutabilitySection(preserve, mayChange []string) string {
	return "Fields that must be preserved byte-for-byte: " + JoinNonEmpty(preserve, ", ") +
		"\nFields you may change to fix the listed issues: " + JoinNonEmpty(mayChange, ", ")
}

// ScoreRecipe is the per-candidate scoring prompt (§4.4).
const ScoreRecipe = `Evaluate the following candidate trading strategy on five dimensions, each
scored 1-5: thesis_quality, edge_economics, risk_framework, regime_awareness,
strategic_coherence. Write an evaluation_document explaining each score.

Market context:
{{context_pack}}

Candidate strategy:
{{strategy}}

Return a JSON object matching the given schema.`

// SelectRecipe is the multi-factor ranking prompt used alongside the
// normalized-scorecard half of the 50/50 composite (§4.4).
const SelectRecipe = `You are ranking {{count}} surviving candidate strategies by overall
deployment conviction, considering thesis differentiation, risk framework
quality, and fit to the current market context below.

Market context:
{{context_pack}}

Candidates (index, scorecard, strategy):
{{candidates}}

Return a JSON object matching the given schema: a ranking of candidate
indices from most to least convincing, plus a conviction score and rationale
for your top choice.`

// CharterRecipe synthesizes the five-section charter document. The full
// ContextPack is always rendered verbatim into this prompt (§4.4) rather
// than summarized.
const CharterRecipe = `Synthesize a deployment charter for the selected strategy below. Every
macro claim you make must cite a value present in the context pack and
must hold as of the context pack's anchor_date; do not fetch fresh data
unless the context pack is missing something you need.

Full market context pack:
{{context_pack}}

Selected strategy:
{{strategy}}

Selection reasoning:
{{selection_reasoning}}

Other candidates considered:
{{other_candidates}}

Return a JSON object matching the given schema with five sections:
market_thesis, strategy_selection, expected_behavior, failure_modes (a list),
and outlook_90d.`

// DeployConfirmRecipe is the Deploy stage's confirmation call (§4.5 step 1).
const DeployConfirmRecipe = `Review the finalized strategy and its charter below for deployment
readiness on a live trading platform. If you see a disqualifying problem,
set ready=false and explain why in reason; otherwise propose a concise
symphony_name (<= 60 chars) and a one-paragraph symphony_description.

Strategy:
{{strategy}}

Charter:
{{charter}}

Return a JSON object matching the given schema.`

// StrategySchema is the output_schema for the CANDIDATES stage (§3).
var StrategySchema = map[string]any{
	"type": "object",
	"required": []any{
		"name", "assets", "weights", "rebalance_frequency",
		"thesis_document", "rebalancing_rationale", "edge_type",
		"archetype", "concentration_intent",
	},
	"properties": map[string]any{
		"name":                  map[string]any{"type": "string"},
		"assets":                map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"weights":               map[string]any{"type": "object"},
		"rebalance_frequency":   map[string]any{"type": "string"},
		"logic_tree":            map[string]any{"type": "object"},
		"thesis_document":       map[string]any{"type": "string"},
		"rebalancing_rationale": map[string]any{"type": "string"},
		"edge_type":             map[string]any{"type": "string"},
		"archetype":             map[string]any{"type": "string"},
		"concentration_intent":  map[string]any{"type": "string"},
	},
}

// ScorecardSchema is the output_schema for the SCORING stage (§3).
var ScorecardSchema = map[string]any{
	"type": "object",
	"required": []any{
		"thesis_quality", "edge_economics", "risk_framework",
		"regime_awareness", "strategic_coherence", "evaluation_document",
	},
	"properties": map[string]any{
		"thesis_quality":       map[string]any{"type": "integer"},
		"edge_economics":       map[string]any{"type": "integer"},
		"risk_framework":       map[string]any{"type": "integer"},
		"regime_awareness":     map[string]any{"type": "integer"},
		"strategic_coherence":  map[string]any{"type": "integer"},
		"evaluation_document":  map[string]any{"type": "string"},
	},
}

// SelectionSchema is the output_schema for the SELECTION stage's LLM
// ranking call (§3 SelectionReasoning, modulo winner_index being
// resolved by the Select operator, not echoed by the model).
var SelectionSchema = map[string]any{
	"type":     "object",
	"required": []any{"ranking", "conviction", "why_selected", "tradeoffs_accepted", "alternatives_rejected"},
	"properties": map[string]any{
		"ranking":               map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
		"conviction":            map[string]any{"type": "number"},
		"why_selected":          map[string]any{"type": "string"},
		"tradeoffs_accepted":    map[string]any{"type": "string"},
		"alternatives_rejected": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
}

// CharterSchema is the output_schema for the CHARTER stage (§3 Charter).
var CharterSchema = map[string]any{
	"type":     "object",
	"required": []any{"market_thesis", "strategy_selection", "expected_behavior", "failure_modes", "outlook_90d"},
	"properties": map[string]any{
		"market_thesis":      map[string]any{"type": "string"},
		"strategy_selection": map[string]any{"type": "string"},
		"expected_behavior":  map[string]any{"type": "string"},
		"failure_modes":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"outlook_90d":        map[string]any{"type": "string"},
	},
}

// DeployConfirmSchema is the output_schema for the Deploy stage's
// confirmation call (§4.5 step 1).
var DeployConfirmSchema = map[string]any{
	"type":     "object",
	"required": []any{"ready", "symphony_name", "symphony_description"},
	"properties": map[string]any{
		"ready":                map[string]any{"type": "boolean"},
		"reason":               map[string]any{"type": "string"},
		"symphony_name":        map[string]any{"type": "string"},
		"symphony_description": map[string]any{"type": "string"},
	},
}
