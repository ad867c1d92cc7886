package orchestrator

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	"github.com/quantpipeline/tradingagent/internal/application/prompts"
	infracheckpoint "github.com/quantpipeline/tradingagent/internal/infrastructure/checkpoint"

	"github.com/quantpipeline/tradingagent/internal/domain"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// stageScriptedClient returns a fixed response keyed by which stage's
// output_schema the call carries (ChatRequest has no stage name; the
// schema identity is the only reliable discriminator available at this
// layer). Generate and Score fan five calls out concurrently under the
// same schema, so every per-stage queue entry must be independently
// valid; access is mutex-guarded.
type stageScriptedClient struct {
	mu        sync.Mutex
	responses map[string][]agent.ChatResponse
	calls     map[string]int
}

func newStageScriptedClient(responses map[string][]agent.ChatResponse) *stageScriptedClient {
	return &stageScriptedClient{responses: responses, calls: map[string]int{}}
}

func schemaStageKey(schema map[string]any) string {
	switch {
	case reflect.DeepEqual(schema, prompts.StrategySchema):
		return "generate"
	case reflect.DeepEqual(schema, prompts.ScorecardSchema):
		return "score"
	case reflect.DeepEqual(schema, prompts.SelectionSchema):
		return "select"
	case reflect.DeepEqual(schema, prompts.CharterSchema):
		return "charter"
	case reflect.DeepEqual(schema, prompts.DeployConfirmSchema):
		return "deploy_confirm"
	default:
		return ""
	}
}

func (c *stageScriptedClient) Complete(ctx context.Context, req agent.ChatRequest) (agent.ChatResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := schemaStageKey(req.ResponseSchema)
	queue := c.responses[key]
	idx := c.calls[key]
	if idx >= len(queue) {
		idx = len(queue) - 1
	}
	c.calls[key]++
	return queue[idx], nil
}

func checkpointMemoryStore() *infracheckpoint.MemoryStore {
	return infracheckpoint.NewMemoryStore()
}

func jsonResponse(v any) agent.ChatResponse {
	raw, _ := json.Marshal(v)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	return agent.ChatResponse{RawJSON: m}
}

func testPack() domain.ContextPack {
	return domain.ContextPack{
		AnchorDate:           time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		RegimeSnapshot:       "calm",
		MacroIndicators:      map[string]float64{"VIX": 18},
		BenchmarkPerformance: map[string]float64{"SPY_30d_return": 0.02},
		RecentEvents:         []string{"quiet week"},
		RegimeTags:           []string{"low_vol"},
	}
}

func candidateFixture() domain.Strategy {
	return domain.Strategy{
		Name:                 "Balanced core",
		Assets:               []string{"SPY", "AGG", "GLD", "QQQ"},
		Weights:              map[string]float64{"SPY": 0.28, "AGG": 0.24, "GLD": 0.23, "QQQ": 0.25},
		RebalanceFrequency:   domain.RebalanceMonthly,
		ThesisDocument:       "Broad diversification across equities, bonds, and gold for a balanced, low-turnover core allocation that tolerates moderate drawdowns across regimes.",
		RebalancingRationale: "Rebalanced monthly back to target weights to control drift.",
		EdgeType:             domain.EdgeRiskPremium,
		Archetype:            domain.ArchetypeMultiStrategy,
		ConcentrationIntent:  domain.ConcentrationDiversified,
	}
}

func passingScorecard() domain.EdgeScorecard {
	return domain.EdgeScorecard{ThesisQuality: 4, EdgeEconomics: 4, RiskFramework: 4, RegimeAwareness: 4, StrategicCoherence: 4, EvaluationDocument: "solid"}
}

type stubSymphonyTool struct {
	result string
	calls  int
}

func (s *stubSymphonyTool) Name() string        { return "symphony_save" }
func (s *stubSymphonyTool) Description() string { return "saves a symphony" }
func (s *stubSymphonyTool) ParametersSchema() map[string]any {
	return map[string]any{"type": "object"}
}
func (s *stubSymphonyTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	s.calls++
	return s.result, nil
}

func fullRunResponses() map[string][]agent.ChatResponse {
	charter := map[string]any{
		"market_thesis":       "Balanced regime favors diversification.",
		"strategy_selection":  "Chosen for its stable risk framework.",
		"expected_behavior":   "Drifts slowly between equities and bonds.",
		"failure_modes":       []string{"Correlated equity/bond drawdown"},
		"outlook_90d":         "Range-bound with moderate volatility.",
	}
	confirmation := map[string]any{
		"ready":                true,
		"reason":               "",
		"symphony_name":        "Balanced Core",
		"symphony_description": "A diversified core allocation.",
	}
	selection := map[string]any{
		"ranking":               []int{0, 1, 2, 3, 4},
		"conviction":            0.75,
		"why_selected":          "most coherent risk framework",
		"tradeoffs_accepted":    "gives up some upside",
		"alternatives_rejected": []string{},
	}

	return map[string][]agent.ChatResponse{
		"generate":      {jsonResponse(candidateFixture())},
		"score":         {jsonResponse(passingScorecard())},
		"select":        {jsonResponse(selection)},
		"charter":       {jsonResponse(charter)},
		"deploy_confirm": {jsonResponse(confirmation)},
	}
}

func newTestRuntime(client agent.ChatClient) *agent.Runtime {
	rt := agent.NewRuntime(map[string]agent.ChatClient{"openai": client}, &agent.Compressor{})
	rt.CallTimeout = 5 * time.Second
	return rt
}

func TestOrchestrator_RunCompletesAllFiveStages(t *testing.T) {
	client := newStageScriptedClient(fullRunResponses())
	rt := newTestRuntime(client)
	tool := &stubSymphonyTool{result: `{"symphony_id":"sym-abc"}`}
	store := checkpointMemoryStore()

	orch := New(rt, tool, store)
	cp, err := orch.Run(context.Background(), "wf-1", testPack(), "openai:gpt-4o")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, domain.StageDeployment, cp.LastCompletedStage)
	assert.Equal(t, "sym-abc", cp.SymphonyID)
	assert.Equal(t, 1, tool.calls)

	// checkpoint cleared on successful completion
	loaded, err := store.Load(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestOrchestrator_ResumeSkipsCompletedStages(t *testing.T) {
	store := checkpointMemoryStore()
	seed := &domain.WorkflowCheckpoint{
		WorkflowID:         "wf-2",
		LastCompletedStage: domain.StageSelection,
		ContextPack:        testPack(),
		ModelID:            "openai:gpt-4o",
		Candidates:         []domain.Strategy{candidateFixture()},
		Scorecards:         []domain.EdgeScorecard{passingScorecard()},
		Winner:             ptrStrategy(candidateFixture()),
		Selection:          &domain.SelectionReasoning{WinnerIndex: 0, Conviction: 0.8, WhySelected: "best"},
	}
	require.NoError(t, store.Save(context.Background(), seed))

	responses := fullRunResponses()
	// Generate and Score must never be invoked on resume from SELECTION.
	delete(responses, "generate")
	delete(responses, "score")
	client := newStageScriptedClient(responses)
	rt := newTestRuntime(client)
	tool := &stubSymphonyTool{result: `{"symphony_id":"sym-xyz"}`}

	orch := New(rt, tool, store)
	cp, err := orch.Resume(context.Background(), "wf-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StageDeployment, cp.LastCompletedStage)
	assert.Equal(t, "sym-xyz", cp.SymphonyID)
}

func TestOrchestrator_ResumeWithNoCheckpointErrors(t *testing.T) {
	store := checkpointMemoryStore()
	rt := newTestRuntime(newStageScriptedClient(nil))
	orch := New(rt, &stubSymphonyTool{}, store)

	_, err := orch.Resume(context.Background(), "missing")
	require.Error(t, err)
	var notFound *domainerrors.CheckpointNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestOrchestrator_DeploymentDeclineLeavesCheckpointAtCharter(t *testing.T) {
	responses := fullRunResponses()
	responses["deploy_confirm"] = []agent.ChatResponse{jsonResponse(map[string]any{
		"ready":                false,
		"reason":               "thesis too thin",
		"symphony_name":        "",
		"symphony_description": "",
	})}
	client := newStageScriptedClient(responses)
	rt := newTestRuntime(client)
	tool := &stubSymphonyTool{}
	store := checkpointMemoryStore()

	orch := New(rt, tool, store)
	cp, err := orch.Run(context.Background(), "wf-3", testPack(), "openai:gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, domain.StageCharter, cp.LastCompletedStage)
	assert.Empty(t, cp.SymphonyID)
	assert.Equal(t, 0, tool.calls)

	loaded, err := store.Load(context.Background(), "wf-3")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, domain.StageCharter, loaded.LastCompletedStage)
}

func ptrStrategy(s domain.Strategy) *domain.Strategy { return &s }
