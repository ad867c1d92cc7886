package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	"github.com/quantpipeline/tradingagent/internal/application/logictree"
	"github.com/quantpipeline/tradingagent/internal/application/prompts"
	"github.com/quantpipeline/tradingagent/internal/application/validator"
	"github.com/quantpipeline/tradingagent/internal/domain"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// deployConfirmation is the Deploy stage's confirmation-call output shape.
type deployConfirmation struct {
	Ready                bool   `json:"ready"`
	Reason               string `json:"reason"`
	SymphonyName         string `json:"symphony_name"`
	SymphonyDescription  string `json:"symphony_description"`
}

// DeployResult is Deploy's successful output. A nil DeployResult with a
// nil error means a clean abort (§4.5: "may abort cleanly by returning
// (None, None, None)").
type DeployResult struct {
	SymphonyID string
	DeployedAt time.Time
	Summary    string
}

// Deploy runs the DEPLOYMENT stage end to end (§4.5): confirmation call,
// blocking audit, pure translation, bounded-retry symphony_save.
func Deploy(ctx context.Context, rt *agent.Runtime, winner domain.Strategy, charter domain.Charter, pack domain.ContextPack, modelID string, symphonyTool agent.Tool) (*DeployResult, error) {
	confirmation, err := confirmDeployment(ctx, rt, winner, charter, modelID)
	if err != nil {
		return nil, err
	}
	if confirmation == nil || !confirmation.Ready {
		reason := ""
		if confirmation != nil {
			reason = confirmation.Reason
		}
		log.Info().Str("reason", reason).Msg("deploy: confirmation call declined to deploy")
		return nil, nil
	}

	if findings := auditForDeployment(winner); len(findings) > 0 {
		log.Warn().Strs("findings", findings).Msg("deploy: blocking audit rejected strategy")
		return nil, &domainerrors.DeploymentAuditError{Findings: findings}
	}

	root, err := logictree.Translate(&winner)
	if err != nil {
		return nil, fmt.Errorf("deploy: translate failed after passing audit: %w", err)
	}
	payload := logictree.BuildPayload(root, hashtagFor(winner), "ffffff", "EQUITIES")

	symphonyID, err := saveSymphony(ctx, symphonyTool, payload, confirmation.SymphonyName, confirmation.SymphonyDescription)
	if err != nil {
		return nil, err
	}

	return &DeployResult{
		SymphonyID: symphonyID,
		DeployedAt: time.Now().UTC(),
		Summary:    confirmation.SymphonyDescription,
	}, nil
}

func confirmDeployment(ctx context.Context, rt *agent.Runtime, winner domain.Strategy, charter domain.Charter, modelID string) (*deployConfirmation, error) {
	strategyJSON, err := marshalIndent(winner)
	if err != nil {
		return nil, err
	}
	charterJSON, err := marshalIndent(charter)
	if err != nil {
		return nil, err
	}

	userPrompt := prompts.Render(prompts.DeployConfirmRecipe, map[string]string{
		"strategy": strategyJSON,
		"charter":  charterJSON,
	})

	req := agent.RunRequest{
		Stage:        "deploy_confirm",
		ModelID:      modelID,
		SystemPrompt: prompts.SystemPrompt,
		UserPrompt:   userPrompt,
		OutputSchema: prompts.DeployConfirmSchema,
		HistoryLimit: agent.HistoryShort,
	}

	res, err := rt.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return agent.DecodeArgs[deployConfirmation](res.Output)
}

// auditForDeployment is the §4.5 step 2 blocking audit: a strict
// superset of the §4.3 condition-compatibility checks, plus per-branch
// weight-sum and deployable-universe checks. Returns every finding; a
// non-empty result aborts the deploy with the checkpoint preserved.
func auditForDeployment(winner domain.Strategy) []string {
	var findings []string

	for _, cond := range winner.LogicTree.Conditions() {
		parsed, err := logictree.ParseCondition(cond)
		if err != nil {
			findings = append(findings, fmt.Sprintf("condition %q: %v", cond, err))
			continue
		}
		if !isDeployableOperand(parsed.LeftTicker, winner) {
			findings = append(findings, fmt.Sprintf("condition %q: ticker %q is not in the deployable universe", cond, parsed.LeftTicker))
		}
		if parsed.RightIsTicker && !isDeployableOperand(parsed.RightTicker, winner) {
			findings = append(findings, fmt.Sprintf("condition %q: ticker %q is not in the deployable universe", cond, parsed.RightTicker))
		}
	}

	findings = append(findings, auditBranchWeights(winner.LogicTree)...)

	for asset := range winner.Weights {
		if !isDeployableOperand(asset, winner) {
			findings = append(findings, fmt.Sprintf("held asset %q is not in the deployable universe", asset))
		}
	}

	return findings
}

func isDeployableOperand(ticker string, winner domain.Strategy) bool {
	if winner.AssetSet()[ticker] {
		return true
	}
	return validator.DeployableUniverse[ticker]
}

// auditBranchWeights recurses every Static leaf, requiring its weights
// to sum to 1.0 (§4.5 step 2: "per-branch weights sum to 1.0").
func auditBranchWeights(n *domain.LogicTree) []string {
	if n.IsEmpty() {
		return nil
	}
	var findings []string
	switch n.Kind {
	case domain.LogicTreeStatic:
		var sum float64
		for _, w := range n.StaticWeights {
			sum += w
		}
		if math.Abs(sum-1.0) > 0.01 {
			findings = append(findings, fmt.Sprintf("static branch over %v sums to %.4f, not 1.0", n.StaticAssets, sum))
		}
	case domain.LogicTreeConditional:
		findings = append(findings, auditBranchWeights(n.IfTrue)...)
		findings = append(findings, auditBranchWeights(n.IfFalse)...)
	}
	return findings
}

func hashtagFor(winner domain.Strategy) string {
	return "#" + string(winner.Archetype)
}

// saveSymphony invokes symphonyTool under the §4.5 step-4 bounded-retry
// policy: only rate-limit/network errors are retried.
func saveSymphony(ctx context.Context, symphonyTool agent.Tool, payload *logictree.Payload, name, description string) (string, error) {
	args := map[string]any{
		"symphony_score": payload.SymphonyScore,
		"color":          payload.Color,
		"hashtag":        payload.Hashtag,
		"asset_class":    payload.AssetClass,
		"name":           name,
		"description":    description,
	}

	var rawResult string
	err := agent.DeploySaveBackoff().Do(ctx, func(attempt int) error {
		result, err := symphonyTool.Invoke(ctx, args)
		if err != nil {
			return err
		}
		rawResult = result
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("deploy: symphony_save failed: %w", err)
	}

	id, err := extractSymphonyID(rawResult)
	if err != nil {
		return "", fmt.Errorf("deploy: %w", err)
	}
	return id, nil
}

// extractSymphonyID parses the symphony_save tool's JSON result for its
// symphony_id field (§4.5 step 5).
func extractSymphonyID(raw string) (string, error) {
	var parsed struct {
		SymphonyID string `json:"symphony_id"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("unparsable symphony_save response: %w", err)
	}
	if parsed.SymphonyID == "" {
		return "", fmt.Errorf("symphony_save response missing symphony_id")
	}
	return parsed.SymphonyID, nil
}
