package validator

import (
	"fmt"
	"strings"

	"github.com/quantpipeline/tradingagent/internal/application/logictree"
	"github.com/quantpipeline/tradingagent/internal/domain"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

const (
	weightSumMin = 0.99
	weightSumMax = 1.01

	maxSingleAssetWeight  = 0.30
	maxSingleSectorWeight = 0.50
	minAssetCount         = 2

	roundWeightIncrement = 0.05
	roundWeightEpsilon   = 1e-9
)

// Validate runs every structural and semantic check of this domain's
// strategy-acceptance rules and returns the blocking findings; warnings
// (never blocking, e.g. the round-weight-without-rationale check) are
// returned separately.
func Validate(s *domain.Strategy, ctx domain.ContextPack) ([]*domainerrors.ValidationError, []*domainerrors.CoherenceWarning) {
	var errs []*domainerrors.ValidationError
	var warnings []*domainerrors.CoherenceWarning

	errs = append(errs, checkWeightSum(s)...)
	errs = append(errs, checkWeightKeys(s)...)
	errs = append(errs, checkLogicTreeStructure(s)...)
	errs = append(errs, checkAssetCoverage(s)...)
	errs = append(errs, checkConcentration(s)...)
	errs = append(errs, checkLeverageJustification(s)...)
	errs = append(errs, checkArchetypeCoherence(s)...)
	errs = append(errs, checkThesisNumericCoherence(s)...)
	errs = append(errs, checkConditionGrammar(s)...)
	errs = append(errs, checkVolatilityProxyAlignment(s)...)

	warnings = append(warnings, checkRoundWeights(s)...)

	return errs, warnings
}

func retryable(kind domainerrors.ValidationKind, format string, args ...any) *domainerrors.ValidationError {
	return &domainerrors.ValidationError{
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		Retryable: true,
	}
}

func fatal(kind domainerrors.ValidationKind, format string, args ...any) *domainerrors.ValidationError {
	return &domainerrors.ValidationError{
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		Retryable: false,
	}
}

func checkWeightSum(s *domain.Strategy) []*domainerrors.ValidationError {
	sum := s.WeightSum()
	if sum < weightSumMin || sum > weightSumMax {
		err := retryable(domainerrors.KindWeightsOutOfRange,
			"weights sum to %.4f, must be within [%.2f, %.2f]", sum, weightSumMin, weightSumMax)
		err.FixGuidance = "Rescale weights so they sum to 1.0 while preserving relative proportions."
		return []*domainerrors.ValidationError{err}
	}
	return nil
}

func checkWeightKeys(s *domain.Strategy) []*domainerrors.ValidationError {
	allowed := s.AssetSet()
	if s.LogicTree != nil {
		for _, a := range s.LogicTree.ReferencedAssets() {
			allowed[a] = true
		}
	}
	var errs []*domainerrors.ValidationError
	for ticker := range s.Weights {
		if !allowed[ticker] {
			err := retryable(domainerrors.KindWeightKeyNotAsset,
				"weight key %q is not in strategy.assets or any logic_tree branch", ticker)
			err.FixGuidance = "Remove the stray weight key or add the ticker to assets."
			errs = append(errs, err)
		}
	}
	return errs
}

// checkLogicTreeStructure validates the tagged-union shape and the
// Filter/Weighting structural rules (§4.3, §8).
func checkLogicTreeStructure(s *domain.Strategy) []*domainerrors.ValidationError {
	if s.LogicTree.IsEmpty() {
		return nil
	}
	return structuralWalk(s.LogicTree, len(s.Assets), true)
}

func structuralWalk(n *domain.LogicTree, rootAssetCount int, isRoot bool) []*domainerrors.ValidationError {
	var errs []*domainerrors.ValidationError

	switch n.Kind {
	case domain.LogicTreeStatic:
		if len(n.StaticAssets) == 0 || len(n.StaticWeights) == 0 {
			errs = append(errs, fatal(domainerrors.KindMalformedLogicTree, "static leaf missing assets or weights"))
		}

	case domain.LogicTreeFilter:
		if n.Filter == nil {
			errs = append(errs, fatal(domainerrors.KindMalformedLogicTree, "filter leaf missing filter spec"))
			break
		}
		if !n.Filter.SortBy.IsValid() {
			errs = append(errs, fatal(domainerrors.KindMalformedLogicTree, "filter leaf has unknown sort_by %q", n.Filter.SortBy))
		}
		if !n.Filter.Select.IsValid() {
			errs = append(errs, fatal(domainerrors.KindMalformedLogicTree, "filter leaf has unknown select %q", n.Filter.Select))
		}
		if n.Filter.WindowDays <= 0 {
			err := retryable(domainerrors.KindFilterNOutOfRange, "filter window_days must be > 0, got %d", n.Filter.WindowDays)
			err.FixGuidance = "Set window_days to a positive integer."
			errs = append(errs, err)
		}
		if n.Filter.N < 1 || n.Filter.N > len(n.FilterAssets) {
			err := retryable(domainerrors.KindFilterNOutOfRange,
				"filter n=%d must satisfy 1 <= n <= %d (len(assets))", n.Filter.N, len(n.FilterAssets))
			err.FixGuidance = "Set n between 1 and the number of assets in this filter leaf."
			errs = append(errs, err)
		}

	case domain.LogicTreeWeighting:
		if isRoot {
			err := retryable(domainerrors.KindWeightingAtRoot, "weighting leaf is not permitted at the root of logic_tree")
			err.FixGuidance = "Wrap the weighting leaf in a Static or Conditional parent, or move logic to a non-root position."
			errs = append(errs, err)
		}
		if n.Weighting == nil {
			errs = append(errs, fatal(domainerrors.KindMalformedLogicTree, "weighting leaf missing weighting spec"))
		} else if !n.Weighting.Method.IsValid() {
			errs = append(errs, fatal(domainerrors.KindMalformedLogicTree, "weighting leaf has unknown method %q", n.Weighting.Method))
		}

	case domain.LogicTreeConditional:
		if n.Condition == "" || n.IfTrue == nil || n.IfFalse == nil {
			errs = append(errs, fatal(domainerrors.KindMalformedLogicTree, "conditional branch missing condition or a child branch"))
			break
		}
		errs = append(errs, structuralWalk(n.IfTrue, rootAssetCount, false)...)
		errs = append(errs, structuralWalk(n.IfFalse, rootAssetCount, false)...)

	default:
		errs = append(errs, fatal(domainerrors.KindMalformedLogicTree, "logic_tree has unrecognized kind %q", n.Kind))
	}

	return errs
}

func checkAssetCoverage(s *domain.Strategy) []*domainerrors.ValidationError {
	if s.LogicTree.IsEmpty() {
		return nil
	}
	held := s.AssetSet()
	tickers := s.LogicTree.ReferencedAssets()
	for _, raw := range s.LogicTree.Conditions() {
		if cond, err := logictree.ParseCondition(raw); err == nil {
			tickers = append(tickers, cond.LeftTicker)
			if cond.RightIsTicker {
				tickers = append(tickers, cond.RightTicker)
			}
		}
	}
	reported := map[string]bool{}
	var errs []*domainerrors.ValidationError
	for _, ticker := range tickers {
		if held[ticker] || SignalOnlyAllowList[ticker] || reported[ticker] {
			continue
		}
		reported[ticker] = true
		err := retryable(domainerrors.KindAssetNotHeld,
			"ticker %q is referenced in logic_tree but is neither held in strategy.assets nor on the signal-only allow-list", ticker)
		err.FixGuidance = "Add the ticker to strategy.assets with a weight, or reference only held or signal-only tickers."
		errs = append(errs, err)
	}
	return errs
}

func checkConcentration(s *domain.Strategy) []*domainerrors.ValidationError {
	var errs []*domainerrors.ValidationError

	if len(s.Assets) < minAssetCount && s.ConcentrationIntent != domain.ConcentrationHighConviction {
		err := retryable(domainerrors.KindConcentration,
			"strategy holds %d asset(s); at least %d are required unless concentration_intent is high_conviction", len(s.Assets), minAssetCount)
		errs = append(errs, err)
	}

	for ticker, w := range s.Weights {
		if w > maxSingleAssetWeight && s.ConcentrationIntent != domain.ConcentrationHighConviction {
			err := retryable(domainerrors.KindConcentration,
				"asset %q has weight %.4f > %.2f, not permitted unless concentration_intent is high_conviction", ticker, w, maxSingleAssetWeight)
			err.FixGuidance = "Lower the weight below 30% or set concentration_intent to high_conviction."
			errs = append(errs, err)
		}
	}

	sectorWeights := map[string]float64{}
	for ticker, w := range s.Weights {
		sectorWeights[SectorOf(ticker)] += w
	}
	for sector, w := range sectorWeights {
		if sector == "unknown" {
			continue
		}
		if w > maxSingleSectorWeight && s.ConcentrationIntent != domain.ConcentrationSectorFocus {
			err := retryable(domainerrors.KindConcentration,
				"sector %q has combined weight %.4f > %.2f, not permitted unless concentration_intent is sector_focus", sector, w, maxSingleSectorWeight)
			err.FixGuidance = "Diversify across sectors or set concentration_intent to sector_focus."
			errs = append(errs, err)
		}
	}

	return errs
}

func checkLeverageJustification(s *domain.Strategy) []*domainerrors.ValidationError {
	var leveraged []string
	for _, a := range s.Assets {
		if LeveragedETFs[a] {
			leveraged = append(leveraged, a)
		}
	}
	if len(leveraged) == 0 {
		return nil
	}

	var missing []string
	for term, keywords := range LeverageJustificationTerms {
		if !ContainsKeyword(s.ThesisDocument, keywords) {
			missing = append(missing, term)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	err := retryable(domainerrors.KindLeverageJustification,
		"leveraged/inverse ETF(s) %v held but thesis_document is missing required terms: %v", leveraged, missing)
	err.FixGuidance = "Add explicit discussion of convexity or decay, drawdown, and the comparison benchmark to thesis_document."
	return []*domainerrors.ValidationError{err}
}

func checkArchetypeCoherence(s *domain.Strategy) []*domainerrors.ValidationError {
	requiresLogic := s.Archetype == domain.ArchetypeMomentum || s.Archetype == domain.ArchetypeVolatility
	if requiresLogic && s.LogicTree.IsEmpty() {
		err := retryable(domainerrors.KindArchetypeCoherence,
			"archetype %q requires a non-empty logic_tree expressing its rotation/regime logic", s.Archetype)
		err.FixGuidance = "Add a Filter, Weighting, or Conditional logic_tree expressing the archetype's mechanism."
		return []*domainerrors.ValidationError{err}
	}
	return nil
}

func checkThesisNumericCoherence(s *domain.Strategy) []*domainerrors.ValidationError {
	if s.LogicTree.IsEmpty() || s.ThesisDocument == "" {
		return nil
	}
	thesisClaims := ParseNumericClaims(s.ThesisDocument)
	if len(thesisClaims) == 0 {
		return nil
	}

	var conditionValues []float64
	for _, raw := range s.LogicTree.Conditions() {
		for _, c := range ParseNumericClaims(raw) {
			conditionValues = append(conditionValues, c.Value)
		}
	}
	if len(conditionValues) == 0 {
		return nil
	}

	var errs []*domainerrors.ValidationError
	for _, claim := range thesisClaims {
		if !AnyWithinTolerance(claim.Value, conditionValues, ThesisToleranceRel) {
			err := retryable(domainerrors.KindThesisNumericMismatch,
				"thesis_document claims %s %s %v but no logic_tree condition threshold matches within %.0f%% relative tolerance",
				claim.Subject, claim.Operator, claim.Value, ThesisToleranceRel*100)
			err.FixGuidance = "Align the thesis threshold with the actual logic_tree condition value, or update the condition to match the thesis."
			errs = append(errs, err)
		}
	}
	return errs
}

func checkRoundWeights(s *domain.Strategy) []*domainerrors.CoherenceWarning {
	if len(s.Weights) == 0 {
		return nil
	}
	for _, w := range s.Weights {
		ratio := w / roundWeightIncrement
		if round := float64(int(ratio + 0.5)); abs(ratio-round) > roundWeightEpsilon {
			return nil
		}
	}
	if ContainsKeyword(s.RebalancingRationale, []string{"weight", "allocation", "round"}) {
		return nil
	}
	return []*domainerrors.CoherenceWarning{{
		Kind:    domainerrors.KindRoundWeightsNoRationale,
		Message: "all weights are round multiples of 0.05 but rebalancing_rationale does not reference them",
	}}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// checkConditionGrammar validates every condition string's grammar
// (§4.3 "Composer-compatible condition syntax") and the absolute-
// threshold whitelist.
func checkConditionGrammar(s *domain.Strategy) []*domainerrors.ValidationError {
	if s.LogicTree.IsEmpty() {
		return nil
	}
	var errs []*domainerrors.ValidationError
	for _, raw := range s.LogicTree.Conditions() {
		cond, err := logictree.ParseCondition(raw)
		if err != nil {
			errs = append(errs, classifyGrammarError(raw, err))
			continue
		}
		if cond.LeftMetric == "price" && cond.RightLiteral != nil && !ApprovedAbsolutePriceProxies[cond.LeftTicker] {
			vErr := retryable(domainerrors.KindUnapprovedAbsoluteThreshold,
				"condition %q compares %q's absolute price but %q is not on the approved absolute-price-proxy whitelist", raw, cond.LeftTicker, cond.LeftTicker)
			vErr.FixGuidance = "Use a relative comparison (vs moving average, vs another asset) or switch to an approved proxy ticker."
			errs = append(errs, vErr)
		}
	}
	return errs
}

func classifyGrammarError(raw string, err error) *domainerrors.ValidationError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "boolean operator"):
		vErr := retryable(domainerrors.KindBooleanCondition, "condition %q uses a boolean operator, which is not permitted: %s", raw, msg)
		vErr.FixGuidance = "Express the condition as a single scalar comparison; split compound conditions into nested Conditional branches."
		return vErr
	case strings.Contains(msg, "operand"):
		vErr := retryable(domainerrors.KindUnknownMetric, "condition %q references an unrecognized metric or operand: %s", raw, msg)
		vErr.FixGuidance = "Use a <TICKER>_<metric> operand from the supported metric vocabulary (price, Nd_MA, Nd_return, rsi_N, ema_N, ...)."
		return vErr
	default:
		vErr := retryable(domainerrors.KindMalformedLogicTree, "condition %q is not well-formed: %s", raw, msg)
		vErr.FixGuidance = "Rewrite the condition as a single <TICKER>_<metric> comparison against a literal or another qualified indicator."
		return vErr
	}
}

// checkVolatilityProxyAlignment requires thesis_document or
// rebalancing_rationale to mention a volatility keyword whenever a
// condition references a volatility-proxy ticker (§4.3, §8 scenario 4).
func checkVolatilityProxyAlignment(s *domain.Strategy) []*domainerrors.ValidationError {
	if s.LogicTree.IsEmpty() {
		return nil
	}
	count := 0
	for _, raw := range s.LogicTree.Conditions() {
		cond, err := logictree.ParseCondition(raw)
		if err != nil {
			continue
		}
		if VolatilityProxyTickers[cond.LeftTicker] || (cond.RightIsTicker && VolatilityProxyTickers[cond.RightTicker]) {
			count++
		}
	}
	if count == 0 {
		return nil
	}

	combined := s.ThesisDocument + " " + s.RebalancingRationale
	if ContainsKeyword(combined, VolatilityKeywords) {
		return nil
	}

	err := retryable(domainerrors.KindVixyThesisMisalignment,
		"logic_tree references a volatility proxy but neither thesis_document nor rebalancing_rationale mentions volatility (count=%d)", count)
	err.FixGuidance = "Add a volatility/vol-regime discussion to thesis_document or rebalancing_rationale."
	return []*domainerrors.ValidationError{err}
}
