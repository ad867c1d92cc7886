package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpipeline/tradingagent/internal/domain"
	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

func validStrategy() *domain.Strategy {
	return &domain.Strategy{
		Name:                 "Defensive rotation",
		Assets:               []string{"SPY", "AGG", "GLD", "QQQ"},
		Weights:              map[string]float64{"SPY": 0.28, "AGG": 0.24, "GLD": 0.23, "QQQ": 0.25},
		RebalanceFrequency:   domain.RebalanceMonthly,
		ThesisDocument:       strings.Repeat("a", 200),
		RebalancingRationale: strings.Repeat("b", 150),
		EdgeType:             domain.EdgeRiskPremium,
		Archetype:            domain.ArchetypeMultiStrategy,
		ConcentrationIntent:  domain.ConcentrationDiversified,
	}
}

func findKind(errs []*domainerrors.ValidationError, kind domainerrors.ValidationKind) *domainerrors.ValidationError {
	for _, e := range errs {
		if e.Kind == kind {
			return e
		}
	}
	return nil
}

func TestValidate_AcceptsCleanStrategy(t *testing.T) {
	errs, warnings := Validate(validStrategy(), domain.ContextPack{})
	assert.Empty(t, errs)
	assert.Empty(t, warnings)
}

func TestValidate_WeightsOutOfRange(t *testing.T) {
	s := validStrategy()
	s.Weights["SPY"] = 0.5
	errs, _ := Validate(s, domain.ContextPack{})
	err := findKind(errs, domainerrors.KindWeightsOutOfRange)
	require.NotNil(t, err)
	assert.True(t, err.Retryable)
}

func TestValidate_WeightKeyNotAsset(t *testing.T) {
	s := validStrategy()
	s.Weights["IWM"] = 0.1
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindWeightKeyNotAsset))
}

func TestValidate_FilterNOutOfRange(t *testing.T) {
	s := validStrategy()
	s.LogicTree = &domain.LogicTree{
		Kind: domain.LogicTreeFilter,
		Filter: &domain.FilterSpec{
			SortBy:     domain.SortCumulativeReturn,
			WindowDays: 30,
			Select:     domain.SelectTop,
			N:          5,
		},
		FilterAssets: []string{"SPY", "AGG"},
	}
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindFilterNOutOfRange))
}

func TestValidate_WeightingAtRoot(t *testing.T) {
	s := validStrategy()
	s.LogicTree = &domain.LogicTree{
		Kind:            domain.LogicTreeWeighting,
		Weighting:       &domain.WeightingSpec{Method: domain.WeightingInverseVol, WindowDays: 20},
		WeightingAssets: []string{"SPY", "AGG"},
	}
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindWeightingAtRoot))
}

func TestValidate_AssetNotHeldAllowsSignalOnlyTicker(t *testing.T) {
	s := validStrategy()
	s.LogicTree = &domain.LogicTree{
		Kind:      domain.LogicTreeConditional,
		Condition: "SPY_price > SPY_200d_ma",
		IfTrue: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"SPY"},
			StaticWeights: map[string]float64{"SPY": 1.0},
		},
		IfFalse: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"AGG"},
			StaticWeights: map[string]float64{"AGG": 1.0},
		},
	}
	errs, _ := Validate(s, domain.ContextPack{})
	assert.Nil(t, findKind(errs, domainerrors.KindAssetNotHeld))
}

func TestValidate_AssetNotHeldRejectsUnlistedTicker(t *testing.T) {
	s := validStrategy()
	s.LogicTree = &domain.LogicTree{
		Kind:      domain.LogicTreeConditional,
		Condition: "TQQQ_price > 50",
		IfTrue: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"SPY"},
			StaticWeights: map[string]float64{"SPY": 1.0},
		},
		IfFalse: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"AGG"},
			StaticWeights: map[string]float64{"AGG": 1.0},
		},
	}
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindAssetNotHeld))
}

func TestValidate_ConcentrationRejectsOverweightWithoutHighConviction(t *testing.T) {
	s := validStrategy()
	s.Weights = map[string]float64{"SPY": 0.8, "AGG": 0.2}
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindConcentration))
}

func TestValidate_ConcentrationAllowsOverweightWithHighConviction(t *testing.T) {
	s := validStrategy()
	s.Weights = map[string]float64{"SPY": 0.8, "AGG": 0.2}
	s.ConcentrationIntent = domain.ConcentrationHighConviction
	errs, _ := Validate(s, domain.ContextPack{})
	assert.Nil(t, findKind(errs, domainerrors.KindConcentration))
}

func TestValidate_LeverageJustificationMissing(t *testing.T) {
	s := validStrategy()
	s.Assets = []string{"TQQQ", "AGG"}
	s.Weights = map[string]float64{"TQQQ": 0.6, "AGG": 0.4}
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindLeverageJustification))
}

func TestValidate_LeverageJustificationPresent(t *testing.T) {
	s := validStrategy()
	s.Assets = []string{"TQQQ", "AGG"}
	s.Weights = map[string]float64{"TQQQ": 0.6, "AGG": 0.4}
	s.ThesisDocument = strings.Repeat("x", 50) + " This uses convexity and expects drawdown versus the QQQ benchmark. " + strings.Repeat("y", 50)
	errs, _ := Validate(s, domain.ContextPack{})
	assert.Nil(t, findKind(errs, domainerrors.KindLeverageJustification))
}

func TestValidate_ArchetypeCoherenceRequiresLogicTree(t *testing.T) {
	s := validStrategy()
	s.Archetype = domain.ArchetypeVolatility
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindArchetypeCoherence))
}

func TestValidate_BooleanConditionRejected(t *testing.T) {
	s := validStrategy()
	s.LogicTree = &domain.LogicTree{
		Kind:      domain.LogicTreeConditional,
		Condition: "VIX_price > 25 and SPY_200d_ma > 0",
		IfTrue: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"SPY"},
			StaticWeights: map[string]float64{"SPY": 1.0},
		},
		IfFalse: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"AGG"},
			StaticWeights: map[string]float64{"AGG": 1.0},
		},
	}
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindBooleanCondition))
}

func TestValidate_UnapprovedAbsoluteThreshold(t *testing.T) {
	s := validStrategy()
	s.LogicTree = &domain.LogicTree{
		Kind:      domain.LogicTreeConditional,
		Condition: "SPY_price > 500",
		IfTrue: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"SPY"},
			StaticWeights: map[string]float64{"SPY": 1.0},
		},
		IfFalse: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"AGG"},
			StaticWeights: map[string]float64{"AGG": 1.0},
		},
	}
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindUnapprovedAbsoluteThreshold))
}

func TestValidate_VixyThesisMisalignmentReportsCount(t *testing.T) {
	s := validStrategy()
	s.Assets = []string{"VIXY", "TLT", "QQQ"}
	s.Weights = map[string]float64{"VIXY": 0.2, "TLT": 0.4, "QQQ": 0.4}
	s.LogicTree = &domain.LogicTree{
		Kind:      domain.LogicTreeConditional,
		Condition: "VIXY_price > 22",
		IfTrue: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"TLT"},
			StaticWeights: map[string]float64{"TLT": 1.0},
		},
		IfFalse: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"QQQ"},
			StaticWeights: map[string]float64{"QQQ": 1.0},
		},
	}
	errs, _ := Validate(s, domain.ContextPack{})
	err := findKind(errs, domainerrors.KindVixyThesisMisalignment)
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "count=1")
}

func TestValidate_VixyThesisMisalignmentPassesWithKeyword(t *testing.T) {
	s := validStrategy()
	s.Assets = []string{"VIXY", "TLT", "QQQ"}
	s.Weights = map[string]float64{"VIXY": 0.2, "TLT": 0.4, "QQQ": 0.4}
	s.ThesisDocument = strings.Repeat("x", 50) + " We rotate into defensives during a volatility regime shift. " + strings.Repeat("y", 50)
	s.LogicTree = &domain.LogicTree{
		Kind:      domain.LogicTreeConditional,
		Condition: "VIXY_price > 22",
		IfTrue: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"TLT"},
			StaticWeights: map[string]float64{"TLT": 1.0},
		},
		IfFalse: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"QQQ"},
			StaticWeights: map[string]float64{"QQQ": 1.0},
		},
	}
	errs, _ := Validate(s, domain.ContextPack{})
	assert.Nil(t, findKind(errs, domainerrors.KindVixyThesisMisalignment))
}

func TestValidate_RoundWeightsWarningWithoutRationale(t *testing.T) {
	s := validStrategy()
	s.Weights = map[string]float64{"SPY": 0.55, "AGG": 0.45}
	s.RebalancingRationale = strings.Repeat("no reference to it here at all, just prose ", 4)
	_, warnings := Validate(s, domain.ContextPack{})
	require.Len(t, warnings, 1)
	assert.Equal(t, domainerrors.KindRoundWeightsNoRationale, warnings[0].Kind)
}

func TestValidate_ThesisNumericMismatch(t *testing.T) {
	s := validStrategy()
	s.Assets = []string{"VIXY", "TLT", "QQQ"}
	s.Weights = map[string]float64{"VIXY": 0.2, "TLT": 0.4, "QQQ": 0.4}
	s.ThesisDocument = strings.Repeat("x", 50) + " We rotate when volatility spikes above VIX > 60 in a sharp regime change. " + strings.Repeat("y", 50)
	s.LogicTree = &domain.LogicTree{
		Kind:      domain.LogicTreeConditional,
		Condition: "VIXY_price > 22",
		IfTrue: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"TLT"},
			StaticWeights: map[string]float64{"TLT": 1.0},
		},
		IfFalse: &domain.LogicTree{
			Kind:          domain.LogicTreeStatic,
			StaticAssets:  []string{"QQQ"},
			StaticWeights: map[string]float64{"QQQ": 1.0},
		},
	}
	errs, _ := Validate(s, domain.ContextPack{})
	require.NotNil(t, findKind(errs, domainerrors.KindThesisNumericMismatch))
}
