package logictree

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/quantpipeline/tradingagent/internal/domain"
)

const equalWeightEpsilon = 1e-6

var (
	reDayMetric   = regexp.MustCompile(`^(\d+)d_(ma|return|cumulative_return|standard_deviation_return|standard_deviation_price)$`)
	reIndicator   = regexp.MustCompile(`^(rsi|ema)_(\d+)$`)
)

var sortByFn = map[domain.FilterSortBy]string{
	domain.SortCumulativeReturn:        "cumulative-return",
	domain.SortStandardDeviationReturn: "standard-deviation-return",
	domain.SortStandardDeviationPrice:  "standard-deviation-price",
	domain.SortRSI:                     "relative-strength-index",
	domain.SortCumulativeReturnPrice:   "cumulative-return-price",
}

// Translate turns a validated Strategy into the root of the platform's
// step-node tree (§4.6). Pure, total over every well-formed LogicTree;
// an empty tree is treated as a Static leaf over the strategy's own
// assets/weights.
func Translate(s *domain.Strategy) (*Node, error) {
	if s.LogicTree.IsEmpty() {
		return translateStatic(s.Assets, s.Weights)
	}
	return translateNode(s.LogicTree, true)
}

func translateNode(n *domain.LogicTree, isRoot bool) (*Node, error) {
	switch n.Kind {
	case domain.LogicTreeStatic:
		return translateStatic(n.StaticAssets, n.StaticWeights)

	case domain.LogicTreeFilter:
		return translateFilter(n, isRoot)

	case domain.LogicTreeWeighting:
		if isRoot {
			return nil, fmt.Errorf("weighting leaf not permitted at root")
		}
		return translateWeighting(n)

	case domain.LogicTreeConditional:
		return translateConditional(n)

	default:
		return nil, fmt.Errorf("cannot translate logic tree node of kind %q", n.Kind)
	}
}

func translateStatic(assets []string, weights map[string]float64) (*Node, error) {
	children := make([]*Node, 0, len(assets))
	if isEqualWeighted(assets, weights) {
		for _, a := range assets {
			children = append(children, assetNode(a, nil))
		}
		return &Node{Step: "wt-cash-equal", Children: children}, nil
	}
	for _, a := range assets {
		w, ok := weights[a]
		if !ok {
			return nil, fmt.Errorf("static leaf asset %q has no weight", a)
		}
		frac := weightFraction(w)
		children = append(children, assetNode(a, &frac))
	}
	return &Node{Step: "wt-cash-specified", Children: children}, nil
}

func translateFilter(n *domain.LogicTree, isRoot bool) (*Node, error) {
	if n.Filter == nil {
		return nil, fmt.Errorf("filter leaf missing filter spec")
	}
	fn, ok := sortByFn[n.Filter.SortBy]
	if !ok {
		return nil, fmt.Errorf("unknown filter sort_by %q", n.Filter.SortBy)
	}
	children := make([]*Node, 0, len(n.FilterAssets))
	for _, a := range n.FilterAssets {
		children = append(children, assetNode(a, nil))
	}
	filterNode := &Node{
		Step:           "filter",
		SortByFn:       fn,
		SortByFnParams: &FilterWindow{Window: n.Filter.WindowDays},
		SelectFn:       string(n.Filter.Select),
		SelectN:        n.Filter.N,
		Children:       children,
	}
	if isRoot {
		return &Node{Step: "wt-cash-equal", Children: []*Node{filterNode}}, nil
	}
	return filterNode, nil
}

func translateWeighting(n *domain.LogicTree) (*Node, error) {
	if n.Weighting == nil {
		return nil, fmt.Errorf("weighting leaf missing weighting spec")
	}
	children := make([]*Node, 0, len(n.WeightingAssets))
	for _, a := range n.WeightingAssets {
		children = append(children, assetNode(a, nil))
	}
	return &Node{
		Step:       "wt-inverse-vol",
		WindowDays: n.Weighting.WindowDays,
		Children:   children,
	}, nil
}

func translateConditional(n *domain.LogicTree) (*Node, error) {
	cond, err := ParseCondition(n.Condition)
	if err != nil {
		return nil, err
	}
	leftFn, leftWindow, err := metricToFn(cond.LeftMetric)
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", n.Condition, err)
	}

	var rightFn, rightVal string
	var rightWindow int
	if cond.RightLiteral != nil {
		rightVal = strconv.FormatFloat(*cond.RightLiteral, 'f', -1, 64)
	} else {
		rightFn, rightWindow, err = metricToFn(cond.RightMetric)
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", n.Condition, err)
		}
		rightVal = cond.RightTicker
	}

	trueSubtree, err := translateNode(n.IfTrue, false)
	if err != nil {
		return nil, fmt.Errorf("if_true: %w", err)
	}
	falseSubtree, err := translateNode(n.IfFalse, false)
	if err != nil {
		return nil, fmt.Errorf("if_false: %w", err)
	}

	trueBranch := &Node{
		LeftFn:      leftFn,
		LeftWindow:  leftWindow,
		LeftTicker:  cond.LeftTicker,
		Comparator:  cond.Operator,
		RightFn:     rightFn,
		RightWindow: rightWindow,
		RightVal:    rightVal,
		IsElse:      boolPtr(false),
		Children:    []*Node{trueSubtree},
	}
	falseBranch := &Node{
		IsElse:   boolPtr(true),
		Children: []*Node{falseSubtree},
	}

	return &Node{Step: "if", Children: []*Node{trueBranch, falseBranch}}, nil
}

func metricToFn(metric string) (fn string, window int, err error) {
	if metric == "price" {
		return "current-price", 0, nil
	}
	if m := reDayMetric.FindStringSubmatch(metric); m != nil {
		window, _ = strconv.Atoi(m[1])
		switch m[2] {
		case "ma":
			return "moving-average-price", window, nil
		case "return":
			return "return", window, nil
		case "cumulative_return":
			return "cumulative-return", window, nil
		case "standard_deviation_return":
			return "standard-deviation-return", window, nil
		case "standard_deviation_price":
			return "standard-deviation-price", window, nil
		}
	}
	if m := reIndicator.FindStringSubmatch(metric); m != nil {
		window, _ = strconv.Atoi(m[2])
		switch m[1] {
		case "rsi":
			return "relative-strength-index", window, nil
		case "ema":
			return "exponential-moving-average-price", window, nil
		}
	}
	return "", 0, fmt.Errorf("unknown condition metric %q", metric)
}

func assetNode(ticker string, weight *WeightMap) *Node {
	return &Node{Step: "asset", ID: ticker, Ticker: ticker, Weight: weight}
}

func isEqualWeighted(assets []string, weights map[string]float64) bool {
	if len(assets) == 0 {
		return true
	}
	expected := 1.0 / float64(len(assets))
	for _, a := range assets {
		w, ok := weights[a]
		if !ok || math.Abs(w-expected) > equalWeightEpsilon {
			return false
		}
	}
	return true
}

// weightFraction converts a decimal weight to the platform's WeightMap.
// Strategies in this domain are produced and fix-retried to stay on
// 0.05 increments (the round-weight check in the Validator assumes
// this), so one-decimal precision is tried first and only widened to
// two decimals when it would lose information.
func weightFraction(w float64) WeightMap {
	tenths := math.Round(w * 10)
	if math.Abs(w*10-tenths) < 1e-9 {
		return WeightMap{Num: int(tenths), Den: 10}
	}
	hundredths := math.Round(w * 100)
	return WeightMap{Num: int(hundredths), Den: 100}
}

// BuildPayload wraps a translated root node in the symphony_save request
// envelope (§6.2).
func BuildPayload(root *Node, hashtag, color, assetClass string) *Payload {
	return &Payload{
		SymphonyScore: root,
		Color:         color,
		Hashtag:       hashtag,
		AssetClass:    assetClass,
	}
}
