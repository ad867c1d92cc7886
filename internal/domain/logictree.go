package domain

// LogicTreeKind discriminates the four shapes a LogicTree node can take.
type LogicTreeKind string

const (
	LogicTreeEmpty       LogicTreeKind = ""
	LogicTreeStatic      LogicTreeKind = "static"
	LogicTreeFilter      LogicTreeKind = "filter"
	LogicTreeWeighting   LogicTreeKind = "weighting"
	LogicTreeConditional LogicTreeKind = "conditional"
)

// FilterSpec describes a ranking-then-select sleeve: rank assets by
// SortBy over WindowDays, keep the top/bottom N, implicitly equal-weight
// the survivors.
type FilterSpec struct {
	SortBy     FilterSortBy `json:"sort_by"`
	WindowDays int          `json:"window_days"`
	Select     FilterSelect `json:"select"`
	N          int          `json:"n"`
}

// WeightingSpec describes a dynamic weighting scheme applied to a set of
// assets (currently only inverse-volatility).
type WeightingSpec struct {
	Method     WeightingMethod `json:"method"`
	WindowDays int             `json:"window_days"`
}

// LogicTree is a tagged union: exactly one of the leaf/branch fields is
// populated according to Kind. An empty LogicTree (Kind == LogicTreeEmpty)
// means "static allocation governed by Strategy.weights alone".
type LogicTree struct {
	Kind LogicTreeKind `json:"kind"`

	// Static leaf
	StaticAssets  []string           `json:"static_assets,omitempty"`
	StaticWeights map[string]float64 `json:"static_weights,omitempty"`

	// Filter leaf
	Filter       *FilterSpec `json:"filter,omitempty"`
	FilterAssets []string    `json:"filter_assets,omitempty"`

	// Weighting leaf
	Weighting       *WeightingSpec `json:"weighting,omitempty"`
	WeightingAssets []string       `json:"weighting_assets,omitempty"`

	// Conditional branch
	Condition string     `json:"condition,omitempty"`
	IfTrue    *LogicTree `json:"if_true,omitempty"`
	IfFalse   *LogicTree `json:"if_false,omitempty"`
}

// IsEmpty reports whether this tree represents "no logic, static allocation".
func (t *LogicTree) IsEmpty() bool {
	return t == nil || t.Kind == LogicTreeEmpty
}

// ReferencedAssets returns every asset ticker mentioned anywhere in the
// tree, including inside Conditional branches and Filter/Weighting leaves,
// deduplicated in first-seen order.
func (t *LogicTree) ReferencedAssets() []string {
	seen := map[string]bool{}
	var out []string
	add := func(tickers []string) {
		for _, tk := range tickers {
			if !seen[tk] {
				seen[tk] = true
				out = append(out, tk)
			}
		}
	}
	var walk func(n *LogicTree)
	walk = func(n *LogicTree) {
		if n == nil {
			return
		}
		switch n.Kind {
		case LogicTreeStatic:
			add(n.StaticAssets)
		case LogicTreeFilter:
			add(n.FilterAssets)
		case LogicTreeWeighting:
			add(n.WeightingAssets)
		case LogicTreeConditional:
			walk(n.IfTrue)
			walk(n.IfFalse)
		}
	}
	walk(t)
	return out
}

// Conditions returns every Conditional branch's raw condition string,
// depth-first.
func (t *LogicTree) Conditions() []string {
	var out []string
	var walk func(n *LogicTree)
	walk = func(n *LogicTree) {
		if n == nil {
			return
		}
		if n.Kind == LogicTreeConditional {
			out = append(out, n.Condition)
			walk(n.IfTrue)
			walk(n.IfFalse)
		}
	}
	walk(t)
	return out
}
