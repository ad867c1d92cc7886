package prompts

// Persona is one of the five fixed generation lenses the CANDIDATES stage
// fans out across (§4.2). Personas are data, not code: adding a sixth
// lens is a matter of appending to Personas, never touching generate.go.
type Persona struct {
	ID          string
	Label       string
	Description string

	// PreferredArchetypes and PreferredEdge bias the prompt without
	// constraining the model's output; the diversity check in the
	// CANDIDATES stage enforces the actual spread.
	PreferredArchetypes []string
	PreferredEdge       string
}

// Personas is the fixed five-persona roster (§4.2).
var Personas = []Persona{
	{
		ID:    "macro_regime",
		Label: "Macro-Regime Strategist",
		Description: "Builds strategies that rotate exposure based on the prevailing " +
			"macro regime: rates direction, inflation trend, growth surprises, and the " +
			"business cycle. Prefers regime-conditional logic over static allocation.",
		PreferredArchetypes: []string{"directional", "carry"},
		PreferredEdge:       "structural",
	},
	{
		ID:    "factor",
		Label: "Factor/Quant Strategist",
		Description: "Builds strategies around a single measurable factor premium " +
			"(momentum, value, low-volatility, quality) expressed through a ranking-and-" +
			"selection filter over a defined universe rather than discretionary calls.",
		PreferredArchetypes: []string{"momentum", "mean_reversion"},
		PreferredEdge:       "risk_premium",
	},
	{
		ID:    "tail_risk",
		Label: "Tail-Risk / Volatility Strategist",
		Description: "Builds strategies whose primary job is convexity in a drawdown: " +
			"volatility proxies, defensive rotation triggers, and explicit justification " +
			"of any leveraged or inverse instrument held.",
		PreferredArchetypes: []string{"volatility"},
		PreferredEdge:       "behavioral",
	},
	{
		ID:    "sector_rotation",
		Label: "Sector-Rotation Strategist",
		Description: "Builds strategies that rank and rotate among sector ETFs based on " +
			"relative strength or cyclical positioning, with explicit sector-concentration " +
			"intent when the thesis calls for it.",
		PreferredArchetypes: []string{"directional", "multi_strategy"},
		PreferredEdge:       "informational",
	},
	{
		ID:    "trend_following",
		Label: "Trend-Following Strategist",
		Description: "Builds strategies that size and hold positions purely on the basis " +
			"of price trend and moving-average crossovers, minimizing discretionary thesis " +
			"claims in favor of mechanical, rule-based conditions.",
		PreferredArchetypes: []string{"momentum", "directional"},
		PreferredEdge:       "behavioral",
	},
}

// ByID returns the persona with the given ID, or false if none matches.
func ByID(id string) (Persona, bool) {
	for _, p := range Personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}
