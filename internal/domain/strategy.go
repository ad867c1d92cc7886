package domain

// Strategy is the central entity produced by Generate and consumed by
// every later stage. It is treated as immutable once the Validator has
// accepted it: later stages receive read-only views.
type Strategy struct {
	Name    string   `json:"name"`
	Assets  []string `json:"assets"`
	Weights map[string]float64 `json:"weights"`

	RebalanceFrequency RebalanceFrequency `json:"rebalance_frequency"`
	LogicTree          *LogicTree         `json:"logic_tree,omitempty"`

	ThesisDocument        string `json:"thesis_document"`
	RebalancingRationale  string `json:"rebalancing_rationale"`

	EdgeType            EdgeType            `json:"edge_type"`
	Archetype           Archetype           `json:"archetype"`
	ConcentrationIntent ConcentrationIntent `json:"concentration_intent"`

	// PersonaID records which Generate persona produced this candidate;
	// not part of the external schema, used for diversity checks and
	// deterministic tie-breaking only.
	PersonaID string `json:"-"`

	// CandidateID uniquely identifies this Strategy within its workflow
	// run, assigned once by Generate. Used only for logging and
	// checkpoint traceability, never read by the Validator or Translator.
	CandidateID string `json:"candidate_id,omitempty"`
}

// WeightSum returns the sum of all declared weights.
func (s *Strategy) WeightSum() float64 {
	var total float64
	for _, w := range s.Weights {
		total += w
	}
	return total
}

// HerfindahlIndex returns sum(w_i^2) over the strategy's weights, the
// concentration measure used to break Select ties (§4.4).
func (s *Strategy) HerfindahlIndex() float64 {
	var hhi float64
	for _, w := range s.Weights {
		hhi += w * w
	}
	return hhi
}

// AssetSet returns Assets as a membership set.
func (s *Strategy) AssetSet() map[string]bool {
	set := make(map[string]bool, len(s.Assets))
	for _, a := range s.Assets {
		set[a] = true
	}
	return set
}
