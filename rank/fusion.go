package rank

// Profile is a set of fusion weights for one retrieval context. A zero
// weight means the signal is not used in that context.
type Profile struct {
	Vector    float64
	Keyword   float64
	Literal   float64
	Concept   float64
	Thesaurus float64
}

// Fusion weight profiles per retrieval context.
var (
	// ConceptResolutionProfile favors literal name matches when resolving a
	// query to a single concept.
	ConceptResolutionProfile = Profile{
		Vector:    0.30,
		Keyword:   0.20,
		Literal:   0.40,
		Thesaurus: 0.10,
	}

	// DocumentDiscoveryProfile balances all five signals for whole-document
	// search.
	DocumentDiscoveryProfile = Profile{
		Vector:    0.30,
		Keyword:   0.25,
		Literal:   0.20,
		Concept:   0.15,
		Thesaurus: 0.10,
	}

	// PassageProfile drops the literal signal for chunk-level search, where
	// candidates have no meaningful name.
	PassageProfile = Profile{
		Vector:    0.35,
		Keyword:   0.35,
		Concept:   0.15,
		Thesaurus: 0.15,
	}
)

// Breakdown reports how a hybrid score was assembled, for debug output.
// Absent signals are nil.
type Breakdown struct {
	Vector    *float64 `json:"vector,omitempty"`
	Keyword   *float64 `json:"keyword,omitempty"`
	Literal   *float64 `json:"literal,omitempty"`
	Concept   *float64 `json:"concept,omitempty"`
	Thesaurus *float64 `json:"thesaurus,omitempty"`
	Hybrid    float64  `json:"hybrid"`
}

// Fuse combines the available signals under the profile's weights. Weights
// of absent signals are redistributed proportionally across the present
// ones, so a candidate is never penalized for a signal that could not be
// computed.
func (p Profile) Fuse(s Signals) (float64, *Breakdown) {
	type pair struct {
		weight float64
		signal Signal
		slot   **float64
	}
	bd := &Breakdown{}
	pairs := []pair{
		{p.Vector, s.Vector, &bd.Vector},
		{p.Keyword, s.Keyword, &bd.Keyword},
		{p.Literal, s.Literal, &bd.Literal},
		{p.Concept, s.Concept, &bd.Concept},
		{p.Thesaurus, s.Thesaurus, &bd.Thesaurus},
	}

	var totalWeight float64
	for _, pr := range pairs {
		if pr.weight > 0 && pr.signal.Valid {
			totalWeight += pr.weight
		}
	}
	if totalWeight == 0 {
		return 0, bd
	}

	var score float64
	for _, pr := range pairs {
		if pr.weight == 0 || !pr.signal.Valid {
			continue
		}
		v := pr.signal.Value
		*pr.slot = &v
		score += (pr.weight / totalWeight) * v
	}
	bd.Hybrid = score
	return score, bd
}
