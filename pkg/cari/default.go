package cari

// DefaultCriteria are the ten transition-readiness criteria from the ANSSI
// vendor survey (2023-2024), weighted by reported blocking impact. The
// weights sum to exactly 1.0.
var DefaultCriteria = []Criterion{
	{ID: "manque_normes", Label: "Hybridization standards gap", Weight: 0.12},
	{ID: "hybridation_non_standard", Label: "Non-standardized hybridization", Weight: 0.10},
	{ID: "lib_reference", Label: "Reference libraries", Weight: 0.10},
	{ID: "referentiels", Label: "Outdated frameworks", Weight: 0.08},
	{ID: "equipement_HW", Label: "Hardware compatibility", Weight: 0.08},
	{ID: "perf_signature", Label: "Signature performance", Weight: 0.05},
	{ID: "plan_transition", Label: "Transition plan", Weight: 0.15},
	{ID: "certif_biblio", Label: "Library certification", Weight: 0.12},
	{ID: "manque_sensi", Label: "Awareness", Weight: 0.10},
	{ID: "cost_skills", Label: "Upskilling cost", Weight: 0.10},
}

// DefaultRubric returns the validated ANSSI survey rubric.
func DefaultRubric() *Rubric {
	r, err := NewRubric(DefaultCriteria)
	if err != nil {
		// The default weights are constants that sum to 1.0.
		panic(err)
	}
	return r
}
