package domain

// Decision is the parsed output of the language model.
type Decision struct {
	Grade  string `json:"grade"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
	// Degraded is set when the model reply could not be parsed and the
	// placeholder decision was substituted.
	Degraded bool `json:"-"`
}

// Recommendation is the result of one pipeline run.
type Recommendation struct {
	Decision
	Candidates     []string
	NearestCount   int
	CandidateCount int
}

// Evidence holds per-grade text summaries assembled from catalog records.
type Evidence struct {
	RnD        map[string]string
	Trials     map[string]string
	Complaints map[string]string
}

// NewEvidence returns Evidence with initialized maps.
func NewEvidence() Evidence {
	return Evidence{
		RnD:        make(map[string]string),
		Trials:     make(map[string]string),
		Complaints: make(map[string]string),
	}
}
