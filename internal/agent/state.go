// Package agent implements the four-stage answering pipeline:
// classify, plan, retrieve, generate. Stages always run in order; a stage
// failure is recorded on the state and later stages continue with whatever
// they have, so a broken classifier still produces an apology rather than
// a dropped message.
package agent

// State flows through the pipeline. Each stage reads earlier fields and
// fills in its own.
type State struct {
	// Input
	Query  string
	UserID string

	// Classification
	PrimaryDomain    string
	SecondaryDomains []string
	CrossDomain      bool
	Confidence       float64

	// Planning
	Plan string

	// Retrieval
	RetrievedDocs []string

	// Generation
	Answer string

	// Err holds the first stage failure. The webhook maps a non-empty Err
	// to a fixed user-facing message.
	Err string
}

// Failed reports whether any stage recorded an error
func (s *State) Failed() bool {
	return s.Err != ""
}

// setErr records the first failure only; later stage errors would mask the
// root cause
func (s *State) setErr(msg string) {
	if s.Err == "" {
		s.Err = msg
	}
}

// Classification is the JSON shape the classifier model must produce
type Classification struct {
	PrimaryDomain    string   `json:"primary_domain"`
	SecondaryDomains []string `json:"secondary_domains"`
	CrossDomain      bool     `json:"is_cross_domain"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
}
