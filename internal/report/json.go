package report

import (
	"encoding/json"
	"io"

	"taxem/internal/candidate"
	"taxem/internal/classify"
	"taxem/internal/decide"
	"taxem/internal/taxon"
)

// Document is the JSON report layout.
type Document struct {
	Meta           Meta                   `json:"meta"`
	Classification decide.Classification  `json:"classification"`
	EM             EMStats                `json:"em_algorithm"`
	Candidates     []CandidateEntry       `json:"all_candidates"`
	NumCandidates  int                    `json:"num_candidates"`
}

// Meta identifies the consensus sequence and run.
type Meta struct {
	ID        string `json:"id"`
	ClusterID string `json:"cluster_id"`
	RunID     string `json:"run_id"`
}

// EMStats summarizes the EM run.
type EMStats struct {
	Iterations    int     `json:"iterations"`
	Converged     bool    `json:"converged"`
	NumCandidates int     `json:"num_candidates"`
	MaxChange     float64 `json:"max_change"`
}

// CandidateEntry is one merged taxon annotated with its posterior.
type CandidateEntry struct {
	Key              string               `json:"key"`
	TaxID            string               `json:"taxid,omitempty"`
	Reference        string               `json:"reference,omitempty"`
	Name             string               `json:"name"`
	Source           candidate.Source     `json:"source"`
	AllSources       string               `json:"all_sources"`
	NumSources       int                  `json:"num_sources"`
	MergedLikelihood float64              `json:"merged_likelihood"`
	Contributions    []taxon.Contribution `json:"contributions"`
	Metrics          candidate.Metrics    `json:"metrics"`
	Posterior        float64              `json:"posterior_probability"`
}

// NewDocument builds the JSON report for out.
func NewDocument(out classify.Outcome) Document {
	entries := make([]CandidateEntry, len(out.Candidates))
	for i, c := range out.Candidates {
		rep := c.Representative
		entries[i] = CandidateEntry{
			Key:              c.Key,
			TaxID:            rep.TaxID,
			Reference:        rep.Reference,
			Name:             rep.Name,
			Source:           rep.Source,
			AllSources:       c.SourceList(),
			NumSources:       c.NumSources(),
			MergedLikelihood: c.MergedLikelihood,
			Contributions:    c.Contributions,
			Metrics:          rep.Metrics,
			Posterior:        out.Posterior(i),
		}
	}
	return Document{
		Meta: Meta{
			ID:        out.SampleID,
			ClusterID: out.ClusterID,
			RunID:     out.RunID,
		},
		Classification: out.Classification,
		EM: EMStats{
			Iterations:    out.EM.Iterations,
			Converged:     out.EM.Converged,
			NumCandidates: len(out.Candidates),
			MaxChange:     out.EM.MaxChange,
		},
		Candidates:    entries,
		NumCandidates: len(out.Candidates),
	}
}

// WriteJSON writes the indented JSON report.
func WriteJSON(w io.Writer, out classify.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(out))
}
