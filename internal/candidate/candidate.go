package candidate

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Source identifies the classifier that produced a Candidate.
type Source string

const (
	SourceReadClassifier    Source = "kraken2"
	SourcePairwiseAlignment Source = "blast"
	SourceGenomeSimilarity  Source = "fastani"
)

// Sources lists every source kind in processing order.
var Sources = []Source{SourceReadClassifier, SourcePairwiseAlignment, SourceGenomeSimilarity}

// Kind returns the descriptive source kind name.
func (s Source) Kind() string {
	switch s {
	case SourceReadClassifier:
		return "read-classifier"
	case SourcePairwiseAlignment:
		return "pairwise-alignment"
	case SourceGenomeSimilarity:
		return "genome-similarity"
	default:
		return "unknown"
	}
}

// Metrics carries source-specific auxiliary values. Fields that do not apply
// to a source stay zero.
type Metrics struct {
	Confidence       float64 `json:"confidence,omitempty"`
	EValue           float64 `json:"evalue,omitempty"`
	AlignmentLength  int     `json:"alignment_length,omitempty"`
	Score            float64 `json:"score,omitempty"`
	Identity         float64 `json:"identity,omitempty"`
	Similarity       float64 `json:"ani,omitempty"`
	FragmentsAligned int     `json:"fragments_aligned,omitempty"`
	TotalFragments   int     `json:"total_fragments,omitempty"`
	Coverage         float64 `json:"coverage,omitempty"`
}

// Candidate is one raw taxon hit reported by a single source.
type Candidate struct {
	Source     Source  `json:"source"`
	TaxID      string  `json:"taxid,omitempty"`
	Reference  string  `json:"reference,omitempty"`
	Name       string  `json:"name"`
	Likelihood float64 `json:"likelihood"`
	Metrics
}

// Key returns the identity used to merge observations: the taxon id, else the
// reference name, else the display name. An empty key means the candidate
// cannot be merged.
func (c Candidate) Key() string {
	switch {
	case c.TaxID != "":
		return c.TaxID
	case c.Reference != "":
		return c.Reference
	default:
		return c.Name
	}
}

func normalizeName(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}
