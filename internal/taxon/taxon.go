// Package taxon collapses per-source candidate observations into one record
// per identity key.
package taxon

import (
	"strings"

	"taxem/internal/candidate"
)

// Contribution is one observation folded into a Candidate.
type Contribution struct {
	Source     candidate.Source `json:"source"`
	Likelihood float64          `json:"likelihood"`
}

// Candidate aggregates every observation sharing an identity key.
type Candidate struct {
	Key string
	// Sources is the ordered set of contributing sources, in first-seen order.
	Sources       []candidate.Source
	Contributions []Contribution
	// Representative is the contributing observation with the highest
	// likelihood; ties keep the earliest.
	Representative   candidate.Candidate
	MergedLikelihood float64
}

// NumSources reports how many distinct sources contributed.
func (c Candidate) NumSources() int {
	return len(c.Sources)
}

// SourceList returns the contributing source tags joined by commas.
func (c Candidate) SourceList() string {
	tags := make([]string, len(c.Sources))
	for i, source := range c.Sources {
		tags[i] = string(source)
	}
	return strings.Join(tags, ",")
}

// HasSource reports whether source contributed to c.
func (c Candidate) HasSource(source candidate.Source) bool {
	for _, s := range c.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// Merge groups cands by Key. Candidates without a key are dropped. The result
// keeps the order in which each key first appears, and each MergedLikelihood
// is the arithmetic mean of all contributing likelihoods.
func Merge(cands []candidate.Candidate) []Candidate {
	index := make(map[string]int, len(cands))
	sums := make([]float64, 0, len(cands))
	merged := make([]Candidate, 0, len(cands))

	for _, c := range cands {
		key := c.Key()
		if key == "" {
			continue
		}
		pos, ok := index[key]
		if !ok {
			pos = len(merged)
			index[key] = pos
			merged = append(merged, Candidate{Key: key, Representative: c})
			sums = append(sums, 0)
		}
		entry := &merged[pos]
		if !entry.HasSource(c.Source) {
			entry.Sources = append(entry.Sources, c.Source)
		}
		entry.Contributions = append(entry.Contributions, Contribution{Source: c.Source, Likelihood: c.Likelihood})
		if c.Likelihood > entry.Representative.Likelihood {
			entry.Representative = c
		}
		sums[pos] += c.Likelihood
	}

	for i := range merged {
		merged[i].MergedLikelihood = sums[i] / float64(len(merged[i].Contributions))
	}
	return merged
}

// Likelihoods projects the merged likelihood of each candidate, index aligned.
func Likelihoods(cands []Candidate) []float64 {
	out := make([]float64, len(cands))
	for i, c := range cands {
		out[i] = c.MergedLikelihood
	}
	return out
}
