// Package decide picks the winning taxon from an EM posterior and grades the
// call.
package decide

import "taxem/internal/taxon"

// Method tags every classification produced by this package.
const Method = "EM_probabilistic"

// Tier grades the winning posterior probability.
type Tier string

const (
	TierHigh         Tier = "high"
	TierMedium       Tier = "medium"
	TierLow          Tier = "low"
	TierVeryLowNovel Tier = "very_low_novel"
	TierUnknown      Tier = "unknown"
)

const (
	highThreshold   = 0.9
	mediumThreshold = 0.7

	DefaultNoveltyThreshold = 0.5

	unclassifiedName   = "Unclassified"
	unclassifiedReason = "No candidate taxa identified"
)

// TierFor grades p. The first matching band wins, so a novelty threshold above
// the medium floor never demotes a medium or high call.
func TierFor(p, novelty float64) Tier {
	switch {
	case p >= highThreshold:
		return TierHigh
	case p >= mediumThreshold:
		return TierMedium
	case p >= novelty:
		return TierLow
	default:
		return TierVeryLowNovel
	}
}

// Classification is the final call for one consensus sequence.
type Classification struct {
	Method string `json:"method"`
	// Winner indexes the chosen candidate; -1 when nothing was classified.
	Winner     int     `json:"-"`
	Name       string  `json:"name"`
	TaxID      string  `json:"taxid,omitempty"`
	Reference  string  `json:"reference,omitempty"`
	Confidence float64 `json:"confidence"`
	Tier       Tier    `json:"confidence_level"`
	IsNovel    bool    `json:"is_novel"`
	Sources    string  `json:"source"`
	NumSources int     `json:"num_sources"`
	Identity   float64 `json:"identity,omitempty"`
	Similarity float64 `json:"ani,omitempty"`
	Likelihood float64 `json:"likelihood"`
	Reason     string  `json:"reason,omitempty"`
}

// Classified reports whether a winner was chosen.
func (c Classification) Classified() bool {
	return c.Winner >= 0
}

// Decide selects argmax(posterior), breaking ties by first occurrence. Zero
// candidates, or a posterior that does not line up with cands, yields the
// Unclassified result.
func Decide(cands []taxon.Candidate, posterior []float64, novelty float64) Classification {
	if len(cands) == 0 || len(posterior) != len(cands) {
		return Unclassified()
	}

	winner := 0
	for i := 1; i < len(posterior); i++ {
		if posterior[i] > posterior[winner] {
			winner = i
		}
	}

	best := cands[winner]
	rep := best.Representative
	p := posterior[winner]
	return Classification{
		Method:     Method,
		Winner:     winner,
		Name:       rep.Name,
		TaxID:      rep.TaxID,
		Reference:  rep.Reference,
		Confidence: p,
		Tier:       TierFor(p, novelty),
		IsNovel:    p < novelty,
		Sources:    best.SourceList(),
		NumSources: best.NumSources(),
		Identity:   rep.Identity,
		Similarity: rep.Similarity,
		Likelihood: best.MergedLikelihood,
	}
}

// Unclassified is the result reported when there is no evidence.
func Unclassified() Classification {
	return Classification{
		Method:     Method,
		Winner:     -1,
		Name:       unclassifiedName,
		Confidence: 0,
		Tier:       TierUnknown,
		IsNovel:    true,
		Reason:     unclassifiedReason,
	}
}
