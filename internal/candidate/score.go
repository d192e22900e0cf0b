package candidate

// Likelihood policies used by the parsers. Both are heuristic products of
// bounded ratios, not calibrated probabilities.

// PairwiseScore rewards high identity and low e-value, saturating toward
// identity/100 as the e-value approaches zero.
func PairwiseScore(identity, evalue float64) float64 {
	return identity / 100.0 * (1.0 / (1.0 + evalue))
}

// GenomeScore weights percent similarity by the aligned fragment fraction.
func GenomeScore(similarity float64, fragmentsAligned, totalFragments int) float64 {
	return (similarity / 100.0) * (float64(fragmentsAligned) / float64(totalFragments))
}
