// Package em computes a posterior distribution over candidate taxa by
// expectation-maximization.
//
// The engine starts from a uniform prior and repeatedly weights it by each
// candidate's likelihood. With a single consensus sequence the M-step adopts
// the posterior as the next prior, so iteration sharpens the distribution
// toward the strongest candidate until successive priors differ by less than
// the convergence threshold or the iteration cap is reached.
//
// Run is pure and deterministic: it allocates index-ordered slices only and
// never logs. Callers report the Result.
package em
