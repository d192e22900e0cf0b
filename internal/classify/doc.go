// Package classify runs one classification request end to end: extract
// candidates from each configured source, merge them by identity, run EM over
// the merged likelihoods, and decide the winning taxon.
//
// Run performs no file output; report writers and the history ledger consume
// the returned Outcome.
package classify
