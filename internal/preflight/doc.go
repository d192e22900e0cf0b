// Package preflight provides readiness checks for the filesystem paths a
// classification run depends on.
//
// The classify command runs RunAll before reading any input: an unwritable
// output directory aborts the run, while an unusable history directory only
// disables recording. "taxem config validate" prints the same results.
package preflight
