// Package candidate turns raw classifier output into normalized Candidate
// records with a derived likelihood in [0, 1].
//
// Three sources are understood: a read classifier (Kraken2-style per-read
// calls), a pairwise aligner (BLAST-style comma-separated hits), and a
// whole-genome similarity tool (FastANI-style tab-separated hits). Each source
// maps to a Parser closed over its own inclusion threshold; Extract runs them
// in a fixed order so downstream merging is deterministic.
//
// Extraction never fails: missing or unreadable files contribute nothing and
// emit a warning, and malformed rows are skipped.
package candidate
