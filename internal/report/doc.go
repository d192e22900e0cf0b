// Package report renders a classification Outcome in the three output
// formats written for every run: a one-row CSV, a full JSON report, and a
// human-readable text summary.
//
// Writers live in a format registry so callers dispatch by name. WriteAll
// writes every registered format beside an output prefix, replacing each file
// atomically.
package report
