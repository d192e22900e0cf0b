// Package main hosts the taxem CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into classification
// runs, report aggregation, history queries, and configuration scaffolding.
// It centralizes configuration resolution and structured logging setup so
// subcommands can focus on flags and output.
//
// Keep this package lean: the heavy lifting lives in the internal packages
// and is surfaced here through dedicated commands or flags.
package main
