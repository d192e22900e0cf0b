package preflight

import (
	"path/filepath"
	"strings"

	"taxem/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Required marks checks whose failure must stop the run.
	Required bool
}

const (
	NameOutputDirectory  = "Output directory"
	NameHistoryDirectory = "History directory"
)

// RunAll executes all applicable preflight checks. The output directory is
// checked when outputPrefix is set; the history directory only when history
// recording is enabled.
func RunAll(cfg *config.Config, outputPrefix string) []Result {
	var results []Result

	if prefix := strings.TrimSpace(outputPrefix); prefix != "" {
		result := CheckDirectoryAccess(NameOutputDirectory, filepath.Dir(prefix))
		result.Required = true
		results = append(results, result)
	}

	if cfg != nil && cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess(NameHistoryDirectory, filepath.Dir(cfg.History.Path)))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
