// Package aggregate combines per-cluster JSON classification reports into a
// single JSON array.
package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"taxem/internal/fileutil"
	"taxem/internal/logging"
)

// Result reports what Load kept and skipped.
type Result struct {
	Reports []json.RawMessage
	Skipped []string
}

// Load reads every report in sorted path order. Unreadable files and files
// that are not a JSON object are skipped with a warning; report contents are
// otherwise passed through untouched.
func Load(ctx context.Context, paths []string, logger *slog.Logger) (Result, error) {
	logger = logging.NewComponentLogger(logging.WithContext(ctx, logger), "aggregate")

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	res := Result{Reports: make([]json.RawMessage, 0, len(sorted))}
	for _, path := range sorted {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		logger.Debug("reading report", logging.String(logging.FieldPath, path))
		raw, err := readReport(path)
		if err != nil {
			logging.WarnWithContext(logger, "classification report skipped", "report_skipped",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-run classify for this cluster"),
				logging.String(logging.FieldImpact, "cluster omitted from aggregated output"),
			)
			res.Skipped = append(res.Skipped, path)
			continue
		}
		res.Reports = append(res.Reports, raw)
	}
	return res, nil
}

var errNotObject = errors.New("report is not a JSON object")

func readReport(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	var probe any
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, errNotObject
	}
	return json.RawMessage(trimmed), nil
}

// Write encodes reports as one indented JSON array.
func Write(w io.Writer, reports []json.RawMessage) error {
	if reports == nil {
		reports = []json.RawMessage{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// Run loads paths and writes the aggregated array to output atomically.
func Run(ctx context.Context, paths []string, output string, logger *slog.Logger) (Result, error) {
	res, err := Load(ctx, paths, logger)
	if err != nil {
		return res, err
	}
	err = fileutil.WriteAtomic(output, 0o644, func(w io.Writer) error {
		return Write(w, res.Reports)
	})
	if err != nil {
		return res, fmt.Errorf("write aggregated output: %w", err)
	}
	logging.NewComponentLogger(logging.WithContext(ctx, logger), "aggregate").Info("classifications aggregated",
		logging.String(logging.FieldPath, output),
		logging.Int("reports", len(res.Reports)),
		logging.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}
