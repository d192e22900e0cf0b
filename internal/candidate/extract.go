package candidate

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"taxem/internal/logging"
)

// Inputs names the optional raw output file for each source. Empty paths are
// treated as "source not run".
type Inputs struct {
	ReadClassifier    string
	PairwiseAlignment string
	GenomeSimilarity  string
}

// Path returns the configured file for source.
func (in Inputs) Path(source Source) string {
	switch source {
	case SourceReadClassifier:
		return strings.TrimSpace(in.ReadClassifier)
	case SourcePairwiseAlignment:
		return strings.TrimSpace(in.PairwiseAlignment)
	case SourceGenomeSimilarity:
		return strings.TrimSpace(in.GenomeSimilarity)
	default:
		return ""
	}
}

// Extraction is the combined output of every configured source.
type Extraction struct {
	// Candidates are ordered by source (read classifier, pairwise alignment,
	// genome similarity), then by row order within each file.
	Candidates []Candidate
	// Counts records how many candidates each configured source contributed.
	Counts map[Source]int
	// Warnings lists sources whose files could not be read.
	Warnings []string
}

// Extract parses every configured source in processing order. It never
// returns an error: unreadable files yield an empty contribution and a
// warning.
func Extract(ctx context.Context, inputs Inputs, th Thresholds, logger *slog.Logger) Extraction {
	logger = logging.NewComponentLogger(logging.WithContext(ctx, logger), "extract")
	parsers := Parsers(th)

	out := Extraction{Counts: make(map[Source]int, len(Sources))}
	for _, source := range Sources {
		path := inputs.Path(source)
		if path == "" {
			continue
		}
		res, err := parseFile(path, parsers[source])
		if err != nil {
			logging.WarnWithContext(logger, "classifier output unreadable; source ignored", "source_unreadable",
				logging.String(logging.FieldSource, string(source)),
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify the upstream "+source.Kind()+" step produced this file"),
				logging.String(logging.FieldImpact, "classification proceeds without "+string(source)+" evidence"),
			)
			out.Counts[source] = 0
			out.Warnings = append(out.Warnings, string(source)+": "+err.Error())
			continue
		}
		if res.ReadErr != nil {
			logging.WarnWithContext(logger, "classifier output truncated; later rows ignored", "source_truncated",
				logging.String(logging.FieldSource, string(source)),
				logging.String(logging.FieldPath, path),
				logging.Error(res.ReadErr),
				logging.Int("candidates", len(res.Candidates)),
			)
			out.Warnings = append(out.Warnings, string(source)+": "+res.ReadErr.Error())
		}
		logger.Debug("source parsed",
			logging.String(logging.FieldSource, string(source)),
			logging.String(logging.FieldPath, path),
			logging.Int("rows", res.Rows),
			logging.Int("malformed", res.Malformed),
			logging.Int("below_threshold", res.Filtered()),
			logging.Int("candidates", len(res.Candidates)),
		)
		out.Counts[source] = len(res.Candidates)
		out.Candidates = append(out.Candidates, res.Candidates...)
	}
	return out
}

func parseFile(path string, parse Parser) (ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return ParseResult{}, err
	}
	defer file.Close()
	return parse(file), nil
}
