package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"taxem/internal/candidate"
	"taxem/internal/config"
	"taxem/internal/decide"
	"taxem/internal/em"
	"taxem/internal/logging"
	"taxem/internal/taxon"
)

// Request describes one consensus sequence to classify.
type Request struct {
	SampleID   string
	ClusterID  string
	Inputs     candidate.Inputs
	Thresholds candidate.Thresholds
	EM         em.Config
	Novelty    float64
}

// RequestFromConfig seeds a Request with the configured thresholds.
func RequestFromConfig(cfg *config.Config) Request {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return Request{
		Thresholds: candidate.Thresholds{
			MinConfidence:        cfg.Thresholds.MinConfidence,
			MinPercentIdentity:   cfg.Thresholds.MinPercentIdentity,
			MinPercentSimilarity: cfg.Thresholds.MinPercentSimilarity,
		},
		EM: em.Config{
			MaxIterations:        cfg.EM.MaxIterations,
			ConvergenceThreshold: cfg.EM.ConvergenceThreshold,
		},
		Novelty: cfg.EM.NoveltyThreshold,
	}
}

// Validate checks the request before any input is read.
func (r Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.SampleID) == "" {
		problems = append(problems, "sample id is required")
	}
	if strings.TrimSpace(r.ClusterID) == "" {
		problems = append(problems, "cluster id is required")
	}
	if r.EM.MaxIterations <= 0 {
		problems = append(problems, "max EM iterations must be positive")
	}
	if r.EM.ConvergenceThreshold <= 0 {
		problems = append(problems, "EM convergence threshold must be positive")
	}
	if r.Novelty < 0 || r.Novelty > 1 {
		problems = append(problems, "novelty threshold must be between 0 and 1")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Outcome carries every intermediate product of a run.
type Outcome struct {
	RunID          string
	SampleID       string
	ClusterID      string
	Candidates     []taxon.Candidate
	EM             em.Result
	Classification decide.Classification
	SourceCounts   map[candidate.Source]int
	Warnings       []string
}

// Run classifies one consensus sequence. Missing inputs and empty evidence
// produce an Unclassified outcome rather than an error; only an invalid
// request fails.
func Run(ctx context.Context, req Request, logger *slog.Logger) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("invalid classification request: %w", err)
	}

	started := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRun(ctx, runID, req.SampleID, req.ClusterID)
	log := logging.NewComponentLogger(logging.WithContext(ctx, logger), "classify")

	extraction := candidate.Extract(ctx, req.Inputs, req.Thresholds, logger)
	merged := taxon.Merge(extraction.Candidates)

	countAttrs := make([]logging.Attr, 0, len(candidate.Sources)+2)
	for _, source := range candidate.Sources {
		if count, ok := extraction.Counts[source]; ok {
			countAttrs = append(countAttrs, logging.Int(string(source)+"_candidates", count))
		}
	}
	countAttrs = append(countAttrs,
		logging.Int("raw_candidates", len(extraction.Candidates)),
		logging.Int("merged_candidates", len(merged)),
	)
	log.Info("candidates extracted", logging.Args(countAttrs...)...)

	result := em.Run(taxon.Likelihoods(merged), req.EM)
	if len(merged) > 0 && !result.Converged {
		log.Info("EM stopped at iteration cap",
			logging.String(logging.FieldEventType, "em_not_converged"),
			logging.Int("iterations", result.Iterations),
			logging.Float64("max_change", result.MaxChange),
			logging.Float64("convergence_threshold", req.EM.ConvergenceThreshold),
		)
	}
	log.Debug("EM finished",
		logging.Int("iterations", result.Iterations),
		logging.Bool("converged", result.Converged),
		logging.Float64("max_change", result.MaxChange),
		logging.Duration("elapsed", time.Since(started)),
	)

	classification := decide.Decide(merged, result.Posterior, req.Novelty)
	reason := classification.Reason
	if classification.Classified() {
		reason = fmt.Sprintf("posterior %.4f from %s", classification.Confidence, classification.Sources)
	}
	attrs := append(logging.DecisionAttrs("taxon_classification", classification.Name, reason),
		logging.String("confidence_level", string(classification.Tier)),
		logging.Float64("confidence", classification.Confidence),
		logging.Bool("is_novel", classification.IsNovel),
	)
	log.Info("classification decision", logging.Args(attrs...)...)

	return Outcome{
		RunID:          runID,
		SampleID:       req.SampleID,
		ClusterID:      req.ClusterID,
		Candidates:     merged,
		EM:             result,
		Classification: classification,
		SourceCounts:   extraction.Counts,
		Warnings:       extraction.Warnings,
	}, nil
}

// Posterior returns the posterior probability of candidate i, or 0 when i is
// out of range.
func (o Outcome) Posterior(i int) float64 {
	if i < 0 || i >= len(o.EM.Posterior) {
		return 0
	}
	return o.EM.Posterior[i]
}
