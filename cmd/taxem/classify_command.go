package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"taxem/internal/classify"
	"taxem/internal/config"
	"taxem/internal/history"
	"taxem/internal/logging"
	"taxem/internal/preflight"
	"taxem/internal/report"
)

type classifyOptions struct {
	sampleID       string
	clusterID      string
	outputPrefix   string
	readClassifier string
	pairwise       string
	genome         string
	minIdentity    float64
	minSimilarity  float64
	minConfidence  float64
	maxIterations  int
	convergence    float64
	novelty        float64
	record         bool
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var opts classifyOptions

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one consensus sequence from classifier outputs",
		Long: `Combine read-classifier, pairwise-alignment, and genome-similarity hits for a
single consensus sequence, compute posterior probabilities with EM, and write
<prefix>_classification.csv, <prefix>_classification.json, and <prefix>_combined.txt.

Missing inputs are tolerated: a run with no usable evidence is reported as
Unclassified and still exits 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runClassify(cmd, ctx, cfg, opts)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&opts.sampleID, "sample-id", "", "Sample identifier echoed into outputs")
	flags.StringVar(&opts.clusterID, "cluster-id", "", "Cluster identifier echoed into outputs")
	flags.StringVar(&opts.outputPrefix, "output-prefix", "", "Path prefix for the output files")
	flags.StringVar(&opts.readClassifier, "kraken2", "", "Read-classifier report (tab-separated)")
	flags.StringVar(&opts.pairwise, "blast", "", "Pairwise-alignment results (comma-separated)")
	flags.StringVar(&opts.genome, "fastani", "", "Genome-similarity results (tab-separated)")
	flags.Float64Var(&opts.minIdentity, "min-blast-identity", defaults.Thresholds.MinPercentIdentity, "Minimum pairwise percent identity")
	flags.Float64Var(&opts.minSimilarity, "min-ani-similarity", defaults.Thresholds.MinPercentSimilarity, "Minimum genome percent similarity")
	flags.Float64Var(&opts.minConfidence, "min-kraken2-confidence", defaults.Thresholds.MinConfidence, "Minimum read-classifier confidence")
	flags.IntVar(&opts.maxIterations, "max-em-iterations", defaults.EM.MaxIterations, "Maximum EM iterations")
	flags.Float64Var(&opts.convergence, "em-convergence-threshold", defaults.EM.ConvergenceThreshold, "EM convergence threshold")
	flags.Float64Var(&opts.novelty, "novelty-threshold", defaults.EM.NoveltyThreshold, "Posterior below which a call is flagged novel")
	flags.BoolVar(&opts.record, "record", false, "Record the run in the history database")

	_ = cmd.MarkFlagRequired("sample-id")
	_ = cmd.MarkFlagRequired("cluster-id")
	_ = cmd.MarkFlagRequired("output-prefix")

	return cmd
}

// buildRequest merges config values with any flags the user set explicitly.
func buildRequest(cmd *cobra.Command, cfg *config.Config, opts classifyOptions) classify.Request {
	req := classify.RequestFromConfig(cfg)
	req.SampleID = opts.sampleID
	req.ClusterID = opts.clusterID
	req.Inputs.ReadClassifier = opts.readClassifier
	req.Inputs.PairwiseAlignment = opts.pairwise
	req.Inputs.GenomeSimilarity = opts.genome

	flags := cmd.Flags()
	if flags.Changed("min-blast-identity") {
		req.Thresholds.MinPercentIdentity = opts.minIdentity
	}
	if flags.Changed("min-ani-similarity") {
		req.Thresholds.MinPercentSimilarity = opts.minSimilarity
	}
	if flags.Changed("min-kraken2-confidence") {
		req.Thresholds.MinConfidence = opts.minConfidence
	}
	if flags.Changed("max-em-iterations") {
		req.EM.MaxIterations = opts.maxIterations
	}
	if flags.Changed("em-convergence-threshold") {
		req.EM.ConvergenceThreshold = opts.convergence
	}
	if flags.Changed("novelty-threshold") {
		req.Novelty = opts.novelty
	}
	return req
}

func runClassify(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, opts classifyOptions) error {
	logger, err := ctx.logger(cmd)
	if err != nil {
		return err
	}

	prefix := strings.TrimSpace(opts.outputPrefix)
	if prefix == "" {
		return fmt.Errorf("--output-prefix is required")
	}
	req := buildRequest(cmd, cfg, opts)
	if err := req.Validate(); err != nil {
		return err
	}

	record := cfg.History.Enabled
	if cmd.Flags().Changed("record") {
		record = opts.record
	}
	checkCfg := *cfg
	checkCfg.History.Enabled = record
	// A failure here surfaces through the history directory check below.
	_ = checkCfg.EnsureDirectories()
	if err := report.EnsureParent(prefix); err != nil {
		return err
	}
	for _, failed := range preflight.Failed(preflight.RunAll(&checkCfg, prefix)) {
		if failed.Required {
			return fmt.Errorf("preflight %s: %s", strings.ToLower(failed.Name), failed.Detail)
		}
		logging.WarnWithContext(logger, "history disabled for this run", "history_unavailable",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "fix permissions on the history directory or set history.path"),
			logging.String(logging.FieldImpact, "run will not be recorded"),
		)
		record = false
	}

	out, err := classify.Run(cmd.Context(), req, logger)
	if err != nil {
		return err
	}

	paths, err := report.WriteAll(prefix, out)
	if err != nil {
		logging.ErrorWithContext(logger, "report write failed", "report_write_failed",
			logging.String(logging.FieldRunID, out.RunID),
			logging.String("output_prefix", prefix),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions in the output directory"),
		)
		return err
	}

	if record {
		recordRun(cmd, cfg.History.Path, out, prefix, logger)
	}

	c := out.Classification
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Classification complete:")
	fmt.Fprintf(w, "  Best match: %s\n", c.Name)
	fmt.Fprintf(w, "  Confidence: %.4f (%s)\n", c.Confidence, c.Tier)
	fmt.Fprintf(w, "  Potentially novel: %s\n", yesNo(c.IsNovel))
	fmt.Fprintf(w, "  EM iterations: %d (converged: %s)\n", out.EM.Iterations, yesNo(out.EM.Converged))
	fmt.Fprintf(w, "  Run ID: %s\n", out.RunID)
	for _, path := range paths {
		fmt.Fprintf(w, "  Wrote %s\n", path)
	}
	return nil
}

// recordRun stores out in the history ledger. Failures are logged and never
// change the command's outcome.
func recordRun(cmd *cobra.Command, path string, out classify.Outcome, prefix string, logger *slog.Logger) {
	warn := func(err error) {
		logging.WarnWithContext(logger, "run not recorded in history", "history_record_failed",
			logging.String(logging.FieldRunID, out.RunID),
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database with `taxem history list`"),
			logging.String(logging.FieldImpact, "classification outputs were written; only the history entry is missing"),
		)
	}

	store, err := history.Open(cmd.Context(), path)
	if err != nil {
		warn(err)
		return
	}
	defer store.Close()

	if _, err := store.Record(cmd.Context(), out, prefix); err != nil {
		warn(err)
	}
}
