package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taxem/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded classification runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))

	return historyCmd
}

// withHistory opens the configured history database for the duration of fn.
func (c *commandContext) withHistory(cmd *cobra.Command, fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	path := strings.TrimSpace(cfg.History.Path)
	if path == "" {
		return errors.New("history.path is not configured")
	}
	store, err := history.Open(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var sampleID string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), history.Filter{SampleID: sampleID, Limit: limit})
				if err != nil {
					return err
				}
				if asJSON {
					if runs == nil {
						runs = []history.Run{}
					}
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				table := renderTable(
					[]string{"Run", "Created", "Sample", "Cluster", "Classification", "Confidence", "Level", "Novel"},
					buildHistoryRows(runs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sampleID, "sample", "", "Only show runs for this sample")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one recorded run with its candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withHistory(cmd, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), id)
				if err != nil {
					if errors.Is(err, history.ErrNotFound) {
						return fmt.Errorf("run %s not found", id)
					}
					return err
				}
				if asJSON {
					return writeJSON(cmd, run)
				}
				printRunDetail(cmd, run)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func buildHistoryRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.SampleID,
			run.ClusterID,
			run.Classification,
			strconv.FormatFloat(run.Confidence, 'f', 4, 64),
			string(run.ConfidenceLevel),
			yesNo(run.IsNovel),
		})
	}
	return rows
}

func printRunDetail(cmd *cobra.Command, run *history.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:            %s\n", run.ID)
	fmt.Fprintf(out, "Created:        %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Sample:         %s\n", run.SampleID)
	fmt.Fprintf(out, "Cluster:        %s\n", run.ClusterID)
	if run.OutputPrefix != "" {
		fmt.Fprintf(out, "Output prefix:  %s\n", run.OutputPrefix)
	}
	fmt.Fprintf(out, "Classification: %s\n", run.Classification)
	if run.TaxID != "" {
		fmt.Fprintf(out, "TaxID:          %s\n", run.TaxID)
	}
	if run.Reference != "" {
		fmt.Fprintf(out, "Reference:      %s\n", run.Reference)
	}
	fmt.Fprintf(out, "Confidence:     %.4f (%s)\n", run.Confidence, run.ConfidenceLevel)
	fmt.Fprintf(out, "Novel:          %s\n", yesNo(run.IsNovel))
	if run.Sources != "" {
		fmt.Fprintf(out, "Sources:        %s\n", run.Sources)
	}
	fmt.Fprintf(out, "EM:             %d iteration(s), converged %s, max change %.2e\n", run.Iterations, yesNo(run.Converged), run.MaxChange)

	if len(run.Candidates) == 0 {
		fmt.Fprintln(out, "No candidate taxa")
		return
	}
	rows := make([][]string, 0, len(run.Candidates))
	for _, c := range run.Candidates {
		rows = append(rows, []string{
			strconv.Itoa(c.Position + 1),
			c.Name,
			c.TaxID,
			strconv.FormatFloat(c.Posterior, 'f', 4, 64),
			strconv.FormatFloat(c.MergedLikelihood, 'f', 4, 64),
			c.Sources,
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Taxon", "TaxID", "Posterior", "Likelihood", "Sources"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintln(out)
}
