package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"taxem/internal/classify"
	"taxem/internal/decide"
)

const rule = "======================================================================"

// WriteText writes the human-readable summary: the best call, EM statistics,
// and every candidate ranked by posterior.
func WriteText(w io.Writer, out classify.Outcome) error {
	bw := bufio.NewWriter(w)
	c := out.Classification

	fmt.Fprintln(bw, "Probabilistic Classification Results - EM Algorithm")
	fmt.Fprintf(bw, "Sample: %s, Cluster: %s\n", out.SampleID, out.ClusterID)
	if out.RunID != "" {
		fmt.Fprintf(bw, "Run: %s\n", out.RunID)
	}
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "BEST CLASSIFICATION:")
	fmt.Fprintf(bw, "  Taxon: %s\n", c.Name)
	fmt.Fprintf(bw, "  Confidence: %s (%s)\n", formatProbability(c.Confidence), TierLabel(c.Tier))
	fmt.Fprintf(bw, "  Potentially Novel: %t\n", c.IsNovel)
	fmt.Fprintf(bw, "  Sources: %s\n", valueOr(c.Sources, "none"))
	if c.TaxID != "" {
		fmt.Fprintf(bw, "  TaxID: %s\n", c.TaxID)
	}
	if c.Identity > 0 {
		fmt.Fprintf(bw, "  BLAST Identity: %.1f%%\n", c.Identity)
	}
	if c.Similarity > 0 {
		fmt.Fprintf(bw, "  FastANI: %.1f%%\n", c.Similarity)
	}
	if c.Reason != "" {
		fmt.Fprintf(bw, "  Reason: %s\n", c.Reason)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "EM ALGORITHM STATISTICS:")
	fmt.Fprintf(bw, "  Iterations: %d\n", out.EM.Iterations)
	fmt.Fprintf(bw, "  Converged: %t\n", out.EM.Converged)
	fmt.Fprintf(bw, "  Candidate Taxa: %d\n", len(out.Candidates))
	fmt.Fprintf(bw, "  Max Change: %s\n", strconv.FormatFloat(out.EM.MaxChange, 'e', 2, 64))

	if len(out.Candidates) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "ALL CANDIDATE TAXA (sorted by posterior probability):")
		fmt.Fprintln(bw, candidateTable(out))
	}
	return bw.Flush()
}

// RankedIndexes orders candidate indexes by descending posterior; ties keep
// their input order.
func RankedIndexes(out classify.Outcome) []int {
	order := make([]int, len(out.Candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return out.Posterior(order[a]) > out.Posterior(order[b])
	})
	return order
}

func candidateTable(out classify.Outcome) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Taxon", "TaxID", "Posterior", "Likelihood", "Sources", "Identity", "ANI"})
	for _, i := range RankedIndexes(out) {
		c := out.Candidates[i]
		rep := c.Representative
		tw.AppendRow(table.Row{
			i + 1,
			rep.Name,
			valueOr(rep.TaxID, "-"),
			formatProbability(out.Posterior(i)),
			formatProbability(c.MergedLikelihood),
			c.SourceList(),
			formatPercent(rep.Identity),
			formatPercent(rep.Similarity),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	return tw.Render()
}

// TierLabel renders a tier for people, e.g. "very_low_novel" as
// "Very Low Novel".
func TierLabel(tier decide.Tier) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(tier), "_", " "))
}

func formatPercent(value float64) string {
	if value <= 0 {
		return "-"
	}
	return strconv.FormatFloat(value, 'f', 1, 64) + "%"
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
