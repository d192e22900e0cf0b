package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"taxem/internal/classify"
)

var csvHeader = []string{
	"Sample", "Cluster", "Method", "Classification",
	"Confidence", "Confidence_Level", "Is_Novel", "TaxID", "Sources",
}

// WriteCSV writes the header and a single row describing the best call.
func WriteCSV(w io.Writer, out classify.Outcome) error {
	c := out.Classification
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	row := []string{
		out.SampleID,
		out.ClusterID,
		c.Method,
		c.Name,
		formatProbability(c.Confidence),
		string(c.Tier),
		strconv.FormatBool(c.IsNovel),
		c.TaxID,
		c.Sources,
	}
	if err := writer.Write(row); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func formatProbability(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}
