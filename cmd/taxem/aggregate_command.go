package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taxem/internal/aggregate"
)

func newAggregateCommand(ctx *commandContext) *cobra.Command {
	var output string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "aggregate INPUT...",
		Short: "Combine per-cluster JSON reports into one JSON array",
		Long: `Read each <prefix>_classification.json report and write them, sorted by
input path, as a single JSON array. Files that cannot be read or parsed are
skipped with a warning.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				level := "debug"
				ctx.logLevelFlag = &level
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			output = strings.TrimSpace(output)
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			result, err := aggregate.Run(cmd.Context(), args, output, logger)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Aggregated %d report(s) into %s\n", len(result.Reports), output)
			if len(result.Skipped) > 0 {
				fmt.Fprintf(w, "Skipped %d file(s):\n", len(result.Skipped))
				for _, path := range result.Skipped {
					fmt.Fprintf(w, "  %s\n", path)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the combined JSON file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
