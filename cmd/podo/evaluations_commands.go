package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podo/internal/api"
	"podo/internal/backend"
)

func newEvaluationsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evaluations",
		Aliases: []string{"evals"},
		Short:   "Inspect submitted evaluations",
	}
	cmd.AddCommand(newEvaluationsListCommand(ctx))
	cmd.AddCommand(newEvaluationsStatsCommand(ctx))
	return cmd
}

func newEvaluationsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List evaluations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient(cmd.Context(), clientOptions{})
			if err != nil {
				return err
			}
			views, err := client.ListEvaluations(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No evaluations found")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]column{left("ID"), left("Title"), left("Status"), left("Created")},
				evaluationRows(views),
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func evaluationRows(views []api.EvaluationView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		created := v.CreatedAt
		if created == "" {
			created = "-"
		}
		rows = append(rows, []string{v.ID, v.Title, v.Status, created})
	}
	return rows
}

func newEvaluationsStatsCommand(ctx *commandContext) *cobra.Command {
	var csvPath string
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats <evaluation-id>",
		Short: "Show per-stimulus rating statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient(cmd.Context(), clientOptions{})
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			out := cmd.OutOrStdout()
			if csvPath != "" {
				if err := client.DownloadStatsCSV(cmd.Context(), id, csvPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote statistics to %s\n", csvPath)
				return nil
			}
			stats, err := client.Stats(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			if len(stats) == 0 {
				fmt.Fprintf(out, "No statistics available for %s\n", id)
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]column{left("Stimulus"), left("Files"), right("Mean"), right("Median"), right("Std"), right("CI95")},
				statsRows(stats),
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write statistics to a CSV file instead of printing them")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func statsRows(stats []backend.StimulusStats) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		names := make([]string, 0, len(s.Files))
		for _, f := range s.Files {
			names = append(names, f.Name)
		}
		rows = append(rows, []string{
			s.StimulusName,
			strings.Join(names, ", "),
			fmt.Sprintf("%.3f", s.Mean),
			fmt.Sprintf("%.3f", s.Median),
			fmt.Sprintf("%.3f", s.Std),
			fmt.Sprintf("%.3f", s.CI95),
		})
	}
	return rows
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the configured API key is accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient(cmd.Context(), clientOptions{})
			if err != nil {
				return err
			}
			if err := client.Verify(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), colorizeLine(statusOK, "API key accepted", shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}
}
