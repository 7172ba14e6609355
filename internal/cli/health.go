package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Inspect and run health checks",
	}

	cmd.AddCommand(newHealthRunCmd())
	cmd.AddCommand(newHealthSummaryCmd())

	return cmd
}

func newHealthRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every health check now",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := apiClient.RunHealthChecks(context.Background())
			if err != nil {
				return fmt.Errorf("failed to run health checks: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(report)
			}

			names := make([]string, 0, len(report.Checks))
			for name := range report.Checks {
				names = append(names, name)
			}
			sort.Strings(names)

			t := NewTable("CHECK", "STATUS", "TIME", "ERROR")
			for _, name := range names {
				r := report.Checks[name]
				t.AddRow(name, formatStatus(r.Status), fmt.Sprintf("%.3fs", r.ResponseTime), truncate(r.ErrorMessage, 60))
			}
			t.Render()
			fmt.Printf("\nOverall: %s\n", formatStatus(report.OverallStatus))
			return nil
		},
	}
}

func newHealthSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count the latest result of every check",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := apiClient.HealthSummary(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get health summary: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(summary)
			}

			fmt.Printf("%d checks, %.1f%% healthy\n", summary.Total, summary.HealthPercentage)
			fmt.Printf("  healthy:  %d\n  warning:  %d\n  critical: %d\n", summary.Healthy, summary.Warning, summary.Critical)
			return nil
		},
	}
}
