package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	var hours, limit int
	var level string
	var errorsOnly bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent system logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if errorsOnly {
				summary, err := apiClient.Logs().Errors(ctx, hours)
				if err != nil {
					return fmt.Errorf("failed to get error summary: %w", err)
				}
				if getOutputFormat() != "table" {
					return printOutput(summary)
				}

				fmt.Printf("%d errors in the last %d hours\n\n", summary.Total, hours)
				loggers := make([]string, 0, len(summary.ByLogger))
				for l := range summary.ByLogger {
					loggers = append(loggers, l)
				}
				sort.Slice(loggers, func(i, j int) bool {
					return summary.ByLogger[loggers[i]] > summary.ByLogger[loggers[j]]
				})
				t := NewTable("LOGGER", "ERRORS")
				for _, l := range loggers {
					t.AddRow(l, strconv.Itoa(summary.ByLogger[l]))
				}
				t.Render()
				return nil
			}

			entries, err := apiClient.Logs().List(ctx, hours, level, limit)
			if err != nil {
				return fmt.Errorf("failed to list logs: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(entries)
			}

			t := NewTable("TIME", "LEVEL", "LOGGER", "MESSAGE")
			for _, e := range entries {
				t.AddRow(e.Timestamp.Format("2006-01-02 15:04:05"), e.Level, e.LoggerName, truncate(e.Message, 80))
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "window in hours")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of entries")
	cmd.Flags().StringVar(&level, "level", "", "filter by level (INFO, WARNING, ERROR, CRITICAL)")
	cmd.Flags().BoolVar(&errorsOnly, "errors", false, "show error counts per logger instead")

	return cmd
}
