package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and trigger scheduled jobs",
	}

	cmd.AddCommand(newJobListCmd())
	cmd.AddCommand(newJobRunCmd())
	cmd.AddCommand(newJobExecutionsCmd())

	return cmd
}

func newJobListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered jobs and their last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := apiClient.Jobs().List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(jobs)
			}

			t := NewTable("JOB", "LAST STATUS", "LAST RUN", "DURATION")
			for _, j := range jobs {
				status, started, duration := "-", "-", "-"
				if e := j.LastExecution; e != nil {
					status = formatStatus(e.Status)
					started = e.StartedAt.Format("2006-01-02 15:04:05")
					duration = strconv.FormatInt(e.DurationMs, 10) + "ms"
				}
				t.AddRow(j.Name, status, started, duration)
			}
			t.Render()
			return nil
		},
	}
}

func newJobRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Run a job now and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			execution, err := apiClient.Jobs().Run(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to run job: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(execution)
			}

			fmt.Printf("Job %s %s in %dms\n", execution.JobName, formatStatus(execution.Status), execution.DurationMs)
			if execution.ErrorMessage != "" {
				fmt.Printf("Error:  %s\n", execution.ErrorMessage)
			}
			if len(execution.Result) > 0 {
				fmt.Printf("Result: %s\n", execution.Result)
			}
			return nil
		},
	}
}

func newJobExecutionsCmd() *cobra.Command {
	var name string
	var limit int

	cmd := &cobra.Command{
		Use:   "executions",
		Short: "List recent job executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			executions, err := apiClient.Jobs().Executions(context.Background(), name, limit)
			if err != nil {
				return fmt.Errorf("failed to list executions: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(executions)
			}

			t := NewTable("STARTED", "JOB", "TRIGGER", "STATUS", "DURATION", "ERROR")
			for _, e := range executions {
				t.AddRow(
					e.StartedAt.Format("2006-01-02 15:04:05"),
					e.JobName,
					e.Trigger,
					formatStatus(e.Status),
					strconv.FormatInt(e.DurationMs, 10)+"ms",
					truncate(e.ErrorMessage, 50),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "job", "", "filter by job name")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of executions")
	return cmd
}
