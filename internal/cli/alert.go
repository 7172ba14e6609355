package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pratik-mahalle/opsguard/pkg/client"
	"github.com/spf13/cobra"
)

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage alerts",
	}

	cmd.AddCommand(newAlertListCmd())
	cmd.AddCommand(newAlertGetCmd())
	cmd.AddCommand(newAlertSummaryCmd())
	cmd.AddCommand(newAlertAcknowledgeCmd())
	cmd.AddCommand(newAlertResolveCmd())

	return cmd
}

func newAlertListCmd() *cobra.Command {
	var opts client.AlertListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := apiClient.Alerts().List(context.Background(), &opts)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(page)
			}

			t := NewTable("ID", "TYPE", "SEVERITY", "STATUS", "AGE", "TITLE")
			for _, a := range page.Data {
				t.AddRow(
					strconv.FormatInt(a.ID, 10),
					a.Type,
					formatSeverity(a.Severity),
					formatStatus(a.Status),
					humanize.Time(a.CreatedAt),
					truncate(a.Title, 50),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d alerts)\n", page.Page, page.TotalPages, page.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Severity, "severity", "", "filter by severity")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter by type")
	cmd.Flags().StringVar(&opts.Check, "check", "", "filter by health check name")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "alerts per page")

	return cmd
}

func newAlertGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get alert details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAlertID(args[0])
			if err != nil {
				return err
			}

			alert, err := apiClient.Alerts().Get(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to get alert: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(alert)
			}

			fmt.Printf("ID:          %d\n", alert.ID)
			fmt.Printf("Type:        %s\n", alert.Type)
			fmt.Printf("Severity:    %s\n", formatSeverity(alert.Severity))
			fmt.Printf("Status:      %s\n", formatStatus(alert.Status))
			fmt.Printf("Title:       %s\n", alert.Title)
			fmt.Printf("Message:     %s\n", alert.Message)
			fmt.Printf("Created:     %s\n", alert.CreatedAt.Format("2006-01-02 15:04:05"))
			if alert.AcknowledgedAt != nil {
				fmt.Printf("Acked:       %s by %s\n", alert.AcknowledgedAt.Format("2006-01-02 15:04:05"), alert.AcknowledgedBy)
			}
			if alert.ResolvedAt != nil {
				fmt.Printf("Resolved:    %s by %s\n", alert.ResolvedAt.Format("2006-01-02 15:04:05"), alert.ResolvedBy)
				if alert.ResolutionNotes != "" {
					fmt.Printf("Notes:       %s\n", alert.ResolutionNotes)
				}
			}
			return nil
		},
	}
}

func newAlertSummaryCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count alerts by type, severity and status",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := apiClient.Alerts().Summary(context.Background(), hours)
			if err != nil {
				return fmt.Errorf("failed to get alert summary: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(summary)
			}

			fmt.Printf("%d alerts in the last %d hours\n\n", summary.Total, hours)
			t := NewTable("GROUP", "VALUE", "COUNT")
			addCounts(t, "type", summary.ByType)
			addCounts(t, "severity", summary.BySeverity)
			addCounts(t, "status", summary.ByStatus)
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "window in hours")
	return cmd
}

func newAlertAcknowledgeCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:     "ack <id>",
		Aliases: []string{"acknowledge"},
		Short:   "Acknowledge an alert",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAlertID(args[0])
			if err != nil {
				return err
			}

			alert, err := apiClient.Alerts().Acknowledge(context.Background(), id, operator(user))
			if err != nil {
				return fmt.Errorf("failed to acknowledge alert: %w", err)
			}

			fmt.Printf("Alert %d is %s\n", alert.ID, alert.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "operator name (default from config)")
	return cmd
}

func newAlertResolveCmd() *cobra.Command {
	var user, notes string

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAlertID(args[0])
			if err != nil {
				return err
			}

			if _, err := apiClient.Alerts().Resolve(context.Background(), id, operator(user), notes); err != nil {
				return fmt.Errorf("failed to resolve alert: %w", err)
			}

			fmt.Printf("Alert %d resolved\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "operator name (default from config)")
	cmd.Flags().StringVar(&notes, "notes", "", "resolution notes")
	return cmd
}

func parseAlertID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid alert ID: %s", s)
	}
	return id, nil
}

func addCounts(t *Table, group string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AddRow(group, k, strconv.Itoa(counts[k]))
	}
}
