package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pratik-mahalle/opsguard/pkg/client"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show control plane summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			health, healthErr := apiClient.HealthStatus(ctx)
			alerts, alertErr := apiClient.Alerts().List(ctx, &client.AlertListOptions{Status: "active"})
			perf, perfErr := apiClient.Performance(ctx, 24)
			backups, backupErr := apiClient.Backups().List(ctx, "")

			format := getOutputFormat()
			if format != "table" {
				summary := map[string]interface{}{}
				if healthErr == nil {
					summary["health"] = health.OverallStatus
				}
				if alertErr == nil {
					summary["active_alerts"] = alerts.TotalItems
				}
				if perfErr == nil {
					summary["avg_response_time"] = perf.AvgResponseTime
					summary["cache_backend"] = perf.CacheStats.Backend
				}
				if backupErr == nil {
					summary["backups"] = len(backups)
				}
				return printOutput(summary)
			}

			fmt.Println("OpsGuard Status")
			fmt.Println(strings.Repeat("=", 40))

			if healthErr != nil {
				fmt.Printf("  Health:        (error: %v)\n", healthErr)
			} else {
				fmt.Printf("  Health:        %s (%d checks)\n", formatStatus(health.OverallStatus), len(health.Checks))
			}

			if alertErr != nil {
				fmt.Printf("  Alerts:        (error: %v)\n", alertErr)
			} else {
				critical := 0
				for _, a := range alerts.Data {
					if a.Severity == "critical" {
						critical++
					}
				}
				fmt.Printf("  Alerts:        %d active", alerts.TotalItems)
				if critical > 0 {
					fmt.Printf(" (%d critical on this page)", critical)
				}
				fmt.Println()
			}

			if perfErr != nil {
				fmt.Printf("  Performance:   (error: %v)\n", perfErr)
			} else {
				fmt.Printf("  Performance:   %.3fs avg over %d requests, %d slow\n",
					perf.AvgResponseTime, perf.TotalRequests, perf.SlowRequestsCount)
				fmt.Printf("  Cache:         %s (hit rate %.1f%%)\n", perf.CacheStats.Backend, perf.CacheStats.HitRate)
				fmt.Printf("  Uptime:        %s\n", perf.Uptime)
			}

			if backupErr != nil {
				fmt.Printf("  Backups:       (error: %v)\n", backupErr)
			} else if len(backups) == 0 {
				fmt.Println("  Backups:       none")
			} else {
				latest := backups[0]
				fmt.Printf("  Backups:       %d, latest %s %s (%s)\n",
					len(backups), latest.Type, latest.Name, humanize.Time(latest.CreatedAt))
			}

			return nil
		},
	}
}
