package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newPerfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perf",
		Short: "Show request performance",
	}

	cmd.AddCommand(newPerfStatsCmd())
	cmd.AddCommand(newPerfEndpointsCmd())
	cmd.AddCommand(newPerfSlowCmd())

	return cmd
}

func newPerfStatsCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the performance snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.Performance(context.Background(), hours)
			if err != nil {
				return fmt.Errorf("failed to get performance stats: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(stats)
			}

			fmt.Printf("Requests:       %d (last %d hours)\n", stats.TotalRequests, hours)
			fmt.Printf("Avg response:   %.3fs\n", stats.AvgResponseTime)
			fmt.Printf("Slow requests:  %d\n", stats.SlowRequestsCount)
			fmt.Printf("Memory:         %.1f%% of %.1f GB\n", stats.MemoryUsage.Percent, stats.MemoryUsage.TotalGB)
			fmt.Printf("CPU:            %.1f%%\n", stats.CPUUsage)
			fmt.Printf("Cache:          %s, hit rate %.1f%%\n", stats.CacheStats.Backend, stats.CacheStats.HitRate)
			fmt.Printf("Uptime:         %s\n", stats.Uptime)
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "window in hours")
	return cmd
}

func newPerfEndpointsCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Per-endpoint latency from recent samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.EndpointPerformance(context.Background(), hours)
			if err != nil {
				return fmt.Errorf("failed to get endpoint performance: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(stats)
			}

			endpoints := make([]string, 0, len(stats))
			for e := range stats {
				endpoints = append(endpoints, e)
			}
			sort.Slice(endpoints, func(i, j int) bool {
				return stats[endpoints[i]].AvgTime > stats[endpoints[j]].AvgTime
			})

			t := NewTable("ENDPOINT", "COUNT", "AVG", "MIN", "MAX", "SLOW %")
			for _, e := range endpoints {
				s := stats[e]
				t.AddRow(
					truncate(e, 50),
					strconv.Itoa(s.Count),
					fmt.Sprintf("%.3fs", s.AvgTime),
					fmt.Sprintf("%.3fs", s.MinTime),
					fmt.Sprintf("%.3fs", s.MaxTime),
					fmt.Sprintf("%.1f", s.SlowPercentage),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "window in hours")
	return cmd
}

func newPerfSlowCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "slow",
		Short: "List the newest slow requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			slow, err := apiClient.SlowRequests(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("failed to get slow requests: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(slow)
			}

			t := NewTable("TIME", "METHOD", "ENDPOINT", "STATUS", "DURATION")
			for _, r := range slow {
				t.AddRow(
					r.Timestamp.Format("2006-01-02 15:04:05"),
					r.Method,
					truncate(r.Endpoint, 50),
					strconv.Itoa(r.Status),
					fmt.Sprintf("%.3fs", r.Seconds),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of requests")
	return cmd
}
