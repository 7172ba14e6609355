package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache backend and hit rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.CacheStats(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(stats)
			}

			fmt.Printf("Backend:    %s (connected: %t)\n", stats.Backend, stats.Connected)
			fmt.Printf("Keys:       %d\n", stats.Keys)
			fmt.Printf("Hits:       %d\n", stats.Hits)
			fmt.Printf("Misses:     %d\n", stats.Misses)
			fmt.Printf("Hit rate:   %.1f%%\n", stats.HitRate)
			return nil
		},
	})

	var pattern string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.ClearCache(context.Background(), pattern); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			if pattern == "" {
				fmt.Println("Cache cleared")
			} else {
				fmt.Printf("Cleared keys matching %s\n", pattern)
			}
			return nil
		},
	}
	clearCmd.Flags().StringVar(&pattern, "pattern", "", "glob pattern, e.g. 'query:*' (default all)")
	cmd.AddCommand(clearCmd)

	return cmd
}
