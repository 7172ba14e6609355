package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pratik-mahalle/opsguard/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string
	noColor      bool
	serverURL    string
	apiClient    *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "opsguard",
	Short: "OpsGuard CLI - operational control plane",
	Long: `OpsGuard CLI talks to the OpsGuard API to inspect health checks and alerts,
manage backups, read performance data and logs, and trigger scheduled jobs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// config commands work offline
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}
		return initClient()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.opsguard/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newAlertCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newPerfCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newJobCmd())
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".opsguard"), nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		_ = os.MkdirAll(dir, 0700)
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("OPSGUARD")
	viper.AutomaticEnv()

	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("output", "table")
	viper.SetDefault("user", os.Getenv("USER"))

	_ = viper.ReadInConfig()
}

func initClient() error {
	url := viper.GetString("server_url")
	if serverURL != "" {
		url = serverURL
	}

	apiClient = client.NewClient(client.Config{
		BaseURL: url,
	})
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" && outputFormat != "table" {
		return outputFormat
	}
	return viper.GetString("output")
}

// operator names the person acknowledging or resolving alerts
func operator(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if u := viper.GetString("user"); u != "" {
		return u
	}
	return "cli"
}
