package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigListCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (server_url, output, user)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set(args[0], args[1])
			path, err := writeConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Set %s = %s (%s)\n", args[0], args[1], path)
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			val := viper.Get(args[0])
			if val == nil {
				fmt.Printf("%s: (not set)\n", args[0])
			} else {
				fmt.Printf("%s: %v\n", args[0], val)
			}
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printYAML(viper.AllSettings())
		},
	}
}

func writeConfig() (string, error) {
	if cfgFile != "" {
		return cfgFile, viper.WriteConfigAs(cfgFile)
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.yaml")
	return path, viper.WriteConfigAs(path)
}
