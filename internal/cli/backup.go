package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database and file backups",
	}

	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupCreateCmd())
	cmd.AddCommand(newBackupDownloadCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	cmd.AddCommand(newBackupDeleteCmd())

	return cmd
}

func newBackupListCmd() *cobra.Command {
	var backupType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			backups, err := apiClient.Backups().List(context.Background(), backupType)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(backups)
			}

			t := NewTable("TYPE", "NAME", "SIZE", "CREATED", "FILE")
			for _, b := range backups {
				t.AddRow(b.Type, b.Name, b.Size, humanize.Time(b.CreatedAt), b.FileReference)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&backupType, "type", "", "database, files or full (default all)")
	return cmd
}

func newBackupCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:       "create <database|files|full>",
		Short:     "Create a backup and wait for it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"database", "files", "full"},
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Backups().Create(context.Background(), args[0], name)
			if err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}

			fmt.Printf("Created %s backup %s\n", result.Type, result.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "backup name (generated when empty)")
	return cmd
}

func newBackupDownloadCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "download <type> <name>",
		Short: "Download a backup artifact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := apiClient.Backups().Download(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to download backup: %w", err)
			}
			defer rc.Close()

			if out == "" {
				out = args[1] + artifactExt(args[0])
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			n, err := io.Copy(f, rc)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			fmt.Printf("Saved %s (%s)\n", out, humanize.Bytes(uint64(n)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "file", "f", "", "output file")
	return cmd
}

func newBackupRestoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore a database backup over the live database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(fmt.Sprintf("Restore database backup %s over the live database?", args[0])) {
				fmt.Println("Aborted")
				return nil
			}

			if err := apiClient.Backups().Restore(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to restore backup: %w", err)
			}

			fmt.Printf("Database restored from %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newBackupDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <type> <name>",
		Short: "Delete a backup; full backups take their parts with them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(fmt.Sprintf("Delete %s backup %s?", args[0], args[1])) {
				fmt.Println("Aborted")
				return nil
			}

			if err := apiClient.Backups().Delete(context.Background(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to delete backup: %w", err)
			}

			fmt.Printf("Deleted %s backup %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func artifactExt(backupType string) string {
	switch backupType {
	case "database":
		return ".sql.gz"
	case "files":
		return ".zip"
	default:
		return "_info.json"
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
