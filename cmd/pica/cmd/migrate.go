package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bibkit/pica/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending result-store schema migrations",
	RunE:  runMigrate,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func resolveDBURL(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.Store.DatabaseURL == "" {
		return "", fmt.Errorf("--db-url required")
	}
	return cfg.Store.DatabaseURL, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	url, err := resolveDBURL(cmd)
	if err != nil {
		return err
	}
	db, err := store.Open(url)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.MigrateUp(db); err != nil {
		return err
	}
	slog.Info("migrations applied")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	url, err := resolveDBURL(cmd)
	if err != nil {
		return err
	}
	db, err := store.Open(url)
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := store.MigrateStatus(db)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
			if s.AppliedAt != nil {
				state = "applied " + s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-32s %s\n", s.ID, state)
	}
	return nil
}
