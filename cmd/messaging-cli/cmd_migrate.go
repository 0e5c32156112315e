package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tieba-server/services/messaging-api/internal/infrastructure/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema migrations",
	Long:  `Apply, revert or inspect the SQL migrations embedded in the binary.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert migrations",
	RunE:  runMigrateDown,
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied migration version",
	RunE:  runMigrateVersion,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to revert")
}

func withMigrator(cmd *cobra.Command, fn func(m *database.Migrator) error) error {
	_, db, log, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	m, err := database.NewMigrator(cmd.Context(), db, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("close migrator")
		}
	}()
	return fn(m)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	return withMigrator(cmd, func(m *database.Migrator) error {
		return m.Up()
	})
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	steps, _ := cmd.Flags().GetInt("steps")
	return withMigrator(cmd, func(m *database.Migrator) error {
		if err := m.Down(steps); err != nil {
			return err
		}
		fmt.Printf("reverted %d migration(s)\n", steps)
		return nil
	})
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	return withMigrator(cmd, func(m *database.Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version: %d\ndirty: %t\n", version, dirty)
		return nil
	})
}
