package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tieba-server/services/messaging-api/internal/config"
	"tieba-server/services/messaging-api/internal/infrastructure/database"
	"tieba-server/services/messaging-api/internal/infrastructure/logger"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "messaging-cli",
	Short: "Operator tooling for the tieba messaging API",
	Long: `messaging-cli manages the messaging database outside the server process.

Examples:
  messaging-cli migrate up
  messaging-cli migrate down --steps 1
  messaging-cli migrate version
  messaging-cli reconcile`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")
		if envFile == "" {
			return
		}
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Overload(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", envFile, err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)

	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to load before reading configuration")
}

// openDatabase loads configuration and connects to the write database.
func openDatabase() (*config.Config, *gorm.DB, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	log := logger.New(cfg)
	if cfg.StorageDriver != config.StorageDriverPostgres {
		return nil, nil, log, fmt.Errorf("STORAGE_DRIVER %q has no database to manage", cfg.StorageDriver)
	}

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    1,
		MaxOpenConns:    2,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		return nil, nil, log, err
	}
	return cfg, db, log, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
