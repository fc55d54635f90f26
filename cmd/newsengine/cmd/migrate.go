package cmd

import (
	"context"
	"fmt"
	"os"

	"newsengine/internal/logger"
	"newsengine/internal/persistence"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := logger.Get()

		db, err := persistence.NewPostgresDB(cfg.Database.ConnectionString)
		if err != nil {
			log.Error("connect to store", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		mgr := persistence.NewMigrationManager(db)
		if err := mgr.Migrate(context.Background()); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate-status",
	Short: "Show which schema migrations have been applied",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := logger.Get()

		db, err := persistence.NewPostgresDB(cfg.Database.ConnectionString)
		if err != nil {
			log.Error("connect to store", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		mgr := persistence.NewMigrationManager(db)
		status, err := mgr.Status(context.Background())
		if err != nil {
			log.Error("fetch migration status failed", "error", err)
			os.Exit(1)
		}

		for _, s := range status {
			applied := "pending"
			if s.Applied {
				applied = "applied"
			}
			fmt.Printf("%03d  %-8s  %s\n", s.Version, applied, s.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateStatusCmd)
}
