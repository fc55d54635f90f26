package cmd

import (
	"context"
	"os"
	"sync"

	"newsengine/internal/engine"
	"newsengine/internal/logger"
	"newsengine/internal/persistence"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [userID...]",
	Short: "Record today's health snapshot for the given users",
	Long: `Computes and upserts today's informational-health snapshot for each
given user ID. Idempotent per (user, calendar day) — safe to run more than
once a day. Users are processed in parallel, matching the engine's
per-request, parallel-across-users scheduling model.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := logger.Get()

		db, err := persistence.NewPostgresDB(cfg.Database.ConnectionString)
		if err != nil {
			log.Error("connect to store", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		eng := engine.New(db)
		ctx := context.Background()

		var wg sync.WaitGroup
		var mu sync.Mutex
		var failed int
		for _, userID := range args {
			wg.Add(1)
			go func(userID string) {
				defer wg.Done()
				if err := eng.RecordHealthSnapshot(ctx, userID); err != nil {
					log.Error("snapshot failed", "user_id", userID, "error", err)
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}(userID)
		}
		wg.Wait()

		if failed > 0 {
			os.Exit(1)
		}
		log.Info("snapshot run complete", "users", len(args))
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
