package cmd

import (
	"context"
	"os"

	"newsengine/internal/backfill"
	"newsengine/internal/embedding"
	"newsengine/internal/logger"
	"newsengine/internal/persistence"

	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill-embeddings",
	Short: "Re-embed articles collected with a missing embedding vector",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := logger.Get()

		db, err := persistence.NewPostgresDB(cfg.Database.ConnectionString)
		if err != nil {
			log.Error("connect to store", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		embedder := embedding.NewClient(cfg.Embedding.CFAccountID, cfg.Embedding.CFAPIToken, cfg.Embedding.CFModel)
		runner := backfill.NewRunner(db.Articles(), embedder, cfg.Embedding.BatchSize)

		result, err := runner.Run(context.Background())
		if err != nil {
			log.Error("backfill run failed", "error", err, "embedded", result.Embedded, "failed", result.Failed)
			os.Exit(1)
		}
		log.Info("backfill run complete", "embedded", result.Embedded, "failed", result.Failed)
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}
