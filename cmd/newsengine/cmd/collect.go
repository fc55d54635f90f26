package cmd

import (
	"context"
	"os"

	"newsengine/internal/collector"
	"newsengine/internal/embedding"
	"newsengine/internal/logger"
	"newsengine/internal/persistence"

	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one pass of the feed collector",
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
		coll := collector.New(db.Articles(), embedder, cfg.Feeds.URLs, cfg.Embedding.BatchSize)

		if err := coll.Run(context.Background()); err != nil {
			log.Error("collector run failed", "error", err)
			os.Exit(1)
		}
		log.Info("collector run complete")
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}
