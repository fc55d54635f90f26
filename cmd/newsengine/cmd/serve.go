package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newsengine/internal/engine"
	"newsengine/internal/logger"
	"newsengine/internal/persistence"
	"newsengine/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ranking engine's JSON HTTP API",
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
		srv := server.New(eng, cfg.Server)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("server shutdown", "error", err)
			}
		}()

		log.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			fmt.Fprintln(os.Stderr, "newsengine: server error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
