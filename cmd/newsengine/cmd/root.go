// Package cmd implements the newsengine CLI: serve the ranking API, run the
// feed collector, backfill missing embeddings, and snapshot user health
// profiles, all on top of internal/config and internal/persistence.
package cmd

import (
	"fmt"
	"os"

	"newsengine/internal/config"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "newsengine",
	Short: "newsengine serves and maintains the personalized news recommender",
	Long: `newsengine is the personalized news recommender engine: a ranking
service over a shared, embedded article corpus, plus the background jobs
(feed collection, embedding backfill, health snapshotting) that keep it fed.`,
}

// Execute adds all child commands to the root command and runs it. Called by
// main.main once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.newsengine.yaml)")
}

// loadConfig loads configuration honoring the --config flag, exiting the
// process on failure the same way cobra.CheckErr does.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "newsengine: failed to load configuration:", err)
		os.Exit(1)
	}
	return cfg
}
