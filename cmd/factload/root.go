package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/pricefacts/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "factload",
	Short: "Hospital price transparency canonicalizer",
	Long: "Resolves per-hospital price transparency files through the adapter registry,\n" +
		"validates procedure codes against the reference vocabulary, and emits\n" +
		"canonical long-form price facts.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
