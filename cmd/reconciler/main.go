package main

import (
	"fmt"
	"log"
	"os"

	"github.com/LavaJover/shvark-crm-reconciler/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	Version    = "dev"
	configPath string
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}

	rootCmd := &cobra.Command{
		Use:           "reconciler",
		Short:         "Reconciles payment gateway events into donation CRMs",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (defaults to $RECONCILER_CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(replayCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.ReconcilerConfig {
	if configPath == "" {
		return config.MustLoad()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}
