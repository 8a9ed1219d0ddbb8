package main

import (
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var down, auto bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or roll back one) database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger.New(cfg.LogConfig)
			db := postgres.MustInitDB(cfg)
			switch {
			case down:
				return migrate.RollbackLast(db, cfg.ReconcilerDB.MigrationsPath)
			case auto:
				return postgres.AutoMigrate(db)
			}
			return migrate.RunMigrations(db, cfg.ReconcilerDB.MigrationsPath)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	cmd.Flags().BoolVar(&auto, "auto", false, "create tables from the gorm models instead of the sql files (local use)")
	return cmd
}
