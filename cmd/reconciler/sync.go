package main

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-crm-reconciler/internal/app/setup"
	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <account|contact|donation|recurring_donation> <primary-id>",
		Short: "Mirror one primary crm record into every secondary crm",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseEntityKind(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}

			cfg := loadConfig()
			log := logger.New(cfg.LogConfig)
			deps, err := setup.InitializeDependencies(cfg, log)
			if err != nil {
				return err
			}
			defer deps.Close()
			uc, err := setup.InitializeUseCases(deps)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Workers.EventTimeout)
			defer cancel()
			if err := uc.Coordinator.Sync(ctx, kind, args[1]); err != nil {
				return err
			}
			fmt.Printf("synced %s %s\n", kind, args[1])
			return nil
		},
	}
}
