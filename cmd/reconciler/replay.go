package main

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-crm-reconciler/internal/app/setup"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

func replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <webhook-log-id>",
		Short: "Process a logged webhook again, e.g. after a handle_failed status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			log := logger.New(cfg.LogConfig)
			deps, err := setup.InitializeDependencies(cfg, log)
			if err != nil {
				return err
			}
			defer deps.Close()
			if deps.WebhookLogger == nil {
				return fmt.Errorf("replay needs reconciler_db.dsn")
			}
			uc, err := setup.InitializeUseCases(deps)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Workers.EventTimeout)
			defer cancel()
			entry, err := deps.WebhookLogger.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("webhook log %s: %w", args[0], err)
			}
			if err := uc.Processor.Handle(ctx, entry.Data); err != nil {
				return err
			}
			if err := deps.WebhookLogger.LogHandled(ctx, entry.ID); err != nil {
				return err
			}
			fmt.Printf("replayed %s (%s)\n", entry.EventID, entry.EventType)
			return nil
		},
	}
}
