package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/app/background"
	"github.com/LavaJover/shvark-crm-reconciler/internal/app/setup"
	"github.com/LavaJover/shvark-crm-reconciler/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-crm-reconciler/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/stripe"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func serveCmd() *cobra.Command {
	var runMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook intake, workers, consumers and health endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(runMigrations)
		},
	}
	cmd.Flags().BoolVar(&runMigrations, "migrate", false, "apply database migrations before serving")
	return cmd
}

func runServe(runMigrations bool) error {
	cfg := loadConfig()
	log := logger.New(cfg.LogConfig)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	if runMigrations && deps.DB != nil {
		if err := migrate.RunMigrations(deps.DB, cfg.ReconcilerDB.MigrationsPath); err != nil {
			return err
		}
	}

	uc, err := setup.InitializeUseCases(deps)
	if err != nil {
		return err
	}
	uc.Pool.Start()

	router := handlers.NewRouter(
		handlers.NewWebhookHandler(uc.Queue, stripe.Verifier{Secret: cfg.Stripe.WebhookSecret}, log),
		handlers.NewSyncHandler(uc.Coordinator, log),
		uc.Pool.Running,
		deps.MetricsRegistry,
	)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthReporter := grpcapi.NewHealthReporter(uc.Pool.Running, log)
	healthReporter.Register(grpcServer)
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	tasks := background.NewBackgroundTasks(cfg.KafkaService, cfg.Workers.Count, deps.Subscriber, uc.Pool, uc.Processor, uc.Coordinator, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("grpc server started", "addr", lis.Addr().String())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		healthReporter.Watch(gctx, 5*time.Second)
		return nil
	})
	g.Go(func() error {
		return tasks.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Workers.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}
		grpcServer.GracefulStop()
		return uc.Pool.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
