package setup

import (
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-crm-reconciler/internal/config"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/stripe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config          *config.ReconcilerConfig
	Logger          *slog.Logger
	DB              *gorm.DB
	MetricsRegistry *prometheus.Registry
	Metrics         *metrics.ReconcilerMetrics
	Clients         *ClientRegistry
	Gateway         *stripe.Gateway
	Publisher       *kafka.DefaultKafkaPublisher
	Subscriber      *kafka.DefaultKafkaSubscriber
	WebhookLogger   logger.WebhookLogger
}

func InitializeDependencies(cfg *config.ReconcilerConfig, log *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: log}

	if cfg.ReconcilerDB.Dsn != "" {
		deps.DB = postgres.MustInitDB(cfg)
		deps.WebhookLogger = logger.NewPGWebhookLogger(deps.DB)
	} else {
		log.Warn("reconciler_db.dsn is empty; webhook log disabled")
	}

	deps.MetricsRegistry = prometheus.NewRegistry()
	deps.MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.NewReconcilerMetrics(deps.MetricsRegistry)

	clients, err := NewClientRegistry(cfg.CRMs, deps.DB)
	if err != nil {
		return nil, fmt.Errorf("crm clients: %w", err)
	}
	deps.Clients = clients

	if cfg.Stripe.APIKey == "" {
		log.Warn("stripe.api_key is empty; gateway lookups will fail")
	}
	deps.Gateway = stripe.NewGateway(cfg.Stripe.APIKey, cfg.Stripe.Timeout, log)

	if cfg.KafkaService.Enabled() {
		deps.Publisher = kafka.NewDefaultKafkaPublisher(cfg.KafkaService.Brokers)
		deps.Subscriber = kafka.NewDefaultKafkaSubscriber(cfg.KafkaService.Brokers, log)
	}

	return deps, nil
}

// Close releases connections opened by InitializeDependencies.
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Warn("failed to close kafka publisher", "error", err)
		}
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
