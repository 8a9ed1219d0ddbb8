package setup

import (
	"fmt"

	"github.com/LavaJover/shvark-crm-reconciler/internal/app/background"
	"github.com/LavaJover/shvark-crm-reconciler/internal/config"
	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/stripe"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/crmsync"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/destination"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/donation"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/mapping"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/metadata"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/reconcile"
)

type UseCases struct {
	Strategies  *mapping.Registry
	Router      *destination.AggregateRouter
	Coordinator *crmsync.Coordinator
	Reconcile   reconcile.ReconcileUsecase
	Pool        *background.Pool
	Processor   *background.WebhookProcessor
	Queue       domain.EventQueue
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cfg := deps.Config
	log := deps.Logger

	strategies := mapping.NewRegistry()
	RegisterOrganizationHooks(strategies)

	var primary domain.Destination
	var secondaries []domain.Destination
	var syncTargets []crmsync.Secondary
	for _, crm := range cfg.CRMs {
		strategy, err := strategies.Build(cfg.OrganizationID, crm.Name, strategyKind(crm), mappingSettings(crm.Mapping))
		if err != nil {
			return nil, err
		}
		client, ok := deps.Clients.Get(crm.Name)
		if !ok {
			return nil, &domain.ConfigurationGapError{Setting: "crms." + crm.Name + " client"}
		}
		dest := donation.NewCrmDestination(crm.Name, client, strategy, cfg.DefaultCampaignID, deps.Metrics, log)
		if crm.Primary {
			primary = dest
			continue
		}
		secondaries = append(secondaries, dest)
		syncTargets = append(syncTargets, crmsync.Secondary{Name: crm.Name, Client: client})
	}
	if primary == nil {
		return nil, fmt.Errorf("no primary crm configured")
	}

	coordinator := crmsync.NewCoordinator(deps.Clients.Primary(), syncTargets, deps.Metrics, log)
	pool := background.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize, cfg.Workers.EventTimeout, deps.Metrics, log)

	var repairs domain.SyncScheduler
	if deps.Publisher != nil {
		repairs = kafka.NewSyncRequestPublisher(deps.Publisher, cfg.KafkaService.RepairsTopic)
	} else {
		repairs = &background.DirectScheduler{Pool: pool, Sync: coordinator.Sync}
	}
	router := destination.NewAggregateRouter(primary, secondaries, repairs, deps.Metrics, log)

	resolver := metadata.NewResolver(deps.Gateway, deps.Metrics, log)
	reconcileUsecase := reconcile.NewDefaultReconcileUsecase(
		deps.Clients.Primary(),
		router,
		resolver,
		reconcile.MetadataKeys{
			Campaign: cfg.MetadataKeys.Campaign,
			Account:  cfg.MetadataKeys.Account,
			Contact:  cfg.MetadataKeys.Contact,
		},
		deps.Metrics,
		log,
	)

	normalizer := stripe.NewNormalizer(deps.Gateway, log)
	processor := background.NewWebhookProcessor(normalizer, reconcileUsecase, deps.WebhookLogger, deps.Metrics, log)

	var queue domain.EventQueue
	if deps.Publisher != nil {
		queue = kafka.NewEventPublisher(deps.Publisher, cfg.KafkaService.EventsTopic)
	} else {
		queue = background.NewPoolQueue(pool, processor.Handle)
	}

	return &UseCases{
		Strategies:  strategies,
		Router:      router,
		Coordinator: coordinator,
		Reconcile:   reconcileUsecase,
		Pool:        pool,
		Processor:   processor,
		Queue:       queue,
	}, nil
}

func strategyKind(crm config.CRMConfig) string {
	if crm.Mapping.Strategy == "" {
		return mapping.KindSalesforce
	}
	return crm.Mapping.Strategy
}

func mappingSettings(m config.MappingConfig) mapping.Settings {
	return mapping.Settings{
		Pipeline: m.Pipeline,
		Stages: mapping.Stages{
			Pledged:         m.Stages.Pledged,
			Posted:          m.Stages.Posted,
			FailedAttempt:   m.Stages.FailedAttempt,
			Refunded:        m.Stages.Refunded,
			RecurringOpen:   m.Stages.RecurringOpen,
			RecurringClosed: m.Stages.RecurringClosed,
		},
		Templates: mapping.Templates{
			Account:           m.Templates.Account,
			Donation:          m.Templates.Donation,
			RecurringDonation: m.Templates.RecurringDonation,
		},
	}
}
