package background

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/stripe"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/reconcile"
	stripeapi "github.com/stripe/stripe-go/v74"
)

type EventNormalizer interface {
	Normalize(ctx context.Context, event *stripeapi.Event) ([]domain.PaymentEvent, error)
}

// WebhookProcessor handles one queued Stripe notification end to end: webhook log,
// normalization, and reconciliation of every payment event it carries.
type WebhookProcessor struct {
	Normalizer EventNormalizer
	Reconciler reconcile.ReconcileUsecase
	Webhooks   logger.WebhookLogger
	Metrics    *metrics.ReconcilerMetrics
	Logger     *slog.Logger
}

func NewWebhookProcessor(
	normalizer EventNormalizer,
	reconciler reconcile.ReconcileUsecase,
	webhooks logger.WebhookLogger,
	m *metrics.ReconcilerMetrics,
	log *slog.Logger,
) *WebhookProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookProcessor{
		Normalizer: normalizer,
		Reconciler: reconciler,
		Webhooks:   webhooks,
		Metrics:    m,
		Logger:     log,
	}
}

func (p *WebhookProcessor) Handle(ctx context.Context, payload []byte) error {
	event, err := stripe.ParseEvent(payload)
	if err != nil {
		// a payload that cannot be decoded will not decode on retry either
		p.Logger.Error("dropping undecodable webhook payload", "error", err)
		return nil
	}
	p.Metrics.RecordEventReceived(stripe.GatewayName, string(event.Type))
	log := p.Logger.With("event_id", event.ID, "event_type", string(event.Type))

	logID := p.logReceived(ctx, event, payload)

	if err := p.process(ctx, event); err != nil {
		log.Error("webhook handling failed", "error", err)
		p.markFailed(ctx, logID, err)
		return err
	}
	p.markHandled(ctx, logID)
	return nil
}

func (p *WebhookProcessor) process(ctx context.Context, event *stripeapi.Event) error {
	events, err := p.Normalizer.Normalize(ctx, event)
	if err != nil {
		return err
	}

	var errs []error
	for _, ev := range events {
		var err error
		if ev.Type == domain.EventSubscriptionClosed {
			err = p.Reconciler.CloseRecurringDonation(ctx, ev)
		} else {
			err = p.Reconciler.ProcessPaymentEvent(ctx, ev)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *WebhookProcessor) logReceived(ctx context.Context, event *stripeapi.Event, payload []byte) string {
	if p.Webhooks == nil {
		return ""
	}
	id, err := p.Webhooks.LogReceived(ctx, logger.WebhookReceived{
		Gateway:    stripe.GatewayName,
		EventID:    event.ID,
		EventType:  string(event.Type),
		RoutingKey: stripe.RoutingKey(event),
		Payload:    payload,
	})
	if err != nil {
		p.Logger.Warn("failed to log received webhook", "event_id", event.ID, "error", err)
		return ""
	}
	return id
}

func (p *WebhookProcessor) markHandled(ctx context.Context, logID string) {
	if p.Webhooks == nil || logID == "" {
		return
	}
	if err := p.Webhooks.LogHandled(ctx, logID); err != nil {
		p.Logger.Warn("failed to mark webhook handled", "log_id", logID, "error", err)
	}
}

func (p *WebhookProcessor) markFailed(ctx context.Context, logID string, cause error) {
	if p.Webhooks == nil || logID == "" {
		return
	}
	if err := p.Webhooks.LogHandleFailed(ctx, logID, cause); err != nil {
		p.Logger.Warn("failed to mark webhook failed", "log_id", logID, "error", err)
	}
}
