package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/metadata"
)

type ReconcileUsecase interface {
	// ProcessPaymentEvent is idempotent per transaction id.
	ProcessPaymentEvent(ctx context.Context, event domain.PaymentEvent) error
	// CloseRecurringDonation is idempotent per subscription id.
	CloseRecurringDonation(ctx context.Context, event domain.PaymentEvent) error
}

// MetadataKeys lists, per hint, the metadata keys tried in order.
type MetadataKeys struct {
	Campaign []string
	Account  []string
	Contact  []string
}

type DefaultReconcileUsecase struct {
	Primary  domain.CrmClient
	Router   domain.Destination
	Metadata *metadata.Resolver
	Keys     MetadataKeys
	Metrics  *metrics.ReconcilerMetrics
	Logger   *slog.Logger
}

func NewDefaultReconcileUsecase(
	primary domain.CrmClient,
	router domain.Destination,
	resolver *metadata.Resolver,
	keys MetadataKeys,
	m *metrics.ReconcilerMetrics,
	logger *slog.Logger,
) *DefaultReconcileUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultReconcileUsecase{
		Primary:  primary,
		Router:   router,
		Metadata: resolver,
		Keys:     keys,
		Metrics:  m,
		Logger:   logger,
	}
}

func (uc *DefaultReconcileUsecase) ProcessPaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	start := time.Now()
	return uc.settle(ctx, event, uc.dispatch(ctx, event), start)
}

func (uc *DefaultReconcileUsecase) CloseRecurringDonation(ctx context.Context, event domain.PaymentEvent) error {
	start := time.Now()
	err := uc.Router.CloseRecurringDonation(ctx, domain.NewDonationEvent(event))
	return uc.settle(ctx, event, err, start)
}

func (uc *DefaultReconcileUsecase) dispatch(ctx context.Context, event domain.PaymentEvent) error {
	switch event.Type {
	case domain.EventTransaction:
		return uc.processTransaction(ctx, event)
	case domain.EventRefund:
		return uc.Router.RefundDonation(ctx, domain.NewDonationEvent(event))
	case domain.EventSubscriptionCreated:
		return uc.processSubscriptionCreated(ctx, event)
	case domain.EventSubscriptionClosed:
		return uc.Router.CloseRecurringDonation(ctx, domain.NewDonationEvent(event))
	case domain.EventDeposit:
		return uc.Router.InsertDonationDeposit(ctx, domain.NewDonationEvent(event))
	}
	uc.Logger.Info("unsupported payment event type; skipping", "type", event.Type, "transaction_id", event.TransactionID)
	return nil
}

// settle logs and absorbs the failures that must not reach the caller. Configuration
// gaps abort only this event; a missing donor identity is a skip. Anything else
// (transient remote failures in particular) is returned for redelivery.
func (uc *DefaultReconcileUsecase) settle(ctx context.Context, event domain.PaymentEvent, err error, start time.Time) error {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConfigurationGap):
		outcome = "config_gap"
		uc.Logger.ErrorContext(ctx, "configuration gap; event not written",
			"type", event.Type, "transaction_id", event.TransactionID, "error", err)
		err = nil
	case errors.Is(err, domain.ErrMissingDonorIdentity):
		outcome = "skipped"
		uc.Logger.WarnContext(ctx, "event has no donor identity; skipping",
			"type", event.Type, "transaction_id", event.TransactionID, "customer_id", event.CustomerID)
		err = nil
	default:
		outcome = "failed"
		uc.Logger.ErrorContext(ctx, "failed to reconcile payment event",
			"type", event.Type, "transaction_id", event.TransactionID, "transient", domain.IsTransient(err), "error", err)
	}
	uc.Metrics.RecordEventProcessed(string(event.Type), outcome, time.Since(start))
	return err
}

func (uc *DefaultReconcileUsecase) processTransaction(ctx context.Context, event domain.PaymentEvent) error {
	ev, err := uc.prepare(ctx, event)
	if err != nil {
		return err
	}

	if event.IsRecurring() {
		rd, err := uc.Primary.GetRecurringDonationBySubscriptionID(ctx, event.SubscriptionID)
		if err != nil {
			return fmt.Errorf("lookup recurring donation: %w", err)
		}
		if rd != nil {
			ev = ev.WithRecurringDonation(rd.ID)
		} else if event.Success {
			id, err := uc.Router.InsertRecurringDonation(ctx, ev)
			if err != nil {
				return err
			}
			ev = ev.WithRecurringDonation(id)
		}
	}

	donationID, err := uc.Router.InsertDonation(ctx, ev)
	if err != nil {
		return err
	}
	uc.Logger.InfoContext(ctx, "payment event reconciled",
		"transaction_id", event.TransactionID, "donation_id", donationID, "success", event.Success)
	return nil
}

func (uc *DefaultReconcileUsecase) processSubscriptionCreated(ctx context.Context, event domain.PaymentEvent) error {
	ev, err := uc.prepare(ctx, event)
	if err != nil {
		return err
	}
	id, err := uc.Router.InsertRecurringDonation(ctx, ev)
	if err != nil {
		return err
	}
	uc.Logger.InfoContext(ctx, "subscription reconciled", "subscription_id", event.SubscriptionID, "recurring_donation_id", id)
	return nil
}

// prepare resolves metadata hints and the donor against the primary CRM.
func (uc *DefaultReconcileUsecase) prepare(ctx context.Context, event domain.PaymentEvent) (domain.DonationEvent, error) {
	ev := domain.NewDonationEvent(event)
	sources := event.MetadataSources

	if id, ok := uc.Metadata.Resolve(ctx, sources, uc.Keys.Campaign); ok {
		ev = ev.WithCampaign(id)
	}
	if id, ok := uc.Metadata.Resolve(ctx, sources, uc.Keys.Account); ok {
		ev = ev.WithAccount(id)
	}
	if id, ok := uc.Metadata.Resolve(ctx, sources, uc.Keys.Contact); ok {
		ev = ev.WithContact(id)
	}
	return uc.resolveDonor(ctx, ev)
}

func (uc *DefaultReconcileUsecase) resolveDonor(ctx context.Context, ev domain.DonationEvent) (domain.DonationEvent, error) {
	email := ev.Payment.Email
	if email == "" && ev.AccountID == "" {
		return ev, domain.ErrMissingDonorIdentity
	}
	if ev.ContactID != "" || email == "" {
		return ev, nil
	}

	contact, err := uc.Primary.GetContactByEmail(ctx, email)
	if err != nil {
		return ev, fmt.Errorf("lookup contact by email: %w", err)
	}
	if contact != nil {
		ev = ev.WithContact(contact.ID)
		if ev.AccountID == "" {
			ev = ev.WithAccount(contact.AccountID)
		}
		return ev, nil
	}

	if ev.AccountID == "" {
		accountID, err := uc.Router.InsertAccount(ctx, ev)
		if err != nil {
			return ev, err
		}
		ev = ev.WithAccount(accountID)
	}
	contactID, err := uc.Router.InsertContact(ctx, ev)
	if err != nil {
		return ev, err
	}
	uc.Logger.InfoContext(ctx, "donor created", "account_id", ev.AccountID, "contact_id", contactID)
	return ev.WithContact(contactID), nil
}
