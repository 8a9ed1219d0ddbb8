package donation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/mapping"
)

// RecurringLifecycle opens recurring donations and closes them on cancellation.
// There is no re-open: a resumed subscription arrives with a new subscription id.
type RecurringLifecycle struct {
	Store    domain.RecurringDonationStore
	Strategy mapping.Strategy
	Logger   *slog.Logger
}

func NewRecurringLifecycle(store domain.RecurringDonationStore, strategy mapping.Strategy, logger *slog.Logger) *RecurringLifecycle {
	return &RecurringLifecycle{
		Store:    store,
		Strategy: strategy,
		Logger:   logger,
	}
}

// Open returns the recurring donation for the event's subscription, inserting it
// when the event is allowed to establish one: a successful transaction or a
// subscription created in trial. Otherwise "" is returned.
func (l *RecurringLifecycle) Open(ctx context.Context, ev domain.DonationEvent) (string, error) {
	p := ev.Payment
	if p.SubscriptionID == "" {
		return "", nil
	}

	existing, err := l.Store.GetRecurringDonationBySubscriptionID(ctx, p.SubscriptionID)
	if err != nil {
		return "", fmt.Errorf("lookup recurring donation: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	establishing := (p.Type == domain.EventTransaction && p.Success) || p.Type == domain.EventSubscriptionCreated
	if !establishing {
		l.Logger.Info("no recurring donation and event does not establish one",
			"subscription_id", p.SubscriptionID, "event_type", p.Type)
		return "", nil
	}

	rd, err := l.Strategy.RecurringDonation(ev)
	if err != nil {
		return "", err
	}
	id, err := l.Store.InsertRecurringDonation(ctx, rd)
	if err != nil {
		return "", fmt.Errorf("insert recurring donation: %w", err)
	}
	l.Logger.Info("recurring donation opened", "recurring_donation_id", id, "subscription_id", p.SubscriptionID)
	return id, nil
}

// Close marks the subscription's recurring donation closed. A missing record is a no-op.
func (l *RecurringLifecycle) Close(ctx context.Context, ev domain.DonationEvent) error {
	subscriptionID := ev.Payment.SubscriptionID
	rd, err := l.Store.GetRecurringDonationBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("lookup recurring donation: %w", err)
	}
	if rd == nil {
		l.Logger.Warn("unable to find recurring donation to close", "subscription_id", subscriptionID)
		return nil
	}

	stage, err := l.Strategy.RecurringStage(domain.RecurringClosed)
	if err != nil {
		return err
	}
	rd.Status = domain.RecurringClosed
	rd.Stage = stage
	l.Strategy.BeforeClose(rd)

	if err := l.Store.UpdateRecurringDonation(ctx, rd); err != nil {
		return fmt.Errorf("close recurring donation %s: %w", rd.ID, err)
	}
	return nil
}

// AdjustToPayment updates the recurring donation when a fulfilled pledge carries a
// different amount or campaign than the schedule.
func (l *RecurringLifecycle) AdjustToPayment(ctx context.Context, ev domain.DonationEvent) error {
	if ev.RecurringDonationID == "" {
		return nil
	}
	rd, err := l.Store.GetRecurringDonationByID(ctx, ev.RecurringDonationID)
	if err != nil {
		return fmt.Errorf("lookup recurring donation: %w", err)
	}
	if rd == nil {
		return nil
	}

	amountChanged := !rd.Amount.Equal(ev.Payment.Amount)
	campaignChanged := ev.CampaignID != "" && rd.CampaignID != ev.CampaignID
	if !amountChanged && !campaignChanged {
		return nil
	}

	rd.Amount = ev.Payment.Amount
	if campaignChanged {
		rd.CampaignID = ev.CampaignID
	}
	if err := l.Store.UpdateRecurringDonation(ctx, rd); err != nil {
		return fmt.Errorf("update recurring donation %s: %w", rd.ID, err)
	}
	l.Logger.Info("recurring donation adjusted to payment",
		"recurring_donation_id", rd.ID, "amount", rd.Amount.String(), "campaign_id", rd.CampaignID)
	return nil
}
