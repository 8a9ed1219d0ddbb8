package destination

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/metrics"
)

// AggregateRouter writes to the primary destination and then, in order, to every
// secondary. The primary's result is canonical. Secondary failures are logged and,
// where the primary produced an id, queued for a sync repair; they never fail the call.
type AggregateRouter struct {
	Primary     domain.Destination
	Secondaries []domain.Destination
	Repairs     domain.SyncScheduler
	Metrics     *metrics.ReconcilerMetrics
	Logger      *slog.Logger
}

func NewAggregateRouter(
	primary domain.Destination,
	secondaries []domain.Destination,
	repairs domain.SyncScheduler,
	m *metrics.ReconcilerMetrics,
	logger *slog.Logger,
) *AggregateRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateRouter{
		Primary:     primary,
		Secondaries: secondaries,
		Repairs:     repairs,
		Metrics:     m,
		Logger:      logger,
	}
}

func (r *AggregateRouter) Name() string {
	return "aggregate"
}

func (r *AggregateRouter) InsertAccount(ctx context.Context, ev domain.DonationEvent) (string, error) {
	return r.withID(ctx, "insert_account", domain.EntityAccount, ev, func(d domain.Destination) (string, error) {
		return d.InsertAccount(ctx, ev)
	})
}

func (r *AggregateRouter) InsertContact(ctx context.Context, ev domain.DonationEvent) (string, error) {
	return r.withID(ctx, "insert_contact", domain.EntityContact, ev, func(d domain.Destination) (string, error) {
		return d.InsertContact(ctx, ev)
	})
}

func (r *AggregateRouter) InsertDonation(ctx context.Context, ev domain.DonationEvent) (string, error) {
	return r.withID(ctx, "insert_donation", domain.EntityDonation, ev, func(d domain.Destination) (string, error) {
		return d.InsertDonation(ctx, ev)
	})
}

func (r *AggregateRouter) InsertRecurringDonation(ctx context.Context, ev domain.DonationEvent) (string, error) {
	return r.withID(ctx, "insert_recurring_donation", domain.EntityRecurringDonation, ev, func(d domain.Destination) (string, error) {
		return d.InsertRecurringDonation(ctx, ev)
	})
}

func (r *AggregateRouter) RefundDonation(ctx context.Context, ev domain.DonationEvent) error {
	return r.void(ctx, "refund_donation", ev, func(d domain.Destination) error {
		return d.RefundDonation(ctx, ev)
	})
}

func (r *AggregateRouter) InsertDonationDeposit(ctx context.Context, ev domain.DonationEvent) error {
	return r.void(ctx, "insert_donation_deposit", ev, func(d domain.Destination) error {
		return d.InsertDonationDeposit(ctx, ev)
	})
}

func (r *AggregateRouter) CloseRecurringDonation(ctx context.Context, ev domain.DonationEvent) error {
	return r.void(ctx, "close_recurring_donation", ev, func(d domain.Destination) error {
		return d.CloseRecurringDonation(ctx, ev)
	})
}

func (r *AggregateRouter) withID(
	ctx context.Context,
	op string,
	kind domain.EntityKind,
	ev domain.DonationEvent,
	call func(domain.Destination) (string, error),
) (string, error) {
	id, err := call(r.Primary)
	if err != nil {
		return "", err
	}

	for _, secondary := range r.Secondaries {
		if _, err := call(secondary); err != nil {
			r.secondaryFailed(ctx, secondary, op, ev, err)
			r.scheduleRepair(ctx, kind, id)
		}
	}
	return id, nil
}

func (r *AggregateRouter) void(ctx context.Context, op string, ev domain.DonationEvent, call func(domain.Destination) error) error {
	if err := call(r.Primary); err != nil {
		return err
	}
	for _, secondary := range r.Secondaries {
		if err := call(secondary); err != nil {
			r.secondaryFailed(ctx, secondary, op, ev, err)
		}
	}
	return nil
}

func (r *AggregateRouter) secondaryFailed(ctx context.Context, d domain.Destination, op string, ev domain.DonationEvent, err error) {
	r.Metrics.RecordSecondaryFailure(d.Name(), op)
	r.Logger.ErrorContext(ctx, "secondary destination failed",
		"destination", d.Name(),
		"operation", op,
		"transaction_id", ev.Payment.TransactionID,
		"subscription_id", ev.Payment.SubscriptionID,
		"error", err,
	)
}

func (r *AggregateRouter) scheduleRepair(ctx context.Context, kind domain.EntityKind, primaryID string) {
	if r.Repairs == nil || primaryID == "" {
		return
	}
	if err := r.Repairs.ScheduleSync(ctx, kind, primaryID); err != nil {
		r.Logger.ErrorContext(ctx, "failed to schedule sync repair", "kind", kind, "primary_id", primaryID, "error", err)
	}
}
