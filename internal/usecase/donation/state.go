package donation

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

type Action int

const (
	// ActionInsertNew creates a donation with the outcome of the event.
	ActionInsertNew Action = iota
	// ActionPostPledged fulfills the pending pledged slot in place.
	ActionPostPledged
	// ActionInsertFailedAttempt records a failed attempt next to an untouched pledge.
	ActionInsertFailedAttempt
	// ActionUpdateExisting re-applies a retried transaction to its earlier record.
	ActionUpdateExisting
	// ActionSkip leaves an already settled transaction alone.
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionInsertNew:
		return "insert_new"
	case ActionPostPledged:
		return "post_pledged"
	case ActionInsertFailedAttempt:
		return "insert_failed_attempt"
	case ActionUpdateExisting:
		return "update_existing"
	case ActionSkip:
		return "skip"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

type Decision struct {
	Action Action
	// Existing is the record the action applies to: the duplicate for Skip and
	// UpdateExisting, the pledge for PostPledged and InsertFailedAttempt.
	Existing *domain.CrmDonation
	Status   domain.DonationStatus
}

// StateResolver decides which donation record a transaction lands on.
type StateResolver struct {
	Donations domain.DonationStore
	Pledges   bool
	Now       func() time.Time
}

func NewStateResolver(donations domain.DonationStore, pledges bool) *StateResolver {
	return &StateResolver{
		Donations: donations,
		Pledges:   pledges,
		Now:       time.Now,
	}
}

func (r *StateResolver) Resolve(ctx context.Context, ev domain.DonationEvent) (Decision, error) {
	p := ev.Payment
	status := domain.DonationFailedAttempt
	if p.Success {
		status = domain.DonationPosted
	}

	if p.TransactionID != "" {
		existing, err := r.Donations.GetDonationByTransactionID(ctx, p.TransactionID)
		if err != nil {
			return Decision{}, fmt.Errorf("lookup donation by transaction: %w", err)
		}
		if existing != nil {
			if existing.Status == domain.DonationPosted || existing.Status == domain.DonationRefunded {
				return Decision{Action: ActionSkip, Existing: existing, Status: existing.Status}, nil
			}
			return Decision{Action: ActionUpdateExisting, Existing: existing, Status: status}, nil
		}
	}

	if r.Pledges && ev.RecurringDonationID != "" {
		pledge, err := r.Donations.GetNextPledgedDonation(ctx, ev.RecurringDonationID, PledgeCutoff(r.Now()))
		if err != nil {
			return Decision{}, fmt.Errorf("lookup pledged donation: %w", err)
		}
		if pledge != nil {
			if p.Success {
				return Decision{Action: ActionPostPledged, Existing: pledge, Status: status}, nil
			}
			return Decision{Action: ActionInsertFailedAttempt, Existing: pledge, Status: status}, nil
		}
	}

	return Decision{Action: ActionInsertNew, Status: status}, nil
}

// PledgeCutoff is the exclusive upper bound on a pledge's close date: the end of
// tomorrow in UTC. The extra day absorbs org timezones ahead of UTC.
func PledgeCutoff(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 2)
}
