package donation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/mapping"
)

// CrmDestination applies donation events to a single CRM.
type CrmDestination struct {
	CrmName   string
	Client    domain.CrmClient
	Strategy  mapping.Strategy
	State     *StateResolver
	Campaigns *CampaignResolver
	Recurring *RecurringLifecycle
	Metrics   *metrics.ReconcilerMetrics
	Logger    *slog.Logger
}

func NewCrmDestination(
	name string,
	client domain.CrmClient,
	strategy mapping.Strategy,
	defaultCampaignID string,
	m *metrics.ReconcilerMetrics,
	logger *slog.Logger,
) *CrmDestination {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("crm", name)

	return &CrmDestination{
		CrmName:   name,
		Client:    client,
		Strategy:  strategy,
		State:     NewStateResolver(client, strategy.SupportsPledges()),
		Campaigns: NewCampaignResolver(client, defaultCampaignID, logger),
		Recurring: NewRecurringLifecycle(client, strategy, logger),
		Metrics:   m,
		Logger:    logger,
	}
}

func (d *CrmDestination) Name() string {
	return d.CrmName
}

// InsertAccount reuses an existing account with the same name. InsertContact does the
// same by email.
func (d *CrmDestination) InsertAccount(ctx context.Context, ev domain.DonationEvent) (string, error) {
	account, err := d.Strategy.Account(ev)
	if err != nil {
		return "", err
	}
	account.ID = ""

	existing, err := d.Client.GetAccountByName(ctx, account.Name)
	if err != nil {
		return "", fmt.Errorf("lookup account by name: %w", err)
	}
	if existing != nil {
		d.Logger.Debug("account exists; reusing", "account_id", existing.ID)
		return existing.ID, nil
	}

	id, err := d.Client.InsertAccount(ctx, account)
	d.Metrics.RecordDestinationWrite(d.CrmName, "insert_account", err)
	if err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

func (d *CrmDestination) InsertContact(ctx context.Context, ev domain.DonationEvent) (string, error) {
	ev, err := d.localizeAccount(ctx, ev, "")
	if err != nil {
		return "", err
	}
	contact, err := d.Strategy.Contact(ev)
	if err != nil {
		return "", err
	}
	contact.ID = ""

	existing, err := d.Client.GetContactByEmail(ctx, contact.Email)
	if err != nil {
		return "", fmt.Errorf("lookup contact by email: %w", err)
	}
	if existing != nil {
		d.Logger.Debug("contact exists; reusing", "contact_id", existing.ID)
		return existing.ID, nil
	}

	id, err := d.Client.InsertContact(ctx, contact)
	d.Metrics.RecordDestinationWrite(d.CrmName, "insert_contact", err)
	if err != nil {
		return "", fmt.Errorf("insert contact: %w", err)
	}
	return id, nil
}

func (d *CrmDestination) InsertDonation(ctx context.Context, ev domain.DonationEvent) (string, error) {
	ev, err := d.localize(ctx, ev)
	if err != nil {
		return "", err
	}
	campaignID, err := d.Campaigns.Resolve(ctx, ev.CampaignID)
	if err != nil {
		return "", err
	}
	ev = ev.WithCampaign(campaignID)

	decision, err := d.State.Resolve(ctx, ev)
	if err != nil {
		return "", err
	}
	d.Metrics.RecordDonationTransition(d.CrmName, decision.Action.String())

	id, err := d.apply(ctx, ev, decision)
	d.Metrics.RecordDestinationWrite(d.CrmName, "insert_donation", err)
	return id, err
}

func (d *CrmDestination) apply(ctx context.Context, ev domain.DonationEvent, decision Decision) (string, error) {
	txID := ev.Payment.TransactionID

	switch decision.Action {
	case ActionSkip:
		d.Logger.Info("donation already settled; skipping",
			"transaction_id", txID, "donation_id", decision.Existing.ID, "status", decision.Existing.Status)
		return decision.Existing.ID, nil

	case ActionUpdateExisting:
		existing := decision.Existing
		if err := d.Strategy.ApplyPayment(existing, ev, decision.Status); err != nil {
			return "", err
		}
		if err := d.Client.UpdateDonation(ctx, existing); err != nil {
			return "", fmt.Errorf("update donation %s: %w", existing.ID, err)
		}
		d.Logger.Info("donation re-attempt applied", "transaction_id", txID, "donation_id", existing.ID, "status", decision.Status)
		return existing.ID, nil

	case ActionPostPledged:
		pledge := decision.Existing
		if err := d.Recurring.AdjustToPayment(ctx, ev); err != nil {
			return "", err
		}
		if err := d.Strategy.ApplyPayment(pledge, ev, domain.DonationPosted); err != nil {
			return "", err
		}
		if err := d.Client.UpdateDonation(ctx, pledge); err != nil {
			return "", fmt.Errorf("post pledged donation %s: %w", pledge.ID, err)
		}
		d.Logger.Info("pledged donation posted", "transaction_id", txID, "donation_id", pledge.ID)
		return pledge.ID, nil

	case ActionInsertFailedAttempt:
		pledge := decision.Existing
		donation, err := d.Strategy.Donation(ev, domain.DonationFailedAttempt)
		if err != nil {
			return "", err
		}
		if donation.AccountID == "" {
			donation.AccountID = pledge.AccountID
		}
		if donation.ContactID == "" {
			donation.ContactID = pledge.ContactID
		}
		if donation.CampaignID == "" {
			donation.CampaignID = pledge.CampaignID
		}
		id, err := d.Client.InsertDonation(ctx, donation)
		if err != nil {
			return "", fmt.Errorf("insert failed attempt: %w", err)
		}
		d.Logger.Info("failed attempt recorded beside pledge", "transaction_id", txID, "donation_id", id, "pledge_id", pledge.ID)
		return id, nil

	default:
		donation, err := d.Strategy.Donation(ev, decision.Status)
		if err != nil {
			return "", err
		}
		id, err := d.Client.InsertDonation(ctx, donation)
		if err != nil {
			return "", fmt.Errorf("insert donation: %w", err)
		}
		d.Logger.Info("donation inserted", "transaction_id", txID, "donation_id", id, "status", decision.Status)
		return id, nil
	}
}

func (d *CrmDestination) RefundDonation(ctx context.Context, ev domain.DonationEvent) error {
	txID := ev.Payment.TransactionID
	donation, err := d.Client.GetDonationByTransactionID(ctx, txID)
	if err != nil {
		return fmt.Errorf("lookup donation by transaction: %w", err)
	}
	if donation == nil {
		d.Logger.Warn("unable to find donation to refund", "transaction_id", txID)
		return nil
	}

	stage, err := d.Strategy.DonationStage(domain.DonationRefunded)
	if err != nil {
		return err
	}
	donation.Status = domain.DonationRefunded
	donation.Stage = stage

	err = d.Client.UpdateDonation(ctx, donation)
	d.Metrics.RecordDestinationWrite(d.CrmName, "refund_donation", err)
	if err != nil {
		return fmt.Errorf("refund donation %s: %w", donation.ID, err)
	}
	d.Logger.Info("donation refunded", "transaction_id", txID, "donation_id", donation.ID)
	return nil
}

func (d *CrmDestination) InsertDonationDeposit(ctx context.Context, ev domain.DonationEvent) error {
	p := ev.Payment
	donation, err := d.Client.GetDonationByTransactionID(ctx, p.TransactionID)
	if err != nil {
		return fmt.Errorf("lookup donation by transaction: %w", err)
	}
	if donation == nil {
		d.Logger.Warn("unable to find donation for deposit", "transaction_id", p.TransactionID, "deposit_id", p.DepositID)
		return nil
	}
	if donation.DepositID == p.DepositID {
		return nil
	}

	depositDate := p.DepositDate
	if depositDate.IsZero() {
		depositDate = time.Now().UTC()
	}
	donation.DepositID = p.DepositID
	donation.DepositDate = &depositDate
	donation.DepositNetAmount.Decimal = p.DepositNetAmount
	donation.DepositNetAmount.Valid = true

	err = d.Client.UpdateDonation(ctx, donation)
	d.Metrics.RecordDestinationWrite(d.CrmName, "insert_donation_deposit", err)
	if err != nil {
		return fmt.Errorf("deposit donation %s: %w", donation.ID, err)
	}
	return nil
}

func (d *CrmDestination) InsertRecurringDonation(ctx context.Context, ev domain.DonationEvent) (string, error) {
	ev, err := d.localize(ctx, ev)
	if err != nil {
		return "", err
	}
	campaignID, err := d.Campaigns.Resolve(ctx, ev.CampaignID)
	if err != nil {
		return "", err
	}

	id, err := d.Recurring.Open(ctx, ev.WithCampaign(campaignID))
	d.Metrics.RecordDestinationWrite(d.CrmName, "insert_recurring_donation", err)
	return id, err
}

func (d *CrmDestination) CloseRecurringDonation(ctx context.Context, ev domain.DonationEvent) error {
	err := d.Recurring.Close(ctx, ev)
	d.Metrics.RecordDestinationWrite(d.CrmName, "close_recurring_donation", err)
	return err
}

// localize swaps ids resolved against another CRM for this CRM's own ids. Ids that
// exist here are kept; the rest are re-derived from natural keys.
func (d *CrmDestination) localize(ctx context.Context, ev domain.DonationEvent) (domain.DonationEvent, error) {
	p := ev.Payment
	contactAccountID := ""

	if ev.ContactID != "" {
		c, err := d.Client.GetContactByID(ctx, ev.ContactID)
		if err != nil {
			return ev, fmt.Errorf("lookup contact: %w", err)
		}
		if c == nil {
			ev = ev.WithContact("")
		} else {
			contactAccountID = c.AccountID
		}
	}
	if ev.ContactID == "" && p.Email != "" {
		c, err := d.Client.GetContactByEmail(ctx, p.Email)
		if err != nil {
			return ev, fmt.Errorf("lookup contact by email: %w", err)
		}
		if c != nil {
			ev = ev.WithContact(c.ID)
			contactAccountID = c.AccountID
		}
	}

	ev, err := d.localizeAccount(ctx, ev, contactAccountID)
	if err != nil {
		return ev, err
	}

	if p.SubscriptionID != "" {
		rd, err := d.Client.GetRecurringDonationBySubscriptionID(ctx, p.SubscriptionID)
		if err != nil {
			return ev, fmt.Errorf("lookup recurring donation: %w", err)
		}
		if rd != nil {
			ev = ev.WithRecurringDonation(rd.ID)
		} else {
			ev = ev.WithRecurringDonation("")
		}
	}
	return ev, nil
}

func (d *CrmDestination) localizeAccount(ctx context.Context, ev domain.DonationEvent, contactAccountID string) (domain.DonationEvent, error) {
	if ev.AccountID != "" {
		a, err := d.Client.GetAccountByID(ctx, ev.AccountID)
		if err != nil {
			return ev, fmt.Errorf("lookup account: %w", err)
		}
		if a != nil {
			return ev, nil
		}
		ev = ev.WithAccount("")
	}
	if contactAccountID != "" {
		return ev.WithAccount(contactAccountID), nil
	}

	account, err := d.Strategy.Account(ev)
	if err != nil || account.Name == "" {
		return ev, err
	}
	a, err := d.Client.GetAccountByName(ctx, account.Name)
	if err != nil {
		return ev, fmt.Errorf("lookup account by name: %w", err)
	}
	if a != nil {
		ev = ev.WithAccount(a.ID)
	}
	return ev, nil
}
