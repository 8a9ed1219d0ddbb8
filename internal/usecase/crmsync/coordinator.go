package crmsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/metrics"
)

// Secondary is a CRM mirrored from the primary.
type Secondary struct {
	Name   string
	Client domain.CrmClient
}

// Coordinator copies primary CRM records into secondaries, matching existing
// counterparts by natural key: account name, contact email, donation transaction id
// and recurring donation subscription id. Pledges carry no transaction id and are
// matched by recurring donation and close date instead. Records without any natural
// key are skipped. Re-running a sync updates, never duplicates.
type Coordinator struct {
	Primary     domain.CrmClient
	Secondaries []Secondary
	Metrics     *metrics.ReconcilerMetrics
	Logger      *slog.Logger
}

func NewCoordinator(primary domain.CrmClient, secondaries []Secondary, m *metrics.ReconcilerMetrics, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		Primary:     primary,
		Secondaries: secondaries,
		Metrics:     m,
		Logger:      logger,
	}
}

// Sync mirrors one primary record into every secondary. A missing primary record is
// logged and ignored. Errors from individual secondaries are joined.
func (c *Coordinator) Sync(ctx context.Context, kind domain.EntityKind, primaryID string) error {
	if _, err := domain.ParseEntityKind(string(kind)); err != nil {
		return fmt.Errorf("%w: %q", err, kind)
	}

	var errs []error
	for _, s := range c.Secondaries {
		action, err := c.syncOne(ctx, kind, primaryID, s.Client)
		if err != nil {
			errs = append(errs, fmt.Errorf("sync %s %s to %s: %w", kind, primaryID, s.Name, err))
			c.Metrics.RecordSync(string(kind), "error")
			continue
		}
		c.Metrics.RecordSync(string(kind), action)
		if action == actionMissing {
			// the primary lookup is shared by all secondaries
			return nil
		}
		if action == actionSkipped {
			continue
		}
		c.Logger.Info("record synced", "kind", kind, "primary_id", primaryID, "secondary", s.Name, "action", action)
	}
	return errors.Join(errs...)
}

const (
	actionInsert  = "insert"
	actionUpdate  = "update"
	actionMissing = "missing"
	actionSkipped = "skipped"
)

func (c *Coordinator) syncOne(ctx context.Context, kind domain.EntityKind, primaryID string, secondary domain.CrmClient) (string, error) {
	switch kind {
	case domain.EntityAccount:
		return c.syncAccount(ctx, primaryID, secondary)
	case domain.EntityContact:
		return c.syncContact(ctx, primaryID, secondary)
	case domain.EntityDonation:
		return c.syncDonation(ctx, primaryID, secondary)
	case domain.EntityRecurringDonation:
		return c.syncRecurringDonation(ctx, primaryID, secondary)
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownEntityKind, kind)
}

func (c *Coordinator) missing(kind domain.EntityKind, primaryID string) (string, error) {
	c.Logger.Warn("primary record not found; nothing to sync", "kind", kind, "primary_id", primaryID)
	return actionMissing, nil
}

func (c *Coordinator) unkeyed(kind domain.EntityKind, primaryID, reason string) (string, error) {
	c.Logger.Warn("primary record has no natural key; not synced", "kind", kind, "primary_id", primaryID, "reason", reason)
	return actionSkipped, nil
}

func (c *Coordinator) syncAccount(ctx context.Context, primaryID string, secondary domain.CrmClient) (string, error) {
	account, err := c.Primary.GetAccountByID(ctx, primaryID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return c.missing(domain.EntityAccount, primaryID)
	}
	if account.Name == "" {
		return c.unkeyed(domain.EntityAccount, primaryID, "empty name")
	}

	match, err := secondary.GetAccountByName(ctx, account.Name)
	if err != nil {
		return "", err
	}
	if match != nil {
		account.ID = match.ID
		return actionUpdate, secondary.UpdateAccount(ctx, account)
	}
	_, err = secondary.InsertAccount(ctx, account)
	return actionInsert, err
}

func (c *Coordinator) syncContact(ctx context.Context, primaryID string, secondary domain.CrmClient) (string, error) {
	contact, err := c.Primary.GetContactByID(ctx, primaryID)
	if err != nil {
		return "", err
	}
	if contact == nil {
		return c.missing(domain.EntityContact, primaryID)
	}
	if contact.Email == "" {
		return c.unkeyed(domain.EntityContact, primaryID, "empty email")
	}
	if contact.AccountID, err = c.translateAccount(ctx, contact.AccountID, secondary); err != nil {
		return "", err
	}

	match, err := secondary.GetContactByEmail(ctx, contact.Email)
	if err != nil {
		return "", err
	}
	if match != nil {
		contact.ID = match.ID
		return actionUpdate, secondary.UpdateContact(ctx, contact)
	}
	_, err = secondary.InsertContact(ctx, contact)
	return actionInsert, err
}

func (c *Coordinator) syncDonation(ctx context.Context, primaryID string, secondary domain.CrmClient) (string, error) {
	donation, err := c.Primary.GetDonationByID(ctx, primaryID)
	if err != nil {
		return "", err
	}
	if donation == nil {
		return c.missing(domain.EntityDonation, primaryID)
	}
	if donation.AccountID, err = c.translateAccount(ctx, donation.AccountID, secondary); err != nil {
		return "", err
	}
	if donation.ContactID, err = c.translateContact(ctx, donation.ContactID, secondary); err != nil {
		return "", err
	}
	if donation.RecurringDonationID, err = c.translateRecurring(ctx, donation.RecurringDonationID, secondary); err != nil {
		return "", err
	}

	if donation.TransactionID == "" && donation.RecurringDonationID == "" {
		return c.unkeyed(domain.EntityDonation, primaryID, "no transaction id and no recurring donation in the secondary")
	}

	match, err := secondary.GetDonationByTransactionID(ctx, donation.TransactionID)
	if err != nil {
		return "", err
	}
	if match == nil && donation.RecurringDonationID != "" {
		if match, err = pledgeSlot(ctx, secondary, donation); err != nil {
			return "", err
		}
	}
	if match != nil {
		donation.ID = match.ID
		return actionUpdate, secondary.UpdateDonation(ctx, donation)
	}
	_, err = secondary.InsertDonation(ctx, donation)
	return actionInsert, err
}

func (c *Coordinator) syncRecurringDonation(ctx context.Context, primaryID string, secondary domain.CrmClient) (string, error) {
	rd, err := c.Primary.GetRecurringDonationByID(ctx, primaryID)
	if err != nil {
		return "", err
	}
	if rd == nil {
		return c.missing(domain.EntityRecurringDonation, primaryID)
	}
	if rd.SubscriptionID == "" {
		return c.unkeyed(domain.EntityRecurringDonation, primaryID, "empty subscription id")
	}
	if rd.AccountID, err = c.translateAccount(ctx, rd.AccountID, secondary); err != nil {
		return "", err
	}
	if rd.ContactID, err = c.translateContact(ctx, rd.ContactID, secondary); err != nil {
		return "", err
	}

	match, err := secondary.GetRecurringDonationBySubscriptionID(ctx, rd.SubscriptionID)
	if err != nil {
		return "", err
	}
	if match != nil {
		rd.ID = match.ID
		return actionUpdate, secondary.UpdateRecurringDonation(ctx, rd)
	}
	_, err = secondary.InsertRecurringDonation(ctx, rd)
	return actionInsert, err
}

// pledgeSlot finds the secondary's pledge for the same recurring donation and close
// date (UTC day). RecurringDonationID must already be translated.
func pledgeSlot(ctx context.Context, secondary domain.CrmClient, donation *domain.CrmDonation) (*domain.CrmDonation, error) {
	y, m, d := donation.CloseDate.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	pledge, err := secondary.GetNextPledgedDonation(ctx, donation.RecurringDonationID, day.AddDate(0, 0, 1))
	if err != nil || pledge == nil {
		return nil, err
	}
	if pledge.CloseDate.UTC().Before(day) {
		return nil, nil
	}
	return pledge, nil
}

// translate* map a primary reference to the secondary's id for the same natural key,
// or "" when the secondary has no counterpart yet.

func (c *Coordinator) translateAccount(ctx context.Context, primaryID string, secondary domain.CrmClient) (string, error) {
	if primaryID == "" {
		return "", nil
	}
	account, err := c.Primary.GetAccountByID(ctx, primaryID)
	if err != nil || account == nil {
		return "", err
	}
	match, err := secondary.GetAccountByName(ctx, account.Name)
	if err != nil || match == nil {
		return "", err
	}
	return match.ID, nil
}

func (c *Coordinator) translateContact(ctx context.Context, primaryID string, secondary domain.CrmClient) (string, error) {
	if primaryID == "" {
		return "", nil
	}
	contact, err := c.Primary.GetContactByID(ctx, primaryID)
	if err != nil || contact == nil || contact.Email == "" {
		return "", err
	}
	match, err := secondary.GetContactByEmail(ctx, contact.Email)
	if err != nil || match == nil {
		return "", err
	}
	return match.ID, nil
}

func (c *Coordinator) translateRecurring(ctx context.Context, primaryID string, secondary domain.CrmClient) (string, error) {
	if primaryID == "" {
		return "", nil
	}
	rd, err := c.Primary.GetRecurringDonationByID(ctx, primaryID)
	if err != nil || rd == nil {
		return "", err
	}
	match, err := secondary.GetRecurringDonationBySubscriptionID(ctx, rd.SubscriptionID)
	if err != nil || match == nil {
		return "", err
	}
	return match.ID, nil
}
