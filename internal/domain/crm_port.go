package domain

import (
	"context"
	"time"
)

// CRM ports. Lookups return (nil, nil) when no row matches; a non-nil error always
// means the CRM could not answer (connection, auth, timeout).

type AccountStore interface {
	GetAccountByID(ctx context.Context, id string) (*CrmAccount, error)
	GetAccountByName(ctx context.Context, name string) (*CrmAccount, error)
	InsertAccount(ctx context.Context, account *CrmAccount) (string, error)
	UpdateAccount(ctx context.Context, account *CrmAccount) error
}

type ContactStore interface {
	GetContactByID(ctx context.Context, id string) (*CrmContact, error)
	GetContactByEmail(ctx context.Context, email string) (*CrmContact, error)
	InsertContact(ctx context.Context, contact *CrmContact) (string, error)
	UpdateContact(ctx context.Context, contact *CrmContact) error
}

type DonationStore interface {
	GetDonationByID(ctx context.Context, id string) (*CrmDonation, error)
	GetDonationByTransactionID(ctx context.Context, transactionID string) (*CrmDonation, error)
	// GetNextPledgedDonation returns the latest pledged donation of the recurring
	// donation whose close date is before dueBefore.
	GetNextPledgedDonation(ctx context.Context, recurringDonationID string, dueBefore time.Time) (*CrmDonation, error)
	InsertDonation(ctx context.Context, donation *CrmDonation) (string, error)
	UpdateDonation(ctx context.Context, donation *CrmDonation) error
}

type RecurringDonationStore interface {
	GetRecurringDonationByID(ctx context.Context, id string) (*CrmRecurringDonation, error)
	GetRecurringDonationBySubscriptionID(ctx context.Context, subscriptionID string) (*CrmRecurringDonation, error)
	InsertRecurringDonation(ctx context.Context, rd *CrmRecurringDonation) (string, error)
	UpdateRecurringDonation(ctx context.Context, rd *CrmRecurringDonation) error
}

type CampaignLookup interface {
	GetCampaignByID(ctx context.Context, id string) (*CrmCampaign, error)
}

type CrmClient interface {
	AccountStore
	ContactStore
	DonationStore
	RecurringDonationStore
	CampaignLookup
}
