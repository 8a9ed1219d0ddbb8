package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DonationStatus string

const (
	DonationPledged       DonationStatus = "PLEDGED"
	DonationPosted        DonationStatus = "POSTED"
	DonationFailedAttempt DonationStatus = "FAILED_ATTEMPT"
	DonationRefunded      DonationStatus = "REFUNDED"
)

type RecurringStatus string

const (
	RecurringOpen   RecurringStatus = "OPEN"
	RecurringClosed RecurringStatus = "CLOSED"
)

type EntityKind string

const (
	EntityAccount           EntityKind = "account"
	EntityContact           EntityKind = "contact"
	EntityDonation          EntityKind = "donation"
	EntityRecurringDonation EntityKind = "recurring_donation"
)

func ParseEntityKind(s string) (EntityKind, error) {
	switch k := EntityKind(s); k {
	case EntityAccount, EntityContact, EntityDonation, EntityRecurringDonation:
		return k, nil
	}
	return "", ErrUnknownEntityKind
}

type CrmAccount struct {
	ID          string
	Name        string
	Address     Address
	Description string
}

type CrmContact struct {
	ID        string
	AccountID string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// CrmDonation mirrors an opportunity/deal. Status is the canonical lifecycle value,
// Stage the literal the owning CRM stores for it.
type CrmDonation struct {
	ID                  string
	Name                string
	AccountID           string
	ContactID           string
	RecurringDonationID string
	CampaignID          string
	TransactionID       string
	Amount              decimal.Decimal
	Currency            string
	CloseDate           time.Time
	Description         string
	Status              DonationStatus
	Stage               string
	Pipeline            string

	DepositID        string
	DepositDate      *time.Time
	DepositNetAmount decimal.NullDecimal
}

type CrmRecurringDonation struct {
	ID              string
	Name            string
	AccountID       string
	ContactID       string
	SubscriptionID  string
	CampaignID      string
	Amount          decimal.Decimal
	Currency        string
	Interval        string
	StartDate       time.Time
	NextPaymentDate time.Time
	Status          RecurringStatus
	Stage           string
}

type CrmCampaign struct {
	ID   string
	Name string
}
