package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Every ledger row carries the name of the crm instance it belongs to, so several
// configured crms can share one database.

type AccountModel struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	CRM         string `gorm:"not null;index:idx_account_crm_name"`
	Name        string `gorm:"index:idx_account_crm_name"`
	Street      string
	City        string
	State       string
	PostalCode  string
	Country     string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (AccountModel) TableName() string { return "crm_accounts" }

type ContactModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	CRM       string `gorm:"not null;index:idx_contact_crm_email"`
	AccountID string `gorm:"index"`
	FirstName string
	LastName  string
	Email     string `gorm:"index:idx_contact_crm_email"`
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ContactModel) TableName() string { return "crm_contacts" }

type DonationModel struct {
	ID                  string `gorm:"primaryKey;type:uuid"`
	CRM                 string `gorm:"not null;index:idx_donation_crm_tx;index:idx_donation_crm_pledge"`
	Name                string
	AccountID           string
	ContactID           string
	RecurringDonationID string `gorm:"index:idx_donation_crm_pledge"`
	CampaignID          string
	TransactionID       string          `gorm:"index:idx_donation_crm_tx"`
	Amount              decimal.Decimal `gorm:"type:numeric(14,2)"`
	Currency            string
	CloseDate           time.Time `gorm:"index:idx_donation_crm_pledge"`
	Description         string
	Status              string `gorm:"index:idx_donation_crm_pledge"`
	Stage               string
	Pipeline            string
	DepositID           string
	DepositDate         *time.Time
	DepositNetAmount    decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (DonationModel) TableName() string { return "crm_donations" }

type RecurringDonationModel struct {
	ID              string `gorm:"primaryKey;type:uuid"`
	CRM             string `gorm:"not null;index:idx_recurring_crm_sub"`
	Name            string
	AccountID       string
	ContactID       string
	SubscriptionID  string `gorm:"index:idx_recurring_crm_sub"`
	CampaignID      string
	Amount          decimal.Decimal `gorm:"type:numeric(14,2)"`
	Currency        string
	Interval        string
	StartDate       time.Time
	NextPaymentDate time.Time
	Status          string
	Stage           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (RecurringDonationModel) TableName() string { return "crm_recurring_donations" }

type CampaignModel struct {
	ID        string `gorm:"primaryKey"`
	CRM       string `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
}

func (CampaignModel) TableName() string { return "crm_campaigns" }
