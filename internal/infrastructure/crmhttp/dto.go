package crmhttp

import (
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type AddressDTO struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type AccountDTO struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name"`
	Address     AddressDTO `json:"address"`
	Description string     `json:"description,omitempty"`
}

type ContactDTO struct {
	ID        string `json:"id,omitempty"`
	AccountID string `json:"account_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type DonationDTO struct {
	ID                  string              `json:"id,omitempty"`
	Name                string              `json:"name"`
	AccountID           string              `json:"account_id"`
	ContactID           string              `json:"contact_id"`
	RecurringDonationID string              `json:"recurring_donation_id,omitempty"`
	CampaignID          string              `json:"campaign_id,omitempty"`
	TransactionID       string              `json:"transaction_id"`
	Amount              decimal.Decimal     `json:"amount"`
	Currency            string              `json:"currency"`
	CloseDate           time.Time           `json:"close_date"`
	Description         string              `json:"description,omitempty"`
	Status              string              `json:"status"`
	Stage               string              `json:"stage"`
	Pipeline            string              `json:"pipeline,omitempty"`
	DepositID           string              `json:"deposit_id,omitempty"`
	DepositDate         *time.Time          `json:"deposit_date,omitempty"`
	DepositNetAmount    decimal.NullDecimal `json:"deposit_net_amount"`
}

type RecurringDonationDTO struct {
	ID              string          `json:"id,omitempty"`
	Name            string          `json:"name"`
	AccountID       string          `json:"account_id"`
	ContactID       string          `json:"contact_id"`
	SubscriptionID  string          `json:"subscription_id"`
	CampaignID      string          `json:"campaign_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Interval        string          `json:"interval"`
	StartDate       time.Time       `json:"start_date"`
	NextPaymentDate time.Time       `json:"next_payment_date"`
	Status          string          `json:"status"`
	Stage           string          `json:"stage"`
}

type CampaignDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toAccountDTO(a *domain.CrmAccount) AccountDTO {
	return AccountDTO{
		ID:          a.ID,
		Name:        a.Name,
		Address:     AddressDTO(a.Address),
		Description: a.Description,
	}
}

func (d AccountDTO) toDomain() *domain.CrmAccount {
	return &domain.CrmAccount{
		ID:          d.ID,
		Name:        d.Name,
		Address:     domain.Address(d.Address),
		Description: d.Description,
	}
}

func toContactDTO(c *domain.CrmContact) ContactDTO {
	return ContactDTO(*c)
}

func (d ContactDTO) toDomain() *domain.CrmContact {
	c := domain.CrmContact(d)
	return &c
}

func toDonationDTO(d *domain.CrmDonation) DonationDTO {
	return DonationDTO{
		ID:                  d.ID,
		Name:                d.Name,
		AccountID:           d.AccountID,
		ContactID:           d.ContactID,
		RecurringDonationID: d.RecurringDonationID,
		CampaignID:          d.CampaignID,
		TransactionID:       d.TransactionID,
		Amount:              d.Amount,
		Currency:            d.Currency,
		CloseDate:           d.CloseDate,
		Description:         d.Description,
		Status:              string(d.Status),
		Stage:               d.Stage,
		Pipeline:            d.Pipeline,
		DepositID:           d.DepositID,
		DepositDate:         d.DepositDate,
		DepositNetAmount:    d.DepositNetAmount,
	}
}

func (d DonationDTO) toDomain() *domain.CrmDonation {
	return &domain.CrmDonation{
		ID:                  d.ID,
		Name:                d.Name,
		AccountID:           d.AccountID,
		ContactID:           d.ContactID,
		RecurringDonationID: d.RecurringDonationID,
		CampaignID:          d.CampaignID,
		TransactionID:       d.TransactionID,
		Amount:              d.Amount,
		Currency:            d.Currency,
		CloseDate:           d.CloseDate.UTC(),
		Description:         d.Description,
		Status:              domain.DonationStatus(d.Status),
		Stage:               d.Stage,
		Pipeline:            d.Pipeline,
		DepositID:           d.DepositID,
		DepositDate:         d.DepositDate,
		DepositNetAmount:    d.DepositNetAmount,
	}
}

func toRecurringDonationDTO(rd *domain.CrmRecurringDonation) RecurringDonationDTO {
	return RecurringDonationDTO{
		ID:              rd.ID,
		Name:            rd.Name,
		AccountID:       rd.AccountID,
		ContactID:       rd.ContactID,
		SubscriptionID:  rd.SubscriptionID,
		CampaignID:      rd.CampaignID,
		Amount:          rd.Amount,
		Currency:        rd.Currency,
		Interval:        rd.Interval,
		StartDate:       rd.StartDate,
		NextPaymentDate: rd.NextPaymentDate,
		Status:          string(rd.Status),
		Stage:           rd.Stage,
	}
}

func (d RecurringDonationDTO) toDomain() *domain.CrmRecurringDonation {
	return &domain.CrmRecurringDonation{
		ID:              d.ID,
		Name:            d.Name,
		AccountID:       d.AccountID,
		ContactID:       d.ContactID,
		SubscriptionID:  d.SubscriptionID,
		CampaignID:      d.CampaignID,
		Amount:          d.Amount,
		Currency:        d.Currency,
		Interval:        d.Interval,
		StartDate:       d.StartDate.UTC(),
		NextPaymentDate: d.NextPaymentDate.UTC(),
		Status:          domain.RecurringStatus(d.Status),
		Stage:           d.Stage,
	}
}
