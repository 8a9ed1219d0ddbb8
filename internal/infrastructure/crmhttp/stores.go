package crmhttp

import (
	"context"
	"net/url"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

const (
	accountsPath           = "/accounts"
	contactsPath           = "/contacts"
	donationsPath          = "/donations"
	recurringDonationsPath = "/recurring-donations"
	campaignsPath          = "/campaigns"
)

func (c *Client) GetAccountByID(ctx context.Context, id string) (*domain.CrmAccount, error) {
	var dto AccountDTO
	found, err := c.getOne(ctx, accountsPath+"/"+url.PathEscape(id), nil, &dto)
	if err != nil || !found {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) GetAccountByName(ctx context.Context, name string) (*domain.CrmAccount, error) {
	if name == "" {
		return nil, nil
	}
	var dtos []AccountDTO
	found, err := c.getOne(ctx, accountsPath, url.Values{"name": {name}}, &dtos)
	if err != nil || !found {
		return nil, err
	}
	if dto := first(dtos); dto != nil {
		return dto.toDomain(), nil
	}
	return nil, nil
}

func (c *Client) InsertAccount(ctx context.Context, account *domain.CrmAccount) (string, error) {
	return c.insert(ctx, accountsPath, toAccountDTO(account))
}

func (c *Client) UpdateAccount(ctx context.Context, account *domain.CrmAccount) error {
	return c.update(ctx, accountsPath, account.ID, toAccountDTO(account))
}

func (c *Client) GetContactByID(ctx context.Context, id string) (*domain.CrmContact, error) {
	var dto ContactDTO
	found, err := c.getOne(ctx, contactsPath+"/"+url.PathEscape(id), nil, &dto)
	if err != nil || !found {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) GetContactByEmail(ctx context.Context, email string) (*domain.CrmContact, error) {
	if email == "" {
		return nil, nil
	}
	var dtos []ContactDTO
	found, err := c.getOne(ctx, contactsPath, url.Values{"email": {email}}, &dtos)
	if err != nil || !found {
		return nil, err
	}
	if dto := first(dtos); dto != nil {
		return dto.toDomain(), nil
	}
	return nil, nil
}

func (c *Client) InsertContact(ctx context.Context, contact *domain.CrmContact) (string, error) {
	return c.insert(ctx, contactsPath, toContactDTO(contact))
}

func (c *Client) UpdateContact(ctx context.Context, contact *domain.CrmContact) error {
	return c.update(ctx, contactsPath, contact.ID, toContactDTO(contact))
}

func (c *Client) GetDonationByID(ctx context.Context, id string) (*domain.CrmDonation, error) {
	var dto DonationDTO
	found, err := c.getOne(ctx, donationsPath+"/"+url.PathEscape(id), nil, &dto)
	if err != nil || !found {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) GetDonationByTransactionID(ctx context.Context, transactionID string) (*domain.CrmDonation, error) {
	if transactionID == "" {
		return nil, nil
	}
	var dtos []DonationDTO
	found, err := c.getOne(ctx, donationsPath, url.Values{"transaction_id": {transactionID}}, &dtos)
	if err != nil || !found {
		return nil, err
	}
	if dto := first(dtos); dto != nil {
		return dto.toDomain(), nil
	}
	return nil, nil
}

func (c *Client) GetNextPledgedDonation(ctx context.Context, recurringDonationID string, dueBefore time.Time) (*domain.CrmDonation, error) {
	query := url.Values{
		"recurring_donation_id": {recurringDonationID},
		"status":                {string(domain.DonationPledged)},
		"close_date_before":     {dueBefore.UTC().Format(time.RFC3339)},
		"order":                 {"close_date_desc"},
		"limit":                 {"1"},
	}
	var dtos []DonationDTO
	found, err := c.getOne(ctx, donationsPath, query, &dtos)
	if err != nil || !found {
		return nil, err
	}
	if dto := first(dtos); dto != nil {
		return dto.toDomain(), nil
	}
	return nil, nil
}

func (c *Client) InsertDonation(ctx context.Context, donation *domain.CrmDonation) (string, error) {
	return c.insert(ctx, donationsPath, toDonationDTO(donation))
}

func (c *Client) UpdateDonation(ctx context.Context, donation *domain.CrmDonation) error {
	return c.update(ctx, donationsPath, donation.ID, toDonationDTO(donation))
}

func (c *Client) GetRecurringDonationByID(ctx context.Context, id string) (*domain.CrmRecurringDonation, error) {
	var dto RecurringDonationDTO
	found, err := c.getOne(ctx, recurringDonationsPath+"/"+url.PathEscape(id), nil, &dto)
	if err != nil || !found {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *Client) GetRecurringDonationBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.CrmRecurringDonation, error) {
	if subscriptionID == "" {
		return nil, nil
	}
	var dtos []RecurringDonationDTO
	found, err := c.getOne(ctx, recurringDonationsPath, url.Values{"subscription_id": {subscriptionID}}, &dtos)
	if err != nil || !found {
		return nil, err
	}
	if dto := first(dtos); dto != nil {
		return dto.toDomain(), nil
	}
	return nil, nil
}

func (c *Client) InsertRecurringDonation(ctx context.Context, rd *domain.CrmRecurringDonation) (string, error) {
	return c.insert(ctx, recurringDonationsPath, toRecurringDonationDTO(rd))
}

func (c *Client) UpdateRecurringDonation(ctx context.Context, rd *domain.CrmRecurringDonation) error {
	return c.update(ctx, recurringDonationsPath, rd.ID, toRecurringDonationDTO(rd))
}

func (c *Client) GetCampaignByID(ctx context.Context, id string) (*domain.CrmCampaign, error) {
	var dto CampaignDTO
	found, err := c.getOne(ctx, campaignsPath+"/"+url.PathEscape(id), nil, &dto)
	if err != nil || !found {
		return nil, err
	}
	return &domain.CrmCampaign{ID: dto.ID, Name: dto.Name}, nil
}
