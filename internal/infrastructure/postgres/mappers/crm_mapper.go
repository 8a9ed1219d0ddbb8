package mappers

import (
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/postgres/models"
)

func ToGORMAccount(crm string, a *domain.CrmAccount) *models.AccountModel {
	return &models.AccountModel{
		ID:          a.ID,
		CRM:         crm,
		Name:        a.Name,
		Street:      a.Address.Street,
		City:        a.Address.City,
		State:       a.Address.State,
		PostalCode:  a.Address.PostalCode,
		Country:     a.Address.Country,
		Description: a.Description,
	}
}

func ToDomainAccount(m *models.AccountModel) *domain.CrmAccount {
	return &domain.CrmAccount{
		ID:   m.ID,
		Name: m.Name,
		Address: domain.Address{
			Street:     m.Street,
			City:       m.City,
			State:      m.State,
			PostalCode: m.PostalCode,
			Country:    m.Country,
		},
		Description: m.Description,
	}
}

func ToGORMContact(crm string, c *domain.CrmContact) *models.ContactModel {
	return &models.ContactModel{
		ID:        c.ID,
		CRM:       crm,
		AccountID: c.AccountID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}

func ToDomainContact(m *models.ContactModel) *domain.CrmContact {
	return &domain.CrmContact{
		ID:        m.ID,
		AccountID: m.AccountID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Phone:     m.Phone,
	}
}

func ToGORMDonation(crm string, d *domain.CrmDonation) *models.DonationModel {
	return &models.DonationModel{
		ID:                  d.ID,
		CRM:                 crm,
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
		Status:              string(d.Status),
		Stage:               d.Stage,
		Pipeline:            d.Pipeline,
		DepositID:           d.DepositID,
		DepositDate:         utcPtr(d.DepositDate),
		DepositNetAmount:    d.DepositNetAmount,
	}
}

func ToDomainDonation(m *models.DonationModel) *domain.CrmDonation {
	return &domain.CrmDonation{
		ID:                  m.ID,
		Name:                m.Name,
		AccountID:           m.AccountID,
		ContactID:           m.ContactID,
		RecurringDonationID: m.RecurringDonationID,
		CampaignID:          m.CampaignID,
		TransactionID:       m.TransactionID,
		Amount:              m.Amount,
		Currency:            m.Currency,
		CloseDate:           m.CloseDate.UTC(),
		Description:         m.Description,
		Status:              domain.DonationStatus(m.Status),
		Stage:               m.Stage,
		Pipeline:            m.Pipeline,
		DepositID:           m.DepositID,
		DepositDate:         utcPtr(m.DepositDate),
		DepositNetAmount:    m.DepositNetAmount,
	}
}

func ToGORMRecurringDonation(crm string, rd *domain.CrmRecurringDonation) *models.RecurringDonationModel {
	return &models.RecurringDonationModel{
		ID:              rd.ID,
		CRM:             crm,
		Name:            rd.Name,
		AccountID:       rd.AccountID,
		ContactID:       rd.ContactID,
		SubscriptionID:  rd.SubscriptionID,
		CampaignID:      rd.CampaignID,
		Amount:          rd.Amount,
		Currency:        rd.Currency,
		Interval:        rd.Interval,
		StartDate:       rd.StartDate.UTC(),
		NextPaymentDate: rd.NextPaymentDate.UTC(),
		Status:          string(rd.Status),
		Stage:           rd.Stage,
	}
}

func ToDomainRecurringDonation(m *models.RecurringDonationModel) *domain.CrmRecurringDonation {
	return &domain.CrmRecurringDonation{
		ID:              m.ID,
		Name:            m.Name,
		AccountID:       m.AccountID,
		ContactID:       m.ContactID,
		SubscriptionID:  m.SubscriptionID,
		CampaignID:      m.CampaignID,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Interval:        m.Interval,
		StartDate:       m.StartDate.UTC(),
		NextPaymentDate: m.NextPaymentDate.UTC(),
		Status:          domain.RecurringStatus(m.Status),
		Stage:           m.Stage,
	}
}

func ToDomainCampaign(m *models.CampaignModel) *domain.CrmCampaign {
	return &domain.CrmCampaign{
		ID:   m.ID,
		Name: m.Name,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
