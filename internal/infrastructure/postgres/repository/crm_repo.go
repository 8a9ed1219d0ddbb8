package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCrmRepository is a CRM kept in our own database ("ledger" crm kind). All
// queries are scoped to CRM so several named ledgers can share the tables.
type DefaultCrmRepository struct {
	DB  *gorm.DB
	CRM string
}

func NewDefaultCrmRepository(db *gorm.DB, crm string) *DefaultCrmRepository {
	return &DefaultCrmRepository{
		DB:  db,
		CRM: crm,
	}
}

func (r *DefaultCrmRepository) scoped(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Where("crm = ?", r.CRM)
}

// first loads one row into dest. Not found is (false, nil); database failures are
// transient from the caller's point of view.
func (r *DefaultCrmRepository) first(op string, tx *gorm.DB, dest interface{}) (bool, error) {
	err := tx.Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &domain.TransientError{Op: op, Err: err}
	}
	return true, nil
}

func (r *DefaultCrmRepository) update(ctx context.Context, op, id string, model interface{}) error {
	res := r.DB.WithContext(ctx).
		Model(model).
		Where("crm = ? AND id = ?", r.CRM, id).
		Select("*").
		Omit("id", "crm", "created_at").
		Updates(model)
	if res.Error != nil {
		return &domain.TransientError{Op: op, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: no row with id %s", op, id)
	}
	return nil
}

func (r *DefaultCrmRepository) create(ctx context.Context, op string, model interface{}) error {
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		return &domain.TransientError{Op: op, Err: err}
	}
	return nil
}

func (r *DefaultCrmRepository) GetAccountByID(ctx context.Context, id string) (*domain.CrmAccount, error) {
	var m models.AccountModel
	found, err := r.first("get account", r.scoped(ctx).Where("id = ?", id), &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainAccount(&m), nil
}

func (r *DefaultCrmRepository) GetAccountByName(ctx context.Context, name string) (*domain.CrmAccount, error) {
	if name == "" {
		return nil, nil
	}
	var m models.AccountModel
	found, err := r.first("get account by name", r.scoped(ctx).Where("name = ?", name).Order("created_at"), &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainAccount(&m), nil
}

func (r *DefaultCrmRepository) InsertAccount(ctx context.Context, account *domain.CrmAccount) (string, error) {
	m := mappers.ToGORMAccount(r.CRM, account)
	m.ID = uuid.New().String()
	if err := r.create(ctx, "insert account", m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (r *DefaultCrmRepository) UpdateAccount(ctx context.Context, account *domain.CrmAccount) error {
	return r.update(ctx, "update account", account.ID, mappers.ToGORMAccount(r.CRM, account))
}

func (r *DefaultCrmRepository) GetContactByID(ctx context.Context, id string) (*domain.CrmContact, error) {
	var m models.ContactModel
	found, err := r.first("get contact", r.scoped(ctx).Where("id = ?", id), &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainContact(&m), nil
}

func (r *DefaultCrmRepository) GetContactByEmail(ctx context.Context, email string) (*domain.CrmContact, error) {
	if email == "" {
		return nil, nil
	}
	var m models.ContactModel
	tx := r.scoped(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).Order("created_at")
	found, err := r.first("get contact by email", tx, &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainContact(&m), nil
}

func (r *DefaultCrmRepository) InsertContact(ctx context.Context, contact *domain.CrmContact) (string, error) {
	m := mappers.ToGORMContact(r.CRM, contact)
	m.ID = uuid.New().String()
	if err := r.create(ctx, "insert contact", m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (r *DefaultCrmRepository) UpdateContact(ctx context.Context, contact *domain.CrmContact) error {
	return r.update(ctx, "update contact", contact.ID, mappers.ToGORMContact(r.CRM, contact))
}

func (r *DefaultCrmRepository) GetDonationByID(ctx context.Context, id string) (*domain.CrmDonation, error) {
	var m models.DonationModel
	found, err := r.first("get donation", r.scoped(ctx).Where("id = ?", id), &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainDonation(&m), nil
}

func (r *DefaultCrmRepository) GetDonationByTransactionID(ctx context.Context, transactionID string) (*domain.CrmDonation, error) {
	if transactionID == "" {
		return nil, nil
	}
	var m models.DonationModel
	found, err := r.first("get donation by transaction", r.scoped(ctx).Where("transaction_id = ?", transactionID), &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainDonation(&m), nil
}

func (r *DefaultCrmRepository) GetNextPledgedDonation(ctx context.Context, recurringDonationID string, dueBefore time.Time) (*domain.CrmDonation, error) {
	var m models.DonationModel
	tx := r.scoped(ctx).
		Where("recurring_donation_id = ? AND status = ? AND close_date < ?",
			recurringDonationID, string(domain.DonationPledged), dueBefore.UTC()).
		Order("close_date DESC").
		Limit(1)
	found, err := r.first("get next pledged donation", tx, &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainDonation(&m), nil
}

func (r *DefaultCrmRepository) InsertDonation(ctx context.Context, donation *domain.CrmDonation) (string, error) {
	m := mappers.ToGORMDonation(r.CRM, donation)
	m.ID = uuid.New().String()
	if err := r.create(ctx, "insert donation", m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (r *DefaultCrmRepository) UpdateDonation(ctx context.Context, donation *domain.CrmDonation) error {
	return r.update(ctx, "update donation", donation.ID, mappers.ToGORMDonation(r.CRM, donation))
}

func (r *DefaultCrmRepository) GetRecurringDonationByID(ctx context.Context, id string) (*domain.CrmRecurringDonation, error) {
	var m models.RecurringDonationModel
	found, err := r.first("get recurring donation", r.scoped(ctx).Where("id = ?", id), &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainRecurringDonation(&m), nil
}

func (r *DefaultCrmRepository) GetRecurringDonationBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.CrmRecurringDonation, error) {
	if subscriptionID == "" {
		return nil, nil
	}
	var m models.RecurringDonationModel
	found, err := r.first("get recurring donation by subscription", r.scoped(ctx).Where("subscription_id = ?", subscriptionID), &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainRecurringDonation(&m), nil
}

func (r *DefaultCrmRepository) InsertRecurringDonation(ctx context.Context, rd *domain.CrmRecurringDonation) (string, error) {
	m := mappers.ToGORMRecurringDonation(r.CRM, rd)
	m.ID = uuid.New().String()
	if err := r.create(ctx, "insert recurring donation", m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (r *DefaultCrmRepository) UpdateRecurringDonation(ctx context.Context, rd *domain.CrmRecurringDonation) error {
	return r.update(ctx, "update recurring donation", rd.ID, mappers.ToGORMRecurringDonation(r.CRM, rd))
}

func (r *DefaultCrmRepository) GetCampaignByID(ctx context.Context, id string) (*domain.CrmCampaign, error) {
	var m models.CampaignModel
	found, err := r.first("get campaign", r.scoped(ctx).Where("id = ?", id), &m)
	if !found {
		return nil, err
	}
	return mappers.ToDomainCampaign(&m), nil
}

// UpsertCampaign registers a campaign id for this crm.
func (r *DefaultCrmRepository) UpsertCampaign(ctx context.Context, c domain.CrmCampaign) error {
	m := models.CampaignModel{ID: c.ID, CRM: r.CRM, Name: c.Name}
	if err := r.DB.WithContext(ctx).Save(&m).Error; err != nil {
		return &domain.TransientError{Op: "upsert campaign", Err: err}
	}
	return nil
}
