package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/jaevor/go-nanoid"
)

// CrmStore is an in-process CRM. It backs the "memory" crm kind used for dry runs.
type CrmStore struct {
	mu sync.RWMutex

	newID func() string

	accounts   map[string]domain.CrmAccount
	contacts   map[string]domain.CrmContact
	donations  map[string]domain.CrmDonation
	recurring  map[string]domain.CrmRecurringDonation
	campaigns  map[string]domain.CrmCampaign
	writeCount int
}

func NewCrmStore() *CrmStore {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		panic(err)
	}
	return &CrmStore{
		newID:     idGenerator,
		accounts:  make(map[string]domain.CrmAccount),
		contacts:  make(map[string]domain.CrmContact),
		donations: make(map[string]domain.CrmDonation),
		recurring: make(map[string]domain.CrmRecurringDonation),
		campaigns: make(map[string]domain.CrmCampaign),
	}
}

// Writes is the number of inserts and updates performed so far.
func (s *CrmStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeCount
}

func (s *CrmStore) AddCampaign(c domain.CrmCampaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
}

func (s *CrmStore) UpsertCampaign(ctx context.Context, c domain.CrmCampaign) error {
	s.AddCampaign(c)
	return nil
}

// SeedDonation stores d as is, keeping its id. Used to preload pledges.
func (s *CrmStore) SeedDonation(d domain.CrmDonation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations[d.ID] = d
}

func (s *CrmStore) SeedRecurringDonation(rd domain.CrmRecurringDonation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring[rd.ID] = rd
}

func (s *CrmStore) Donations() []domain.CrmDonation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CrmDonation, 0, len(s.donations))
	for _, d := range s.donations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *CrmStore) Accounts() []domain.CrmAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CrmAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out
}

func (s *CrmStore) Contacts() []domain.CrmContact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CrmContact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, c)
	}
	return out
}

func (s *CrmStore) RecurringDonations() []domain.CrmRecurringDonation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CrmRecurringDonation, 0, len(s.recurring))
	for _, rd := range s.recurring {
		out = append(out, rd)
	}
	return out
}

func (s *CrmStore) GetAccountByID(ctx context.Context, id string) (*domain.CrmAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *CrmStore) GetAccountByName(ctx context.Context, name string) (*domain.CrmAccount, error) {
	if name == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Name == name {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *CrmStore) InsertAccount(ctx context.Context, account *domain.CrmAccount) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := *account
	a.ID = "acc_" + s.newID()
	s.accounts[a.ID] = a
	s.writeCount++
	return a.ID, nil
}

func (s *CrmStore) UpdateAccount(ctx context.Context, account *domain.CrmAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = *account
	s.writeCount++
	return nil
}

func (s *CrmStore) GetContactByID(ctx context.Context, id string) (*domain.CrmContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.contacts[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *CrmStore) GetContactByEmail(ctx context.Context, email string) (*domain.CrmContact, error) {
	if email == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contacts {
		if strings.EqualFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *CrmStore) InsertContact(ctx context.Context, contact *domain.CrmContact) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *contact
	c.ID = "con_" + s.newID()
	s.contacts[c.ID] = c
	s.writeCount++
	return c.ID, nil
}

func (s *CrmStore) UpdateContact(ctx context.Context, contact *domain.CrmContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[contact.ID] = *contact
	s.writeCount++
	return nil
}

func (s *CrmStore) GetDonationByID(ctx context.Context, id string) (*domain.CrmDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.donations[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (s *CrmStore) GetDonationByTransactionID(ctx context.Context, transactionID string) (*domain.CrmDonation, error) {
	if transactionID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.donations {
		if d.TransactionID == transactionID {
			return &d, nil
		}
	}
	return nil, nil
}

func (s *CrmStore) GetNextPledgedDonation(ctx context.Context, recurringDonationID string, dueBefore time.Time) (*domain.CrmDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.CrmDonation
	for _, d := range s.donations {
		if d.RecurringDonationID != recurringDonationID || d.Status != domain.DonationPledged {
			continue
		}
		if !d.CloseDate.Before(dueBefore) {
			continue
		}
		if best == nil || d.CloseDate.After(best.CloseDate) {
			d := d
			best = &d
		}
	}
	return best, nil
}

func (s *CrmStore) InsertDonation(ctx context.Context, donation *domain.CrmDonation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *donation
	d.ID = "don_" + s.newID()
	s.donations[d.ID] = d
	s.writeCount++
	return d.ID, nil
}

func (s *CrmStore) UpdateDonation(ctx context.Context, donation *domain.CrmDonation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations[donation.ID] = *donation
	s.writeCount++
	return nil
}

func (s *CrmStore) GetRecurringDonationByID(ctx context.Context, id string) (*domain.CrmRecurringDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rd, ok := s.recurring[id]; ok {
		return &rd, nil
	}
	return nil, nil
}

func (s *CrmStore) GetRecurringDonationBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.CrmRecurringDonation, error) {
	if subscriptionID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rd := range s.recurring {
		if rd.SubscriptionID == subscriptionID {
			return &rd, nil
		}
	}
	return nil, nil
}

func (s *CrmStore) InsertRecurringDonation(ctx context.Context, rd *domain.CrmRecurringDonation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rd
	r.ID = "rd_" + s.newID()
	s.recurring[r.ID] = r
	s.writeCount++
	return r.ID, nil
}

func (s *CrmStore) UpdateRecurringDonation(ctx context.Context, rd *domain.CrmRecurringDonation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring[rd.ID] = *rd
	s.writeCount++
	return nil
}

func (s *CrmStore) GetCampaignByID(ctx context.Context, id string) (*domain.CrmCampaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.campaigns[id]; ok {
		return &c, nil
	}
	return nil, nil
}
