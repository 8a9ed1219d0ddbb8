package setup

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-crm-reconciler/internal/config"
	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/crmhttp"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/postgres/repository"
	"gorm.io/gorm"
)

// ClientRegistry holds one long lived client per configured crm. It is built once at
// start and shared by every worker.
type ClientRegistry struct {
	primary string
	order   []string
	clients map[string]domain.CrmClient
}

func NewClientRegistry(crms []config.CRMConfig, db *gorm.DB) (*ClientRegistry, error) {
	r := &ClientRegistry{clients: make(map[string]domain.CrmClient, len(crms))}
	for _, crm := range crms {
		client, err := newCrmClient(crm, db)
		if err != nil {
			return nil, err
		}
		if err := seedCampaigns(client, crm); err != nil {
			return nil, err
		}
		r.clients[crm.Name] = client
		r.order = append(r.order, crm.Name)
		if crm.Primary {
			r.primary = crm.Name
		}
	}
	if r.primary == "" {
		return nil, fmt.Errorf("no primary crm configured")
	}
	return r, nil
}

func newCrmClient(crm config.CRMConfig, db *gorm.DB) (domain.CrmClient, error) {
	switch crm.Kind {
	case config.CRMKindLedger:
		if db == nil {
			return nil, fmt.Errorf("crm %q: ledger crms need reconciler_db.dsn", crm.Name)
		}
		return repository.NewDefaultCrmRepository(db, crm.Name), nil
	case config.CRMKindHTTP:
		return crmhttp.NewClient(crm.BaseURL, crm.APIKey, crm.Timeout), nil
	case config.CRMKindMemory:
		return memory.NewCrmStore(), nil
	}
	return nil, fmt.Errorf("crm %q: unknown kind %q", crm.Name, crm.Kind)
}

type campaignSeeder interface {
	UpsertCampaign(ctx context.Context, c domain.CrmCampaign) error
}

func seedCampaigns(client domain.CrmClient, crm config.CRMConfig) error {
	if len(crm.Campaigns) == 0 {
		return nil
	}
	seeder, ok := client.(campaignSeeder)
	if !ok {
		return fmt.Errorf("crm %q: campaigns can only be seeded into ledger and memory crms", crm.Name)
	}
	for _, c := range crm.Campaigns {
		if err := seeder.UpsertCampaign(context.Background(), domain.CrmCampaign{ID: c.ID, Name: c.Name}); err != nil {
			return fmt.Errorf("crm %q: seed campaign %s: %w", crm.Name, c.ID, err)
		}
	}
	return nil
}

func (r *ClientRegistry) PrimaryName() string {
	return r.primary
}

func (r *ClientRegistry) Primary() domain.CrmClient {
	return r.clients[r.primary]
}

func (r *ClientRegistry) Get(name string) (domain.CrmClient, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// SecondaryNames lists secondaries in configuration order.
func (r *ClientRegistry) SecondaryNames() []string {
	names := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if name != r.primary {
			names = append(names, name)
		}
	}
	return names
}
