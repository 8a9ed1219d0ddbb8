package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/destination"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/donation"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/mapping"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/metadata"
)

// UnreachableCrm wraps a store and fails every email lookup with a transient error
type UnreachableCrm struct {
	*memory.CrmStore
}

func (u UnreachableCrm) GetContactByEmail(ctx context.Context, email string) (*domain.CrmContact, error) {
	return nil, &domain.TransientError{Op: "query contact", Err: errors.New("connection reset")}
}

// FlakyContactCrm fails the first FailInserts contact inserts with a transient error
type FlakyContactCrm struct {
	*memory.CrmStore
	FailInserts int
}

func (f *FlakyContactCrm) InsertContact(ctx context.Context, contact *domain.CrmContact) (string, error) {
	if f.FailInserts > 0 {
		f.FailInserts--
		return "", &domain.TransientError{Op: "insert contact", Err: errors.New("timeout")}
	}
	return f.CrmStore.InsertContact(ctx, contact)
}

type harness struct {
	uc        *DefaultReconcileUsecase
	primary   *memory.CrmStore
	secondary *memory.CrmStore
}

func newHarness(t *testing.T, primaryStrategy mapping.Strategy) *harness {
	t.Helper()
	primary := memory.NewCrmStore()
	secondary := memory.NewCrmStore()
	return newHarnessWith(t, primary, primary, secondary, primaryStrategy)
}

func newHarnessWith(t *testing.T, client domain.CrmClient, primary, secondary *memory.CrmStore, primaryStrategy mapping.Strategy) *harness {
	t.Helper()
	if primaryStrategy == nil {
		primaryStrategy = mustSalesforce(t)
	}
	logger := slog.Default()

	primaryDest := donation.NewCrmDestination("sfdc", client, primaryStrategy, "camp_default", nil, logger)
	secondaryDest := donation.NewCrmDestination("ledger", secondary, mustSalesforce(t), "", nil, logger)
	router := destination.NewAggregateRouter(primaryDest, []domain.Destination{secondaryDest}, nil, nil, logger)

	uc := NewDefaultReconcileUsecase(
		client,
		router,
		metadata.NewResolver(nil, nil, logger),
		MetadataKeys{
			Campaign: []string{"sf_campaign", "Designation Code"},
			Account:  []string{"sf_account"},
			Contact:  []string{"sf_contact"},
		},
		nil,
		logger,
	)
	return &harness{uc: uc, primary: primary, secondary: secondary}
}

func mustSalesforce(t *testing.T) mapping.Strategy {
	t.Helper()
	s, err := mapping.NewSalesforce(mapping.Settings{}, mapping.Hooks{})
	if err != nil {
		t.Fatalf("NewSalesforce failed: %v", err)
	}
	return s
}
