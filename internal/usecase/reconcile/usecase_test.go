package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/mapping"
	"github.com/shopspring/decimal"
)

func oneTimeGift() domain.PaymentEvent {
	return domain.PaymentEvent{
		Type:            domain.EventTransaction,
		Gateway:         "stripe",
		TransactionID:   "pi_1",
		CustomerID:      "cus_1",
		Amount:          decimal.RequireFromString("50.00"),
		Currency:        "usd",
		Success:         true,
		TransactionDate: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.org",
		MetadataSources: []domain.MetadataSource{
			{Kind: domain.SourceCharge, ID: "ch_1", Metadata: map[string]string{"Designation Code": " camp_1 "}},
		},
	}
}

func TestProcessPaymentEvent_NewDonor(t *testing.T) {
	t.Run("Given an unknown donor When a gift arrives Then donor and donation are written to every crm", func(t *testing.T) {
		// Given
		h := newHarness(t, nil)
		h.primary.AddCampaign(domain.CrmCampaign{ID: "camp_1"})
		ctx := context.Background()

		// When
		err := h.uc.ProcessPaymentEvent(ctx, oneTimeGift())

		// Then
		if err != nil {
			t.Fatalf("ProcessPaymentEvent failed: %v", err)
		}
		for name, store := range map[string]*memory.CrmStore{"primary": h.primary, "secondary": h.secondary} {
			if len(store.Accounts()) != 1 || len(store.Contacts()) != 1 || len(store.Donations()) != 1 {
				t.Errorf("%s: expected 1 account/contact/donation, got %d/%d/%d", name,
					len(store.Accounts()), len(store.Contacts()), len(store.Donations()))
			}
		}

		d := h.primary.Donations()[0]
		if d.Status != domain.DonationPosted || d.CampaignID != "camp_1" {
			t.Errorf("unexpected primary donation %+v", d)
		}
		contact, _ := h.primary.GetContactByEmail(ctx, "ada@example.org")
		if d.ContactID != contact.ID || d.AccountID != contact.AccountID {
			t.Errorf("donation not linked to donor: %+v", d)
		}

		mirrored := h.secondary.Donations()[0]
		secondaryContact, _ := h.secondary.GetContactByEmail(ctx, "ada@example.org")
		if mirrored.ContactID != secondaryContact.ID {
			t.Errorf("expected secondary donation linked to its own contact %s, got %s", secondaryContact.ID, mirrored.ContactID)
		}
	})

	t.Run("Given the same gift delivered twice When processed Then one donation exists", func(t *testing.T) {
		// Given
		h := newHarness(t, nil)
		ctx := context.Background()

		// When
		for i := 0; i < 2; i++ {
			if err := h.uc.ProcessPaymentEvent(ctx, oneTimeGift()); err != nil {
				t.Fatalf("delivery %d failed: %v", i+1, err)
			}
		}

		// Then
		if n := len(h.primary.Donations()); n != 1 {
			t.Errorf("expected 1 donation, got %d", n)
		}
		if n := len(h.primary.Contacts()); n != 1 {
			t.Errorf("expected 1 contact, got %d", n)
		}
	})
}

func TestProcessPaymentEvent_Recurring(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	ev := oneTimeGift()
	ev.SubscriptionID = "sub_1"
	ev.SubscriptionInterval = "month"

	if err := h.uc.ProcessPaymentEvent(ctx, ev); err != nil {
		t.Fatalf("ProcessPaymentEvent failed: %v", err)
	}

	rd, _ := h.primary.GetRecurringDonationBySubscriptionID(ctx, "sub_1")
	if rd == nil || rd.Status != domain.RecurringOpen {
		t.Fatalf("expected an open recurring donation, got %+v", rd)
	}
	if d := h.primary.Donations()[0]; d.RecurringDonationID != rd.ID {
		t.Errorf("expected donation linked to %s, got %q", rd.ID, d.RecurringDonationID)
	}

	closing := domain.PaymentEvent{Type: domain.EventSubscriptionClosed, SubscriptionID: "sub_1"}
	if err := h.uc.ProcessPaymentEvent(ctx, closing); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	rd, _ = h.primary.GetRecurringDonationBySubscriptionID(ctx, "sub_1")
	if rd.Status != domain.RecurringClosed {
		t.Errorf("expected Closed, got %s", rd.Status)
	}
	secondaryRD, _ := h.secondary.GetRecurringDonationBySubscriptionID(ctx, "sub_1")
	if secondaryRD == nil || secondaryRD.Status != domain.RecurringClosed {
		t.Errorf("expected secondary recurring donation closed, got %+v", secondaryRD)
	}
}

func TestProcessPaymentEvent_HandledFailures(t *testing.T) {
	t.Run("missing donor identity is skipped", func(t *testing.T) {
		h := newHarness(t, nil)
		ev := oneTimeGift()
		ev.Email = ""

		if err := h.uc.ProcessPaymentEvent(context.Background(), ev); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if h.primary.Writes() != 0 {
			t.Errorf("expected zero writes, got %d", h.primary.Writes())
		}
	})

	t.Run("refund without a donation writes nothing", func(t *testing.T) {
		h := newHarness(t, nil)
		refund := domain.PaymentEvent{Type: domain.EventRefund, TransactionID: "pi_unknown"}

		if err := h.uc.ProcessPaymentEvent(context.Background(), refund); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if h.primary.Writes()+h.secondary.Writes() != 0 {
			t.Errorf("expected zero writes")
		}
	})

	t.Run("configuration gap aborts the write only", func(t *testing.T) {
		hubspot, err := mapping.NewHubSpot(mapping.Settings{}, mapping.Hooks{})
		if err != nil {
			t.Fatalf("NewHubSpot failed: %v", err)
		}
		h := newHarness(t, hubspot)

		if err := h.uc.ProcessPaymentEvent(context.Background(), oneTimeGift()); err != nil {
			t.Fatalf("expected configuration gap to be absorbed, got %v", err)
		}
		if n := len(h.primary.Donations()); n != 0 {
			t.Errorf("expected no donation without a stage mapping, got %d", n)
		}
	})

	t.Run("transient failure propagates", func(t *testing.T) {
		primary := memory.NewCrmStore()
		h := newHarnessWith(t, UnreachableCrm{primary}, primary, memory.NewCrmStore(), nil)

		err := h.uc.ProcessPaymentEvent(context.Background(), oneTimeGift())
		if !domain.IsTransient(err) {
			t.Errorf("expected transient error, got %v", err)
		}
	})
}

func TestProcessPaymentEvent_AccountHint(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	accountID, _ := h.primary.InsertAccount(ctx, &domain.CrmAccount{Name: "Analytical Engines Ltd"})

	ev := oneTimeGift()
	ev.Email = ""
	ev.MetadataSources = append(ev.MetadataSources, domain.MetadataSource{
		Kind: domain.SourceRaw, Metadata: map[string]string{"sf_account": accountID},
	})

	if err := h.uc.ProcessPaymentEvent(ctx, ev); err != nil {
		t.Fatalf("ProcessPaymentEvent failed: %v", err)
	}
	d := h.primary.Donations()
	if len(d) != 1 || d[0].AccountID != accountID {
		t.Errorf("expected donation on hinted account %s, got %+v", accountID, d)
	}
}

func TestProcessPaymentEvent_RetryAfterPartialDonor(t *testing.T) {
	t.Run("Given the contact insert failed after the account was written When the gift is retried Then the account is reused", func(t *testing.T) {
		// Given
		primary := memory.NewCrmStore()
		secondary := memory.NewCrmStore()
		flaky := &FlakyContactCrm{CrmStore: primary, FailInserts: 1}
		h := newHarnessWith(t, flaky, primary, secondary, nil)
		ctx := context.Background()

		err := h.uc.ProcessPaymentEvent(ctx, oneTimeGift())
		if !domain.IsTransient(err) {
			t.Fatalf("expected a transient failure on the first attempt, got %v", err)
		}

		// When
		if err := h.uc.ProcessPaymentEvent(ctx, oneTimeGift()); err != nil {
			t.Fatalf("retry failed: %v", err)
		}

		// Then
		for name, store := range map[string]*memory.CrmStore{"primary": primary, "secondary": secondary} {
			if len(store.Accounts()) != 1 || len(store.Contacts()) != 1 || len(store.Donations()) != 1 {
				t.Errorf("%s: expected 1 account/contact/donation, got %d/%d/%d", name,
					len(store.Accounts()), len(store.Contacts()), len(store.Donations()))
			}
		}
	})
}
