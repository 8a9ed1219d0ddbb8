package destination

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

func newRouter(primaryFails, secondaryFails bool) (*AggregateRouter, *callLog, *MockScheduler) {
	log := &callLog{}
	primary := &MockDestination{name: "sfdc", id: "opp_primary", fail: primaryFails, calls: log}
	first := &MockDestination{name: "hubspot", id: "deal_1", fail: secondaryFails, calls: log}
	second := &MockDestination{name: "ledger", id: "ledger_1", calls: log}
	scheduler := &MockScheduler{}
	return NewAggregateRouter(primary, []domain.Destination{first, second}, scheduler, nil, nil), log, scheduler
}

func TestAggregateRouter_PrimaryFirst(t *testing.T) {
	t.Run("Given healthy destinations When inserting a donation Then the primary id is returned after all writes", func(t *testing.T) {
		// Given
		router, log, scheduler := newRouter(false, false)

		// When
		id, err := router.InsertDonation(context.Background(), domain.DonationEvent{})

		// Then
		if err != nil {
			t.Fatalf("InsertDonation failed: %v", err)
		}
		if id != "opp_primary" {
			t.Errorf("expected primary id, got %s", id)
		}
		want := []string{"sfdc:insert_donation", "hubspot:insert_donation", "ledger:insert_donation"}
		if got := log.list(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected call order %v, got %v", want, got)
		}
		if len(scheduler.Requests) != 0 {
			t.Errorf("expected no repairs, got %v", scheduler.Requests)
		}
	})

	t.Run("Given a failing primary When inserting Then secondaries are not called", func(t *testing.T) {
		// Given
		router, log, _ := newRouter(true, false)

		// When
		_, err := router.InsertDonation(context.Background(), domain.DonationEvent{})

		// Then
		if !errors.Is(err, ErrMockDestination) {
			t.Fatalf("expected primary error, got %v", err)
		}
		if got := log.list(); len(got) != 1 {
			t.Errorf("expected only the primary call, got %v", got)
		}
	})
}

func TestAggregateRouter_SecondaryFailureIsIsolated(t *testing.T) {
	t.Run("Given a failing secondary When inserting Then the call succeeds and a repair is scheduled", func(t *testing.T) {
		// Given
		router, log, scheduler := newRouter(false, true)

		// When
		id, err := router.InsertRecurringDonation(context.Background(), domain.DonationEvent{})

		// Then
		if err != nil {
			t.Fatalf("expected secondary failure to be swallowed, got %v", err)
		}
		if id != "opp_primary" {
			t.Errorf("expected primary id, got %s", id)
		}
		if got := log.list(); len(got) != 3 {
			t.Errorf("expected the remaining secondary to still run, got %v", got)
		}
		want := []string{"recurring_donation/opp_primary"}
		if !reflect.DeepEqual(scheduler.Requests, want) {
			t.Errorf("expected repair %v, got %v", want, scheduler.Requests)
		}
	})

	t.Run("Given a failing secondary When refunding Then the call succeeds", func(t *testing.T) {
		// Given
		router, _, scheduler := newRouter(false, true)

		// When
		err := router.RefundDonation(context.Background(), domain.DonationEvent{})

		// Then
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if len(scheduler.Requests) != 0 {
			t.Errorf("expected no repair without a primary id, got %v", scheduler.Requests)
		}
	})
}
