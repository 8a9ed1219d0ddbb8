package destination

import (
	"context"
	"errors"
	"sync"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

var ErrMockDestination = errors.New("mock destination error")

// MockDestination implements domain.Destination and records every call in a shared log
type MockDestination struct {
	name  string
	id    string
	fail  bool
	calls *callLog
}

type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (m *MockDestination) Name() string { return m.name }

func (m *MockDestination) record(op string) error {
	m.calls.add(m.name + ":" + op)
	if m.fail {
		return ErrMockDestination
	}
	return nil
}

func (m *MockDestination) withID(op string) (string, error) {
	if err := m.record(op); err != nil {
		return "", err
	}
	return m.id, nil
}

func (m *MockDestination) InsertAccount(ctx context.Context, ev domain.DonationEvent) (string, error) {
	return m.withID("insert_account")
}

func (m *MockDestination) InsertContact(ctx context.Context, ev domain.DonationEvent) (string, error) {
	return m.withID("insert_contact")
}

func (m *MockDestination) InsertDonation(ctx context.Context, ev domain.DonationEvent) (string, error) {
	return m.withID("insert_donation")
}

func (m *MockDestination) RefundDonation(ctx context.Context, ev domain.DonationEvent) error {
	return m.record("refund_donation")
}

func (m *MockDestination) InsertDonationDeposit(ctx context.Context, ev domain.DonationEvent) error {
	return m.record("insert_donation_deposit")
}

func (m *MockDestination) InsertRecurringDonation(ctx context.Context, ev domain.DonationEvent) (string, error) {
	return m.withID("insert_recurring_donation")
}

func (m *MockDestination) CloseRecurringDonation(ctx context.Context, ev domain.DonationEvent) error {
	return m.record("close_recurring_donation")
}

// MockScheduler implements domain.SyncScheduler
type MockScheduler struct {
	mu       sync.Mutex
	Requests []string
}

func (m *MockScheduler) ScheduleSync(ctx context.Context, kind domain.EntityKind, primaryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, string(kind)+"/"+primaryID)
	return nil
}
