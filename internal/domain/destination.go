package domain

import "context"

// Destination is one CRM (or a fan-out of several) receiving donation writes.
type Destination interface {
	Name() string
	InsertAccount(ctx context.Context, ev DonationEvent) (string, error)
	InsertContact(ctx context.Context, ev DonationEvent) (string, error)
	InsertDonation(ctx context.Context, ev DonationEvent) (string, error)
	RefundDonation(ctx context.Context, ev DonationEvent) error
	InsertDonationDeposit(ctx context.Context, ev DonationEvent) error
	InsertRecurringDonation(ctx context.Context, ev DonationEvent) (string, error)
	CloseRecurringDonation(ctx context.Context, ev DonationEvent) error
}

// SyncScheduler asks for an out-of-band primary -> secondary sync of a record.
type SyncScheduler interface {
	ScheduleSync(ctx context.Context, kind EntityKind, primaryID string) error
}
