package stripe

import (
	"context"
	"io"
	"log/slog"

	"github.com/stripe/stripe-go/v74"
)

type MockAPI struct {
	Charges       map[string]*stripe.Charge
	Customers     map[string]*stripe.Customer
	Invoices      map[string]*stripe.Invoice
	Payouts       map[string][]PayoutCharge
	CustomerCalls int
	Err           error
}

func (m *MockAPI) Charge(ctx context.Context, id string) (*stripe.Charge, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Charges[id], nil
}

func (m *MockAPI) Customer(ctx context.Context, id string) (*stripe.Customer, error) {
	m.CustomerCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Customers[id], nil
}

func (m *MockAPI) Invoice(ctx context.Context, id string) (*stripe.Invoice, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Invoices[id], nil
}

func (m *MockAPI) PayoutCharges(ctx context.Context, payoutID string) ([]PayoutCharge, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Payouts[payoutID], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
