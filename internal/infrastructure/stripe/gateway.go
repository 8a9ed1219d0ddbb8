package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

const GatewayName = "stripe"

// PayoutCharge is one charge settled by a payout, with its net amount in minor units.
type PayoutCharge struct {
	Charge *stripe.Charge
	Net    int64
}

// Gateway wraps one Stripe API client. It is safe for concurrent use.
type Gateway struct {
	api    *client.API
	logger *slog.Logger
}

var _ domain.GatewayClient = (*Gateway)(nil)

func NewGateway(apiKey string, timeout time.Duration, logger *slog.Logger) *Gateway {
	httpClient := &http.Client{Timeout: timeout}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{HTTPClient: httpClient}),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, &stripe.BackendConfig{HTTPClient: httpClient}),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, &stripe.BackendConfig{HTTPClient: httpClient}),
	}
	return &Gateway{
		api:    client.New(apiKey, backends),
		logger: logger,
	}
}

func (g *Gateway) GetPaymentIntent(ctx context.Context, id string) (*domain.MetadataSource, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, notFoundAsNil("get payment intent", err)
	}
	return &domain.MetadataSource{Kind: domain.SourcePaymentIntent, ID: pi.ID, Metadata: pi.Metadata}, nil
}

func (g *Gateway) GetCustomer(ctx context.Context, id string) (*domain.MetadataSource, error) {
	c, err := g.Customer(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	return &domain.MetadataSource{Kind: domain.SourceCustomer, ID: c.ID, Metadata: c.Metadata}, nil
}

func (g *Gateway) GetCharge(ctx context.Context, id string) (*domain.MetadataSource, error) {
	ch, err := g.Charge(ctx, id)
	if err != nil || ch == nil {
		return nil, err
	}
	return chargeSource(ch), nil
}

func (g *Gateway) Charge(ctx context.Context, id string) (*stripe.Charge, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx
	ch, err := g.api.Charges.Get(id, params)
	if err != nil {
		return nil, notFoundAsNil("get charge", err)
	}
	return ch, nil
}

func (g *Gateway) Customer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	c, err := g.api.Customers.Get(id, params)
	if err != nil {
		return nil, notFoundAsNil("get customer", err)
	}
	return c, nil
}

// Invoice fetches an invoice with its subscription expanded.
func (g *Gateway) Invoice(ctx context.Context, id string) (*stripe.Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	params.AddExpand("subscription")
	inv, err := g.api.Invoices.Get(id, params)
	if err != nil {
		return nil, notFoundAsNil("get invoice", err)
	}
	return inv, nil
}

// PayoutCharges lists the charges settled by a payout.
func (g *Gateway) PayoutCharges(ctx context.Context, payoutID string) ([]PayoutCharge, error) {
	params := &stripe.BalanceTransactionListParams{Payout: stripe.String(payoutID)}
	params.Context = ctx
	params.AddExpand("data.source")

	var charges []PayoutCharge
	it := g.api.BalanceTransactions.List(params)
	for it.Next() {
		bt := it.BalanceTransaction()
		if bt.Type != stripe.BalanceTransactionTypeCharge && bt.Type != stripe.BalanceTransactionTypePayment {
			continue
		}
		if bt.Source == nil || bt.Source.Charge == nil {
			continue
		}
		charges = append(charges, PayoutCharge{Charge: bt.Source.Charge, Net: bt.Net})
	}
	if err := it.Err(); err != nil {
		return nil, classify("list payout balance transactions", err)
	}
	g.logger.Debug("payout charges listed", "payout_id", payoutID, "count", len(charges))
	return charges, nil
}

func notFoundAsNil(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
		return nil
	}
	return classify(op, err)
}

func classify(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= 500 {
			return &domain.TransientError{Op: "stripe " + op, Err: err}
		}
		return fmt.Errorf("stripe %s: %w", op, err)
	}
	return &domain.TransientError{Op: "stripe " + op, Err: err}
}

func chargeSource(ch *stripe.Charge) *domain.MetadataSource {
	src := &domain.MetadataSource{Kind: domain.SourceCharge, ID: ch.ID, Metadata: ch.Metadata}
	if ch.PaymentIntent != nil {
		src.PaymentIntentID = ch.PaymentIntent.ID
	}
	return src
}
