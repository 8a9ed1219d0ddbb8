package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
)

// API is the part of the gateway the normalizer needs to enrich webhook payloads,
// which only carry ids for related objects.
type API interface {
	Charge(ctx context.Context, id string) (*stripe.Charge, error)
	Customer(ctx context.Context, id string) (*stripe.Customer, error)
	Invoice(ctx context.Context, id string) (*stripe.Invoice, error)
	PayoutCharges(ctx context.Context, payoutID string) ([]PayoutCharge, error)
}

// Normalizer turns Stripe events into payment events.
type Normalizer struct {
	API    API
	Logger *slog.Logger
}

func NewNormalizer(api API, logger *slog.Logger) *Normalizer {
	return &Normalizer{API: api, Logger: logger}
}

// Normalize returns the payment events carried by a Stripe event. Event types the
// reconciler does not handle yield no events and no error.
func (n *Normalizer) Normalize(ctx context.Context, event *stripe.Event) ([]domain.PaymentEvent, error) {
	eventType := string(event.Type)
	switch eventType {
	case "charge.succeeded", "charge.failed":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		// handled through the payment_intent.* event instead
		if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
			n.Logger.Debug("charge belongs to a payment intent; skipping", "charge_id", ch.ID)
			return nil, nil
		}
		ev, err := n.fromCharge(ctx, &ch, domain.EventTransaction, nil)
		if err != nil {
			return nil, err
		}
		ev.Success = eventType == "charge.succeeded"
		return []domain.PaymentEvent{ev}, nil

	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		ev, err := n.fromPaymentIntent(ctx, &pi)
		if err != nil {
			return nil, err
		}
		ev.Success = eventType == "payment_intent.succeeded"
		return []domain.PaymentEvent{ev}, nil

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		ev, err := n.fromCharge(ctx, &ch, domain.EventRefund, nil)
		if err != nil {
			return nil, err
		}
		ev.Amount = toDecimal(ch.AmountRefunded, string(ch.Currency))
		ev.Success = true
		return []domain.PaymentEvent{ev}, nil

	case "customer.subscription.created", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		evType := domain.EventSubscriptionClosed
		if eventType == "customer.subscription.created" {
			// active subscriptions are opened by their first charge
			if sub.Status != stripe.SubscriptionStatusTrialing {
				n.Logger.Info("subscription is not trialing; waiting for first charge", "subscription_id", sub.ID)
				return nil, nil
			}
			evType = domain.EventSubscriptionCreated
		}
		ev, err := n.fromSubscription(ctx, &sub, evType)
		if err != nil {
			return nil, err
		}
		return []domain.PaymentEvent{ev}, nil

	case "payout.paid":
		var payout stripe.Payout
		if err := json.Unmarshal(event.Data.Raw, &payout); err != nil {
			return nil, fmt.Errorf("decode payout: %w", err)
		}
		return n.fromPayout(ctx, &payout)
	}

	n.Logger.Info("unhandled stripe event type", "event_id", event.ID, "event_type", eventType)
	return nil, nil
}

func (n *Normalizer) fromPaymentIntent(ctx context.Context, pi *stripe.PaymentIntent) (domain.PaymentEvent, error) {
	intentSource := domain.MetadataSource{Kind: domain.SourcePaymentIntent, ID: pi.ID, Metadata: pi.Metadata}

	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		ch, err := n.API.Charge(ctx, pi.LatestCharge.ID)
		if err != nil {
			return domain.PaymentEvent{}, err
		}
		if ch != nil {
			if ch.Invoice == nil && pi.Invoice != nil {
				ch.Invoice = pi.Invoice
			}
			return n.fromCharge(ctx, ch, domain.EventTransaction, &intentSource)
		}
	}

	ev := domain.PaymentEvent{
		Type:            domain.EventTransaction,
		Gateway:         GatewayName,
		TransactionID:   pi.ID,
		Amount:          toDecimal(pi.Amount, string(pi.Currency)),
		Currency:        string(pi.Currency),
		TransactionDate: unix(pi.Created),
		Description:     pi.Description,
		Email:           pi.ReceiptEmail,
		MetadataSources: []domain.MetadataSource{intentSource},
	}
	if pi.Customer != nil && pi.Customer.ID != "" {
		if err := n.withCustomer(ctx, &ev, pi.Customer.ID); err != nil {
			return domain.PaymentEvent{}, err
		}
	}
	if pi.Invoice != nil && pi.Invoice.ID != "" {
		if err := n.withInvoice(ctx, &ev, pi.Invoice.ID); err != nil {
			return domain.PaymentEvent{}, err
		}
	}
	domain.SortMetadataSources(ev.MetadataSources)
	return ev, nil
}

func (n *Normalizer) fromCharge(ctx context.Context, ch *stripe.Charge, evType domain.PaymentEventType, intent *domain.MetadataSource) (domain.PaymentEvent, error) {
	ev := domain.PaymentEvent{
		Type:            evType,
		Gateway:         GatewayName,
		TransactionID:   ch.ID,
		Amount:          toDecimal(ch.Amount, string(ch.Currency)),
		Currency:        string(ch.Currency),
		TransactionDate: unix(ch.Created),
		Description:     ch.Description,
		Email:           ch.ReceiptEmail,
		MetadataSources: []domain.MetadataSource{*chargeSource(ch)},
	}
	if intent != nil {
		ev.MetadataSources = append(ev.MetadataSources, *intent)
	}
	if bd := ch.BillingDetails; bd != nil {
		ev.FullName = bd.Name
		ev.Phone = bd.Phone
		if bd.Email != "" {
			ev.Email = bd.Email
		}
		if bd.Address != nil {
			ev.Address = toAddress(bd.Address)
		}
	}
	if ch.Customer != nil && ch.Customer.ID != "" {
		if err := n.withCustomer(ctx, &ev, ch.Customer.ID); err != nil {
			return domain.PaymentEvent{}, err
		}
	}
	if ch.Invoice != nil && ch.Invoice.ID != "" {
		if err := n.withInvoice(ctx, &ev, ch.Invoice.ID); err != nil {
			return domain.PaymentEvent{}, err
		}
	}
	domain.SortMetadataSources(ev.MetadataSources)
	return ev, nil
}

func (n *Normalizer) fromSubscription(ctx context.Context, sub *stripe.Subscription, evType domain.PaymentEventType) (domain.PaymentEvent, error) {
	ev := domain.PaymentEvent{
		Type:            evType,
		Gateway:         GatewayName,
		TransactionDate: unix(sub.Created),
		Success:         true,
	}
	applySubscription(&ev, sub)
	if sub.Customer != nil && sub.Customer.ID != "" {
		if err := n.withCustomer(ctx, &ev, sub.Customer.ID); err != nil {
			return domain.PaymentEvent{}, err
		}
	}
	return ev, nil
}

func (n *Normalizer) fromPayout(ctx context.Context, payout *stripe.Payout) ([]domain.PaymentEvent, error) {
	charges, err := n.API.PayoutCharges(ctx, payout.ID)
	if err != nil {
		return nil, err
	}
	events := make([]domain.PaymentEvent, 0, len(charges))
	for _, pc := range charges {
		ch := pc.Charge
		events = append(events, domain.PaymentEvent{
			Type:             domain.EventDeposit,
			Gateway:          GatewayName,
			TransactionID:    ch.ID,
			Amount:           toDecimal(ch.Amount, string(ch.Currency)),
			Currency:         string(ch.Currency),
			TransactionDate:  unix(ch.Created),
			Success:          true,
			DepositID:        payout.ID,
			DepositDate:      unix(payout.ArrivalDate),
			DepositNetAmount: toDecimal(pc.Net, string(payout.Currency)),
		})
	}
	n.Logger.Info("payout expanded", "payout_id", payout.ID, "charges", len(events))
	return events, nil
}

// withCustomer fills donor details the charge did not carry.
func (n *Normalizer) withCustomer(ctx context.Context, ev *domain.PaymentEvent, customerID string) error {
	ev.CustomerID = customerID
	c, err := n.API.Customer(ctx, customerID)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	if ev.Email == "" {
		ev.Email = c.Email
	}
	if ev.FullName == "" {
		ev.FullName = c.Name
	}
	if ev.Phone == "" {
		ev.Phone = c.Phone
	}
	if ev.Address == (domain.Address{}) && c.Address != nil {
		ev.Address = toAddress(c.Address)
	}
	ev.MetadataSources = append(ev.MetadataSources, domain.MetadataSource{Kind: domain.SourceCustomer, ID: c.ID, Metadata: c.Metadata})
	return nil
}

func (n *Normalizer) withInvoice(ctx context.Context, ev *domain.PaymentEvent, invoiceID string) error {
	inv, err := n.API.Invoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv == nil || inv.Subscription == nil || inv.Subscription.ID == "" {
		return nil
	}
	applySubscription(ev, inv.Subscription)
	return nil
}

func applySubscription(ev *domain.PaymentEvent, sub *stripe.Subscription) {
	ev.SubscriptionID = sub.ID
	ev.SubscriptionStartDate = unix(sub.StartDate)
	ev.SubscriptionNextDate = unix(sub.CurrentPeriodEnd)
	if ev.Currency == "" {
		ev.Currency = string(sub.Currency)
	}
	if sub.Items != nil {
		total := decimal.Zero
		for _, item := range sub.Items.Data {
			if item.Price == nil {
				continue
			}
			quantity := item.Quantity
			if quantity == 0 {
				quantity = 1
			}
			total = total.Add(toDecimal(item.Price.UnitAmount*quantity, string(item.Price.Currency)))
			if item.Price.Recurring != nil && ev.SubscriptionInterval == "" {
				ev.SubscriptionInterval = string(item.Price.Recurring.Interval)
			}
		}
		ev.SubscriptionAmount = total
	}
	if ev.Type == domain.EventSubscriptionCreated || ev.Type == domain.EventSubscriptionClosed {
		ev.Amount = ev.SubscriptionAmount
	}
	ev.MetadataSources = append(ev.MetadataSources, domain.MetadataSource{Kind: domain.SourceSubscription, ID: sub.ID, Metadata: sub.Metadata})
}

var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true, "krw": true,
	"mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true, "vuv": true, "xaf": true,
	"xof": true, "xpf": true,
}

// toDecimal converts a Stripe minor-unit amount.
func toDecimal(amount int64, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}

func toAddress(a *stripe.Address) domain.Address {
	street := strings.TrimSpace(strings.Join([]string{a.Line1, a.Line2}, " "))
	return domain.Address{
		Street:     street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func unix(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
