package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentEventType string

const (
	EventTransaction         PaymentEventType = "TRANSACTION"
	EventRefund              PaymentEventType = "REFUND"
	EventSubscriptionCreated PaymentEventType = "SUBSCRIPTION_CREATED"
	EventSubscriptionClosed  PaymentEventType = "SUBSCRIPTION_CLOSED"
	EventDeposit             PaymentEventType = "DEPOSIT"
)

// Metadata source kinds, in the default precedence order.
const (
	SourceRaw           = "raw"
	SourceCharge        = "charge"
	SourcePaymentIntent = "payment_intent"
	SourceSubscription  = "subscription"
	SourceCustomer      = "customer"
)

var sourceRank = map[string]int{
	SourceRaw:           0,
	SourceCharge:        1,
	SourcePaymentIntent: 2,
	SourceSubscription:  3,
	SourceCustomer:      4,
}

// SortMetadataSources orders sources by kind precedence. Unknown kinds go last and
// sources of the same kind keep their relative order.
func SortMetadataSources(sources []MetadataSource) {
	slices.SortStableFunc(sources, func(a, b MetadataSource) int {
		return rank(a.Kind) - rank(b.Kind)
	})
}

func rank(kind string) int {
	if r, ok := sourceRank[kind]; ok {
		return r
	}
	return len(sourceRank)
}

// MetadataSource is one gateway object (or caller supplied context) that may carry
// metadata. PaymentIntentID is only set on charge-like objects.
type MetadataSource struct {
	Kind            string            `json:"kind"`
	ID              string            `json:"id"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentEvent is the normalized view of one gateway notification. Treat it as
// immutable once built.
type PaymentEvent struct {
	Type            PaymentEventType `json:"type"`
	Gateway         string           `json:"gateway"`
	TransactionID   string           `json:"transaction_id"`
	SubscriptionID  string           `json:"subscription_id,omitempty"`
	CustomerID      string           `json:"customer_id,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Success         bool             `json:"success"`
	TransactionDate time.Time        `json:"transaction_date"`
	Description     string           `json:"description,omitempty"`

	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	FullName  string  `json:"full_name,omitempty"`
	Email     string  `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Address   Address `json:"address"`

	SubscriptionAmount    decimal.Decimal `json:"subscription_amount"`
	SubscriptionInterval  string          `json:"subscription_interval,omitempty"`
	SubscriptionStartDate time.Time       `json:"subscription_start_date"`
	SubscriptionNextDate  time.Time       `json:"subscription_next_date"`

	DepositID        string          `json:"deposit_id,omitempty"`
	DepositDate      time.Time       `json:"deposit_date"`
	DepositNetAmount decimal.Decimal `json:"deposit_net_amount"`

	MetadataSources []MetadataSource `json:"metadata_sources,omitempty"`
}

func (e PaymentEvent) IsRecurring() bool {
	return e.SubscriptionID != ""
}

// DisplayName falls back to first/last name, then email, when no full name was sent.
func (e PaymentEvent) DisplayName() string {
	if name := strings.TrimSpace(e.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(e.FirstName + " " + e.LastName); name != "" {
		return name
	}
	return e.Email
}

// DonationEvent is a PaymentEvent plus the CRM context resolved for it by the engine.
// The With* helpers return copies so the underlying event is never mutated.
type DonationEvent struct {
	Payment             PaymentEvent
	CampaignID          string
	AccountID           string
	ContactID           string
	RecurringDonationID string
}

func NewDonationEvent(p PaymentEvent) DonationEvent {
	return DonationEvent{Payment: p}
}

func (e DonationEvent) WithCampaign(id string) DonationEvent {
	e.CampaignID = id
	return e
}

func (e DonationEvent) WithAccount(id string) DonationEvent {
	e.AccountID = id
	return e
}

func (e DonationEvent) WithContact(id string) DonationEvent {
	e.ContactID = id
	return e
}

func (e DonationEvent) WithRecurringDonation(id string) DonationEvent {
	e.RecurringDonationID = id
	return e
}
