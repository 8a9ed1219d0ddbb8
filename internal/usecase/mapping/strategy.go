package mapping

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/shopspring/decimal"
)

// Strategy turns donation events into the records one CRM expects.
type Strategy interface {
	Name() string
	// SupportsPledges reports whether the CRM keeps pledged donation slots
	// ahead of recurring payments.
	SupportsPledges() bool
	Account(ev domain.DonationEvent) (*domain.CrmAccount, error)
	Contact(ev domain.DonationEvent) (*domain.CrmContact, error)
	Donation(ev domain.DonationEvent, status domain.DonationStatus) (*domain.CrmDonation, error)
	// ApplyPayment rewrites an existing donation (pledge or earlier attempt) with
	// the outcome of ev.
	ApplyPayment(d *domain.CrmDonation, ev domain.DonationEvent, status domain.DonationStatus) error
	RecurringDonation(ev domain.DonationEvent) (*domain.CrmRecurringDonation, error)
	DonationStage(status domain.DonationStatus) (string, error)
	RecurringStage(status domain.RecurringStatus) (string, error)
	// BeforeClose runs right before a closed recurring donation is written.
	BeforeClose(rd *domain.CrmRecurringDonation)
}

type Stages struct {
	Pledged         string
	Posted          string
	FailedAttempt   string
	Refunded        string
	RecurringOpen   string
	RecurringClosed string
}

type Templates struct {
	Account           string
	Donation          string
	RecurringDonation string
}

type Settings struct {
	Stages    Stages
	Templates Templates
	Pipeline  string
}

// Hooks carries per-organization logic layered over the data driven mapping.
type Hooks struct {
	BeforeClose func(rd *domain.CrmRecurringDonation)
}

// templateData is what name templates can reference.
type templateData struct {
	DisplayName    string
	FirstName      string
	LastName       string
	Email          string
	Amount         string
	Currency       string
	Date           string
	TransactionID  string
	SubscriptionID string
	Interval       string
}

// TemplateStrategy maps fields with configured stage names and name templates.
type TemplateStrategy struct {
	name     string
	pledges  bool
	settings Settings
	hooks    Hooks

	account   *template.Template
	donation  *template.Template
	recurring *template.Template
}

func newTemplateStrategy(name string, pledges bool, settings Settings, hooks Hooks) (*TemplateStrategy, error) {
	s := &TemplateStrategy{
		name:     name,
		pledges:  pledges,
		settings: settings,
		hooks:    hooks,
	}

	var err error
	if s.account, err = parse(name+".account", settings.Templates.Account); err != nil {
		return nil, err
	}
	if s.donation, err = parse(name+".donation", settings.Templates.Donation); err != nil {
		return nil, err
	}
	if s.recurring, err = parse(name+".recurring_donation", settings.Templates.RecurringDonation); err != nil {
		return nil, err
	}
	return s, nil
}

func parse(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return t, nil
}

func (s *TemplateStrategy) Name() string {
	return s.name
}

func (s *TemplateStrategy) SupportsPledges() bool {
	return s.pledges
}

func (s *TemplateStrategy) Account(ev domain.DonationEvent) (*domain.CrmAccount, error) {
	name, err := render(s.account, ev)
	if err != nil {
		return nil, err
	}
	return &domain.CrmAccount{
		ID:      ev.AccountID,
		Name:    name,
		Address: ev.Payment.Address,
	}, nil
}

func (s *TemplateStrategy) Contact(ev domain.DonationEvent) (*domain.CrmContact, error) {
	p := ev.Payment
	first, last := p.FirstName, p.LastName
	if first == "" && last == "" {
		first, last = splitName(p.FullName)
	}
	if last == "" {
		// CRMs generally require a last name
		last = p.Email
	}
	return &domain.CrmContact{
		ID:        ev.ContactID,
		AccountID: ev.AccountID,
		FirstName: first,
		LastName:  last,
		Email:     p.Email,
		Phone:     p.Phone,
	}, nil
}

func (s *TemplateStrategy) Donation(ev domain.DonationEvent, status domain.DonationStatus) (*domain.CrmDonation, error) {
	d := &domain.CrmDonation{
		AccountID:           ev.AccountID,
		ContactID:           ev.ContactID,
		RecurringDonationID: ev.RecurringDonationID,
	}
	if err := s.ApplyPayment(d, ev, status); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *TemplateStrategy) ApplyPayment(d *domain.CrmDonation, ev domain.DonationEvent, status domain.DonationStatus) error {
	stage, err := s.DonationStage(status)
	if err != nil {
		return err
	}
	name, err := render(s.donation, ev)
	if err != nil {
		return err
	}

	p := ev.Payment
	d.Name = name
	d.TransactionID = p.TransactionID
	d.Amount = p.Amount
	d.Currency = p.Currency
	d.CloseDate = p.TransactionDate
	d.Description = p.Description
	d.Status = status
	d.Stage = stage
	d.Pipeline = s.settings.Pipeline
	if ev.CampaignID != "" {
		d.CampaignID = ev.CampaignID
	}
	return nil
}

func (s *TemplateStrategy) RecurringDonation(ev domain.DonationEvent) (*domain.CrmRecurringDonation, error) {
	stage, err := s.RecurringStage(domain.RecurringOpen)
	if err != nil {
		return nil, err
	}
	name, err := render(s.recurring, ev)
	if err != nil {
		return nil, err
	}

	p := ev.Payment
	amount := p.SubscriptionAmount
	if amount.IsZero() {
		amount = p.Amount
	}
	start := p.SubscriptionStartDate
	if start.IsZero() {
		start = p.TransactionDate
	}
	return &domain.CrmRecurringDonation{
		Name:            name,
		AccountID:       ev.AccountID,
		ContactID:       ev.ContactID,
		SubscriptionID:  p.SubscriptionID,
		CampaignID:      ev.CampaignID,
		Amount:          amount,
		Currency:        p.Currency,
		Interval:        p.SubscriptionInterval,
		StartDate:       start,
		NextPaymentDate: p.SubscriptionNextDate,
		Status:          domain.RecurringOpen,
		Stage:           stage,
	}, nil
}

func (s *TemplateStrategy) DonationStage(status domain.DonationStatus) (string, error) {
	var stage, setting string
	switch status {
	case domain.DonationPledged:
		stage, setting = s.settings.Stages.Pledged, "stages.pledged"
	case domain.DonationPosted:
		stage, setting = s.settings.Stages.Posted, "stages.posted"
	case domain.DonationFailedAttempt:
		stage, setting = s.settings.Stages.FailedAttempt, "stages.failed_attempt"
	case domain.DonationRefunded:
		stage, setting = s.settings.Stages.Refunded, "stages.refunded"
	default:
		return "", fmt.Errorf("unknown donation status %q", status)
	}
	if stage == "" {
		return "", &domain.ConfigurationGapError{Setting: s.name + "." + setting}
	}
	return stage, nil
}

func (s *TemplateStrategy) RecurringStage(status domain.RecurringStatus) (string, error) {
	stage, setting := s.settings.Stages.RecurringOpen, "stages.recurring_open"
	if status == domain.RecurringClosed {
		stage, setting = s.settings.Stages.RecurringClosed, "stages.recurring_closed"
	}
	if stage == "" {
		return "", &domain.ConfigurationGapError{Setting: s.name + "." + setting}
	}
	return stage, nil
}

func (s *TemplateStrategy) BeforeClose(rd *domain.CrmRecurringDonation) {
	if s.hooks.BeforeClose != nil {
		s.hooks.BeforeClose(rd)
	}
}

func render(t *template.Template, ev domain.DonationEvent) (string, error) {
	p := ev.Payment
	data := templateData{
		DisplayName:    p.DisplayName(),
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		Amount:         formatAmount(p.Amount),
		Currency:       strings.ToUpper(p.Currency),
		Date:           formatDate(p.TransactionDate),
		TransactionID:  p.TransactionID,
		SubscriptionID: p.SubscriptionID,
		Interval:       p.SubscriptionInterval,
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	i := strings.LastIndex(full, " ")
	if i < 0 {
		return "", full
	}
	return strings.TrimSpace(full[:i]), full[i+1:]
}
