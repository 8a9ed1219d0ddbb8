package mapping

import "fmt"

const (
	KindSalesforce = "sfdc"
	KindHubSpot    = "hubspot"
)

const (
	defaultAccountTemplate   = "{{.DisplayName}}"
	defaultDonationTemplate  = "{{.DisplayName}} Donation"
	defaultRecurringTemplate = "{{.DisplayName}} Recurring Donation"
)

// NewSalesforce builds the opportunity/recurring-donation mapping. Unset stage names
// fall back to the stock picklist values.
func NewSalesforce(settings Settings, hooks Hooks) (Strategy, error) {
	st := &settings.Stages
	orDefault(&st.Pledged, "Pledged")
	orDefault(&st.Posted, "Posted")
	orDefault(&st.FailedAttempt, "Failed Attempt")
	orDefault(&st.Refunded, "Refunded")
	orDefault(&st.RecurringOpen, "Open")
	orDefault(&st.RecurringClosed, "Closed")
	withDefaultTemplates(&settings.Templates)

	return newTemplateStrategy(KindSalesforce, true, settings, hooks)
}

// NewHubSpot builds the deal mapping. Deal stages are portal specific, so a missing
// stage surfaces as a configuration gap when it is first needed.
func NewHubSpot(settings Settings, hooks Hooks) (Strategy, error) {
	withDefaultTemplates(&settings.Templates)
	return newTemplateStrategy(KindHubSpot, false, settings, hooks)
}

func New(kind string, settings Settings, hooks Hooks) (Strategy, error) {
	switch kind {
	case KindSalesforce, "":
		return NewSalesforce(settings, hooks)
	case KindHubSpot:
		return NewHubSpot(settings, hooks)
	}
	return nil, fmt.Errorf("unknown mapping strategy %q", kind)
}

func withDefaultTemplates(t *Templates) {
	orDefault(&t.Account, defaultAccountTemplate)
	orDefault(&t.Donation, defaultDonationTemplate)
	orDefault(&t.RecurringDonation, defaultRecurringTemplate)
}

func orDefault(v *string, def string) {
	if *v == "" {
		*v = def
	}
}
