package setup

import (
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/usecase/mapping"
)

// RegisterOrganizationHooks installs organization logic that cannot be expressed as
// stage names or templates. Organizations needing more register their own hooks here.
func RegisterOrganizationHooks(reg *mapping.Registry) {
	reg.RegisterHooks(mapping.AnyOrganization, mapping.Hooks{
		BeforeClose: clearNextPayment,
	})
}

// a closed recurring donation has no upcoming payment
func clearNextPayment(rd *domain.CrmRecurringDonation) {
	rd.NextPaymentDate = time.Time{}
}
