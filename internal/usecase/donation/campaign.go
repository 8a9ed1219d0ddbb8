package donation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

// CampaignResolver turns a campaign hint into a campaign id that exists in one CRM.
type CampaignResolver struct {
	Campaigns domain.CampaignLookup
	DefaultID string
	Logger    *slog.Logger
}

func NewCampaignResolver(campaigns domain.CampaignLookup, defaultID string, logger *slog.Logger) *CampaignResolver {
	return &CampaignResolver{
		Campaigns: campaigns,
		DefaultID: defaultID,
		Logger:    logger,
	}
}

// Resolve returns "" when neither the hint nor the default resolves.
func (r *CampaignResolver) Resolve(ctx context.Context, id string) (string, error) {
	if id != "" {
		c, err := r.Campaigns.GetCampaignByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("lookup campaign %s: %w", id, err)
		}
		if c != nil {
			return c.ID, nil
		}
		r.Logger.Info("campaign not found; using default", "campaign_id", id, "default_campaign_id", r.DefaultID)
	}

	if r.DefaultID == "" {
		return "", nil
	}
	c, err := r.Campaigns.GetCampaignByID(ctx, r.DefaultID)
	if err != nil {
		return "", fmt.Errorf("lookup default campaign %s: %w", r.DefaultID, err)
	}
	if c == nil {
		r.Logger.Warn("default campaign not found", "default_campaign_id", r.DefaultID)
		return "", nil
	}
	return c.ID, nil
}
