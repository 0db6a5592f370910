package dispatch

import (
	"context"
	"errors"
	"fmt"

	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

// crmAction is the update_crm executor. Campaigns without an active CRM
// integration are normal: the action is a silent no-op, not a failure.
// When one is configured, the push delegates to the webhook path using the
// integration's URL.
type crmAction struct {
	crm     CRMStore
	webhook *webhookAction
	logger  *observability.Logger
}

func (a *crmAction) Execute(ctx context.Context, req Request) (Outcome, error) {
	integration, err := a.crm.GetActiveCRMIntegrationByCampaign(ctx, req.Campaign.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.logger.Info(ctx, "no active crm integration for campaign, skipping")
			return Outcome{
				Metadata: store.JSONB{"crm_integration": "none"},
			}, nil
		}
		return Outcome{}, fmt.Errorf("failed to look up crm integration: %w", err)
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "crm_provider", Value: integration.Provider},
	)

	outcome, err := a.webhook.post(ctx, integration.URL, req)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to push to crm %s: %w", integration.Provider, err)
	}

	if outcome.Metadata == nil {
		outcome.Metadata = store.JSONB{}
	}
	outcome.Metadata["crm_provider"] = integration.Provider
	return outcome, nil
}
