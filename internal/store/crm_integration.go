package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateCRMIntegrationParams represents parameters for registering a CRM
// endpoint for a campaign.
type CreateCRMIntegrationParams struct {
	CampaignID uuid.UUID
	Provider   string
	URL        string
	Status     string
}

const sqlCreateCRMIntegration = `
INSERT INTO crm_integrations (campaign_id, provider, url, status)
VALUES ($1, $2, $3, $4)
RETURNING id, campaign_id, provider, url, status, created_at, updated_at
`

// CreateCRMIntegration registers a CRM endpoint for a campaign
func (s *Store) CreateCRMIntegration(ctx context.Context, params CreateCRMIntegrationParams) (CRMIntegration, error) {
	var integration CRMIntegration
	err := s.db.GetContext(ctx, &integration, sqlCreateCRMIntegration,
		params.CampaignID,
		params.Provider,
		params.URL,
		params.Status)
	if err != nil {
		return CRMIntegration{}, fmt.Errorf("failed to create crm integration: %w", err)
	}
	return integration, nil
}

const sqlGetActiveCRMIntegrationByCampaign = `
SELECT id, campaign_id, provider, url, status, created_at, updated_at
FROM crm_integrations
WHERE campaign_id = $1 AND status = 'active'
ORDER BY created_at ASC
LIMIT 1
`

// GetActiveCRMIntegrationByCampaign retrieves the active CRM integration for a
// campaign. Returns ErrNotFound when the campaign has none configured; callers
// treat that as a no-op rather than a failure.
func (s *Store) GetActiveCRMIntegrationByCampaign(ctx context.Context, campaignID uuid.UUID) (CRMIntegration, error) {
	var integration CRMIntegration
	err := s.db.GetContext(ctx, &integration, sqlGetActiveCRMIntegrationByCampaign, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CRMIntegration{}, ErrNotFound
		}
		return CRMIntegration{}, fmt.Errorf("failed to get active crm integration: %w", err)
	}
	return integration, nil
}
