package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateRecipientParams represents parameters for creating a recipient
type CreateRecipientParams struct {
	CampaignID uuid.UUID
	FirstName  string
	LastName   string
	Phone      *string
	Email      *string
}

const sqlCreateRecipient = `
INSERT INTO recipients (campaign_id, first_name, last_name, phone, email)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, campaign_id, first_name, last_name, phone, email, created_at, updated_at
`

// CreateRecipient creates a new recipient in a campaign
func (s *Store) CreateRecipient(ctx context.Context, params CreateRecipientParams) (Recipient, error) {
	var recipient Recipient
	err := s.db.GetContext(ctx, &recipient, sqlCreateRecipient,
		params.CampaignID,
		params.FirstName,
		params.LastName,
		params.Phone,
		params.Email)
	if err != nil {
		return Recipient{}, fmt.Errorf("failed to create recipient: %w", err)
	}
	return recipient, nil
}

const sqlGetRecipientByID = `
SELECT id, campaign_id, first_name, last_name, phone, email, created_at, updated_at
FROM recipients
WHERE id = $1
`

// GetRecipientByID retrieves a recipient by ID
func (s *Store) GetRecipientByID(ctx context.Context, recipientID uuid.UUID) (Recipient, error) {
	var recipient Recipient
	err := s.db.GetContext(ctx, &recipient, sqlGetRecipientByID, recipientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recipient{}, ErrNotFound
		}
		return Recipient{}, fmt.Errorf("failed to get recipient by id: %w", err)
	}
	return recipient, nil
}

const sqlGetRecipientInCampaign = `
SELECT id, campaign_id, first_name, last_name, phone, email, created_at, updated_at
FROM recipients
WHERE id = $1 AND campaign_id = $2
`

// GetRecipientInCampaign retrieves a recipient by ID, scoped to a campaign.
// Returns ErrNotFound when the recipient does not exist or belongs to a
// different campaign.
func (s *Store) GetRecipientInCampaign(ctx context.Context, recipientID, campaignID uuid.UUID) (Recipient, error) {
	var recipient Recipient
	err := s.db.GetContext(ctx, &recipient, sqlGetRecipientInCampaign, recipientID, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recipient{}, ErrNotFound
		}
		return Recipient{}, fmt.Errorf("failed to get recipient in campaign: %w", err)
	}
	return recipient, nil
}
