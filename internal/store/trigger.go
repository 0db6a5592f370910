package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateTriggerParams represents parameters for creating a trigger audit row
type CreateTriggerParams struct {
	RecipientID   uuid.UUID
	CampaignID    uuid.UUID
	ConditionID   uuid.UUID
	TriggerAction string
	Metadata      JSONB
}

const sqlCreateTrigger = `
INSERT INTO condition_triggers (recipient_id, campaign_id, condition_id, trigger_action, status, metadata)
VALUES ($1, $2, $3, $4, 'processing', $5)
RETURNING id, recipient_id, campaign_id, condition_id, trigger_action, status, error_message, delivery_id, provider_message_id, metadata, created_at, updated_at
`

// CreateTrigger creates a trigger row in processing state. The row is created
// before any side effect runs so mid-execution failures stay observable.
func (s *Store) CreateTrigger(ctx context.Context, params CreateTriggerParams) (Trigger, error) {
	metadata := params.Metadata
	if metadata == nil {
		metadata = JSONB{}
	}

	var trigger Trigger
	err := s.db.GetContext(ctx, &trigger, sqlCreateTrigger,
		params.RecipientID,
		params.CampaignID,
		params.ConditionID,
		params.TriggerAction,
		metadata)
	if err != nil {
		return Trigger{}, fmt.Errorf("failed to create trigger: %w", err)
	}
	return trigger, nil
}

// CompleteTriggerParams represents the artifacts produced by a successful
// trigger-action execution.
type CompleteTriggerParams struct {
	DeliveryID        *uuid.UUID
	ProviderMessageID *string
	Metadata          JSONB
}

const sqlCompleteTrigger = `
UPDATE condition_triggers
SET status = 'completed',
    delivery_id = $2,
    provider_message_id = $3,
    metadata = metadata || $4,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1
`

// CompleteTrigger finalizes a trigger row as completed
func (s *Store) CompleteTrigger(ctx context.Context, triggerID uuid.UUID, params CompleteTriggerParams) error {
	metadata := params.Metadata
	if metadata == nil {
		metadata = JSONB{}
	}

	res, err := s.db.ExecContext(ctx, sqlCompleteTrigger,
		triggerID,
		params.DeliveryID,
		params.ProviderMessageID,
		metadata)
	if err != nil {
		return fmt.Errorf("failed to complete trigger: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

const sqlFailTrigger = `
UPDATE condition_triggers
SET status = 'failed',
    error_message = $2,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1
`

// FailTrigger finalizes a trigger row as failed with an error message
func (s *Store) FailTrigger(ctx context.Context, triggerID uuid.UUID, errorMessage string) error {
	res, err := s.db.ExecContext(ctx, sqlFailTrigger, triggerID, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to fail trigger: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

const sqlGetTriggerByID = `
SELECT id, recipient_id, campaign_id, condition_id, trigger_action, status, error_message, delivery_id, provider_message_id, metadata, created_at, updated_at
FROM condition_triggers
WHERE id = $1
`

// GetTriggerByID retrieves a trigger by ID
func (s *Store) GetTriggerByID(ctx context.Context, triggerID uuid.UUID) (Trigger, error) {
	var trigger Trigger
	err := s.db.GetContext(ctx, &trigger, sqlGetTriggerByID, triggerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Trigger{}, ErrNotFound
		}
		return Trigger{}, fmt.Errorf("failed to get trigger by id: %w", err)
	}
	return trigger, nil
}

const sqlGetTriggersByRecipientCampaign = `
SELECT id, recipient_id, campaign_id, condition_id, trigger_action, status, error_message, delivery_id, provider_message_id, metadata, created_at, updated_at
FROM condition_triggers
WHERE recipient_id = $1 AND campaign_id = $2
ORDER BY created_at DESC
`

// GetTriggersByRecipientCampaign retrieves the trigger audit trail for a
// recipient within a campaign, newest first.
func (s *Store) GetTriggersByRecipientCampaign(ctx context.Context, recipientID, campaignID uuid.UUID) ([]Trigger, error) {
	var triggers []Trigger
	err := s.db.SelectContext(ctx, &triggers, sqlGetTriggersByRecipientCampaign, recipientID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get triggers by recipient and campaign: %w", err)
	}
	return triggers, nil
}
