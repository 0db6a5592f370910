package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateDeliveryParams represents parameters for recording an outbound message
type CreateDeliveryParams struct {
	RecipientID uuid.UUID
	CampaignID  uuid.UUID
	TriggerID   *uuid.UUID
	Channel     string
	Address     string
	Message     string
}

const sqlCreateDelivery = `
INSERT INTO deliveries (recipient_id, campaign_id, trigger_id, channel, address, message, status)
VALUES ($1, $2, $3, $4, $5, $6, 'pending')
RETURNING id, recipient_id, campaign_id, trigger_id, channel, address, message, status, provider_message_id, error_message, created_at, updated_at
`

// CreateDelivery records an outbound message in pending state before it is
// handed to the provider.
func (s *Store) CreateDelivery(ctx context.Context, params CreateDeliveryParams) (Delivery, error) {
	var delivery Delivery
	err := s.db.GetContext(ctx, &delivery, sqlCreateDelivery,
		params.RecipientID,
		params.CampaignID,
		params.TriggerID,
		params.Channel,
		params.Address,
		params.Message)
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to create delivery: %w", err)
	}
	return delivery, nil
}

const sqlMarkDeliverySent = `
UPDATE deliveries
SET status = 'sent',
    provider_message_id = $2,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1
`

// MarkDeliverySent records a successful provider hand-off
func (s *Store) MarkDeliverySent(ctx context.Context, deliveryID uuid.UUID, providerMessageID string) error {
	res, err := s.db.ExecContext(ctx, sqlMarkDeliverySent, deliveryID, providerMessageID)
	if err != nil {
		return fmt.Errorf("failed to mark delivery sent: %w", err)
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

const sqlMarkDeliveryFailed = `
UPDATE deliveries
SET status = 'failed',
    error_message = $2,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1
`

// MarkDeliveryFailed records a provider rejection with the error message
func (s *Store) MarkDeliveryFailed(ctx context.Context, deliveryID uuid.UUID, errorMessage string) error {
	res, err := s.db.ExecContext(ctx, sqlMarkDeliveryFailed, deliveryID, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to mark delivery failed: %w", err)
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

const sqlGetDeliveryByID = `
SELECT id, recipient_id, campaign_id, trigger_id, channel, address, message, status, provider_message_id, error_message, created_at, updated_at
FROM deliveries
WHERE id = $1
`

// GetDeliveryByID retrieves a delivery by ID
func (s *Store) GetDeliveryByID(ctx context.Context, deliveryID uuid.UUID) (Delivery, error) {
	var delivery Delivery
	err := s.db.GetContext(ctx, &delivery, sqlGetDeliveryByID, deliveryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Delivery{}, ErrNotFound
		}
		return Delivery{}, fmt.Errorf("failed to get delivery by id: %w", err)
	}
	return delivery, nil
}

const sqlGetDeliveriesByRecipientCampaign = `
SELECT id, recipient_id, campaign_id, trigger_id, channel, address, message, status, provider_message_id, error_message, created_at, updated_at
FROM deliveries
WHERE recipient_id = $1 AND campaign_id = $2
ORDER BY created_at DESC
`

// GetDeliveriesByRecipientCampaign retrieves the delivery history for a
// recipient within a campaign, newest first.
func (s *Store) GetDeliveriesByRecipientCampaign(ctx context.Context, recipientID, campaignID uuid.UUID) ([]Delivery, error) {
	var deliveries []Delivery
	err := s.db.SelectContext(ctx, &deliveries, sqlGetDeliveriesByRecipientCampaign, recipientID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deliveries by recipient and campaign: %w", err)
	}
	return deliveries, nil
}
