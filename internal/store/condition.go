package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateConditionParams represents parameters for creating a campaign condition
type CreateConditionParams struct {
	CampaignID      uuid.UUID
	SequenceOrder   int
	ConditionType   string
	IsRequired      bool
	TriggerAction   string
	RewardPoolID    *uuid.UUID
	MessageTemplate *string
	WebhookURL      *string
}

const sqlCreateCondition = `
INSERT INTO campaign_conditions (campaign_id, sequence_order, condition_type, is_required, trigger_action, reward_pool_id, message_template, webhook_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, campaign_id, sequence_order, condition_type, is_required, trigger_action, reward_pool_id, message_template, webhook_url, created_at, updated_at
`

// CreateCondition creates a new condition for a campaign. Conditions are
// configured by the campaign builder; the engine itself only reads them.
func (s *Store) CreateCondition(ctx context.Context, params CreateConditionParams) (Condition, error) {
	var condition Condition
	err := s.db.GetContext(ctx, &condition, sqlCreateCondition,
		params.CampaignID,
		params.SequenceOrder,
		params.ConditionType,
		params.IsRequired,
		params.TriggerAction,
		params.RewardPoolID,
		params.MessageTemplate,
		params.WebhookURL)
	if err != nil {
		return Condition{}, fmt.Errorf("failed to create condition: %w", err)
	}
	return condition, nil
}

const sqlGetConditionByID = `
SELECT id, campaign_id, sequence_order, condition_type, is_required, trigger_action, reward_pool_id, message_template, webhook_url, created_at, updated_at
FROM campaign_conditions
WHERE id = $1
`

// GetConditionByID retrieves a condition by ID
func (s *Store) GetConditionByID(ctx context.Context, conditionID uuid.UUID) (Condition, error) {
	var condition Condition
	err := s.db.GetContext(ctx, &condition, sqlGetConditionByID, conditionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Condition{}, ErrNotFound
		}
		return Condition{}, fmt.Errorf("failed to get condition by id: %w", err)
	}
	return condition, nil
}

const sqlGetConditionsByCampaign = `
SELECT id, campaign_id, sequence_order, condition_type, is_required, trigger_action, reward_pool_id, message_template, webhook_url, created_at, updated_at
FROM campaign_conditions
WHERE campaign_id = $1
ORDER BY sequence_order ASC
`

// GetConditionsByCampaign retrieves a campaign's condition catalog ordered
// ascending by sequence_order. An empty catalog is a normal outcome.
func (s *Store) GetConditionsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]Condition, error) {
	var conditions []Condition
	err := s.db.SelectContext(ctx, &conditions, sqlGetConditionsByCampaign, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conditions by campaign: %w", err)
	}
	return conditions, nil
}
