package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const sqlGetStatusesForRecipientCampaign = `
SELECT id, recipient_id, campaign_id, condition_id, status, completed_at, metadata, created_at
FROM recipient_condition_status
WHERE recipient_id = $1 AND campaign_id = $2
`

// GetStatusesForRecipientCampaign retrieves all condition status rows for a
// recipient within a campaign.
func (s *Store) GetStatusesForRecipientCampaign(ctx context.Context, recipientID, campaignID uuid.UUID) ([]ConditionStatus, error) {
	var statuses []ConditionStatus
	err := s.db.SelectContext(ctx, &statuses, sqlGetStatusesForRecipientCampaign, recipientID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get condition statuses: %w", err)
	}
	return statuses, nil
}

// CompleteConditionStatusParams represents parameters for marking a condition
// completed for a recipient.
type CompleteConditionStatusParams struct {
	RecipientID uuid.UUID
	CampaignID  uuid.UUID
	ConditionID uuid.UUID
	Metadata    JSONB
}

const sqlCompleteConditionStatus = `
INSERT INTO recipient_condition_status (recipient_id, campaign_id, condition_id, status, completed_at, metadata)
VALUES ($1, $2, $3, 'completed', CURRENT_TIMESTAMP, $4)
ON CONFLICT (recipient_id, condition_id)
DO UPDATE SET status = 'completed',
              completed_at = COALESCE(recipient_condition_status.completed_at, CURRENT_TIMESTAMP),
              metadata = EXCLUDED.metadata
WHERE recipient_condition_status.status <> 'completed'
RETURNING id, recipient_id, campaign_id, condition_id, status, completed_at, metadata, created_at
`

const sqlGetStatusForCondition = `
SELECT id, recipient_id, campaign_id, condition_id, status, completed_at, metadata, created_at
FROM recipient_condition_status
WHERE recipient_id = $1 AND condition_id = $2
`

// CompleteConditionStatus upserts the status row for (recipient, condition) to
// completed. The upsert is idempotent under at-least-once event delivery: the
// returned bool reports whether this call performed the pending→completed
// transition. A row that is already completed is left untouched and reported
// with transitioned=false, so exactly one concurrent caller observes the
// transition.
func (s *Store) CompleteConditionStatus(ctx context.Context, params CompleteConditionStatusParams) (ConditionStatus, bool, error) {
	metadata := params.Metadata
	if metadata == nil {
		metadata = JSONB{}
	}

	var status ConditionStatus
	err := s.db.GetContext(ctx, &status, sqlCompleteConditionStatus,
		params.RecipientID,
		params.CampaignID,
		params.ConditionID,
		metadata)
	if err == nil {
		return status, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return ConditionStatus{}, false, fmt.Errorf("failed to complete condition status: %w", err)
	}

	// Conflict on an already-completed row: the upsert's WHERE clause filtered
	// it out. Read the existing terminal row back.
	err = s.db.GetContext(ctx, &status, sqlGetStatusForCondition, params.RecipientID, params.ConditionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ConditionStatus{}, false, ErrNotFound
		}
		return ConditionStatus{}, false, fmt.Errorf("failed to get existing condition status: %w", err)
	}
	return status, false, nil
}
