package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JSONB is a custom type for JSONB fields
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("incompatible type for JSONB")
	}

	// Handle empty or null JSON
	if len(bytes) == 0 || string(bytes) == "null" {
		*j = make(JSONB)
		return nil
	}

	result := make(JSONB)
	err := json.Unmarshal(bytes, &result)
	if err != nil {
		return err
	}
	*j = result
	return nil
}

// Campaign is the campaign identity the engine evaluates against. Campaign
// configuration is owned by the platform; the engine only reads it.
type Campaign struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Name      string    `db:"name" json:"name"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Recipient is a mail-piece recipient enrolled in a campaign.
type Recipient struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CampaignID uuid.UUID `db:"campaign_id" json:"campaign_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Email      *string   `db:"email" json:"email,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Condition is one entry of a campaign's ordered condition catalog.
// SequenceOrder is a positive integer, unique within the campaign, and defines
// evaluation order. Once referenced by completed status records a condition is
// treated as immutable by the engine.
type Condition struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	CampaignID      uuid.UUID  `db:"campaign_id" json:"campaign_id"`
	SequenceOrder   int        `db:"sequence_order" json:"sequence_order"`
	ConditionType   string     `db:"condition_type" json:"condition_type"`
	IsRequired      bool       `db:"is_required" json:"is_required"`
	TriggerAction   string     `db:"trigger_action" json:"trigger_action"`
	RewardPoolID    *uuid.UUID `db:"reward_pool_id" json:"reward_pool_id,omitempty"`
	MessageTemplate *string    `db:"message_template" json:"message_template,omitempty"`
	WebhookURL      *string    `db:"webhook_url" json:"webhook_url,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ConditionStatus is the per-(recipient, condition) completion record.
// Rows are created lazily on the first satisfying event; completed is terminal.
type ConditionStatus struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	RecipientID uuid.UUID  `db:"recipient_id" json:"recipient_id"`
	CampaignID  uuid.UUID  `db:"campaign_id" json:"campaign_id"`
	ConditionID uuid.UUID  `db:"condition_id" json:"condition_id"`
	Status      string     `db:"status" json:"status"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Metadata    JSONB      `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Trigger is the audit record for one attempted trigger-action execution.
// Rows are never deleted; they form the retry/observability trail.
type Trigger struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	RecipientID       uuid.UUID  `db:"recipient_id" json:"recipient_id"`
	CampaignID        uuid.UUID  `db:"campaign_id" json:"campaign_id"`
	ConditionID       uuid.UUID  `db:"condition_id" json:"condition_id"`
	TriggerAction     string     `db:"trigger_action" json:"trigger_action"`
	Status            string     `db:"status" json:"status"`
	ErrorMessage      *string    `db:"error_message" json:"error_message,omitempty"`
	DeliveryID        *uuid.UUID `db:"delivery_id" json:"delivery_id,omitempty"`
	ProviderMessageID *string    `db:"provider_message_id" json:"provider_message_id,omitempty"`
	Metadata          JSONB      `db:"metadata" json:"metadata,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// RewardPool groups claimable gift-card units under one brand/denomination set.
type RewardPool struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Name      string    `db:"name" json:"name"`
	BrandName string    `db:"brand_name" json:"brand_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RewardUnit is one claimable gift-card code. Once assigned it is never
// reassigned; the claim operation enforces that, not application checks.
type RewardUnit struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PoolID            uuid.UUID  `db:"pool_id" json:"pool_id"`
	Code              string     `db:"code" json:"code"`
	DenominationCents int        `db:"denomination_cents" json:"denomination_cents"`
	Status            string     `db:"status" json:"status"`
	AssignedAt        *time.Time `db:"assigned_at" json:"assigned_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// GiftCardAssignment is the durable link recording which unit was granted for
// which (recipient, campaign, condition). The presence of a row here is what
// "already rewarded" means.
type GiftCardAssignment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RewardUnitID uuid.UUID `db:"reward_unit_id" json:"reward_unit_id"`
	RecipientID  uuid.UUID `db:"recipient_id" json:"recipient_id"`
	CampaignID   uuid.UUID `db:"campaign_id" json:"campaign_id"`
	ConditionID  uuid.UUID `db:"condition_id" json:"condition_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Delivery records one attempt to notify a recipient (SMS or email).
type Delivery struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	RecipientID       uuid.UUID  `db:"recipient_id" json:"recipient_id"`
	CampaignID        uuid.UUID  `db:"campaign_id" json:"campaign_id"`
	TriggerID         *uuid.UUID `db:"trigger_id" json:"trigger_id,omitempty"`
	Channel           string     `db:"channel" json:"channel"`
	Address           string     `db:"address" json:"address"`
	Message           string     `db:"message" json:"message"`
	Status            string     `db:"status" json:"status"`
	ProviderMessageID *string    `db:"provider_message_id" json:"provider_message_id,omitempty"`
	ErrorMessage      *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// CRMIntegration is an outbound CRM push target configured for a campaign.
type CRMIntegration struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CampaignID uuid.UUID `db:"campaign_id" json:"campaign_id"`
	Provider   string    `db:"provider" json:"provider"`
	URL        string    `db:"url" json:"url"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
