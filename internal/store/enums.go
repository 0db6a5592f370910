package store

// Campaign ENUMs
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

// Condition type ENUMs, matching the lifecycle event types that can satisfy
// a condition.
const (
	ConditionTypeMailDelivered    = "mail_delivered"
	ConditionTypeMailCampaignSent = "mail_campaign_sent"
	ConditionTypeCallCompleted    = "call_completed"
	ConditionTypeQRScanned        = "qr_scanned"
	ConditionTypePURLVisited      = "purl_visited"
	ConditionTypeFormSubmitted    = "form_submitted"
	ConditionTypeManual           = "manual"
)

// Trigger action ENUMs
const (
	TriggerActionSendGiftCard   = "send_gift_card"
	TriggerActionSendSMS        = "send_sms"
	TriggerActionSendEmail      = "send_email"
	TriggerActionTriggerWebhook = "trigger_webhook"
	TriggerActionUpdateCRM      = "update_crm"
)

// Condition status ENUMs
const (
	ConditionStatusPending   = "pending"
	ConditionStatusCompleted = "completed"
)

// Trigger ENUMs
const (
	TriggerStatusProcessing = "processing"
	TriggerStatusCompleted  = "completed"
	TriggerStatusFailed     = "failed"
)

// Reward unit ENUMs
const (
	RewardUnitStatusAvailable = "available"
	RewardUnitStatusAssigned  = "assigned"
)

// Delivery ENUMs
const (
	DeliveryChannelSMS   = "sms"
	DeliveryChannelEmail = "email"
)

const (
	DeliveryStatusPending = "pending"
	DeliveryStatusSent    = "sent"
	DeliveryStatusFailed  = "failed"
)

// CRM integration ENUMs
const (
	CRMIntegrationStatusActive = "active"
	CRMIntegrationStatusPaused = "paused"
)
