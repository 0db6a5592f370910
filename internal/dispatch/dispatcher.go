// Package dispatch executes the trigger action configured on a newly
// completed campaign condition. Every execution is book-ended by a trigger
// audit row: created in processing state before any side effect, finalized as
// completed or failed afterward, never deleted.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

var (
	// ErrUnknownTriggerAction is returned when a condition is configured with
	// an action kind the dispatcher has no executor for.
	ErrUnknownTriggerAction = errors.New("unknown trigger action")

	// ErrRecipientMissingChannel is a configuration failure: the action needs
	// a contact channel (phone or email) the recipient does not have. Not
	// retried; requires operator remediation.
	ErrRecipientMissingChannel = errors.New("recipient missing contact channel")

	// ErrRewardPoolNotConfigured is returned when a gift-card action has no
	// reward pool bound to its condition.
	ErrRewardPoolNotConfigured = errors.New("condition has no reward pool configured")

	// ErrWebhookURLNotConfigured is returned when a webhook action has no URL.
	ErrWebhookURLNotConfigured = errors.New("condition has no webhook url configured")

	// ErrNoAvailableInventory signals pool exhaustion. Kept distinct from
	// configuration errors because its remediation is restocking, not a
	// config fix.
	ErrNoAvailableInventory = errors.New("no available gift card inventory")
)

// Request carries everything an action needs to execute for one condition.
type Request struct {
	Recipient store.Recipient
	Campaign  store.Campaign
	Condition store.Condition
	TriggerID uuid.UUID
	EventType string
	Metadata  store.JSONB
}

// Outcome is what a successful action reports back for the trigger audit row.
type Outcome struct {
	DeliveryID        *uuid.UUID
	ProviderMessageID *string
	Metadata          store.JSONB
}

// Action executes one trigger-action kind.
type Action interface {
	Execute(ctx context.Context, req Request) (Outcome, error)
}

// TriggerStore writes the trigger audit trail.
type TriggerStore interface {
	CreateTrigger(ctx context.Context, params store.CreateTriggerParams) (store.Trigger, error)
	CompleteTrigger(ctx context.Context, triggerID uuid.UUID, params store.CompleteTriggerParams) error
	FailTrigger(ctx context.Context, triggerID uuid.UUID, errorMessage string) error
}

// ClaimStore performs the atomic gift-card claim.
type ClaimStore interface {
	ClaimRewardUnit(ctx context.Context, params store.ClaimRewardUnitParams) (store.ClaimResult, error)
}

// DeliveryStore records outbound notification attempts.
type DeliveryStore interface {
	CreateDelivery(ctx context.Context, params store.CreateDeliveryParams) (store.Delivery, error)
	MarkDeliverySent(ctx context.Context, deliveryID uuid.UUID, providerMessageID string) error
	MarkDeliveryFailed(ctx context.Context, deliveryID uuid.UUID, errorMessage string) error
}

// CRMStore reads campaign CRM integration configuration.
type CRMStore interface {
	GetActiveCRMIntegrationByCampaign(ctx context.Context, campaignID uuid.UUID) (store.CRMIntegration, error)
}

// SMSSender delivers a text message and returns the provider message ID.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// EmailSender delivers an HTML email and returns the provider message ID.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlContent string) (string, error)
}

// Dispatcher maps trigger-action kinds to their executors.
type Dispatcher struct {
	triggers TriggerStore
	actions  map[string]Action
	logger   *observability.Logger
}

// Config wires the dispatcher's collaborators.
type Config struct {
	Triggers       TriggerStore
	Claims         ClaimStore
	Deliveries     DeliveryStore
	CRM            CRMStore
	SMSSender      SMSSender
	EmailSender    EmailSender
	WebhookTimeout time.Duration
	Logger         *observability.Logger
}

// New builds a dispatcher with the standard action table.
func New(cfg Config) *Dispatcher {
	fulfiller := &rewardFulfiller{
		claims:      cfg.Claims,
		deliveries:  cfg.Deliveries,
		smsSender:   cfg.SMSSender,
		emailSender: cfg.EmailSender,
		logger:      cfg.Logger,
	}

	webhook := &webhookAction{
		client:  &http.Client{Timeout: cfg.WebhookTimeout},
		timeout: cfg.WebhookTimeout,
		logger:  cfg.Logger,
	}

	return &Dispatcher{
		triggers: cfg.Triggers,
		logger:   cfg.Logger,
		actions: map[string]Action{
			store.TriggerActionSendGiftCard: &giftCardAction{fulfiller: fulfiller},
			store.TriggerActionSendSMS: &smsAction{
				deliveries: cfg.Deliveries,
				sender:     cfg.SMSSender,
				logger:     cfg.Logger,
			},
			store.TriggerActionSendEmail: &emailAction{
				fulfiller:  fulfiller,
				deliveries: cfg.Deliveries,
				sender:     cfg.EmailSender,
				logger:     cfg.Logger,
			},
			store.TriggerActionTriggerWebhook: webhook,
			store.TriggerActionUpdateCRM: &crmAction{
				crm:     cfg.CRM,
				webhook: webhook,
				logger:  cfg.Logger,
			},
		},
	}
}

// Dispatch executes the condition's trigger action and returns the trigger
// audit row's ID. The trigger row is created before any side effect and
// finalized before Dispatch returns, so a failure is never silent: the error
// lands on the trigger row and is also returned to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient store.Recipient, campaign store.Campaign, condition store.Condition, eventType string, metadata store.JSONB) (uuid.UUID, error) {
	trigger, err := d.triggers.CreateTrigger(ctx, store.CreateTriggerParams{
		RecipientID:   recipient.ID,
		CampaignID:    campaign.ID,
		ConditionID:   condition.ID,
		TriggerAction: condition.TriggerAction,
		Metadata:      metadata,
	})
	if err != nil {
		d.logger.Error(ctx, "failed to create trigger record", err)
		return uuid.Nil, fmt.Errorf("failed to create trigger record: %w", err)
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "trigger_id", Value: trigger.ID.String()},
		observability.Field{Key: "trigger_action", Value: condition.TriggerAction},
		observability.Field{Key: "condition_id", Value: condition.ID.String()},
	)

	action, ok := d.actions[condition.TriggerAction]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownTriggerAction, condition.TriggerAction)
		d.fail(ctx, trigger.ID, err)
		return trigger.ID, err
	}

	outcome, err := action.Execute(ctx, Request{
		Recipient: recipient,
		Campaign:  campaign,
		Condition: condition,
		TriggerID: trigger.ID,
		EventType: eventType,
		Metadata:  metadata,
	})
	if err != nil {
		d.fail(ctx, trigger.ID, err)
		return trigger.ID, err
	}

	err = d.triggers.CompleteTrigger(ctx, trigger.ID, store.CompleteTriggerParams{
		DeliveryID:        outcome.DeliveryID,
		ProviderMessageID: outcome.ProviderMessageID,
		Metadata:          outcome.Metadata,
	})
	if err != nil {
		d.logger.Error(ctx, "failed to complete trigger record", err)
		return trigger.ID, fmt.Errorf("failed to complete trigger record: %w", err)
	}

	d.logger.Info(ctx, "trigger action dispatched")
	return trigger.ID, nil
}

// fail marks the trigger row failed. The original action error propagates
// regardless of whether the bookkeeping write succeeds.
func (d *Dispatcher) fail(ctx context.Context, triggerID uuid.UUID, actionErr error) {
	d.logger.Error(ctx, "trigger action failed", actionErr)
	if err := d.triggers.FailTrigger(ctx, triggerID, actionErr.Error()); err != nil {
		d.logger.Error(ctx, "failed to mark trigger failed", err)
	}
}
