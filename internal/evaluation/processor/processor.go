package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

// EvaluationStore defines the database operations required by EvaluationProcessor
type EvaluationStore interface {
	GetCampaignByID(ctx context.Context, campaignID uuid.UUID) (store.Campaign, error)
	GetRecipientInCampaign(ctx context.Context, recipientID, campaignID uuid.UUID) (store.Recipient, error)
	GetConditionsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]store.Condition, error)
	GetStatusesForRecipientCampaign(ctx context.Context, recipientID, campaignID uuid.UUID) ([]store.ConditionStatus, error)
	CompleteConditionStatus(ctx context.Context, params store.CompleteConditionStatusParams) (store.ConditionStatus, bool, error)
}

// Dispatcher executes the trigger action of a newly completed condition.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipient store.Recipient, campaign store.Campaign, condition store.Condition, eventType string, metadata store.JSONB) (uuid.UUID, error)
}

// CatalogCache caches per-campaign condition catalogs with bounded staleness.
type CatalogCache interface {
	Get(campaignID uuid.UUID) ([]store.Condition, bool)
	Set(campaignID uuid.UUID, conditions []store.Condition)
}

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrRecipientNotFound = errors.New("recipient not found in campaign")
)

// Per-condition evaluation outcomes.
const (
	OutcomeCompleted        = "completed"
	OutcomeAlreadyCompleted = "already_completed"
	OutcomeEventTypeSkipped = "event_type_mismatch"
	OutcomeGated            = "gated"
	OutcomeDispatchFailed   = "dispatch_failed"
	OutcomeFailed           = "failed"
)

// ConditionResult reports what happened to one condition during evaluation.
type ConditionResult struct {
	ConditionID   uuid.UUID  `json:"condition_id"`
	SequenceOrder int        `json:"sequence_order"`
	ConditionType string     `json:"condition_type"`
	Outcome       string     `json:"outcome"`
	TriggerID     *uuid.UUID `json:"trigger_id,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// EvaluationResult is the aggregate outcome of one evaluation call.
type EvaluationResult struct {
	RecipientID uuid.UUID         `json:"recipient_id"`
	CampaignID  uuid.UUID         `json:"campaign_id"`
	Message     string            `json:"message"`
	Conditions  []ConditionResult `json:"conditions"`
}

type EvaluationProcessor struct {
	store      EvaluationStore
	dispatcher Dispatcher
	cache      CatalogCache
	logger     *observability.Logger
}

func New(store EvaluationStore, dispatcher Dispatcher, cache CatalogCache, logger *observability.Logger) EvaluationProcessor {
	return EvaluationProcessor{
		store:      store,
		dispatcher: dispatcher,
		cache:      cache,
		logger:     logger,
	}
}

// Evaluate walks the campaign's condition catalog in sequence order for one
// recipient and dispatches the trigger action of every condition the event
// newly completes.
//
// eventType filters which condition types are eligible; empty means all.
// Completed statuses are terminal and never re-dispatched. A dispatch failure
// is recorded per condition and does not stop evaluation of later conditions;
// only recipient/campaign/catalog load errors fail the whole call.
func (p EvaluationProcessor) Evaluate(ctx context.Context, recipientID, campaignID uuid.UUID, eventType string, metadata store.JSONB) (EvaluationResult, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "recipient_id", Value: recipientID.String()},
		observability.Field{Key: "campaign_id", Value: campaignID.String()},
		observability.Field{Key: "event_type", Value: eventType},
	)

	campaign, err := p.store.GetCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return EvaluationResult{}, ErrCampaignNotFound
		}
		p.logger.Error(ctx, "failed to load campaign", err)
		return EvaluationResult{}, fmt.Errorf("failed to load campaign: %w", err)
	}

	recipient, err := p.store.GetRecipientInCampaign(ctx, recipientID, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return EvaluationResult{}, ErrRecipientNotFound
		}
		p.logger.Error(ctx, "failed to load recipient", err)
		return EvaluationResult{}, fmt.Errorf("failed to load recipient: %w", err)
	}

	conditions, err := p.loadCatalog(ctx, campaignID)
	if err != nil {
		return EvaluationResult{}, err
	}

	result := EvaluationResult{
		RecipientID: recipientID,
		CampaignID:  campaignID,
	}

	if len(conditions) == 0 {
		result.Message = "no conditions to evaluate"
		return result, nil
	}

	statuses, err := p.store.GetStatusesForRecipientCampaign(ctx, recipientID, campaignID)
	if err != nil {
		p.logger.Error(ctx, "failed to load condition statuses", err)
		return EvaluationResult{}, fmt.Errorf("failed to load condition statuses: %w", err)
	}

	completed := make(map[uuid.UUID]bool, len(statuses))
	for _, status := range statuses {
		if status.Status == store.ConditionStatusCompleted {
			completed[status.ConditionID] = true
		}
	}

	for i, condition := range conditions {
		conditionResult := ConditionResult{
			ConditionID:   condition.ID,
			SequenceOrder: condition.SequenceOrder,
			ConditionType: condition.ConditionType,
		}

		switch {
		case completed[condition.ID]:
			conditionResult.Outcome = OutcomeAlreadyCompleted

		case eventType != "" && eventType != condition.ConditionType:
			conditionResult.Outcome = OutcomeEventTypeSkipped

		case conditionGated(conditions[:i], condition, completed):
			conditionResult.Outcome = OutcomeGated

		default:
			conditionResult = p.complete(ctx, recipient, campaign, condition, eventType, metadata, completed, conditionResult)
		}

		result.Conditions = append(result.Conditions, conditionResult)
	}

	result.Message = "evaluation complete"
	return result, nil
}

// complete marks the condition completed and, when this call performed the
// transition, dispatches its trigger action exactly once.
func (p EvaluationProcessor) complete(ctx context.Context, recipient store.Recipient, campaign store.Campaign, condition store.Condition, eventType string, metadata store.JSONB, completed map[uuid.UUID]bool, conditionResult ConditionResult) ConditionResult {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "condition_id", Value: condition.ID.String()},
		observability.Field{Key: "sequence_order", Value: condition.SequenceOrder},
	)

	_, transitioned, err := p.store.CompleteConditionStatus(ctx, store.CompleteConditionStatusParams{
		RecipientID: recipient.ID,
		CampaignID:  campaign.ID,
		ConditionID: condition.ID,
		Metadata:    metadata,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to complete condition status", err)
		conditionResult.Outcome = OutcomeFailed
		conditionResult.Error = err.Error()
		return conditionResult
	}

	// The status is completed either way; later conditions gate on that.
	completed[condition.ID] = true

	if !transitioned {
		// A concurrent evaluation won the upsert. Its call dispatches; this
		// one must not.
		conditionResult.Outcome = OutcomeAlreadyCompleted
		return conditionResult
	}

	triggerID, err := p.dispatcher.Dispatch(ctx, recipient, campaign, condition, eventType, metadata)
	if triggerID != uuid.Nil {
		conditionResult.TriggerID = &triggerID
	}
	if err != nil {
		// Completion and trigger outcome are recorded independently: the
		// condition stays completed so it is never re-fired, and the failure
		// lives on the trigger audit row.
		p.logger.Error(ctx, "trigger dispatch failed", err)
		conditionResult.Outcome = OutcomeDispatchFailed
		conditionResult.Error = err.Error()
		return conditionResult
	}

	conditionResult.Outcome = OutcomeCompleted
	return conditionResult
}

// loadCatalog returns the campaign's ordered condition catalog, preferring
// the cache. Empty catalogs are cached too.
func (p EvaluationProcessor) loadCatalog(ctx context.Context, campaignID uuid.UUID) ([]store.Condition, error) {
	if conditions, ok := p.cache.Get(campaignID); ok {
		return conditions, nil
	}

	conditions, err := p.store.GetConditionsByCampaign(ctx, campaignID)
	if err != nil {
		p.logger.Error(ctx, "failed to load condition catalog", err)
		return nil, fmt.Errorf("failed to load condition catalog: %w", err)
	}

	p.cache.Set(campaignID, conditions)
	return conditions, nil
}
