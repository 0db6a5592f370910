package dispatch

import (
	"context"
	"errors"
	"fmt"

	"fulfillment-server/internal/clients/sms"
	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

// rewardFulfiller runs the gift-card claim and delivery sequence shared by
// the send_gift_card action (SMS delivery) and the reward-flavored
// send_email action.
type rewardFulfiller struct {
	claims      ClaimStore
	deliveries  DeliveryStore
	smsSender   SMSSender
	emailSender EmailSender
	logger      *observability.Logger
}

// claim runs the atomic claim for the request's condition. The store
// operation enforces at-most-once assignment per (recipient, condition); an
// existing assignment comes back as AlreadyAssigned, never as an error.
func (f *rewardFulfiller) claim(ctx context.Context, req Request) (store.ClaimResult, error) {
	if req.Condition.RewardPoolID == nil {
		return store.ClaimResult{}, fmt.Errorf("condition %s: %w", req.Condition.ID, ErrRewardPoolNotConfigured)
	}

	result, err := f.claims.ClaimRewardUnit(ctx, store.ClaimRewardUnitParams{
		PoolID:      *req.Condition.RewardPoolID,
		RecipientID: req.Recipient.ID,
		CampaignID:  req.Campaign.ID,
		ConditionID: req.Condition.ID,
	})
	if err != nil {
		if errors.Is(err, store.ErrNoAvailableUnits) {
			return store.ClaimResult{}, fmt.Errorf("pool %s: %w", *req.Condition.RewardPoolID, ErrNoAvailableInventory)
		}
		return store.ClaimResult{}, fmt.Errorf("failed to claim reward unit: %w", err)
	}
	return result, nil
}

// alreadyAssignedOutcome is the success-without-side-effect result for a
// duplicate claim. No delivery is created and nothing is re-sent.
func alreadyAssignedOutcome(result store.ClaimResult) Outcome {
	return Outcome{
		Metadata: store.JSONB{
			"already_assigned": true,
			"reward_unit_id":   result.UnitID.String(),
		},
	}
}

// fulfillBySMS claims a unit and delivers its code by text message.
func (f *rewardFulfiller) fulfillBySMS(ctx context.Context, req Request) (Outcome, error) {
	if req.Recipient.Phone == nil || *req.Recipient.Phone == "" {
		return Outcome{}, fmt.Errorf("recipient %s has no phone number: %w", req.Recipient.ID, ErrRecipientMissingChannel)
	}

	phone, err := sms.CanonicalPhone(*req.Recipient.Phone)
	if err != nil {
		return Outcome{}, fmt.Errorf("recipient %s phone %q: %w", req.Recipient.ID, *req.Recipient.Phone, err)
	}

	result, err := f.claim(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	if result.AlreadyAssigned {
		f.logger.Info(observability.WithFields(ctx,
			observability.Field{Key: "reward_unit_id", Value: result.UnitID.String()},
		), "gift card already assigned, skipping delivery")
		return alreadyAssignedOutcome(result), nil
	}

	message := renderRewardMessage(req.Condition.MessageTemplate, req.Recipient, req.Campaign, result)

	triggerID := req.TriggerID
	delivery, err := f.deliveries.CreateDelivery(ctx, store.CreateDeliveryParams{
		RecipientID: req.Recipient.ID,
		CampaignID:  req.Campaign.ID,
		TriggerID:   &triggerID,
		Channel:     store.DeliveryChannelSMS,
		Address:     phone,
		Message:     message,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create delivery record: %w", err)
	}

	messageID, err := f.smsSender.SendSMS(ctx, phone, message)
	if err != nil {
		if markErr := f.deliveries.MarkDeliveryFailed(ctx, delivery.ID, err.Error()); markErr != nil {
			f.logger.Error(ctx, "failed to mark delivery failed", markErr)
		}
		return Outcome{}, fmt.Errorf("failed to send gift card sms: %w", err)
	}

	if err := f.deliveries.MarkDeliverySent(ctx, delivery.ID, messageID); err != nil {
		f.logger.Error(ctx, "failed to mark delivery sent", err)
	}

	return Outcome{
		DeliveryID:        &delivery.ID,
		ProviderMessageID: &messageID,
		Metadata: store.JSONB{
			"reward_unit_id":     result.UnitID.String(),
			"denomination_cents": result.DenominationCents,
			"brand_name":         result.BrandName,
		},
	}, nil
}

// fulfillByEmail claims a unit and delivers its code by email.
func (f *rewardFulfiller) fulfillByEmail(ctx context.Context, req Request) (Outcome, error) {
	if req.Recipient.Email == nil || *req.Recipient.Email == "" {
		return Outcome{}, fmt.Errorf("recipient %s has no email address: %w", req.Recipient.ID, ErrRecipientMissingChannel)
	}

	result, err := f.claim(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	if result.AlreadyAssigned {
		f.logger.Info(observability.WithFields(ctx,
			observability.Field{Key: "reward_unit_id", Value: result.UnitID.String()},
		), "gift card already assigned, skipping delivery")
		return alreadyAssignedOutcome(result), nil
	}

	message := renderRewardMessage(req.Condition.MessageTemplate, req.Recipient, req.Campaign, result)
	subject := fmt.Sprintf("Your %s gift card from %s", result.BrandName, req.Campaign.Name)

	triggerID := req.TriggerID
	delivery, err := f.deliveries.CreateDelivery(ctx, store.CreateDeliveryParams{
		RecipientID: req.Recipient.ID,
		CampaignID:  req.Campaign.ID,
		TriggerID:   &triggerID,
		Channel:     store.DeliveryChannelEmail,
		Address:     *req.Recipient.Email,
		Message:     message,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create delivery record: %w", err)
	}

	messageID, err := f.emailSender.SendEmail(ctx, *req.Recipient.Email, subject, message)
	if err != nil {
		if markErr := f.deliveries.MarkDeliveryFailed(ctx, delivery.ID, err.Error()); markErr != nil {
			f.logger.Error(ctx, "failed to mark delivery failed", markErr)
		}
		return Outcome{}, fmt.Errorf("failed to send gift card email: %w", err)
	}

	if err := f.deliveries.MarkDeliverySent(ctx, delivery.ID, messageID); err != nil {
		f.logger.Error(ctx, "failed to mark delivery sent", err)
	}

	return Outcome{
		DeliveryID:        &delivery.ID,
		ProviderMessageID: &messageID,
		Metadata: store.JSONB{
			"reward_unit_id":     result.UnitID.String(),
			"denomination_cents": result.DenominationCents,
			"brand_name":         result.BrandName,
		},
	}, nil
}
