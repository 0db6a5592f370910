package dispatch

import (
	"context"
	"fmt"

	"fulfillment-server/internal/clients/sms"
	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

// smsAction is the send_sms executor: a plain templated text message with no
// reward claim involved.
type smsAction struct {
	deliveries DeliveryStore
	sender     SMSSender
	logger     *observability.Logger
}

func (a *smsAction) Execute(ctx context.Context, req Request) (Outcome, error) {
	if req.Recipient.Phone == nil || *req.Recipient.Phone == "" {
		return Outcome{}, fmt.Errorf("recipient %s has no phone number: %w", req.Recipient.ID, ErrRecipientMissingChannel)
	}

	phone, err := sms.CanonicalPhone(*req.Recipient.Phone)
	if err != nil {
		return Outcome{}, fmt.Errorf("recipient %s phone %q: %w", req.Recipient.ID, *req.Recipient.Phone, err)
	}

	message := renderMessage(req.Condition.MessageTemplate, req.Recipient, req.Campaign)

	triggerID := req.TriggerID
	delivery, err := a.deliveries.CreateDelivery(ctx, store.CreateDeliveryParams{
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

	messageID, err := a.sender.SendSMS(ctx, phone, message)
	if err != nil {
		if markErr := a.deliveries.MarkDeliveryFailed(ctx, delivery.ID, err.Error()); markErr != nil {
			a.logger.Error(ctx, "failed to mark delivery failed", markErr)
		}
		return Outcome{}, fmt.Errorf("failed to send sms: %w", err)
	}

	if err := a.deliveries.MarkDeliverySent(ctx, delivery.ID, messageID); err != nil {
		a.logger.Error(ctx, "failed to mark delivery sent", err)
	}

	return Outcome{
		DeliveryID:        &delivery.ID,
		ProviderMessageID: &messageID,
	}, nil
}
