package dispatch

import (
	"context"
	"fmt"

	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

// emailAction is the send_email executor. A condition bound to a reward pool
// becomes an email-flavored gift-card delivery; otherwise it is a generic
// templated email.
type emailAction struct {
	fulfiller  *rewardFulfiller
	deliveries DeliveryStore
	sender     EmailSender
	logger     *observability.Logger
}

func (a *emailAction) Execute(ctx context.Context, req Request) (Outcome, error) {
	if req.Condition.RewardPoolID != nil {
		return a.fulfiller.fulfillByEmail(ctx, req)
	}

	if req.Recipient.Email == nil || *req.Recipient.Email == "" {
		return Outcome{}, fmt.Errorf("recipient %s has no email address: %w", req.Recipient.ID, ErrRecipientMissingChannel)
	}

	message := renderMessage(req.Condition.MessageTemplate, req.Recipient, req.Campaign)
	subject := fmt.Sprintf("An update from %s", req.Campaign.Name)

	triggerID := req.TriggerID
	delivery, err := a.deliveries.CreateDelivery(ctx, store.CreateDeliveryParams{
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

	messageID, err := a.sender.SendEmail(ctx, *req.Recipient.Email, subject, message)
	if err != nil {
		if markErr := a.deliveries.MarkDeliveryFailed(ctx, delivery.ID, err.Error()); markErr != nil {
			a.logger.Error(ctx, "failed to mark delivery failed", markErr)
		}
		return Outcome{}, fmt.Errorf("failed to send email: %w", err)
	}

	if err := a.deliveries.MarkDeliverySent(ctx, delivery.ID, messageID); err != nil {
		a.logger.Error(ctx, "failed to mark delivery sent", err)
	}

	return Outcome{
		DeliveryID:        &delivery.ID,
		ProviderMessageID: &messageID,
	}, nil
}
