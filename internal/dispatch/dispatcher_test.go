package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"fulfillment-server/internal/store"
)

func TestDispatchUnknownAction(t *testing.T) {
	f := newDispatcherFixture(0)
	campaign := testCampaign()
	recipient := testRecipient(campaign.ID)
	condition := store.Condition{
		ID:            uuid.New(),
		CampaignID:    campaign.ID,
		SequenceOrder: 1,
		TriggerAction: "teleport_reward",
	}

	triggerID, err := f.dispatcher.Dispatch(context.Background(), recipient, campaign, condition, store.ConditionTypeManual, nil)
	if !errors.Is(err, ErrUnknownTriggerAction) {
		t.Fatalf("got %v, want ErrUnknownTriggerAction", err)
	}
	if triggerID == uuid.Nil {
		t.Fatal("expected a trigger id even on failure")
	}
	if msg, ok := f.triggers.failed[triggerID]; !ok || msg == "" {
		t.Errorf("trigger row not marked failed: %v", f.triggers.failed)
	}
}

func TestDispatchCompletesTriggerOnSuccess(t *testing.T) {
	f := newDispatcherFixture(0)
	campaign := testCampaign()
	recipient := testRecipient(campaign.ID)
	condition := store.Condition{
		ID:            uuid.New(),
		CampaignID:    campaign.ID,
		SequenceOrder: 1,
		ConditionType: store.ConditionTypeQRScanned,
		TriggerAction: store.TriggerActionSendSMS,
	}

	triggerID, err := f.dispatcher.Dispatch(context.Background(), recipient, campaign, condition, store.ConditionTypeQRScanned, nil)
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	params, ok := f.triggers.completed[triggerID]
	if !ok {
		t.Fatal("trigger row not marked completed")
	}
	if params.DeliveryID == nil {
		t.Error("completed trigger missing delivery id")
	}
	if params.ProviderMessageID == nil {
		t.Error("completed trigger missing provider message id")
	}
	if f.smsSender.sentCount() != 1 {
		t.Errorf("sms sent %d times, want 1", f.smsSender.sentCount())
	}
}

func TestDispatchMarksTriggerFailedOnActionError(t *testing.T) {
	f := newDispatcherFixture(0)
	f.smsSender.err = errProviderDown
	campaign := testCampaign()
	recipient := testRecipient(campaign.ID)
	condition := store.Condition{
		ID:            uuid.New(),
		CampaignID:    campaign.ID,
		SequenceOrder: 1,
		ConditionType: store.ConditionTypeQRScanned,
		TriggerAction: store.TriggerActionSendSMS,
	}

	triggerID, err := f.dispatcher.Dispatch(context.Background(), recipient, campaign, condition, store.ConditionTypeQRScanned, nil)
	if err == nil {
		t.Fatal("expected error from failing sms provider")
	}
	if _, ok := f.triggers.failed[triggerID]; !ok {
		t.Error("trigger row not marked failed")
	}
	if _, ok := f.triggers.completed[triggerID]; ok {
		t.Error("failed trigger must not also be completed")
	}
	// The delivery attempt is recorded as failed with the provider error.
	if len(f.deliveries.failed) != 1 {
		t.Errorf("got %d failed deliveries, want 1", len(f.deliveries.failed))
	}
}

func TestDispatchCreateTriggerFailure(t *testing.T) {
	f := newDispatcherFixture(0)
	f.triggers.createErr = errors.New("db down")
	campaign := testCampaign()
	recipient := testRecipient(campaign.ID)
	condition := store.Condition{
		ID:            uuid.New(),
		CampaignID:    campaign.ID,
		TriggerAction: store.TriggerActionSendSMS,
	}

	triggerID, err := f.dispatcher.Dispatch(context.Background(), recipient, campaign, condition, "", nil)
	if err == nil {
		t.Fatal("expected error when trigger row cannot be created")
	}
	if triggerID != uuid.Nil {
		t.Errorf("got trigger id %s, want uuid.Nil", triggerID)
	}
	if f.smsSender.sentCount() != 0 {
		t.Error("no side effect may run without a trigger audit row")
	}
}

func TestDispatchEmailAction(t *testing.T) {
	f := newDispatcherFixture(0)
	campaign := testCampaign()
	recipient := testRecipient(campaign.ID)
	condition := store.Condition{
		ID:            uuid.New(),
		CampaignID:    campaign.ID,
		SequenceOrder: 1,
		ConditionType: store.ConditionTypeFormSubmitted,
		TriggerAction: store.TriggerActionSendEmail,
	}

	triggerID, err := f.dispatcher.Dispatch(context.Background(), recipient, campaign, condition, store.ConditionTypeFormSubmitted, nil)
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if _, ok := f.triggers.completed[triggerID]; !ok {
		t.Fatal("trigger row not marked completed")
	}
	if len(f.email.sent) != 1 {
		t.Errorf("email sent %d times, want 1", len(f.email.sent))
	}
	if f.deliveries.count() != 1 {
		t.Errorf("got %d deliveries, want 1", f.deliveries.count())
	}
	if f.deliveries.created[0].Channel != store.DeliveryChannelEmail {
		t.Errorf("delivery channel = %s, want email", f.deliveries.created[0].Channel)
	}
}

func TestDispatchEmailMissingAddress(t *testing.T) {
	f := newDispatcherFixture(0)
	campaign := testCampaign()
	recipient := testRecipient(campaign.ID)
	recipient.Email = nil
	condition := store.Condition{
		ID:            uuid.New(),
		CampaignID:    campaign.ID,
		TriggerAction: store.TriggerActionSendEmail,
	}

	_, err := f.dispatcher.Dispatch(context.Background(), recipient, campaign, condition, "", nil)
	if !errors.Is(err, ErrRecipientMissingChannel) {
		t.Fatalf("got %v, want ErrRecipientMissingChannel", err)
	}
}
