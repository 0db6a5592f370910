package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

type fakeTriggerStore struct {
	mu        sync.Mutex
	created   []store.Trigger
	completed map[uuid.UUID]store.CompleteTriggerParams
	failed    map[uuid.UUID]string
	createErr error
}

func newFakeTriggerStore() *fakeTriggerStore {
	return &fakeTriggerStore{
		completed: make(map[uuid.UUID]store.CompleteTriggerParams),
		failed:    make(map[uuid.UUID]string),
	}
}

func (f *fakeTriggerStore) CreateTrigger(_ context.Context, params store.CreateTriggerParams) (store.Trigger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return store.Trigger{}, f.createErr
	}
	trigger := store.Trigger{
		ID:            uuid.New(),
		RecipientID:   params.RecipientID,
		CampaignID:    params.CampaignID,
		ConditionID:   params.ConditionID,
		TriggerAction: params.TriggerAction,
		Status:        store.TriggerStatusProcessing,
		Metadata:      params.Metadata,
	}
	f.created = append(f.created, trigger)
	return trigger, nil
}

func (f *fakeTriggerStore) CompleteTrigger(_ context.Context, triggerID uuid.UUID, params store.CompleteTriggerParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[triggerID] = params
	return nil
}

func (f *fakeTriggerStore) FailTrigger(_ context.Context, triggerID uuid.UUID, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[triggerID] = errorMessage
	return nil
}

// fakeClaimStore mirrors the store's claim semantics: at most one unit per
// (recipient, condition), bounded inventory, duplicate claims report the
// winner's unit.
type fakeClaimStore struct {
	mu          sync.Mutex
	available   []store.RewardUnit
	brandName   string
	assignments map[string]store.ClaimResult
	claimCalls  int
}

func newFakeClaimStore(units int, brandName string) *fakeClaimStore {
	f := &fakeClaimStore{
		brandName:   brandName,
		assignments: make(map[string]store.ClaimResult),
	}
	for i := 0; i < units; i++ {
		f.available = append(f.available, store.RewardUnit{
			ID:                uuid.New(),
			Code:              uuid.New().String()[:8],
			DenominationCents: 2500,
			Status:            store.RewardUnitStatusAvailable,
		})
	}
	return f
}

func assignmentKey(recipientID, conditionID uuid.UUID) string {
	return recipientID.String() + "/" + conditionID.String()
}

func (f *fakeClaimStore) ClaimRewardUnit(_ context.Context, params store.ClaimRewardUnitParams) (store.ClaimResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimCalls++

	key := assignmentKey(params.RecipientID, params.ConditionID)
	if existing, ok := f.assignments[key]; ok {
		existing.Claimed = false
		existing.AlreadyAssigned = true
		return existing, nil
	}

	if len(f.available) == 0 {
		return store.ClaimResult{}, store.ErrNoAvailableUnits
	}

	unit := f.available[0]
	f.available = f.available[1:]
	result := store.ClaimResult{
		Claimed:           true,
		UnitID:            unit.ID,
		Code:              unit.Code,
		DenominationCents: unit.DenominationCents,
		BrandName:         f.brandName,
	}
	f.assignments[key] = result
	return result, nil
}

func (f *fakeClaimStore) availableCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.available)
}

type fakeDeliveryStore struct {
	mu      sync.Mutex
	created []store.Delivery
	sent    map[uuid.UUID]string
	failed  map[uuid.UUID]string
}

func newFakeDeliveryStore() *fakeDeliveryStore {
	return &fakeDeliveryStore{
		sent:   make(map[uuid.UUID]string),
		failed: make(map[uuid.UUID]string),
	}
}

func (f *fakeDeliveryStore) CreateDelivery(_ context.Context, params store.CreateDeliveryParams) (store.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delivery := store.Delivery{
		ID:          uuid.New(),
		RecipientID: params.RecipientID,
		CampaignID:  params.CampaignID,
		TriggerID:   params.TriggerID,
		Channel:     params.Channel,
		Address:     params.Address,
		Message:     params.Message,
		Status:      store.DeliveryStatusPending,
	}
	f.created = append(f.created, delivery)
	return delivery, nil
}

func (f *fakeDeliveryStore) MarkDeliverySent(_ context.Context, deliveryID uuid.UUID, providerMessageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[deliveryID] = providerMessageID
	return nil
}

func (f *fakeDeliveryStore) MarkDeliveryFailed(_ context.Context, deliveryID uuid.UUID, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[deliveryID] = errorMessage
	return nil
}

func (f *fakeDeliveryStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeCRMStore struct {
	integration store.CRMIntegration
	err         error
}

func (f *fakeCRMStore) GetActiveCRMIntegrationByCampaign(_ context.Context, _ uuid.UUID) (store.CRMIntegration, error) {
	if f.err != nil {
		return store.CRMIntegration{}, f.err
	}
	return f.integration, nil
}

type fakeSMSSender struct {
	mu    sync.Mutex
	sent  []string
	err   error
}

func (f *fakeSMSSender) SendSMS(_ context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to+": "+body)
	return "SM" + uuid.New().String()[:8], nil
}

func (f *fakeSMSSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeEmailSender) SendEmail(_ context.Context, to, subject, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to+": "+subject)
	return "em_" + uuid.New().String()[:8], nil
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	triggers   *fakeTriggerStore
	claims     *fakeClaimStore
	deliveries *fakeDeliveryStore
	crm        *fakeCRMStore
	smsSender  *fakeSMSSender
	email      *fakeEmailSender
}

func newDispatcherFixture(units int) *dispatcherFixture {
	f := &dispatcherFixture{
		triggers:   newFakeTriggerStore(),
		claims:     newFakeClaimStore(units, "Acme Coffee"),
		deliveries: newFakeDeliveryStore(),
		crm:        &fakeCRMStore{err: store.ErrNotFound},
		smsSender:  &fakeSMSSender{},
		email:      &fakeEmailSender{},
	}
	f.dispatcher = New(Config{
		Triggers:       f.triggers,
		Claims:         f.claims,
		Deliveries:     f.deliveries,
		CRM:            f.crm,
		SMSSender:      f.smsSender,
		EmailSender:    f.email,
		WebhookTimeout: 2 * time.Second,
		Logger:         observability.NewLogger(),
	})
	return f
}

func testRecipient(campaignID uuid.UUID) store.Recipient {
	phone := "+15551234567"
	email := "ada@example.com"
	return store.Recipient{
		ID:         uuid.New(),
		CampaignID: campaignID,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Phone:      &phone,
		Email:      &email,
	}
}

func testCampaign() store.Campaign {
	return store.Campaign{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Name:      "Spring Mailer",
		Status:    store.CampaignStatusActive,
	}
}

var errProviderDown = errors.New("provider down")
