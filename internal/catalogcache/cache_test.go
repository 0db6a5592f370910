package catalogcache

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"fulfillment-server/internal/store"
)

func newCatalog(campaignID uuid.UUID, n int) []store.Condition {
	conditions := make([]store.Condition, 0, n)
	for i := 0; i < n; i++ {
		conditions = append(conditions, store.Condition{
			ID:            uuid.New(),
			CampaignID:    campaignID,
			SequenceOrder: i + 1,
			ConditionType: store.ConditionTypeQRScanned,
			TriggerAction: store.TriggerActionSendSMS,
		})
	}
	return conditions
}

func TestCacheHitAndMiss(t *testing.T) {
	cache, err := New(10, time.Minute)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer cache.Close()

	campaignID := uuid.New()

	if _, ok := cache.Get(campaignID); ok {
		t.Fatal("expected miss for unseen campaign")
	}

	catalog := newCatalog(campaignID, 3)
	cache.Set(campaignID, catalog)

	got, ok := cache.Get(campaignID)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if len(got) != 3 {
		t.Errorf("got %d conditions, want 3", len(got))
	}
	if got[0].CampaignID != campaignID {
		t.Errorf("got campaign %s, want %s", got[0].CampaignID, campaignID)
	}
}

func TestCacheCachesEmptyCatalog(t *testing.T) {
	cache, err := New(10, time.Minute)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer cache.Close()

	campaignID := uuid.New()
	cache.Set(campaignID, []store.Condition{})

	got, ok := cache.Get(campaignID)
	if !ok {
		t.Fatal("expected hit for cached empty catalog")
	}
	if len(got) != 0 {
		t.Errorf("got %d conditions, want 0", len(got))
	}
}

func TestCacheExpiry(t *testing.T) {
	cache, err := New(10, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer cache.Close()

	campaignID := uuid.New()
	cache.Set(campaignID, newCatalog(campaignID, 1))

	if _, ok := cache.Get(campaignID); !ok {
		t.Fatal("expected hit before TTL")
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := cache.Get(campaignID); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache, err := New(10, time.Minute)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer cache.Close()

	campaignID := uuid.New()
	cache.Set(campaignID, newCatalog(campaignID, 2))
	cache.Invalidate(campaignID)

	if _, ok := cache.Get(campaignID); ok {
		t.Fatal("expected miss after Invalidate")
	}
}
