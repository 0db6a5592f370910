package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

// maxWebhookResponseBytes bounds how much of a webhook response is captured
// into trigger metadata.
const maxWebhookResponseBytes = 64 * 1024

// webhookEnvelope is the fixed JSON payload posted to configured endpoints.
type webhookEnvelope struct {
	Event           string          `json:"event"`
	ConditionNumber int             `json:"condition_number"`
	ConditionType   string          `json:"condition_type"`
	CampaignID      string          `json:"campaign_id"`
	CampaignName    string          `json:"campaign_name"`
	Recipient       store.Recipient `json:"recipient"`
	Timestamp       time.Time       `json:"timestamp"`
}

// webhookAction is the trigger_webhook executor. The timeout bounds the whole
// call so a slow third-party endpoint cannot stall evaluation; a timed-out
// POST is a failed trigger, not a trigger stuck in processing.
type webhookAction struct {
	client  *http.Client
	timeout time.Duration
	logger  *observability.Logger
}

func (a *webhookAction) Execute(ctx context.Context, req Request) (Outcome, error) {
	if req.Condition.WebhookURL == nil || *req.Condition.WebhookURL == "" {
		return Outcome{}, fmt.Errorf("condition %s: %w", req.Condition.ID, ErrWebhookURLNotConfigured)
	}
	return a.post(ctx, *req.Condition.WebhookURL, req)
}

// post sends the condition_met envelope to url. The response body is captured
// best-effort into the outcome metadata; a response that is not valid JSON is
// stored as text and never fails the trigger.
func (a *webhookAction) post(ctx context.Context, url string, req Request) (Outcome, error) {
	envelope := webhookEnvelope{
		Event:           "condition_met",
		ConditionNumber: req.Condition.SequenceOrder,
		ConditionType:   req.Condition.ConditionType,
		CampaignID:      req.Campaign.ID.String(),
		CampaignName:    req.Campaign.Name,
		Recipient:       req.Recipient,
		Timestamp:       time.Now().UTC(),
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to build webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	responseBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseBytes))
	if readErr != nil {
		a.logger.Error(ctx, "failed to read webhook response body", readErr)
		responseBody = nil
	}

	metadata := store.JSONB{
		"webhook_url":    url,
		"webhook_status": resp.StatusCode,
	}

	var parsed map[string]interface{}
	if len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, &parsed); err == nil {
			metadata["webhook_response"] = parsed
		} else {
			metadata["webhook_response"] = string(responseBody)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{}, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return Outcome{Metadata: metadata}, nil
}
