package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fulfillment-server/internal/apierrors"
	"fulfillment-server/internal/evaluation/processor"
	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

// Evaluator runs condition evaluation for one inbound event.
type Evaluator interface {
	Evaluate(ctx context.Context, recipientID, campaignID uuid.UUID, eventType string, metadata store.JSONB) (processor.EvaluationResult, error)
}

type Handler struct {
	evaluator Evaluator
	logger    *observability.Logger
}

func New(evaluator Evaluator, logger *observability.Logger) Handler {
	return Handler{
		evaluator: evaluator,
		logger:    logger,
	}
}

// EventRequest is the inbound lifecycle-event payload from the platform's
// event sources (mail-delivery webhooks, call completion, QR redirects, form
// submissions).
type EventRequest struct {
	RecipientID uuid.UUID              `json:"recipient_id" binding:"required"`
	CampaignID  uuid.UUID              `json:"campaign_id" binding:"required"`
	EventType   string                 `json:"event_type" binding:"omitempty,oneof=mail_delivered mail_campaign_sent call_completed qr_scanned purl_visited form_submitted manual"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// EventResponse is the aggregate evaluation outcome returned to the caller.
type EventResponse struct {
	Success    bool                        `json:"success"`
	Message    string                      `json:"message"`
	Conditions []processor.ConditionResult `json:"conditions,omitempty"`
}

// HandleEvent evaluates one lifecycle event against the recipient's campaign
func (h *Handler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "recipient_id", Value: req.RecipientID.String()},
		observability.Field{Key: "campaign_id", Value: req.CampaignID.String()},
	)

	result, err := h.evaluator.Evaluate(ctx, req.RecipientID, req.CampaignID, req.EventType, store.JSONB(req.Metadata))
	if err != nil {
		h.logger.Error(ctx, "failed to evaluate event", err)
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, EventResponse{
		Success:    true,
		Message:    result.Message,
		Conditions: result.Conditions,
	})
}
