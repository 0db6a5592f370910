package sms

import (
	"context"
	"fmt"

	"fulfillment-server/internal/observability"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioClient struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *observability.Logger
}

func NewTwilioClient(accountSID, authToken, fromNumber string, logger *observability.Logger) *TwilioClient {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioClient{
		client:     client,
		fromNumber: fromNumber,
		logger:     logger,
	}
}

// SendSMS sends a text message to an E.164 number and returns the provider
// message SID. Callers canonicalize the number with CanonicalPhone first.
func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) (string, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "sms_to", Value: to},
	)

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.fromNumber)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		c.logger.Error(ctx, "failed to send sms", err)
		return "", fmt.Errorf("failed to send sms via twilio: %w", err)
	}

	messageSID := ""
	if resp.Sid != nil {
		messageSID = *resp.Sid
	}

	c.logger.Info(ctx, "sms sent successfully")
	return messageSID, nil
}
