package bootstrap

import (
	"context"
	"fmt"

	"fulfillment-server/internal/catalogcache"
	"fulfillment-server/internal/clients/mail"
	smsClient "fulfillment-server/internal/clients/sms"
	"fulfillment-server/internal/config"
	"fulfillment-server/internal/dispatch"
	evaluationHandler "fulfillment-server/internal/evaluation/handler"
	evaluationProcessor "fulfillment-server/internal/evaluation/processor"
	"fulfillment-server/internal/observability"
	"fulfillment-server/internal/store"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Store  store.Store
	Logger *observability.Logger

	// Handlers
	EvaluationHandler evaluationHandler.Handler

	// Caches (for cleanup)
	CatalogCache *catalogcache.Cache
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	// Initialize database store
	connectionString := cfg.Database.ConnectionString()
	var err error
	deps.Store, err = store.New(connectionString, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize provider clients
	twilioClient := smsClient.NewTwilioClient(
		cfg.Services.TwilioAccountSID,
		cfg.Services.TwilioAuthToken,
		cfg.Services.TwilioFromNumber,
		logger,
	)

	mailClient, err := mail.NewResendClient(cfg.Services.ResendAPIKey, cfg.Services.DefaultEmailSender, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resend client: %w", err)
	}

	// Initialize catalog cache
	deps.CatalogCache, err = catalogcache.New(cfg.Cache.CatalogMaxEntries, cfg.Cache.CatalogTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}

	// Initialize trigger dispatcher
	dispatcher := dispatch.New(dispatch.Config{
		Triggers:       &deps.Store,
		Claims:         &deps.Store,
		Deliveries:     &deps.Store,
		CRM:            &deps.Store,
		SMSSender:      twilioClient,
		EmailSender:    mailClient,
		WebhookTimeout: cfg.Webhook.Timeout,
		Logger:         logger,
	})

	// Initialize evaluation processor and handler
	evaluationProc := evaluationProcessor.New(&deps.Store, dispatcher, deps.CatalogCache, logger)
	deps.EvaluationHandler = evaluationHandler.New(evaluationProc, logger)

	return deps, nil
}

// Cleanup closes all resources that need cleanup
func (d *Dependencies) Cleanup() {
	if d.CatalogCache != nil {
		d.CatalogCache.Close()
	}
}
