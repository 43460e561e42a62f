package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/chatriver/chatriver/internal/pkg/database"
	"github.com/chatriver/chatriver/internal/pkg/ingest"
	"github.com/chatriver/chatriver/internal/pkg/jobqueue"
	metrics "github.com/chatriver/chatriver/internal/pkg/metrics/counter"
)

// SignatureHeader is the header the provider signs deliveries with.
const SignatureHeader = "X-Hub-Signature-256"

// EventDispatcher submits a logged event for asynchronous materialization.
type EventDispatcher interface {
	Dispatch(eventLogID, tenantID uint)
}

// WebhookController serves the provider-facing callback endpoints: the GET
// subscription handshake and the POST delivery path. The POST path only
// verifies and logs; materialization happens on the queue after the ack.
type WebhookController struct {
	service    *ingest.Service
	dispatcher EventDispatcher
}

// NewWebhookController creates a webhook controller with explicit collaborators.
func NewWebhookController(service *ingest.Service, dispatcher EventDispatcher) *WebhookController {
	return &WebhookController{
		service:    service,
		dispatcher: dispatcher,
	}
}

// HandleVerification answers the provider's subscription handshake. Unknown
// paths, inactive configs and bad tokens all return the same 403 body so the
// endpoint cannot be used to enumerate tenants.
func (wc *WebhookController) HandleVerification(c *fiber.Ctx) error {
	cfg, err := wc.service.ResolveConfigByPath(c.Params("path"))
	if err != nil {
		if !errors.Is(err, ingest.ErrConfigNotFound) && !errors.Is(err, ingest.ErrConfigInactive) {
			log.Errorf("[Webhook] Verification config lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	if c.Query("hub.mode") != "subscribe" || !cfg.CheckVerifyToken(c.Query("hub.verify_token")) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	return c.SendString(c.Query("hub.challenge"))
}

// HandleDelivery ingests one webhook delivery. The response acknowledges the
// durable log insert only; whether materialization has run is invisible here.
func (wc *WebhookController) HandleDelivery(c *fiber.Ctx) error {
	raw := c.Body()

	notification, err := ingest.ParseNotification(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed_payload"})
	}
	accountID := notification.AccountID()
	if accountID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_account"})
	}

	cfg, err := wc.service.ResolveConfig(accountID)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrConfigNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_account"})
		case errors.Is(err, ingest.ErrConfigInactive):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account_inactive"})
		}
		log.Errorf("[Webhook] Config lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	// The delivery must arrive on the callback path provisioned for this
	// account; anything else is treated like an unknown account.
	if cfg.CallbackPath != c.Params("path") {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_account"})
	}

	signature := c.Get(SignatureHeader)
	if !ingest.VerifySignature(raw, signature, cfg.AppSecret) {
		if cerr := metrics.AddRejectedSignature(cfg.TenantID); cerr != nil {
			log.Debugf("[Webhook] Counter error: %v", cerr)
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid_signature"})
	}

	event, created, err := wc.service.LogEvent(cfg, raw, signature)
	if err != nil {
		log.Errorf("[Webhook] Failed to log event for tenant %d: %v", cfg.TenantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_persist_failed"})
	}

	if created {
		if cerr := metrics.AddReceived(cfg.TenantID); cerr != nil {
			log.Debugf("[Webhook] Counter error: %v", cerr)
		}
		// Submit-and-forget: enqueue failures are swallowed, the row is
		// durable and the reconciliation sweeper retries it.
		wc.dispatcher.Dispatch(event.ID, event.TenantID)
		return c.JSON(fiber.Map{"status": "received"})
	}

	if cerr := metrics.AddDuplicate(cfg.TenantID); cerr != nil {
		log.Debugf("[Webhook] Counter error: %v", cerr)
	}
	return c.JSON(fiber.Map{"status": "received", "duplicate": true})
}

var webhookController *WebhookController

// InitializeWebhookController wires the webhook controller against the
// shared DB and the global job queue
func InitializeWebhookController() {
	service := ingest.NewServiceFromDB(database.GetDB())
	dispatcher := jobqueue.NewDispatcher(jobqueue.GetManager().GetQueue())
	webhookController = NewWebhookController(service, dispatcher)
}

// GetWebhookController returns the initialized webhook controller
func GetWebhookController() *WebhookController {
	if webhookController == nil {
		panic("Webhook controller not initialized. Call InitializeWebhookController first.")
	}
	return webhookController
}
