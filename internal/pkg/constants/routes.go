package constants

// Static route constants
const (
	WebhookVerifyRoute   = "/webhooks/platform/:path"
	WebhookDeliveryRoute = "/webhooks/platform/:path"
	APIV1Prefix          = "/api/v1"
	EventLogRoute        = "/tenants/:tenantID/webhook-events"
	OpsQueueRoute        = "/ops/queue"
	OpsReconcileRoute    = "/ops/queue/reconcile"
	HealthRoute          = "/up"
)
