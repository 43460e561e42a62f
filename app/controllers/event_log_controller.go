package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/chatriver/chatriver/app/models"
	"github.com/chatriver/chatriver/internal/pkg/database"
	"github.com/chatriver/chatriver/internal/pkg/ingest"
)

// EventLogController exposes the cursor-paginated ingest log for
// operational visibility. Responses carry event summaries only: no payload
// snapshot, no signature header, no secrets.
type EventLogController struct {
	service *ingest.Service
}

// NewEventLogController creates an event log controller.
func NewEventLogController(service *ingest.Service) *EventLogController {
	return &EventLogController{service: service}
}

type eventLogItem struct {
	ID              uint        `json:"id"`
	AccountID       string      `json:"account_id"`
	ObjectID        string      `json:"object_id"`
	EventType       string      `json:"event_type"`
	EventTimestamp  string      `json:"event_timestamp"`
	DedupKey        string      `json:"dedup_key"`
	Processed       bool        `json:"processed"`
	ProcessedAt     interface{} `json:"processed_at"`
	ProcessingError string      `json:"processing_error,omitempty"`
	CreatedAt       string      `json:"created_at"`
}

// HandleListEvents serves GET /api/v1/tenants/:tenantID/webhook-events.
func (ec *EventLogController) HandleListEvents(c *fiber.Ctx) error {
	tenantID, err := strconv.ParseUint(c.Params("tenantID"), 10, 32)
	if err != nil || tenantID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_tenant"})
	}

	accountID := strings.TrimSpace(c.Query("account_id"))
	if accountID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_account_id"})
	}

	var processed *bool
	if raw := c.Query("processed"); raw != "" {
		v, perr := strconv.ParseBool(raw)
		if perr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_processed_filter"})
		}
		processed = &v
	}

	limit := c.QueryInt("limit", ingest.DefaultPageSize)

	events, next, err := ec.service.ListEvents(uint(tenantID), accountID, processed, c.Query("cursor"), limit)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidCursor) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_cursor"})
		}
		log.Errorf("[EventLog] List failed for tenant %d: %v", tenantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	items := make([]eventLogItem, 0, len(events))
	for _, event := range events {
		items = append(items, toEventLogItem(event))
	}

	return c.JSON(fiber.Map{
		"items":       items,
		"next_cursor": next,
	})
}

func toEventLogItem(event models.EventLog) eventLogItem {
	return eventLogItem{
		ID:              event.ID,
		AccountID:       event.AccountID,
		ObjectID:        event.ObjectID,
		EventType:       event.EventType,
		EventTimestamp:  event.EventTimestamp.UTC().Format(time.RFC3339),
		DedupKey:        event.DedupKey,
		Processed:       event.Processed,
		ProcessedAt:     formatTimePtr(event.ProcessedAt),
		ProcessingError: event.ProcessingError,
		CreatedAt:       event.CreatedAt.UTC().Format(time.RFC3339),
	}
}

var eventLogController *EventLogController

// InitializeEventLogController wires the event log controller against the shared DB
func InitializeEventLogController() {
	eventLogController = NewEventLogController(ingest.NewServiceFromDB(database.GetDB()))
}

// GetEventLogController returns the initialized event log controller
func GetEventLogController() *EventLogController {
	if eventLogController == nil {
		panic("Event log controller not initialized. Call InitializeEventLogController first.")
	}
	return eventLogController
}
