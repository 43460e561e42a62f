package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/chatriver/chatriver/app/repository"
	"github.com/chatriver/chatriver/internal/pkg/jobqueue"
	metrics "github.com/chatriver/chatriver/internal/pkg/metrics/counter"
)

// OpsController serves queue and ingest health for administrators.
type OpsController struct {
	queueRepo repository.QueueRepository
}

// NewOpsController creates an ops controller with an injected queue repository.
func NewOpsController(queueRepo repository.QueueRepository) *OpsController {
	return &OpsController{queueRepo: queueRepo}
}

func (oc *OpsController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Ops] %s: %v", message, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
}

// HandleQueueStats serves GET /api/v1/ops/queue.
func (oc *OpsController) HandleQueueStats(c *fiber.Ctx) error {
	pending, err := oc.queueRepo.GetListLength(jobqueue.JobQueueKey)
	if err != nil {
		return oc.handleError(c, "pending size lookup failed", err)
	}

	processing, err := oc.queueRepo.GetListLength(jobqueue.JobProcessingKey)
	if err != nil {
		return oc.handleError(c, "processing size lookup failed", err)
	}

	jobStats, err := oc.queueRepo.GetHashCounts(jobqueue.JobStatsKey)
	if err != nil {
		return oc.handleError(c, "job stats lookup failed", err)
	}

	counters, err := metrics.Snapshot()
	if err != nil {
		return oc.handleError(c, "ingest counter snapshot failed", err)
	}

	return c.JSON(fiber.Map{
		"queue": fiber.Map{
			"pending":    pending,
			"processing": processing,
			"stats":      jobStats,
		},
		"ingest":  counters,
		"running": jobqueue.GetManager().IsRunning(),
	})
}

// HandleReconcileSweep serves POST /api/v1/ops/queue/reconcile, a manual
// trigger for one reconciliation sweep.
func (oc *OpsController) HandleReconcileSweep(c *fiber.Ctx) error {
	if err := jobqueue.GetManager().RunReconcileSweepOnce(); err != nil {
		return oc.handleError(c, "manual reconcile sweep failed", err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

var opsController *OpsController

// InitializeOpsController wires the ops controller with the repository factory
func InitializeOpsController() {
	opsController = NewOpsController(repository.GetGlobalFactory().GetQueueRepository())
}

// GetOpsController returns the initialized ops controller
func GetOpsController() *OpsController {
	if opsController == nil {
		panic("Ops controller not initialized. Call InitializeOpsController first.")
	}
	return opsController
}
