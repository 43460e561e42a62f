package jobqueue

import (
	"github.com/gofiber/fiber/v2/log"
)

// Dispatcher hands freshly logged events to the queue. Dispatch never blocks
// the ingress response on processing and never surfaces enqueue failures:
// the log row is already durable and the reconciliation sweeper picks up
// anything that was dropped here.
type Dispatcher struct {
	queue *Queue
}

// NewDispatcher creates a dispatcher on top of a queue.
func NewDispatcher(queue *Queue) *Dispatcher {
	return &Dispatcher{queue: queue}
}

// Dispatch submits a materialization job for a logged event.
func (d *Dispatcher) Dispatch(eventLogID, tenantID uint) {
	payload := EventProcessJobPayload{
		EventLogID: eventLogID,
		TenantID:   tenantID,
	}

	if _, err := d.queue.EnqueueJob(JobTypeEventProcess, payload.ToMap()); err != nil {
		log.Errorf("[Dispatcher] Failed to enqueue event %d: %v", eventLogID, err)
	}
}
