package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/chatriver/chatriver/internal/pkg/ingest"
	metrics "github.com/chatriver/chatriver/internal/pkg/metrics/counter"
)

// processEventJob invokes the materializer for one logged event. A missing
// log row is treated as permanent (the row cannot appear later); everything
// else is returned so the queue retry policy applies.
func (q *Queue) processEventJob(ctx context.Context, job *Job) error {
	payload, err := EventProcessJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid event process payload: %w", err)
	}
	if payload.EventLogID == 0 {
		return fmt.Errorf("event process job %s carries no event log id", job.ID)
	}
	if q.processor == nil {
		return fmt.Errorf("no event processor configured")
	}

	if err := q.processor.ProcessEvent(ctx, payload.EventLogID); err != nil {
		if errors.Is(err, ingest.ErrEventNotFound) {
			log.Warnf("[JobQueue] Event log %d vanished, dropping job %s", payload.EventLogID, job.ID)
			return nil
		}
		if cerr := metrics.AddFailed(payload.TenantID); cerr != nil {
			log.Debugf("[JobQueue] Failed counter update error: %v", cerr)
		}
		return err
	}

	if cerr := metrics.AddProcessed(payload.TenantID); cerr != nil {
		log.Debugf("[JobQueue] Processed counter update error: %v", cerr)
	}
	return nil
}
