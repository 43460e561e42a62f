package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewQueue tests the queue constructor
func TestNewQueue(t *testing.T) {
	client := newTestRedis(t)

	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"Valid worker count", 5, 5},
		{"Zero workers", 0, 3},
		{"Negative workers", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := NewQueueWithClient(client, tt.workers)

			assert.NotNil(t, queue)
			assert.Equal(t, tt.expectedWorkers, queue.workers)
			assert.NotNil(t, queue.workerPool)
			assert.Equal(t, tt.expectedWorkers, cap(queue.workerPool))
			assert.NotNil(t, queue.stopCh)
			assert.False(t, queue.running)
		})
	}
}

func TestConstants(t *testing.T) {
	// Test Redis key constants
	assert.Equal(t, "job:", JobKeyPrefix)
	assert.Equal(t, "job_queue", JobQueueKey)
	assert.Equal(t, "job_processing", JobProcessingKey)
	assert.Equal(t, "job_stats", JobStatsKey)

	// Test job settings constants
	assert.Equal(t, 3, DefaultMaxRetries)
	assert.Equal(t, 24*time.Hour, JobTTL)
}

func TestEnqueueAndDequeueJob(t *testing.T) {
	client := newTestRedis(t)
	queue := NewQueueWithClient(client, 1)
	ctx := context.Background()

	payload := EventProcessJobPayload{EventLogID: 11, TenantID: 7}
	job, err := queue.EnqueueJob(JobTypeEventProcess, payload.ToMap())
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, DefaultMaxRetries, job.MaxRetries)

	size, err := queue.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	dequeued, err := queue.dequeueJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, dequeued)
	assert.Equal(t, job.ID, dequeued.ID)

	// Dequeue moved the job to the processing list
	processing, err := queue.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), processing)

	got, err := EventProcessJobPayloadFromMap(dequeued.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint(11), got.EventLogID)
	assert.Equal(t, uint(7), got.TenantID)
}

func TestProcessJobSuccess(t *testing.T) {
	client := newTestRedis(t)
	queue := NewQueueWithClient(client, 1)
	processor := &recordingProcessor{}
	queue.SetProcessor(processor)
	ctx := context.Background()

	payload := EventProcessJobPayload{EventLogID: 42, TenantID: 7}
	job, err := queue.EnqueueJob(JobTypeEventProcess, payload.ToMap())
	require.NoError(t, err)

	dequeued, err := queue.dequeueJob(ctx)
	require.NoError(t, err)
	queue.processJob(ctx, dequeued)

	assert.Equal(t, 1, processor.callCount())
	assert.Equal(t, []uint{42}, processor.calls)

	// Completed jobs are removed from Redis entirely
	_, err = queue.GetJob(ctx, job.ID)
	assert.Error(t, err)

	processing, err := queue.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), processing)

	stats, err := queue.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusCompleted])
}

func TestProcessJobFailureMarksRetrying(t *testing.T) {
	client := newTestRedis(t)
	queue := NewQueueWithClient(client, 1)
	processor := &recordingProcessor{failErr: assert.AnError}
	queue.SetProcessor(processor)
	ctx := context.Background()

	payload := EventProcessJobPayload{EventLogID: 42, TenantID: 7}
	job, err := queue.EnqueueJob(JobTypeEventProcess, payload.ToMap())
	require.NoError(t, err)

	dequeued, err := queue.dequeueJob(ctx)
	require.NoError(t, err)
	queue.processJob(ctx, dequeued)

	stored, err := queue.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetrying, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.NotEmpty(t, stored.ErrorMsg)
}

func TestProcessJobUnknownType(t *testing.T) {
	client := newTestRedis(t)
	queue := NewQueueWithClient(client, 1)
	ctx := context.Background()

	job, err := queue.EnqueueJob(JobType("bogus"), map[string]interface{}{})
	require.NoError(t, err)

	dequeued, err := queue.dequeueJob(ctx)
	require.NoError(t, err)
	queue.processJob(ctx, dequeued)

	stored, err := queue.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetrying, stored.Status)
}

func TestJobRetryStateMachine(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: 2}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsFailed("boom again")
	assert.Equal(t, 2, job.RetryCount)
	assert.False(t, job.IsRetryable())

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
}
