package jobqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherEnqueuesEventJob(t *testing.T) {
	client := newTestRedis(t)
	queue := NewQueueWithClient(client, 1)
	dispatcher := NewDispatcher(queue)
	ctx := context.Background()

	dispatcher.Dispatch(55, 7)

	size, err := queue.GetQueueSize(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), size)

	job, err := queue.dequeueJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, JobTypeEventProcess, job.Type)

	payload, err := EventProcessJobPayloadFromMap(job.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint(55), payload.EventLogID)
	assert.Equal(t, uint(7), payload.TenantID)
}

func TestDispatcherSwallowsEnqueueFailure(t *testing.T) {
	client := newTestRedis(t)
	require.NoError(t, client.Close())

	queue := NewQueueWithClient(client, 1)
	dispatcher := NewDispatcher(queue)

	// Enqueue fails on the closed client; Dispatch must not panic. The log
	// row stays durable and the reconciliation sweep covers the gap.
	dispatcher.Dispatch(55, 7)
}
