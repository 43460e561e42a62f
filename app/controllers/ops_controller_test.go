package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatriver/chatriver/app/repository"
	"github.com/chatriver/chatriver/internal/pkg/cache"
	"github.com/chatriver/chatriver/internal/pkg/jobqueue"
	metrics "github.com/chatriver/chatriver/internal/pkg/metrics/counter"
)

func newOpsTestApp() *fiber.App {
	oc := NewOpsController(repository.NewQueueRepository())

	app := fiber.New()
	app.Get("/api/v1/ops/queue", oc.HandleQueueStats)
	app.Post("/api/v1/ops/queue/reconcile", oc.HandleReconcileSweep)
	return app
}

func TestHandleQueueStats(t *testing.T) {
	setupControllerRedis(t)
	ctx := context.Background()
	client := cache.GetClient()

	require.NoError(t, client.LPush(ctx, jobqueue.JobQueueKey, "job-a", "job-b").Err())
	require.NoError(t, client.LPush(ctx, jobqueue.JobProcessingKey, "job-c").Err())
	require.NoError(t, client.HSet(ctx, jobqueue.JobStatsKey, "completed", "12").Err())
	require.NoError(t, metrics.AddReceived(7))
	require.NoError(t, metrics.AddReceived(7))
	require.NoError(t, metrics.AddDuplicate(7))

	app := newOpsTestApp()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ops/queue", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	queue, ok := body["queue"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), queue["pending"])
	assert.Equal(t, float64(1), queue["processing"])

	stats, ok := queue["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(12), stats["completed"])

	ingestCounters, ok := body["ingest"].(map[string]interface{})
	require.True(t, ok)
	received, ok := ingestCounters["received"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), received["7"])

	assert.Equal(t, false, body["running"])
}

func TestHandleQueueStatsRedisDown(t *testing.T) {
	setupControllerRedis(t)
	require.NoError(t, cache.GetClient().Close())

	app := newOpsTestApp()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ops/queue", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestHandleReconcileSweepWithoutManager(t *testing.T) {
	setupControllerRedis(t)

	// The manager was never started in this process, so the manual sweep
	// has no repository to read from and must fail cleanly.
	app := newOpsTestApp()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/ops/queue/reconcile", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	assert.Equal(t, "internal_server_error", body["error"])
}
