package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatriver/chatriver/app/models"
)

func newTestService(repo *fakeRepository) *Service {
	return NewService(repo, NewNopAuditSink())
}

func seedConfig(repo *fakeRepository, active bool) models.WebhookConfig {
	return repo.addConfig(models.WebhookConfig{
		TenantID:     7,
		AccountID:    "acct-1",
		CallbackPath: "cb-path",
		AppSecret:    "top-secret",
		Active:       active,
	})
}

func TestResolveConfig(t *testing.T) {
	repo := newFakeRepository()
	cfg := seedConfig(repo, true)
	svc := newTestService(repo)

	got, err := svc.ResolveConfig("acct-1")
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, got.ID)

	_, err = svc.ResolveConfig("acct-unknown")
	assert.ErrorIs(t, err, ErrConfigNotFound)

	_, err = svc.ResolveConfig("")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestResolveConfigInactive(t *testing.T) {
	repo := newFakeRepository()
	seedConfig(repo, false)
	svc := newTestService(repo)

	_, err := svc.ResolveConfig("acct-1")
	assert.ErrorIs(t, err, ErrConfigInactive)

	_, err = svc.ResolveConfigByPath("cb-path")
	assert.ErrorIs(t, err, ErrConfigInactive)
}

func TestResolveConfigByPath(t *testing.T) {
	repo := newFakeRepository()
	cfg := seedConfig(repo, true)
	svc := newTestService(repo)

	got, err := svc.ResolveConfigByPath("cb-path")
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, got.ID)

	_, err = svc.ResolveConfigByPath("nope")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLogEventInsertsOnce(t *testing.T) {
	repo := newFakeRepository()
	cfg := seedConfig(repo, true)
	svc := newTestService(repo)

	event, created, err := svc.LogEvent(&cfg, []byte(sampleMessagePayload), "sha256=abc")
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, cfg.TenantID, event.TenantID)
	assert.Equal(t, "acct-1", event.AccountID)
	assert.Equal(t, "entry-100", event.ObjectID)
	assert.Equal(t, models.EventTypeMessage, event.EventType)
	assert.Equal(t, "msg:wamid.MSG1", event.DedupKey)
	assert.True(t, event.EventTimestamp.Equal(time.Unix(1700000000, 0)))
	assert.Equal(t, sampleMessagePayload, event.Payload)
	assert.False(t, event.Processed)

	// Redelivery of the identical payload no-ops.
	again, created, err := svc.LogEvent(&cfg, []byte(sampleMessagePayload), "sha256=abc")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, event.ID, again.ID)
	assert.Len(t, repo.events, 1)
}

func TestLogEventReceiptTimeFallback(t *testing.T) {
	repo := newFakeRepository()
	cfg := seedConfig(repo, true)
	svc := newTestService(repo)
	now := time.Unix(1800000000, 0)
	svc.now = func() time.Time { return now }

	event, created, err := svc.LogEvent(&cfg, []byte(sampleOtherPayload), "")
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, models.EventTypeOther, event.EventType)
	assert.True(t, event.EventTimestamp.Equal(now))
}

func TestLogEventMalformed(t *testing.T) {
	repo := newFakeRepository()
	cfg := seedConfig(repo, true)
	svc := newTestService(repo)

	_, _, err := svc.LogEvent(&cfg, []byte(`{broken`), "")
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Empty(t, repo.events)
}

func TestListEventsPagination(t *testing.T) {
	repo := newFakeRepository()
	cfg := seedConfig(repo, true)
	svc := newTestService(repo)

	const total = 5
	for i := 0; i < total; i++ {
		payload := fmt.Sprintf(`{"entry":[{"id":"entry-%d","changes":[{"field":"messages","value":{"metadata":{"phone_number_id":"acct-1"},"messages":[{"id":"wamid.P%d","timestamp":"%d","type":"text","text":{"body":"n"}}]}}]}]}`,
			i, i, 1700000000+i)
		_, created, err := svc.LogEvent(&cfg, []byte(payload), "")
		require.NoError(t, err)
		require.True(t, created)
	}

	seen := make(map[uint]bool)
	cursor := ""
	pages := 0
	for {
		events, next, err := svc.ListEvents(cfg.TenantID, cfg.AccountID, nil, cursor, 2)
		require.NoError(t, err)
		pages++
		for i, event := range events {
			assert.False(t, seen[event.ID], "event %d returned twice", event.ID)
			seen[event.ID] = true
			if i > 0 {
				prev := events[i-1]
				assert.False(t, event.EventTimestamp.After(prev.EventTimestamp), "page not ordered descending")
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}

	assert.Equal(t, 3, pages) // ceil(5/2)
	assert.Len(t, seen, total)
}

func TestListEventsProcessedFilter(t *testing.T) {
	repo := newFakeRepository()
	cfg := seedConfig(repo, true)
	svc := newTestService(repo)

	event, _, err := svc.LogEvent(&cfg, []byte(sampleMessagePayload), "")
	require.NoError(t, err)
	_, _, err = svc.LogEvent(&cfg, []byte(sampleStatusPayload), "")
	require.NoError(t, err)
	require.NoError(t, repo.MarkEventProcessed(event.ID))

	processed := true
	events, _, err := svc.ListEvents(cfg.TenantID, cfg.AccountID, &processed, "", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)

	processed = false
	events, _, err = svc.ListEvents(cfg.TenantID, cfg.AccountID, &processed, "", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEqual(t, event.ID, events[0].ID)
}

func TestListEventsInvalidCursor(t *testing.T) {
	repo := newFakeRepository()
	cfg := seedConfig(repo, true)
	svc := newTestService(repo)

	_, _, err := svc.ListEvents(cfg.TenantID, cfg.AccountID, nil, "%%%", 10)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}
