package jobqueue

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/chatriver/chatriver/internal/pkg/cache"
)

// newTestRedis spins up a miniredis instance, points the shared cache client
// at it and returns a dedicated client for direct assertions.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(client)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = client.Close()
	})
	return client
}

// recordingProcessor counts ProcessEvent invocations and optionally fails.
type recordingProcessor struct {
	mu      sync.Mutex
	calls   []uint
	failErr error
}

func (p *recordingProcessor) ProcessEvent(_ context.Context, logID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, logID)
	return p.failErr
}

func (p *recordingProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
