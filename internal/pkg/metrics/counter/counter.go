package counter

import (
	"context"
	"strconv"

	"github.com/chatriver/chatriver/internal/pkg/cache"
)

// Ingest outcome counters, one Redis hash per outcome keyed by tenant id.
// All increments are best-effort: callers log errors and move on, the
// request path never fails on a counter.
const (
	receivedKey          = "ingest:counters:received"
	duplicateKey         = "ingest:counters:duplicate"
	rejectedSignatureKey = "ingest:counters:rejected_signature"
	processedKey         = "ingest:counters:processed"
	failedKey            = "ingest:counters:failed"
)

// AddReceived increments the accepted-delivery counter for a tenant
func AddReceived(tenantID uint) error {
	return incr(receivedKey, tenantID)
}

// AddDuplicate increments the deduplicated-delivery counter for a tenant
func AddDuplicate(tenantID uint) error {
	return incr(duplicateKey, tenantID)
}

// AddRejectedSignature increments the rejected-signature counter for a tenant
func AddRejectedSignature(tenantID uint) error {
	return incr(rejectedSignatureKey, tenantID)
}

// AddProcessed increments the materialized-event counter for a tenant
func AddProcessed(tenantID uint) error {
	return incr(processedKey, tenantID)
}

// AddFailed increments the failed-materialization counter for a tenant
func AddFailed(tenantID uint) error {
	return incr(failedKey, tenantID)
}

func incr(key string, tenantID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(tenantID), 10)
	return cache.GetClient().HIncrBy(ctx, key, field, 1).Err()
}

// Snapshot returns all ingest counters grouped by outcome, each a map of
// tenant id to count. Used by the ops endpoint.
func Snapshot() (map[string]map[string]int64, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	keys := map[string]string{
		"received":           receivedKey,
		"duplicate":          duplicateKey,
		"rejected_signature": rejectedSignatureKey,
		"processed":          processedKey,
		"failed":             failedKey,
	}

	result := make(map[string]map[string]int64, len(keys))
	for name, key := range keys {
		data, err := rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int64, len(data))
		for tenant, raw := range data {
			if v, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
				counts[tenant] = v
			}
		}
		result[name] = counts
	}
	return result, nil
}
