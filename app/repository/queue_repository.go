package repository

import (
	"context"
	"strconv"

	"github.com/chatriver/chatriver/internal/pkg/cache"
)

// queueRepository implements the QueueRepository interface
type queueRepository struct {
	// Note: This repository doesn't use GORM since it operates on Redis/Cache
}

// NewQueueRepository creates a new queue repository instance
func NewQueueRepository() QueueRepository {
	return &queueRepository{}
}

// GetListLength returns the length of a Redis list
func (r *queueRepository) GetListLength(key string) (int64, error) {
	redisClient := cache.GetClient()
	ctx := context.Background()

	length, err := redisClient.LLen(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	return length, nil
}

// GetHashCounts returns all fields of a Redis hash parsed as counters
func (r *queueRepository) GetHashCounts(key string) (map[string]int64, error) {
	redisClient := cache.GetClient()
	ctx := context.Background()

	data, err := redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(data))
	for field, raw := range data {
		if v, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			counts[field] = v
		}
	}

	return counts, nil
}

// GetKeyCount counts keys matching a Redis pattern using SCAN
func (r *queueRepository) GetKeyCount(pattern string) (int64, error) {
	redisClient := cache.GetClient()
	ctx := context.Background()

	var count int64
	var cursor uint64
	for {
		keys, nextCursor, err := redisClient.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return 0, err
		}
		count += int64(len(keys))

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return count, nil
}
