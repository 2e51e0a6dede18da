package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/priyankaksolves/student-exam-app/internal/config"
	"github.com/redis/go-redis/v9"
)

// ExpiryQueue stores attempt deadlines in a Redis sorted set scored by
// the deadline's Unix time. Implements the attempt service's
// ExpiryScheduler.
type ExpiryQueue struct {
	rdb *redis.Client
}

// NewExpiryQueue creates a new ExpiryQueue.
func NewExpiryQueue(rdb *redis.Client) *ExpiryQueue {
	return &ExpiryQueue{rdb: rdb}
}

// Schedule records an attempt's deadline.
func (q *ExpiryQueue) Schedule(ctx context.Context, attemptID int64, deadline time.Time) error {
	return q.rdb.ZAdd(ctx, config.CacheKey.ExpiryDeadlinesKey(), redis.Z{
		Score:  float64(deadline.Unix()),
		Member: strconv.FormatInt(attemptID, 10),
	}).Err()
}

// Cancel drops an attempt's deadline after submission.
func (q *ExpiryQueue) Cancel(ctx context.Context, attemptID int64) error {
	return q.rdb.ZRem(ctx, config.CacheKey.ExpiryDeadlinesKey(), strconv.FormatInt(attemptID, 10)).Err()
}

// Due returns up to limit attempts whose deadline is at or before now.
func (q *ExpiryQueue) Due(ctx context.Context, now time.Time, limit int64) ([]int64, error) {
	members, err := q.rdb.ZRangeByScore(ctx, config.CacheKey.ExpiryDeadlinesKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			// Junk member, drop it so it cannot wedge the sweep.
			q.rdb.ZRem(ctx, config.CacheKey.ExpiryDeadlinesKey(), m)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
