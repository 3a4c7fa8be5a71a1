package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DailySequence hands out per-day monotonically increasing numbers via a
// Redis INCR on a date-scoped key. INCR is atomic, so two concurrent
// checkouts can never observe the same value.
type DailySequence struct {
	RDB    *redis.Client
	Prefix string
}

func New(rdb *redis.Client, prefix string) *DailySequence {
	return &DailySequence{RDB: rdb, Prefix: prefix}
}

// Next returns the sequence number for the given day, starting at 1. The
// key expires shortly after the day ends so counters reset themselves.
func (s *DailySequence) Next(ctx context.Context, day time.Time) (int64, error) {
	key := fmt.Sprintf("%s:%s", s.Prefix, day.Format("20060102"))

	n, err := s.RDB.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("counter: incr %s: %w", key, err)
	}
	if n == 1 {
		endOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).Add(25 * time.Hour)
		if err := s.RDB.ExpireAt(ctx, key, endOfDay).Err(); err != nil {
			return 0, fmt.Errorf("counter: expire %s: %w", key, err)
		}
	}
	return n, nil
}
