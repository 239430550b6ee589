package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

// claimDue pops up to ARGV[2] members scored at or before ARGV[1].
var claimDue = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
if #due > 0 then
	redis.call('ZREM', KEYS[1], unpack(due))
end
return due
`)

// Queue is a delayed job queue on a sorted set scored by fire time in unix millis.
type Queue struct {
	c   *redis.Client
	key string
}

func NewQueue(c *redis.Client, key string) *Queue { return &Queue{c: c, key: key} }

// DeadKey holds claimed members that could not be decoded.
func (q *Queue) DeadKey() string { return q.key + ":dead" }

func (q *Queue) Enqueue(ctx context.Context, job domain.Job, delay time.Duration) (string, error) {
	start := time.Now()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	b, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	if delay < 0 {
		delay = 0
	}
	at := time.Now().Add(delay).UnixMilli()
	err = q.c.ZAdd(ctx, q.key, redis.Z{Score: float64(at), Member: string(b)}).Err()
	observability.ObserveQueue("enqueue", err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", job.Type, err)
	}
	return job.ID, nil
}

// Due claims the jobs whose fire time has passed. A claimed job is removed
// from the queue; the caller re-enqueues it to retry. Members that do not
// decode are parked under DeadKey and skipped.
func (q *Queue) Due(ctx context.Context, now time.Time, max int) ([]domain.Job, error) {
	start := time.Now()
	raw, err := claimDue.Run(ctx, q.c, []string{q.key}, strconv.FormatInt(now.UnixMilli(), 10), max).StringSlice()
	observability.ObserveQueue("claim", err, time.Since(start))
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("claim due jobs: %w", err)
	}
	jobs := make([]domain.Job, 0, len(raw))
	for _, s := range raw {
		var j domain.Job
		if err := json.Unmarshal([]byte(s), &j); err != nil {
			q.bury(ctx, s, now, err)
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (q *Queue) bury(ctx context.Context, member string, now time.Time, cause error) {
	observability.ObserveQueue("decode", cause, 0)
	err := q.c.ZAdd(ctx, q.DeadKey(), redis.Z{Score: float64(now.UnixMilli()), Member: member}).Err()
	ev := log.Error().Err(cause).Str("queue", q.key).Int("bytes", len(member))
	if err != nil {
		ev = ev.AnErr("dead_letter_err", err)
	}
	ev.Msg("undecodable job moved to dead letter")
}

// Len reports how many jobs are waiting, due or not.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.c.ZCard(ctx, q.key).Result()
}
