package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Jobs that exhaust MaxAttempts are parked in dlq:{queue}. Staff can list
// them and push them back once the cause (usually the geocoding API) is fixed.
const DLQPrefix = "dlq:"

type DLQEntry struct {
	Queue    string          `json:"queue"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Error    string          `json:"error"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}

func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	entry := DLQEntry{
		Queue:    queue,
		Type:     job.Type,
		Payload:  job.Payload,
		Error:    reason,
		Attempts: job.Attempts,
		FailedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err == nil {
		err = rdb.LPush(ctx, DLQPrefix+queue, data).Err()
	}
	ev := log.Warn()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Str("queue", queue).Str("type", job.Type).Int("attempts", job.Attempts).Str("reason", reason).
		Msg("dlq: job parked")
}

func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// ListDLQ returns up to limit entries, newest first.
func ListDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]DLQEntry, error) {
	raws, err := rdb.LRange(ctx, DLQPrefix+queue, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raws))
	for _, raw := range raws {
		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("dlq %s: %w", queue, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// RequeueDLQ moves every parked job back onto its queue with a fresh attempt
// budget, oldest first. Entries that cannot be decoded are dropped and logged.
func RequeueDLQ(ctx context.Context, rdb *redis.Client, queue string) (int, error) {
	n := 0
	for {
		raw, err := rdb.RPop(ctx, DLQPrefix+queue).Result()
		if err == redis.Nil {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			log.Error().Err(err).Str("queue", queue).Str("raw", raw).Msg("dlq: undecodable entry dropped")
			continue
		}
		if err := push(ctx, rdb, queue, Job{Type: e.Type, Payload: e.Payload}); err != nil {
			// Put it back so nothing is lost
			_ = rdb.RPush(ctx, DLQPrefix+queue, raw).Err()
			return n, err
		}
		n++
	}
}
