package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const relayPrefix = "realtime:"

// RedisRelay fans publishes out to every replica through Redis pub/sub.
// Each replica runs Run, which broadcasts relayed payloads to its own hub.
type RedisRelay struct {
	rdb *redis.Client
	hub *Hub
}

func NewRedisRelay(rdb *redis.Client, hub *Hub) *RedisRelay {
	return &RedisRelay{rdb: rdb, hub: hub}
}

// Publish sends msg on realtime:{grupo}. When Redis is unreachable it falls
// back to the local hub so this replica's clients still get it.
func (r *RedisRelay) Publish(ctx context.Context, grupo string, msg Mensaje) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, relayPrefix+grupo, raw).Err(); err != nil {
		log.Warn().Err(err).Str("grupo", grupo).Msg("realtime: redis publish fallo, entrega local")
		r.hub.Broadcast(grupo, raw)
	}
	return nil
}

// Run blocks until ctx is cancelled, relaying every realtime:* message.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.rdb.PSubscribe(ctx, relayPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	log.Info().Msg("realtime: relay redis iniciado")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("realtime: relay redis detenido")
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			r.hub.Broadcast(strings.TrimPrefix(m.Channel, relayPrefix), []byte(m.Payload))
		}
	}
}
