package carrito

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists carts per customer session.
type Store interface {
	Load(ctx context.Context, sesion string) (*Carrito, error)
	// Update loads the cart, applies fn and saves the result atomically with
	// respect to other updates of the same session.
	Update(ctx context.Context, sesion string, fn func(c *Carrito) error) (*Carrito, error)
	Delete(ctx context.Context, sesion string) error
}

// ── Redis ─────────────────────────────────────────────────────────────────────

const maxUpdateRetries = 5

// RedisStore keeps each cart as JSON under carrito:{sesion}. Every write
// refreshes the TTL so an active cart never expires mid-session.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(sesion string) string { return "carrito:" + sesion }

func (s *RedisStore) Load(ctx context.Context, sesion string) (*Carrito, error) {
	return load(ctx, s.rdb, redisKey(sesion))
}

func load(ctx context.Context, cmd redis.Cmdable, key string) (*Carrito, error) {
	raw, err := cmd.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("carrito: get: %w", err)
	}
	c := New()
	if err := json.Unmarshal(raw, c); err != nil {
		// A corrupt entry behaves like an empty cart
		return New(), nil
	}
	if c.Lineas == nil {
		c.Lineas = map[string]Linea{}
	}
	return c, nil
}

func (s *RedisStore) Update(ctx context.Context, sesion string, fn func(c *Carrito) error) (*Carrito, error) {
	key := redisKey(sesion)
	var result *Carrito

	txf := func(tx *redis.Tx) error {
		c, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		raw, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		if err == nil {
			result = c
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return nil, fmt.Errorf("carrito: update %s: too much contention", sesion)
}

func (s *RedisStore) Delete(ctx context.Context, sesion string) error {
	return s.rdb.Del(ctx, redisKey(sesion)).Err()
}

// ── Memory ────────────────────────────────────────────────────────────────────

// MemoryStore is a process-local Store used by tests and single-node dev runs.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[string][]byte{}}
}

func (s *MemoryStore) Load(_ context.Context, sesion string) (*Carrito, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decode(sesion), nil
}

func (s *MemoryStore) Update(_ context.Context, sesion string, fn func(c *Carrito) error) (*Carrito, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.decode(sesion)
	if err := fn(c); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	s.carts[sesion] = raw
	return c, nil
}

func (s *MemoryStore) Delete(_ context.Context, sesion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sesion)
	return nil
}

func (s *MemoryStore) decode(sesion string) *Carrito {
	c := New()
	if raw, ok := s.carts[sesion]; ok {
		_ = json.Unmarshal(raw, c)
	}
	if c.Lineas == nil {
		c.Lineas = map[string]Linea{}
	}
	return c
}
