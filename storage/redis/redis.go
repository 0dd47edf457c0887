// Package redis persists snapshots as plain string values in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/nathoo/monovoice/storage"
)

// Store reads and writes snapshots through a connection pool.
type Store struct {
	pool *redis.Pool
}

// NewPool creates a pool dialing addr. addr may be host:port or a
// redis:// URL.
func NewPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 60 * time.Second,
		Dial: func() (redis.Conn, error) {
			if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
				return redis.DialURL(addr)
			}
			return redis.Dial("tcp", addr)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// New wraps an existing pool.
func New(pool *redis.Pool) *Store {
	return &Store{pool: pool}
}

// Open dials addr once to fail fast on a bad address.
func Open(ctx context.Context, addr string) (*Store, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	pool := NewPool(addr)
	conn, err := pool.GetContext(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("dial redis: %w", err)
	}
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(pool), nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	key, err := storage.CheckKey(key)
	if err != nil {
		return nil, err
	}
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	key, err := storage.CheckKey(key)
	if err != nil {
		return err
	}
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	reply, err := redis.String(conn.Do("SET", key, data))
	if err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	if reply != "OK" {
		return fmt.Errorf("redis SET %s: unexpected reply %q", key, reply)
	}
	return nil
}

func (s *Store) Close() error {
	return s.pool.Close()
}
