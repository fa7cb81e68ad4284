// Package redis implements status.Store on Redis for high-throughput
// ephemeral status tracking. Records are stored as plain string values
// under a namespace prefix, encoded with a pluggable codec.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstatus.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/courierkit/courier"
	"github.com/courierkit/courier/status"
)

// DefaultNamespace is the key prefix applied when none is configured.
// Namespacing keeps status keys from colliding with other tenants of
// the same Redis instance.
const DefaultNamespace = "courier:status:"

// Compile-time interface check.
var _ status.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithNamespace overrides the key prefix.
func WithNamespace(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithCodec sets the record codec. Defaults to JSON.
func WithCodec(c status.Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithTTL expires records after d. Zero keeps records forever. A TTL
// bounds the lifetime of records for notifications nobody polls
// anymore.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// Store implements status.Store backed by Redis.
type Store struct {
	client goredis.Cmdable
	prefix string
	codec  status.Codec
	ttl    time.Duration
}

// New creates a Redis-backed status store. The caller owns the Redis
// client lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultNamespace,
		codec:  &status.JSONCodec{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get retrieves and decodes the record for the given key.
func (s *Store) Get(ctx context.Context, key string) (*status.Record, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("status/redis: key %q: %w", key, courier.ErrStatusNotFound)
		}
		return nil, fmt.Errorf("status/redis: get %q: %w", key, err)
	}

	rec, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("status/redis: decode %q: %w", key, err)
	}
	return rec, nil
}

// Set encodes and stores the record under the given key.
func (s *Store) Set(ctx context.Context, key string, rec *status.Record) error {
	data, err := s.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("status/redis: encode %q: %w", key, err)
	}

	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("status/redis: set %q: %w", key, err)
	}
	return nil
}
