// Package redis provides a CaseStore backed by Redis, for deployments
// where cases must survive process restarts or move between replicas.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/shaktimishra84/icuflow/pkg/ports"
)

// Store implements ports.CaseStore using Redis. Cases are stored as
// JSON values; a ZSET index keyed by expiry supports listing with lazy
// cleanup of expired entries.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for cases.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cases.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "icuflow:case:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(caseID string) string {
	return s.prefix + caseID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the case to Redis.
func (s *Store) Save(ctx context.Context, c *caselog.Case) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal case: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(c.ID), data, s.ttl)

	// Index score is the expiry instant; without a TTL the entry is
	// parked far in the future so lazy cleanup never touches it.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: c.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves a case from Redis.
func (s *Store) Load(ctx context.Context, caseID string) (*caselog.Case, error) {
	val, err := s.client.Get(ctx, s.key(caseID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, ports.ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var c caselog.Case
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal case: %w", err)
	}

	return &c, nil
}

// Delete removes the case and its index entry.
func (s *Store) Delete(ctx context.Context, caseID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(caseID))
	pipe.ZRem(ctx, s.indexKey(), caseID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns active case ids, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired cases: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
